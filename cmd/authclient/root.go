package main

import (
	"fmt"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/activitymap"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	endpoint   string
	driver     string
	storePath  string
	debug      bool

	session *authclient.Session
	logger  authclient.Logger
}

func buildRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "authclient",
		Short:        "log in to the parking administration service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.session == nil {
				return nil
			}
			return opts.session.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "config file (yaml, json or toml)")
	flags.StringVar(&opts.endpoint, "endpoint", "", "authentication service URL (default: from config)")
	flags.StringVar(&opts.driver, "store", "", "session store driver: file, sqlite or memory (default: from config)")
	flags.StringVar(&opts.storePath, "store-path", "", "session store location (default: from config)")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		loginCommand(opts),
		whoamiCommand(opts),
		logoutCommand(opts),
		canCommand(opts),
	)

	return cmd
}

func (o *rootOptions) open(cmd *cobra.Command) error {
	cfg, err := authclient.LoadConfig(o.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = o.endpoint
	}
	if flags.Changed("store") {
		cfg.Store.Driver = o.driver
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = o.storePath
	}

	logger := newLogger(cmd.ErrOrStderr(), o.debug)

	session, err := authclient.Open(cmd.Context(), cfg,
		authclient.WithOpenLogger(logger),
		authclient.WithManagerOptions(authclient.WithActivitySink(
			activitymap.Sink(func(r activitymap.Record) error {
				logger.log.Debug().
					Str("actor", r.Actor).
					Str("verb", r.Verb).
					Fields(r.Metadata).
					Time("occurred_at", r.OccurredAt).
					Msg("activity")
				return nil
			}),
		)),
	)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	o.session = session
	o.logger = logger
	return nil
}
