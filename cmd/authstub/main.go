package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-auth-client/internal/authstub"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var defaultAccounts = []string{
	"admin1:secret:Admin",
	"manager1:secret:manager",
	"guest1:secret:guest",
}

func buildRootCmd() *cobra.Command {
	var (
		addr     string
		secret   string
		issuer   string
		ttl      time.Duration
		accounts []string
	)

	cmd := &cobra.Command{
		Use:          "authstub",
		Short:        "development authentication service answering POST /login",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()

			opts := []authstub.Option{
				authstub.WithSecret([]byte(secret)),
				authstub.WithIssuer(issuer),
				authstub.WithTTL(ttl),
			}
			for _, account := range accounts {
				parts := strings.SplitN(account, ":", 3)
				if len(parts) != 3 {
					return fmt.Errorf("account %q: expected username:password:role", account)
				}
				opts = append(opts, authstub.WithAccount(parts[0], parts[1], parts[2]))
				log.Info().Str("username", parts[0]).Str("role", parts[2]).Msg("account registered")
			}

			srv, err := authstub.New(opts...)
			if err != nil {
				return err
			}

			go func() {
				<-cmd.Context().Done()
				if err := srv.Shutdown(); err != nil {
					log.Error().Err(err).Msg("shutdown")
				}
			}()

			log.Info().Str("addr", addr).Msg("listening")
			return srv.Listen(addr)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":9999", "listen address")
	flags.StringVar(&secret, "secret", "authstub-dev-secret", "HS256 signing secret")
	flags.StringVar(&issuer, "issuer", "authstub", "iss claim of issued credentials")
	flags.DurationVar(&ttl, "ttl", 24*time.Hour, "credential lifetime")
	flags.StringArrayVar(&accounts, "account", defaultAccounts, "account as username:password:role (repeatable)")

	return cmd
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := buildRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		os.Exit(1)
	}
}
