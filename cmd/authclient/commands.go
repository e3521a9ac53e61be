package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-print"
	"github.com/spf13/cobra"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (c credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

func loginCommand(opts *rootOptions) *cobra.Command {
	var creds credentials

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "log in and store the session credential",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				creds.Username = args[0]
			}
			if creds.Username == "" {
				creds.Username = prompt(in, out, "Username: ")
			}
			if creds.Password == "" {
				creds.Password = prompt(in, out, "Password: ")
			}

			if err := creds.Validate(); err != nil {
				return err
			}

			role, err := opts.session.Login(cmd.Context(), creds.Username, creds.Password)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), authclient.UserMessage(err))
				return err
			}

			fmt.Fprintf(out, "Logged in as %s (%s)\n", creds.Username, role)
			fmt.Fprintf(out, "-> %s\n", authclient.RouteDashboard)
			return nil
		},
	}

	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when empty)")

	return cmd
}

func whoamiCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "show the claims of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			claims, ok := opts.session.CurrentUser(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), print.MaybePrettyJSON(claims))
			return nil
		},
	}
}

func logoutCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "remove the session credential after confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			flow := authclient.NewLogoutFlow(opts.session,
				authclient.WithOnLoggedOut(func(context.Context) {
					fmt.Fprintf(out, "Logged out\n-> %s\n", authclient.RouteHome)
				}),
				authclient.WithLogoutFlowLogger(opts.logger),
			)

			ctx := cmd.Context()
			flow.RequestLogout(ctx)

			if !yes {
				answer := prompt(bufio.NewReader(cmd.InOrStdin()), out, "Are you sure you want to logout? [y/N] ")
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					flow.Cancel(ctx)
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			_, err := flow.Confirm(ctx)
			return err
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func canCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "can <route>",
		Short: "check whether the current session may open a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gate := authclient.NewAdminGate(opts.session)

			if err := gate.Check(cmd.Context(), args[0]); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: denied (%v)\n", args[0], err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: allowed\n", args[0])
			return nil
		},
	}
}

func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
