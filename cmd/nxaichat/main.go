package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netxms/nxaichat/internal/console"
)

var version = "dev"

func main() {
	var opts chatOptions

	rootCmd := &cobra.Command{
		Use:           "nxaichat",
		Short:         "Interactive AI assistant chat for a NetXMS server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.server, "server", "s", "", "Server address (falls back to NETXMS_SERVER)")
	flags.IntVar(&opts.port, "port", 0, "Server port (default from config)")
	flags.StringVarP(&opts.user, "user", "u", "", "Login name (falls back to NETXMS_USERNAME)")
	flags.StringVarP(&opts.password, "password", "P", "", "Password (falls back to NETXMS_PASSWORD, then prompt)")
	flags.StringVar(&opts.node, "node", "", "Attach node context by name")
	flags.StringVar(&opts.object, "object", "", "Attach object context by name or id")
	flags.Int64Var(&opts.incident, "incident", 0, "Attach incident context by id")
	flags.BoolVar(&opts.plain, "plain", false, "Plain text output, no styling")
	flags.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	flags.BoolVar(&opts.noSaveSession, "no-save-session", false, "Do not persist the session token")
	flags.BoolVar(&opts.clearSession, "clear-session", false, "Discard the saved session token before connecting")
	flags.BoolVar(&opts.debug, "debug", false, "Debug logging to the log file")

	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(logoutCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, console.ErrInterrupted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
