package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netxms/nxaichat/internal/config"
	"github.com/netxms/nxaichat/internal/store"
)

func logoutCmd() *cobra.Command {
	var server string
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Discard saved session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			sessions := store.New(cfg.SessionPath())

			if all {
				saved, err := sessions.All()
				if err != nil {
					return err
				}
				for key := range saved {
					if err := sessions.Delete(key); err != nil {
						return err
					}
				}
				fmt.Printf("Removed %d saved session(s).\n", len(saved))
				return nil
			}

			target := firstNonEmpty(server, os.Getenv("NETXMS_SERVER"), cfg.Server)
			if target == "" {
				return fmt.Errorf("no server specified (use --server, NETXMS_SERVER, or --all)")
			}
			key := store.NormalizeServer(target)
			if err := sessions.Delete(key); err != nil {
				return err
			}
			fmt.Printf("Removed saved session for %s.\n", key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "s", "", "Server whose session to discard")
	cmd.Flags().BoolVar(&all, "all", false, "Discard all saved sessions")
	return cmd
}
