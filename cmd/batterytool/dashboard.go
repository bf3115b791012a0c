package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/client"
	"github.com/batterytool/batterytool/pkg/dashboard"
)

func NewDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Short:   "Chart charge and health from the running daemon",
		GroupID: gAdvanced,
		Long: `Chart charge and health from the running daemon in the terminal.

The daemon must have been started with --status-socket. Press q to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := client.NewClient(socketPath)
			st, err := c.GetStatus(ctx)
			if err != nil {
				return err
			}

			evs, err := c.Events(ctx)
			if err != nil {
				return err
			}

			return dashboard.Run(ctx, evs, st.TargetHealth)
		},
	}
}
