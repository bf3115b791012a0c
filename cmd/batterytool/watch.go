package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/client"
)

func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Short:   "Stream loop events from the running daemon",
		GroupID: gAdvanced,
		Long: `Stream loop events from the running daemon.

The daemon must have been started with --status-socket. Press Ctrl-C to stop.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ch, err := client.NewClient(socketPath).Events(ctx)
			if err != nil {
				return err
			}

			for ev := range ch {
				cmd.Printf("%s %s %s\n", time.Now().Format(time.Kitchen), bold("%s", ev.Name), ev.Data)
			}
			return nil
		},
	}
}
