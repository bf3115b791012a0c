package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/config"
)

// resetCharging re-enables charging and stops forced discharge.
func resetCharging(conf *config.File) error {
	ctrl, conn, err := openController(conf.Variant())
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logrus.Errorf("failed to close SMC: %v", err)
		}
	}()

	ctrl.EnableCharging()
	logrus.WithField("variant", ctrl.Variant().String()).Info("charging re-enabled")
	return nil
}

func NewResetCommand() *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:     "reset",
		Short:   "Re-enable charging and stop forced discharge",
		GroupID: gBasic,
		Long: `Re-enable charging and stop forced discharge.

"batterytool run" does this on every exit it can observe. Use this command
after it was killed with SIGKILL or the machine lost power while charging was
disabled. You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := flags.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if err := conf.Validate(); err != nil {
				return err
			}
			return resetCharging(conf)
		},
	}

	flags.register(cmd.Flags())

	return cmd
}
