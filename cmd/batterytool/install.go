package main

import (
	"fmt"
	"os"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/config"
	"github.com/batterytool/batterytool/pkg/utils/launchd"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	flags := &configFlags{}
	force := false

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install batterytool as a launchd daemon (system-wide)",
		GroupID: gInstallation,
		Long: `Install batterytool as a launchd daemon (system-wide).

The daemon runs "batterytool run" at boot. It exits once the target health is
reached; a failed run is restarted by launchd. Config flags given here are
saved to the config file. You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := flags.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			if err := conf.Validate(); err != nil {
				return err
			}

			args := []string{"run", "--config", configPath, "--log-format", "json"}
			if force {
				args = append(args, "--force")
			}

			err = launchd.Install(args)
			if err != nil {
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v", err)
			}

			err = conf.Save()
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to save config")
			}

			logrus.WithFields(conf.LogrusFields()).Infof("installation succeeded")

			exePath, _ := os.Executable()
			cmd.Printf("`launchd' will use the current binary (%s), so do not move it. If it is moved or deleted, run ``batterytool install'' again.\n", exePath)
			cmd.Printf("Logs are written to %s.\n", launchd.LogPath)

			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&force, "force", false, "start even if the power adapter is not connected")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	noResetCharging := false

	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall the batterytool launchd daemon (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall the batterytool launchd daemon (system-wide).

This stops the daemon, removes it from launchd and re-enables charging.

You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := launchd.Uninstall()
			if err != nil {
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			if !noResetCharging {
				conf, err := config.NewFile(configPath)
				if err != nil {
					return err
				}
				if err := resetCharging(conf); err != nil {
					return fmt.Errorf("failed to re-enable charging: %v", err)
				}
			}

			cmd.Println("successfully uninstalled")
			cmd.Printf("Your config is kept in %s. Remove it and batterytool itself manually for a complete uninstall.\n", configPath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&noResetCharging, "no-reset-charging", false, "do not re-enable charging after uninstalling")

	return cmd
}
