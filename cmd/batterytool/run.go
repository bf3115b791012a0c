package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/daemon"
	"github.com/batterytool/batterytool/pkg/version"
)

func NewRunCommand() *cobra.Command {
	flags := &configFlags{}
	opts := daemon.Options{}

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Cycle charging in the foreground until the target health is reached",
		GroupID: gBasic,
		Long: `Cycle charging in the foreground until the target health is reached.

Every interval the battery is read. Above --max-charge, charging is disabled
and the battery is discharged even on AC power. Below --min-charge, charging
is enabled again. Once health (max capacity / design capacity) is at or below
--target-health, batterytool re-enables charging and exits.

Interrupting with Ctrl-C or SIGTERM also re-enables charging. If batterytool
was killed with SIGKILL, run "batterytool reset". You must run this command as
root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := flags.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("batterytool starting")

			return daemon.New(conf, opts).Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	flags.register(f)
	f.BoolVar(&opts.DryRun, "dry-run", false, "print the effective thresholds and exit without touching the hardware")
	f.BoolVar(&opts.MonitorOnly, "monitor-only", false, "log readings without ever changing charging")
	f.BoolVar(&opts.Force, "force", false, "start even if the power adapter is not connected")
	f.StringVar(&logFile, "log-file", "", "also append logs to this file")

	return cmd
}
