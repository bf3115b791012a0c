package main

import (
	"github.com/distatus/battery"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/client"
	"github.com/batterytool/batterytool/pkg/telemetry"
	"github.com/batterytool/batterytool/pkg/types"
)

func NewStatusCommand() *cobra.Command {
	flags := &configFlags{}
	fromDaemon := false

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Print battery status and the cycling configuration",
		GroupID: gBasic,
		Long: `Print battery status and the cycling configuration.

With --daemon, ask a running "batterytool run --status-socket" instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromDaemon {
				st, err := client.NewClient(socketPath).GetStatus(cmd.Context())
				if err != nil {
					return err
				}
				printDaemonStatus(cmd, st)
				return nil
			}

			conf, err := flags.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			source, err := telemetry.New(conf.TelemetrySource())
			if err != nil {
				return err
			}
			state, err := source.Fetch()
			if err != nil {
				return err
			}
			if err := state.Validate(); err != nil {
				return err
			}

			logrus.WithFields(logrus.Fields{
				"percentage":  state.Percentage(),
				"health":      state.Health(),
				"cycleCount":  state.CycleCount,
				"isCharging":  state.IsCharging,
				"isPluggedIn": state.IsPluggedIn,
			}).Debug("battery_status")

			cmd.Println(bold("Battery status:"))
			printBatteryState(cmd, state)
			if watts, ok := chargeRate(); ok {
				cmd.Printf("  Charge rate: %s\n", formatWatts(watts))
			}
			cmd.Println()

			cmd.Println(bold("Cycling configuration:"))
			cmd.Printf("  Target health: %s\n", bold("%d%%", conf.TargetHealth()))
			cmd.Printf("  Max charge: %s\n", bold("%d%%", conf.MaxCharge()))
			cmd.Printf("  Min charge: %s\n", bold("%d%%", conf.MinCharge()))
			cmd.Printf("  Interval: %s\n", bold("%s", conf.Interval()))
			cmd.Printf("  Variant: %s\n", bold("%s", conf.Variant()))
			cmd.Printf("  Prevent system sleep: %s\n", bool2Text(conf.PreventSleep()))
			cmd.Printf("  Target reached: %s\n", bool2Text(state.Health() <= float64(conf.TargetHealth())))
			return nil
		},
	}

	f := cmd.Flags()
	flags.register(f)
	f.BoolVar(&fromDaemon, "daemon", false, "query the running daemon through its status socket")

	return cmd
}

func printBatteryState(cmd *cobra.Command, state *types.BatteryState) {
	cmd.Printf("  Current charge: %s\n", bold("%.1f%%", state.Percentage()))
	cmd.Printf("  Health: %s (%d / %d mAh)\n", bold("%.1f%%", state.Health()), state.MaxCapacity, state.DesignCapacity)
	cmd.Printf("  Cycle count: %s\n", bold("%d", state.CycleCount))
	cmd.Printf("  Plugged in: %s\n", bool2Text(state.IsPluggedIn))
	cmd.Printf("  Charging: %s\n", bool2Text(state.IsCharging))
}

func printDaemonStatus(cmd *cobra.Command, st *types.DaemonStatus) {
	state := st.State
	switch st.State {
	case types.StateRunning:
		state = color.GreenString(st.State)
	case types.StateError:
		state = color.RedString(st.State)
	}

	cmd.Println(bold("Daemon status:"))
	cmd.Printf("  State: %s\n", bold("%s", state))
	cmd.Printf("  Variant: %s\n", bold("%s", st.Variant))
	cmd.Printf("  Monitor only: %s\n", bool2Text(st.MonitorOnly))
	cmd.Printf("  Thresholds: target health %d%%, charge %d%%-%d%%, every %.0fs\n", st.TargetHealth, st.MinCharge, st.MaxCharge, st.IntervalSeconds)
	cmd.Printf("  Started: %s\n", st.StartedAt.Format("2006-01-02 15:04:05"))
	if st.Error != "" {
		cmd.Printf("  Error: %s\n", color.RedString(st.Error))
	}

	if r := st.LastReading; r != nil {
		cmd.Println()
		cmd.Printf("%s (%s)\n", bold("Last reading:"), st.UpdatedAt.Format("15:04:05"))
		cmd.Printf("  Current charge: %s\n", bold("%.1f%%", r.Percentage))
		cmd.Printf("  Health: %s\n", bold("%.1f%%", r.Health))
		cmd.Printf("  Cycle count: %s\n", bold("%d", r.CycleCount))
		cmd.Printf("  Plugged in: %s\n", bool2Text(r.IsPluggedIn))
		cmd.Printf("  Charging allowed: %s\n", bool2Text(r.ChargingEnabled))
	}
}

// chargeRate returns the signed battery power in watts, positive while
// charging. It is best effort.
func chargeRate() (float64, bool) {
	batteries, err := battery.GetAll()
	if err != nil || len(batteries) == 0 {
		logrus.Debugf("failed to get charge rate: %v", err)
		return 0, false
	}

	b := batteries[0]
	watts := b.ChargeRate / 1e3
	if b.State == battery.Discharging {
		watts = -watts
	}
	return watts, true
}

func formatWatts(watts float64) string {
	switch {
	case watts > 0:
		return color.New(color.Bold, color.FgGreen).Sprintf("%+.1f W", watts)
	case watts < 0:
		return color.New(color.Bold, color.FgRed).Sprintf("%+.1f W", watts)
	default:
		return bold("%+.1f W", watts)
	}
}
