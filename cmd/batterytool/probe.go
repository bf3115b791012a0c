package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/batterytool/batterytool/pkg/charge"
	"github.com/batterytool/batterytool/pkg/smc"
	"github.com/batterytool/batterytool/pkg/utils/osver"
)

func NewProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "probe",
		Short:   "Show the detected charging protocol and control keys",
		GroupID: gAdvanced,
		Long: `Show the detected charging protocol and control keys.

Nothing is written. Use this to check whether --variant auto picks the right
protocol on this Mac.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn := smc.New()
			if err := conn.Open(); err != nil {
				return fmt.Errorf("failed to open SMC: %v", err)
			}
			defer conn.Close()

			variant := charge.SelectVariant(conn)

			cmd.Println(bold("Charging protocol:"))
			cmd.Printf("  Variant: %s\n", bold("%s", variant))
			if v, err := osver.Get(); err == nil {
				cmd.Printf("  macOS: %s (Tahoe or later: %s)\n", bold("%s", v), bool2Text(v.AtLeast(osver.Tahoe)))
			}
			cmd.Println()

			cmd.Println(bold("Control keys:"))
			for _, key := range smc.AllKeys {
				value, err := conn.ReadHex(key)
				if err != nil {
					cmd.Printf("  %s: %s\n", key, bool2Text(false))
					continue
				}
				cmd.Printf("  %s: %s %s\n", key, bool2Text(true), bold("0x%s", value))
			}
			return nil
		},
	}
}
