package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/batterytool/batterytool/pkg/charge"
	"github.com/batterytool/batterytool/pkg/config"
	"github.com/batterytool/batterytool/pkg/cycler"
	"github.com/batterytool/batterytool/pkg/smc"
	"github.com/batterytool/batterytool/pkg/telemetry"
)

// configFlags override config file values, but only when set explicitly.
type configFlags struct {
	targetHealth    int
	maxCharge       int
	minCharge       int
	intervalSeconds int
	variant         string
	telemetry       string
	preventSleep    bool
	statusSocket    string
}

func (c *configFlags) register(f *pflag.FlagSet) {
	f.IntVar(&c.targetHealth, "target-health", cycler.DefaultTargetHealth, "stop once battery health (max / design capacity) is at or below this percentage")
	f.IntVar(&c.maxCharge, "max-charge", cycler.DefaultMaxCharge, "disable charging and force discharge above this charge percentage")
	f.IntVar(&c.minCharge, "min-charge", cycler.DefaultMinCharge, "re-enable charging below this charge percentage")
	f.IntVar(&c.intervalSeconds, "interval", int(cycler.DefaultInterval/time.Second), "seconds between battery readings")
	f.StringVar(&c.variant, "variant", "auto", "charging key protocol (auto, legacy, tahoe)")
	f.StringVar(&c.telemetry, "telemetry", telemetry.SourceIOReg, "battery telemetry source (ioreg, battery)")
	f.BoolVar(&c.preventSleep, "prevent-sleep", false, "prevent system sleep while cycling")
	f.StringVar(&c.statusSocket, "status-socket", "", "serve the read-only status API on this unix socket")
}

func (c *configFlags) apply(f *pflag.FlagSet, conf *config.File) {
	if f.Changed("target-health") {
		conf.SetTargetHealth(c.targetHealth)
	}
	if f.Changed("max-charge") {
		conf.SetMaxCharge(c.maxCharge)
	}
	if f.Changed("min-charge") {
		conf.SetMinCharge(c.minCharge)
	}
	if f.Changed("interval") {
		conf.SetInterval(time.Duration(c.intervalSeconds) * time.Second)
	}
	if f.Changed("variant") {
		conf.SetVariant(c.variant)
	}
	if f.Changed("telemetry") {
		conf.SetTelemetrySource(c.telemetry)
	}
	if f.Changed("prevent-sleep") {
		conf.SetPreventSleep(c.preventSleep)
	}
	if f.Changed("status-socket") {
		conf.SetStatusSocket(c.statusSocket)
	}
}

// loadConfig reads --config and applies explicitly set flags on top.
func (c *configFlags) loadConfig(f *pflag.FlagSet) (*config.File, error) {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return nil, err
	}
	c.apply(f, conf)
	return conf, nil
}

// openController opens the SMC and builds a controller for variant, which
// may be "auto". The caller must close the returned SMC.
func openController(variant string) (*charge.Controller, *smc.AppleSMC, error) {
	conn := smc.New()
	if err := conn.Open(); err != nil {
		return nil, nil, fmt.Errorf("failed to open SMC: %v", err)
	}

	v, err := charge.Resolve(variant, conn)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	return charge.NewController(conn, v), conn, nil
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
