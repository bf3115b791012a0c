package config

import (
	"time"
)

type Config interface {
	TargetHealth() int
	MaxCharge() int
	MinCharge() int
	Interval() time.Duration
	Variant() string
	TelemetrySource() string
	PreventSleep() bool
	StatusSocket() string

	SetTargetHealth(int)
	SetMaxCharge(int)
	SetMinCharge(int)
	SetInterval(time.Duration)
	SetVariant(string)
	SetTelemetrySource(string)
	SetPreventSleep(bool)
	SetStatusSocket(string)

	// Validate checks thresholds and names.
	Validate() error
	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error
}
