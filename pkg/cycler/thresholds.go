package cycler

import (
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Default thresholds.
const (
	DefaultTargetHealth = 79
	DefaultMaxCharge    = 95
	DefaultMinCharge    = 5
	DefaultInterval     = 60 * time.Second
)

// Thresholds configures when charging is toggled and when cycling stops.
type Thresholds struct {
	// TargetHealth stops cycling once health is at or below it.
	TargetHealth int
	// MaxCharge disables charging when the charge percentage exceeds it.
	MaxCharge int
	// MinCharge re-enables charging when the charge percentage drops below it.
	MinCharge int
	// Interval between two readings.
	Interval time.Duration
}

// DefaultThresholds returns the default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TargetHealth: DefaultTargetHealth,
		MaxCharge:    DefaultMaxCharge,
		MinCharge:    DefaultMinCharge,
		Interval:     DefaultInterval,
	}
}

// Validate checks 0 <= MinCharge < MaxCharge <= 100,
// 0 <= TargetHealth <= 100 and Interval > 0.
func (t Thresholds) Validate() error {
	if t.MinCharge < 0 || t.MaxCharge > 100 {
		return pkgerrors.Errorf("charge thresholds must be between 0 and 100, got min %d and max %d", t.MinCharge, t.MaxCharge)
	}
	if t.MinCharge >= t.MaxCharge {
		return pkgerrors.Errorf("min charge (%d) must be less than max charge (%d)", t.MinCharge, t.MaxCharge)
	}
	if t.TargetHealth < 0 || t.TargetHealth > 100 {
		return pkgerrors.Errorf("target health must be between 0 and 100, got %d", t.TargetHealth)
	}
	if t.Interval <= 0 {
		return pkgerrors.Errorf("interval must be positive, got %s", t.Interval)
	}
	return nil
}
