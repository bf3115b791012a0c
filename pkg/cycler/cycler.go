// Package cycler implements the charge cycling state machine.
//
// A Cycler polls the battery, disables charging (and forces discharge)
// above the max charge threshold, re-enables it below the min charge
// threshold, and stops once battery health has worn down to the target.
// Charging is always re-enabled before Run returns.
package cycler

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/telemetry"
)

// Controller toggles charging on the hardware.
type Controller interface {
	DisableCharging()
	EnableCharging()
}

// Notifier receives every event the cycler logs.
type Notifier interface {
	Publish(name string, payload any)
}

// Outcome is the terminal state of a Run.
type Outcome int

const (
	// OutcomeTargetReached means health dropped to the target.
	OutcomeTargetReached Outcome = iota
	// OutcomeInterrupted means the context was cancelled.
	OutcomeInterrupted
	// OutcomeError means an iteration failed.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTargetReached:
		return "target-reached"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeError:
		return "error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Event names.
const (
	EventBatteryReading  = "battery_reading"
	EventTargetReached   = "target_reached"
	EventChargingDisable = "charging_disabled"
	EventChargingEnable  = "charging_enabled"
	EventSleeping        = "sleeping"
	EventCleanup         = "cleanup"
	EventInterrupted     = "interrupted"
	EventUnexpectedError = "unexpected_error"
)

// Cycler runs the polling loop.
type Cycler struct {
	source      telemetry.Source
	controller  Controller
	thresholds  Thresholds
	monitorOnly bool
	logger      *logrus.Entry
	notifier    Notifier
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Cycler.
type Option func(*Cycler)

// WithLogger sets the logger events are written to.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Cycler) {
		c.logger = logger
	}
}

// WithNotifier forwards every event to n.
func WithNotifier(n Notifier) Option {
	return func(c *Cycler) {
		c.notifier = n
	}
}

// WithMonitorOnly makes the cycler log readings without ever writing to
// the controller, including on exit.
func WithMonitorOnly(monitorOnly bool) Option {
	return func(c *Cycler) {
		c.monitorOnly = monitorOnly
	}
}

// New returns a Cycler. It fails if thresholds are invalid.
func New(source telemetry.Source, controller Controller, thresholds Thresholds, opts ...Option) (*Cycler, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	c := &Cycler{
		source:     source,
		controller: controller,
		thresholds: thresholds,
		logger:     logrus.NewEntry(logrus.StandardLogger()),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Run polls until health reaches the target, ctx is cancelled, or an
// iteration fails. Whatever the exit path, including a panic, charging is
// re-enabled exactly once before Run returns. err is non-nil only when
// outcome is OutcomeError.
func (c *Cycler) Run(ctx context.Context) (outcome Outcome, err error) {
	// Local cache of the state we asked for, not what the hardware reports.
	chargingEnabled := true

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomeError
			err = pkgerrors.Errorf("panic during charge cycling: %v", r)
			c.emit(logrus.ErrorLevel, EventUnexpectedError, logrus.Fields{
				"error": err.Error(),
			})
		}
		c.cleanup()
	}()

	for {
		if ctx.Err() != nil {
			return c.interrupted(ctx), nil
		}

		state, err := c.source.Fetch()
		if err != nil {
			return c.fail(pkgerrors.Wrap(err, "failed to fetch battery state"))
		}
		if err := state.Validate(); err != nil {
			return c.fail(err)
		}

		percentage := state.Percentage()
		health := state.Health()

		c.emit(logrus.InfoLevel, EventBatteryReading, logrus.Fields{
			"percentage":      percentage,
			"health":          health,
			"currentCapacity": state.CurrentCapacity,
			"maxCapacity":     state.MaxCapacity,
			"designCapacity":  state.DesignCapacity,
			"cycleCount":      state.CycleCount,
			"isCharging":      state.IsCharging,
			"isPluggedIn":     state.IsPluggedIn,
			"chargingEnabled": chargingEnabled,
		})

		if health <= float64(c.thresholds.TargetHealth) {
			c.emit(logrus.InfoLevel, EventTargetReached, logrus.Fields{
				"targetHealth":  c.thresholds.TargetHealth,
				"currentHealth": health,
			})
			return OutcomeTargetReached, nil
		}

		// The fetch may have blocked across a cancellation.
		if ctx.Err() != nil {
			return c.interrupted(ctx), nil
		}

		if !c.monitorOnly {
			chargingEnabled = c.transition(percentage, chargingEnabled)
		}

		c.emit(logrus.DebugLevel, EventSleeping, logrus.Fields{
			"interval": c.thresholds.Interval.Seconds(),
		})
		if err := c.sleep(ctx, c.thresholds.Interval); err != nil {
			return c.interrupted(ctx), nil
		}
	}
}

// transition applies the hysteresis rule and returns the new cached state.
// Between MinCharge and MaxCharge nothing is written.
func (c *Cycler) transition(percentage float64, chargingEnabled bool) bool {
	switch {
	case percentage > float64(c.thresholds.MaxCharge) && chargingEnabled:
		c.emit(logrus.InfoLevel, EventChargingDisable, logrus.Fields{
			"percentage": percentage,
		})
		c.controller.DisableCharging()
		return false
	case percentage < float64(c.thresholds.MinCharge) && !chargingEnabled:
		c.emit(logrus.InfoLevel, EventChargingEnable, logrus.Fields{
			"percentage": percentage,
		})
		c.controller.EnableCharging()
		return true
	default:
		return chargingEnabled
	}
}

func (c *Cycler) cleanup() {
	if c.monitorOnly {
		c.emit(logrus.InfoLevel, EventCleanup, logrus.Fields{
			"action": "none (monitor only)",
		})
		return
	}

	c.emit(logrus.InfoLevel, EventCleanup, logrus.Fields{
		"action": "re-enabling charging",
	})
	c.controller.EnableCharging()
}

func (c *Cycler) interrupted(ctx context.Context) Outcome {
	reason := "cancelled"
	if cause := context.Cause(ctx); cause != nil {
		reason = cause.Error()
	}
	c.emit(logrus.InfoLevel, EventInterrupted, logrus.Fields{
		"reason": reason,
	})
	return OutcomeInterrupted
}

func (c *Cycler) fail(err error) (Outcome, error) {
	c.emit(logrus.ErrorLevel, EventUnexpectedError, logrus.Fields{
		"error": err.Error(),
	})
	return OutcomeError, err
}

func (c *Cycler) emit(level logrus.Level, event string, fields logrus.Fields) {
	c.logger.WithFields(fields).Log(level, event)
	if c.notifier != nil {
		c.notifier.Publish(event, fields)
	}
}

// sleepContext waits for d or until ctx is done. The timer runs on the
// monotonic clock, so time spent in system sleep does not count.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
