package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/charge"
	"github.com/batterytool/batterytool/pkg/config"
	"github.com/batterytool/batterytool/pkg/cycler"
	"github.com/batterytool/batterytool/pkg/events"
	"github.com/batterytool/batterytool/pkg/powermgmt"
	"github.com/batterytool/batterytool/pkg/smc"
	"github.com/batterytool/batterytool/pkg/telemetry"
	"github.com/batterytool/batterytool/pkg/utils/osver"
)

// SMC is the key client the daemon opens for a run.
type SMC interface {
	charge.KeyClient
	Open() error
	Close() error
}

// SleepAssertion keeps the machine awake while held.
type SleepAssertion interface {
	Acquire() error
	Release() error
}

// Options are per-invocation switches that do not live in the config file.
type Options struct {
	// DryRun logs the effective thresholds and returns without touching
	// the hardware.
	DryRun bool
	// MonitorOnly runs the loop without ever writing a key.
	MonitorOnly bool
	// Force skips the power adapter check.
	Force bool
}

type Daemon struct {
	conf   *config.File
	opts   Options
	logger *logrus.Entry
	hub    *events.EventHub

	newSMC         func() SMC
	newSource      func(name string) (telemetry.Source, error)
	osVersion      func() (osver.Version, error)
	sleepAssertion SleepAssertion
}

func New(conf *config.File, opts Options) *Daemon {
	return &Daemon{
		conf:   conf,
		opts:   opts,
		logger: logrus.NewEntry(logrus.StandardLogger()),
		hub:    events.NewEventHub(),
		newSMC: func() SMC {
			return smc.New()
		},
		newSource:      telemetry.New,
		osVersion:      osver.Get,
		sleepAssertion: powermgmt.NewSleepAssertion("batterytool", "Battery cycling by batterytool is in progress"),
	}
}

// Run cycles the battery until the target health is reached, a signal
// arrives, ctx is cancelled, or the loop fails. SIGINT and SIGTERM cancel
// the loop, which then re-enables charging.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.conf.Validate(); err != nil {
		return err
	}
	thresholds := d.conf.Thresholds()
	d.logger.WithFields(d.conf.LogrusFields()).Info("config loaded")

	if d.opts.DryRun {
		d.logger.WithFields(logrus.Fields{
			"targetHealth": thresholds.TargetHealth,
			"maxCharge":    thresholds.MaxCharge,
			"minCharge":    thresholds.MinCharge,
			"interval":     thresholds.Interval.Seconds(),
			"monitorOnly":  d.opts.MonitorOnly,
		}).Info("dry_run")
		return nil
	}

	source, err := d.newSource(d.conf.TelemetrySource())
	if err != nil {
		return err
	}

	if !d.opts.Force && !d.opts.MonitorOnly {
		if err := d.checkCharger(source); err != nil {
			return err
		}
	}

	var controller cycler.Controller
	variantName := "none"
	if !d.opts.MonitorOnly {
		conn := d.newSMC()
		if err := conn.Open(); err != nil {
			return pkgerrors.Wrap(err, "failed to open SMC")
		}
		// Runs after the cycler has re-enabled charging.
		defer func() {
			d.logger.Info("closing smc connection")
			if err := conn.Close(); err != nil {
				d.logger.Errorf("failed to close smc connection: %v", err)
			}
		}()

		variant, err := charge.Resolve(d.conf.Variant(), conn)
		if err != nil {
			return err
		}
		d.checkVariant(variant)
		variantName = variant.String()
		controller = charge.NewController(conn, variant).WithLogger(d.logger)
	}

	if d.conf.PreventSleep() && !d.opts.MonitorOnly {
		if err := d.sleepAssertion.Acquire(); err != nil {
			d.logger.Warnf("failed to prevent system sleep: %v", err)
		} else {
			defer func() {
				if err := d.sleepAssertion.Release(); err != nil {
					d.logger.Errorf("failed to release system sleep assertion: %v", err)
				}
			}()
		}
	}

	status := NewStatus(thresholds, variantName, d.opts.MonitorOnly, d.hub)

	if sock := d.conf.StatusSocket(); sock != "" {
		stop, err := d.serve(sock, status)
		if err != nil {
			return err
		}
		defer stop()
	}

	c, err := cycler.New(source, controller, thresholds,
		cycler.WithLogger(d.logger),
		cycler.WithNotifier(status),
		cycler.WithMonitorOnly(d.opts.MonitorOnly),
	)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)
	go d.handleSignals(ctx, cancel, sigc)

	d.logger.Debug("cycling loop starts")
	outcome, err := c.Run(ctx)
	status.Finish(outcome, err)

	d.logger.WithField("outcome", outcome.String()).Info("cycling loop exited")
	return err
}

func (d *Daemon) handleSignals(ctx context.Context, cancel context.CancelCauseFunc, sigc <-chan os.Signal) {
	select {
	case sig := <-sigc:
		d.logger.Infof("caught signal \"%s\": shutting down.", sig)
		cancel(fmt.Errorf("caught signal %s", sig))
	case <-ctx.Done():
	}
}

func (d *Daemon) checkCharger(source telemetry.Source) error {
	state, err := source.Fetch()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to check power adapter")
	}
	if !state.IsPluggedIn {
		d.logger.WithField("hint", "use --force to start anyway").Warn("charger_not_connected")
		return ErrChargerNotConnected
	}
	return nil
}

// checkVariant warns when the selected protocol does not match the macOS
// release. The selection itself is never overridden.
func (d *Daemon) checkVariant(v charge.Variant) {
	ver, err := d.osVersion()
	if err != nil {
		d.logger.Debugf("failed to get macOS version: %v", err)
		return
	}

	tahoeOS := ver.AtLeast(osver.Tahoe)
	entry := d.logger.WithFields(logrus.Fields{
		"variant":   v.String(),
		"osVersion": ver.String(),
	})
	if (v == charge.Tahoe) != tahoeOS {
		entry.Warn("charging protocol does not match macOS version, check the variant setting if charging is not controlled")
		return
	}
	entry.Debug("charging protocol matches macOS version")
}

// Hub returns the event hub the status API streams from.
func (d *Daemon) Hub() *events.EventHub {
	return d.hub
}
