package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/batterytool/batterytool/pkg/client"
	"github.com/batterytool/batterytool/pkg/config"
	"github.com/batterytool/batterytool/pkg/cycler"
	"github.com/batterytool/batterytool/pkg/events"
	"github.com/batterytool/batterytool/pkg/telemetry"
	"github.com/batterytool/batterytool/pkg/types"
	"github.com/batterytool/batterytool/pkg/utils/osver"
	"github.com/batterytool/batterytool/pkg/utils/ptr"
)

type fakeSMC struct {
	readable map[string]bool
	openErr  error
	opened   bool
	closed   bool
	writes   []string
}

func (s *fakeSMC) Open() error {
	s.opened = true
	return s.openErr
}

func (s *fakeSMC) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSMC) ReadKey(key string) error {
	if s.readable[key] {
		return nil
	}
	return errors.New("key not found")
}

func (s *fakeSMC) WriteKey(key, value string) error {
	s.writes = append(s.writes, key+"="+value)
	return nil
}

type fakeAssertion struct {
	acquired int
	released int
}

func (a *fakeAssertion) Acquire() error {
	a.acquired++
	return nil
}

func (a *fakeAssertion) Release() error {
	a.released++
	return nil
}

type testDaemon struct {
	*Daemon
	smc       *fakeSMC
	assertion *fakeAssertion
	fetches   int
	hook      *logrustest.Hook
}

// newTestDaemon builds a daemon whose telemetry returns states in order and
// then repeats the last one.
func newTestDaemon(t *testing.T, raw *config.RawFileConfig, opts Options, states ...types.BatteryState) *testDaemon {
	t.Helper()

	logger, hook := logrustest.NewNullLogger()
	td := &testDaemon{
		Daemon:    New(config.NewFileFromConfig(raw, ""), opts),
		smc:       &fakeSMC{readable: map[string]bool{}},
		assertion: &fakeAssertion{},
		hook:      hook,
	}
	td.logger = logrus.NewEntry(logger)
	td.newSMC = func() SMC { return td.smc }
	td.newSource = func(string) (telemetry.Source, error) {
		return telemetry.SourceFunc(func() (*types.BatteryState, error) {
			i := min(td.fetches, len(states)-1)
			td.fetches++
			if i < 0 {
				return nil, errors.New("no battery")
			}
			s := states[i]
			return &s, nil
		}), nil
	}
	td.osVersion = func() (osver.Version, error) { return osver.Version{Major: 15, Minor: 6}, nil }
	td.sleepAssertion = td.assertion
	return td
}

var (
	atTarget    = types.BatteryState{CurrentCapacity: 60, MaxCapacity: 79, DesignCapacity: 100, IsPluggedIn: true}
	aboveTarget = types.BatteryState{CurrentCapacity: 60, MaxCapacity: 90, DesignCapacity: 100, IsPluggedIn: true}
	unplugged   = types.BatteryState{CurrentCapacity: 60, MaxCapacity: 90, DesignCapacity: 100}
)

var legacyEnable = []string{"CH0B=00", "CH0C=00", "CH0I=00"}

func TestDaemon_Run_TargetReached(t *testing.T) {
	td := newTestDaemon(t, nil, Options{}, atTarget)

	if err := td.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !td.smc.opened || !td.smc.closed {
		t.Errorf("smc opened = %v, closed = %v", td.smc.opened, td.smc.closed)
	}
	if !equalStrings(td.smc.writes, legacyEnable) {
		t.Errorf("writes = %v, want %v", td.smc.writes, legacyEnable)
	}
	if td.assertion.acquired != 0 {
		t.Errorf("sleep assertion acquired without preventSleep")
	}
}

func TestDaemon_Run_TahoeVariant(t *testing.T) {
	td := newTestDaemon(t, nil, Options{}, atTarget)
	td.smc.readable["CHTE"] = true

	if err := td.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"CHTE=00000000", "CHIE=00"}
	if !equalStrings(td.smc.writes, want) {
		t.Errorf("writes = %v, want %v", td.smc.writes, want)
	}

	// Tahoe keys on macOS 15 are suspicious enough to warn about.
	var warned bool
	for _, e := range td.hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["osVersion"] == "15.6.0" {
			warned = true
		}
	}
	if !warned {
		t.Error("no warning for variant/macOS mismatch")
	}
}

func TestDaemon_Run_VariantOverride(t *testing.T) {
	td := newTestDaemon(t, &config.RawFileConfig{Variant: ptr.To("tahoe")}, Options{}, atTarget)

	if err := td.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(td.smc.writes) == 0 || td.smc.writes[0] != "CHTE=00000000" {
		t.Errorf("writes = %v, want Tahoe keys", td.smc.writes)
	}
}

func TestDaemon_Run_ChargerNotConnected(t *testing.T) {
	td := newTestDaemon(t, nil, Options{}, unplugged)

	err := td.Run(context.Background())
	if !errors.Is(err, ErrChargerNotConnected) {
		t.Fatalf("Run() error = %v, want ErrChargerNotConnected", err)
	}
	if td.smc.opened {
		t.Error("smc opened although the charger is not connected")
	}
	if td.hook.LastEntry().Message != "charger_not_connected" {
		t.Errorf("last log = %q", td.hook.LastEntry().Message)
	}
}

func TestDaemon_Run_Force(t *testing.T) {
	unpluggedAtTarget := atTarget
	unpluggedAtTarget.IsPluggedIn = false
	td := newTestDaemon(t, nil, Options{Force: true}, unpluggedAtTarget)

	if err := td.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !equalStrings(td.smc.writes, legacyEnable) {
		t.Errorf("writes = %v", td.smc.writes)
	}
}

func TestDaemon_Run_DryRun(t *testing.T) {
	td := newTestDaemon(t, nil, Options{DryRun: true}, atTarget)

	if err := td.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if td.fetches != 0 || td.smc.opened {
		t.Errorf("dry run touched hardware: fetches = %d, smc opened = %v", td.fetches, td.smc.opened)
	}
	last := td.hook.LastEntry()
	if last.Message != "dry_run" || last.Data["targetHealth"] != 79 {
		t.Errorf("last log = %q %v", last.Message, last.Data)
	}
}

func TestDaemon_Run_MonitorOnly(t *testing.T) {
	td := newTestDaemon(t, &config.RawFileConfig{PreventSleep: ptr.To(true)}, Options{MonitorOnly: true}, atTarget)

	if err := td.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if td.smc.opened || len(td.smc.writes) != 0 {
		t.Errorf("monitor-only touched the SMC: writes = %v", td.smc.writes)
	}
	if td.assertion.acquired != 0 {
		t.Error("monitor-only acquired a sleep assertion")
	}
}

func TestDaemon_Run_FetchError(t *testing.T) {
	td := newTestDaemon(t, nil, Options{Force: true})

	if err := td.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if !equalStrings(td.smc.writes, legacyEnable) {
		t.Errorf("writes = %v, want only the cleanup enable", td.smc.writes)
	}
}

func TestDaemon_Run_Cancelled(t *testing.T) {
	td := newTestDaemon(t, &config.RawFileConfig{PreventSleep: ptr.To(true)}, Options{}, aboveTarget)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := td.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// Only the charger check fetched.
	if td.fetches != 1 {
		t.Errorf("fetches = %d, want 1", td.fetches)
	}
	if !equalStrings(td.smc.writes, legacyEnable) {
		t.Errorf("writes = %v", td.smc.writes)
	}
	if td.assertion.acquired != 1 || td.assertion.released != 1 {
		t.Errorf("assertion acquired = %d, released = %d", td.assertion.acquired, td.assertion.released)
	}
}

func TestDaemon_Run_InvalidConfig(t *testing.T) {
	td := newTestDaemon(t, &config.RawFileConfig{MinCharge: ptr.To(99)}, Options{}, atTarget)

	if err := td.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if td.fetches != 0 || td.smc.opened {
		t.Error("invalid config touched hardware")
	}
}

func TestDaemon_StatusAPI(t *testing.T) {
	dir, err := os.MkdirTemp("", "bt")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	sock := filepath.Join(dir, "d.sock")

	td := newTestDaemon(t, nil, Options{}, aboveTarget)
	status := NewStatus(td.conf.Thresholds(), "legacy", false, td.hub)
	stop, err := td.serve(sock, status)
	if err != nil {
		t.Fatalf("serve() error = %v", err)
	}
	defer stop()

	c := client.NewClient(sock)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := c.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if st.State != types.StateStarting || st.Variant != "legacy" || st.MaxCharge != 95 {
		t.Errorf("GetStatus() = %+v", st)
	}

	conf, err := c.GetConfig(ctx)
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if conf.IntervalSeconds == nil || *conf.IntervalSeconds != 60 {
		t.Errorf("GetConfig() = %+v", conf)
	}

	if _, err := c.GetVersion(ctx); err != nil {
		t.Errorf("GetVersion() error = %v", err)
	}

	ch, err := c.Events(ctx)
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	for td.hub.Subscribers() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	status.Publish("battery_reading", map[string]any{"percentage": 75.0, "health": 90.0, "chargingEnabled": true})

	ev := <-ch
	reading, err := events.DecodeAs[types.Reading](ev)
	if ev.Name != "battery_reading" || err != nil || reading.Percentage != 75 {
		t.Errorf("event = %s %s, decoded %+v, %v", ev.Name, ev.Data, reading, err)
	}

	st, err = c.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if st.State != types.StateRunning || st.LastReading == nil || st.LastReading.Health != 90 {
		t.Errorf("GetStatus() after reading = %+v", st)
	}
}

func TestStatus_Finish(t *testing.T) {
	tests := []struct {
		name      string
		outcome   cycler.Outcome
		err       error
		wantState string
	}{
		{name: "target", outcome: cycler.OutcomeTargetReached, wantState: types.StateTargetReached},
		{name: "interrupted", outcome: cycler.OutcomeInterrupted, wantState: types.StateInterrupted},
		{name: "error", outcome: cycler.OutcomeError, err: errors.New("ioreg failed"), wantState: types.StateError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			td := newTestDaemon(t, nil, Options{})
			s := NewStatus(td.conf.Thresholds(), "tahoe", false, events.NewEventHub())
			s.Finish(tt.outcome, tt.err)
			st := s.Snapshot()
			if st.State != tt.wantState {
				t.Errorf("State = %s, want %s", st.State, tt.wantState)
			}
			if tt.err != nil && st.Error != tt.err.Error() {
				t.Errorf("Error = %q", st.Error)
			}
		})
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
