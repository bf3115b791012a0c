package daemon

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/batterytool/batterytool/pkg/cycler"
	"github.com/batterytool/batterytool/pkg/events"
	"github.com/batterytool/batterytool/pkg/types"
)

// Status records what the loop last reported and forwards every event to
// the hub. It is the cycler's notifier.
type Status struct {
	mu  sync.RWMutex
	st  types.DaemonStatus
	hub *events.EventHub
}

func NewStatus(th cycler.Thresholds, variant string, monitorOnly bool, hub *events.EventHub) *Status {
	now := time.Now()
	return &Status{
		st: types.DaemonStatus{
			State:           types.StateStarting,
			Variant:         variant,
			MonitorOnly:     monitorOnly,
			TargetHealth:    th.TargetHealth,
			MaxCharge:       th.MaxCharge,
			MinCharge:       th.MinCharge,
			IntervalSeconds: th.Interval.Seconds(),
			StartedAt:       now,
			UpdatedAt:       now,
		},
		hub: hub,
	}
}

func (s *Status) Publish(name string, payload any) {
	s.mu.Lock()
	s.st.LastEvent = name
	s.st.UpdatedAt = time.Now()
	if s.st.State == types.StateStarting {
		s.st.State = types.StateRunning
	}
	if name == cycler.EventBatteryReading {
		if r, err := decodeReading(payload); err == nil {
			s.st.LastReading = r
		}
	}
	s.mu.Unlock()

	s.hub.Publish(name, payload)
}

// Finish records how the loop ended.
func (s *Status) Finish(outcome cycler.Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch outcome {
	case cycler.OutcomeTargetReached:
		s.st.State = types.StateTargetReached
	case cycler.OutcomeInterrupted:
		s.st.State = types.StateInterrupted
	default:
		s.st.State = types.StateError
	}
	if err != nil {
		s.st.Error = err.Error()
	}
	s.st.UpdatedAt = time.Now()
}

// Snapshot returns a copy that is safe to hand to another goroutine.
func (s *Status) Snapshot() types.DaemonStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.st
	if st.LastReading != nil {
		r := *st.LastReading
		st.LastReading = &r
	}
	return st
}

func decodeReading(payload any) (*types.Reading, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var r types.Reading
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
