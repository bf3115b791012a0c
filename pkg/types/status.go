package types

import "time"

// Daemon run states reported by the status API.
const (
	StateStarting      = "starting"
	StateRunning       = "running"
	StateTargetReached = "target-reached"
	StateInterrupted   = "interrupted"
	StateError         = "error"
)

// Reading is the last battery_reading the loop emitted.
type Reading struct {
	Percentage      float64 `json:"percentage"`
	Health          float64 `json:"health"`
	CurrentCapacity int     `json:"currentCapacity"`
	MaxCapacity     int     `json:"maxCapacity"`
	DesignCapacity  int     `json:"designCapacity"`
	CycleCount      int     `json:"cycleCount"`
	IsCharging      bool    `json:"isCharging"`
	IsPluggedIn     bool    `json:"isPluggedIn"`
	ChargingEnabled bool    `json:"chargingEnabled"`
}

// DaemonStatus is served by GET /status.
type DaemonStatus struct {
	State           string    `json:"state"`
	Variant         string    `json:"variant"`
	MonitorOnly     bool      `json:"monitorOnly"`
	TargetHealth    int       `json:"targetHealth"`
	MaxCharge       int       `json:"maxCharge"`
	MinCharge       int       `json:"minCharge"`
	IntervalSeconds float64   `json:"intervalSeconds"`
	LastEvent       string    `json:"lastEvent,omitempty"`
	LastReading     *Reading  `json:"lastReading,omitempty"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
