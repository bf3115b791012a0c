package types

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity is returned when a reading cannot produce metrics.
var ErrInvalidCapacity = errors.New("invalid battery capacity")

// BatteryState is a single battery reading. It is never modified after
// being fetched.
type BatteryState struct {
	CurrentCapacity int  `json:"currentCapacity"`
	MaxCapacity     int  `json:"maxCapacity"`
	DesignCapacity  int  `json:"designCapacity"`
	CycleCount      int  `json:"cycleCount"`
	IsCharging      bool `json:"isCharging"`
	IsPluggedIn     bool `json:"isPluggedIn"`
}

// Validate checks that Percentage and Health are defined for s.
func (s BatteryState) Validate() error {
	if s.MaxCapacity <= 0 {
		return fmt.Errorf("%w: max capacity is %d", ErrInvalidCapacity, s.MaxCapacity)
	}
	if s.DesignCapacity <= 0 {
		return fmt.Errorf("%w: design capacity is %d", ErrInvalidCapacity, s.DesignCapacity)
	}
	if s.CurrentCapacity < 0 {
		return fmt.Errorf("%w: current capacity is %d", ErrInvalidCapacity, s.CurrentCapacity)
	}
	return nil
}

// Percentage is the state of charge, CurrentCapacity / MaxCapacity * 100.
func (s BatteryState) Percentage() float64 {
	return float64(s.CurrentCapacity) / float64(s.MaxCapacity) * 100
}

// Health is MaxCapacity / DesignCapacity * 100.
func (s BatteryState) Health() float64 {
	return float64(s.MaxCapacity) / float64(s.DesignCapacity) * 100
}
