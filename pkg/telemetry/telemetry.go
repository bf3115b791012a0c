// Package telemetry reads battery state from the operating system.
package telemetry

import (
	"errors"
	"fmt"

	"github.com/batterytool/batterytool/pkg/types"
)

// ErrNoBattery is returned when the machine reports no battery.
var ErrNoBattery = errors.New("no battery found")

// Source fetches the current battery state.
type Source interface {
	Fetch() (*types.BatteryState, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (*types.BatteryState, error)

// Fetch calls f.
func (f SourceFunc) Fetch() (*types.BatteryState, error) {
	return f()
}

// Names of the available sources.
const (
	SourceIOReg   = "ioreg"
	SourceGeneric = "battery"
)

// New returns the source registered under name.
func New(name string) (Source, error) {
	switch name {
	case "", SourceIOReg:
		return NewIORegSource(), nil
	case SourceGeneric:
		return NewGenericSource(), nil
	default:
		return nil, fmt.Errorf("unknown telemetry source %q, expected %s or %s", name, SourceIOReg, SourceGeneric)
	}
}
