package telemetry

import (
	"math"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"

	"github.com/batterytool/batterytool/pkg/types"
)

// GenericSource reads the battery through github.com/distatus/battery.
// Capacities are in mWh and the cycle count is not available.
type GenericSource struct {
	getAll func() ([]*battery.Battery, error)
}

// NewGenericSource returns a GenericSource.
func NewGenericSource() *GenericSource {
	return &GenericSource{getAll: battery.GetAll}
}

// Fetch implements Source.
func (s *GenericSource) Fetch() (*types.BatteryState, error) {
	batteries, err := s.getAll()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get battery info")
	}
	if len(batteries) == 0 {
		return nil, ErrNoBattery
	}

	// All MacBooks only have one battery.
	bat := batteries[0]

	return &types.BatteryState{
		CurrentCapacity: int(math.Round(bat.Current)),
		MaxCapacity:     int(math.Round(bat.Full)),
		DesignCapacity:  int(math.Round(bat.Design)),
		IsCharging:      bat.State == battery.Charging,
		IsPluggedIn:     bat.State != battery.Discharging,
	}, nil
}
