package telemetry

import (
	"os/exec"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"howett.net/plist"

	"github.com/batterytool/batterytool/pkg/types"
)

// ioregBattery mirrors the AppleSmartBattery registry entry. The raw
// capacities are in mAh; on Apple Silicon CurrentCapacity and MaxCapacity
// are percentages instead.
type ioregBattery struct {
	RawCurrentCapacity int  `plist:"AppleRawCurrentCapacity"`
	RawMaxCapacity     int  `plist:"AppleRawMaxCapacity"`
	CurrentCapacity    int  `plist:"CurrentCapacity"`
	MaxCapacity        int  `plist:"MaxCapacity"`
	DesignCapacity     int  `plist:"DesignCapacity"`
	CycleCount         int  `plist:"CycleCount"`
	IsCharging         bool `plist:"IsCharging"`
	ExternalConnected  bool `plist:"ExternalConnected"`
}

// IORegSource reads AppleSmartBattery from the IORegistry through ioreg.
type IORegSource struct {
	run func() ([]byte, error)
}

// NewIORegSource returns a source that shells out to ioreg.
func NewIORegSource() *IORegSource {
	return &IORegSource{
		run: func() ([]byte, error) {
			return exec.Command("/usr/sbin/ioreg", "-r", "-c", "AppleSmartBattery", "-a").Output()
		},
	}
}

// Fetch implements Source.
func (s *IORegSource) Fetch() (*types.BatteryState, error) {
	out, err := s.run()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to run ioreg")
	}
	return parseIORegOutput(out)
}

func parseIORegOutput(out []byte) (*types.BatteryState, error) {
	var entries []ioregBattery
	if _, err := plist.Unmarshal(out, &entries); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode ioreg output")
	}
	if len(entries) == 0 {
		return nil, ErrNoBattery
	}
	if len(entries) > 1 {
		logrus.Debugf("ioreg reported %d batteries, using the first one", len(entries))
	}

	b := entries[0]
	current, maxCapacity := b.RawCurrentCapacity, b.RawMaxCapacity
	if maxCapacity == 0 {
		// Intel machines report mAh in the non-raw keys.
		current, maxCapacity = b.CurrentCapacity, b.MaxCapacity
	}

	return &types.BatteryState{
		CurrentCapacity: current,
		MaxCapacity:     maxCapacity,
		DesignCapacity:  b.DesignCapacity,
		CycleCount:      b.CycleCount,
		IsCharging:      b.IsCharging,
		IsPluggedIn:     b.ExternalConnected,
	}, nil
}
