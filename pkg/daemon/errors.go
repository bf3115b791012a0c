package daemon

import "errors"

// ErrChargerNotConnected is returned by Run when the power adapter is
// unplugged and Force is not set.
var ErrChargerNotConnected = errors.New("charger not connected")
