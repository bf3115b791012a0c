package smc

// Charging control keys.
const (
	// ChargingKeyB and ChargingKeyC gate charging on machines using the
	// legacy protocol. Both must be written.
	ChargingKeyB = "CH0B"
	ChargingKeyC = "CH0C"
	// ChargingKeyTE replaces CH0B/CH0C on Tahoe firmware.
	ChargingKeyTE = "CHTE"
)

// Forced discharge keys. Forcing discharge drains the battery even with
// the adapter connected.
const (
	DischargeKeyI  = "CH0I"
	DischargeKeyIE = "CHIE"
	// DischargeKeyJ is present on some Tahoe machines that lack CHIE.
	DischargeKeyJ = "CH0J"
)

// AllKeys lists every control key, in the order they are shown by probe.
var AllKeys = []string{
	ChargingKeyB,
	ChargingKeyC,
	DischargeKeyI,
	ChargingKeyTE,
	DischargeKeyIE,
	DischargeKeyJ,
}
