package charge

import (
	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/smc"
)

// Values written to the control keys, hex-encoded.
const (
	legacyEnableCharging     = "00"
	legacyDisableCharging    = "02"
	legacyEnableDischarge    = "01"
	legacyDisableDischarge   = "00"
	tahoeEnableCharging      = "00000000"
	tahoeDisableCharging     = "01000000"
	tahoeEnableDischarge     = "08"
	tahoeDisableDischarge    = "00"
	fallbackEnableDischarge  = "01"
	fallbackDisableDischarge = "00"
)

// KeyClient reads and writes SMC keys. WriteKey takes a hex-encoded value.
type KeyClient interface {
	KeyReader
	WriteKey(key, value string) error
}

// Controller turns charging on and off using the key protocol of one
// variant. Write failures are logged and otherwise ignored.
type Controller struct {
	client  KeyClient
	variant Variant
	logger  logrus.FieldLogger
}

// NewController returns a Controller for variant.
func NewController(client KeyClient, variant Variant) *Controller {
	return &Controller{
		client:  client,
		variant: variant,
		logger:  logrus.StandardLogger(),
	}
}

// WithLogger sets the logger used to report failed writes.
func (c *Controller) WithLogger(logger logrus.FieldLogger) *Controller {
	c.logger = logger
	return c
}

// Variant returns the protocol variant in use.
func (c *Controller) Variant() Variant {
	return c.variant
}

// DisableCharging blocks charging and forces discharge.
func (c *Controller) DisableCharging() {
	switch c.variant {
	case Tahoe:
		c.write(smc.ChargingKeyTE, tahoeDisableCharging)
		c.writeWithFallback(
			smc.DischargeKeyIE, tahoeEnableDischarge,
			smc.DischargeKeyJ, fallbackEnableDischarge,
		)
	default:
		c.write(smc.ChargingKeyB, legacyDisableCharging)
		c.write(smc.ChargingKeyC, legacyDisableCharging)
		c.write(smc.DischargeKeyI, legacyEnableDischarge)
	}
}

// EnableCharging allows charging and stops forced discharge. This is the
// safe state the hardware must be left in.
func (c *Controller) EnableCharging() {
	switch c.variant {
	case Tahoe:
		c.write(smc.ChargingKeyTE, tahoeEnableCharging)
		c.writeWithFallback(
			smc.DischargeKeyIE, tahoeDisableDischarge,
			smc.DischargeKeyJ, fallbackDisableDischarge,
		)
	default:
		c.write(smc.ChargingKeyB, legacyEnableCharging)
		c.write(smc.ChargingKeyC, legacyEnableCharging)
		c.write(smc.DischargeKeyI, legacyDisableDischarge)
	}
}

func (c *Controller) write(key, value string) bool {
	err := c.client.WriteKey(key, value)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"key":     key,
			"value":   value,
			"variant": c.variant,
		}).WithError(err).Warn("key_write_failed")
		return false
	}
	return true
}

// writeWithFallback writes the primary key and, only if that write
// fails, the fallback key. Machines that expose CH0J but not CHIE take the
// second path.
func (c *Controller) writeWithFallback(key, value, fallbackKey, fallbackValue string) {
	if c.write(key, value) {
		return
	}
	c.logger.WithFields(logrus.Fields{
		"key":         key,
		"fallbackKey": fallbackKey,
	}).Debug("trying fallback discharge key")
	c.write(fallbackKey, fallbackValue)
}
