package charge

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/smc"
)

// Variant is the control-key protocol supported by the running firmware.
type Variant int

const (
	// Legacy uses CH0B/CH0C/CH0I (pre macOS 15.7).
	Legacy Variant = iota
	// Tahoe uses CHTE and CHIE, falling back to CH0J (macOS 15.7+).
	Tahoe
)

func (v Variant) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Tahoe:
		return "tahoe"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// KeyReader probes whether an SMC key can be read.
type KeyReader interface {
	ReadKey(key string) error
}

// SelectVariant picks Tahoe if the unified charging key is readable and
// Legacy otherwise. A failed read is not retried.
func SelectVariant(r KeyReader) Variant {
	err := r.ReadKey(smc.ChargingKeyTE)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"variant": Legacy,
			"probe":   smc.ChargingKeyTE,
			"reason":  err.Error(),
		}).Info("variant_selected")
		return Legacy
	}

	logrus.WithFields(logrus.Fields{
		"variant": Tahoe,
		"probe":   smc.ChargingKeyTE,
	}).Info("variant_selected")
	return Tahoe
}

// ParseVariant parses "legacy" or "tahoe". auto reports whether s asks for
// the variant to be probed instead.
func ParseVariant(s string) (v Variant, auto bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Legacy, true, nil
	case "legacy":
		return Legacy, false, nil
	case "tahoe":
		return Tahoe, false, nil
	default:
		return Legacy, false, fmt.Errorf("unknown variant %q, expected auto, legacy or tahoe", s)
	}
}

// Resolve returns the variant named by s, probing r when s is "auto".
func Resolve(s string, r KeyReader) (Variant, error) {
	v, auto, err := ParseVariant(s)
	if err != nil {
		return v, err
	}
	if auto {
		return SelectVariant(r), nil
	}
	logrus.WithField("variant", v).Info("variant_selected")
	return v, nil
}
