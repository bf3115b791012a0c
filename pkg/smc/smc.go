package smc

import (
	"encoding/hex"

	"github.com/charlie0129/gosmc"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AppleSMC is a wrapper of gosmc.Connection.
type AppleSMC struct {
	conn Connection
}

// New returns a new AppleSMC backed by the IOKit SMC driver.
func New() *AppleSMC {
	return &AppleSMC{
		conn: gosmc.New(),
	}
}

// NewWithConnection returns an AppleSMC using conn, which is useful for tests.
func NewWithConnection(conn Connection) *AppleSMC {
	return &AppleSMC{
		conn: conn,
	}
}

// Open opens the connection.
func (c *AppleSMC) Open() error {
	return c.conn.Open()
}

// Close closes the connection.
func (c *AppleSMC) Close() error {
	return c.conn.Close()
}

// Read reads a value from SMC.
func (c *AppleSMC) Read(key string) (gosmc.SMCVal, error) {
	logrus.WithFields(logrus.Fields{
		"key": key,
	}).Trace("Trying to read from SMC")

	v, err := c.conn.Read(key)
	if err != nil {
		return v, err
	}

	logrus.WithFields(logrus.Fields{
		"key": key,
		"val": v,
	}).Trace("Load from SMC succeed")

	return v, nil
}

// Write writes a value to SMC.
func (c *AppleSMC) Write(key string, value []byte) error {
	logrus.WithFields(logrus.Fields{
		"key": key,
		"val": value,
	}).Trace("Trying to write to SMC")

	err := c.conn.Write(key, value)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"key": key,
		"val": value,
	}).Trace("Write to SMC succeed")

	return nil
}

// ReadKey reports whether key exists and is readable.
func (c *AppleSMC) ReadKey(key string) error {
	_, err := c.Read(key)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read key %s", key)
	}
	return nil
}

// ReadHex reads key and returns its bytes hex-encoded, e.g. "02".
func (c *AppleSMC) ReadHex(key string) (string, error) {
	v, err := c.Read(key)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to read key %s", key)
	}
	return hex.EncodeToString(v.Bytes), nil
}

// WriteKey writes a hex-encoded value such as "01000000" to key.
func (c *AppleSMC) WriteKey(key, value string) error {
	b, err := hex.DecodeString(value)
	if err != nil {
		return pkgerrors.Wrapf(err, "invalid value %q for key %s", value, key)
	}
	if len(b) == 0 {
		return pkgerrors.Errorf("empty value for key %s", key)
	}

	if err := c.Write(key, b); err != nil {
		return pkgerrors.Wrapf(err, "failed to write %s to key %s", value, key)
	}
	return nil
}
