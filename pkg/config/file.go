package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/charge"
	"github.com/batterytool/batterytool/pkg/cycler"
	"github.com/batterytool/batterytool/pkg/telemetry"
	"github.com/batterytool/batterytool/pkg/utils/ptr"
)

// DefaultPath is where the daemon looks for its config file.
const DefaultPath = "/etc/batterytool.json"

var (
	defaultFileConfig = &RawFileConfig{
		TargetHealth:    ptr.To(cycler.DefaultTargetHealth),
		MaxCharge:       ptr.To(cycler.DefaultMaxCharge),
		MinCharge:       ptr.To(cycler.DefaultMinCharge),
		IntervalSeconds: ptr.To(int(cycler.DefaultInterval / time.Second)),
		Variant:         ptr.To("auto"),
		TelemetrySource: ptr.To(telemetry.SourceIOReg),
		PreventSleep:    ptr.To(false),
		// Empty means the status API is not served.
		StatusSocket: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

// NewFileFromConfig wraps c without reading configPath. A nil c starts from
// an empty config, so every getter returns its default.
func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = &RawFileConfig{}
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

type RawFileConfig struct {
	TargetHealth    *int    `json:"targetHealth,omitempty"`
	MaxCharge       *int    `json:"maxCharge,omitempty"`
	MinCharge       *int    `json:"minCharge,omitempty"`
	IntervalSeconds *int    `json:"intervalSeconds,omitempty"`
	Variant         *string `json:"variant,omitempty"`
	TelemetrySource *string `json:"telemetrySource,omitempty"`
	PreventSleep    *bool   `json:"preventSleep,omitempty"`
	StatusSocket    *string `json:"statusSocket,omitempty"`
}

func get[T any](f *File, field func(*RawFileConfig) *T) T {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return ptr.Deref(field(f.c), *field(defaultFileConfig))
}

func set[T any](f *File, field func(*RawFileConfig) **T, v T) {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	*field(f.c) = &v
}

func (f *File) TargetHealth() int {
	return get(f, func(c *RawFileConfig) *int { return c.TargetHealth })
}

func (f *File) MaxCharge() int {
	return get(f, func(c *RawFileConfig) *int { return c.MaxCharge })
}

func (f *File) MinCharge() int {
	return get(f, func(c *RawFileConfig) *int { return c.MinCharge })
}

func (f *File) Interval() time.Duration {
	seconds := get(f, func(c *RawFileConfig) *int { return c.IntervalSeconds })
	return time.Duration(seconds) * time.Second
}

func (f *File) Variant() string {
	return get(f, func(c *RawFileConfig) *string { return c.Variant })
}

func (f *File) TelemetrySource() string {
	return get(f, func(c *RawFileConfig) *string { return c.TelemetrySource })
}

func (f *File) PreventSleep() bool {
	return get(f, func(c *RawFileConfig) *bool { return c.PreventSleep })
}

func (f *File) StatusSocket() string {
	return get(f, func(c *RawFileConfig) *string { return c.StatusSocket })
}

func (f *File) SetTargetHealth(i int) {
	set(f, func(c *RawFileConfig) **int { return &c.TargetHealth }, i)
}

func (f *File) SetMaxCharge(i int) {
	set(f, func(c *RawFileConfig) **int { return &c.MaxCharge }, i)
}

func (f *File) SetMinCharge(i int) {
	set(f, func(c *RawFileConfig) **int { return &c.MinCharge }, i)
}

// SetInterval stores d truncated to whole seconds.
func (f *File) SetInterval(d time.Duration) {
	set(f, func(c *RawFileConfig) **int { return &c.IntervalSeconds }, int(d/time.Second))
}

func (f *File) SetVariant(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.Variant }, s)
}

func (f *File) SetTelemetrySource(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.TelemetrySource }, s)
}

func (f *File) SetPreventSleep(b bool) {
	set(f, func(c *RawFileConfig) **bool { return &c.PreventSleep }, b)
}

func (f *File) SetStatusSocket(s string) {
	set(f, func(c *RawFileConfig) **string { return &c.StatusSocket }, s)
}

// Thresholds returns the cycler thresholds this config describes.
func (f *File) Thresholds() cycler.Thresholds {
	return cycler.Thresholds{
		TargetHealth: f.TargetHealth(),
		MaxCharge:    f.MaxCharge(),
		MinCharge:    f.MinCharge(),
		Interval:     f.Interval(),
	}
}

func (f *File) Validate() error {
	if err := f.Thresholds().Validate(); err != nil {
		return pkgerrors.Wrapf(err, "invalid config %s", f.filepath)
	}
	if _, _, err := charge.ParseVariant(f.Variant()); err != nil {
		return pkgerrors.Wrapf(err, "invalid config %s", f.filepath)
	}
	switch s := f.TelemetrySource(); s {
	case telemetry.SourceIOReg, telemetry.SourceGeneric:
	default:
		return pkgerrors.Errorf("invalid config %s: unknown telemetry source %q", f.filepath, s)
	}
	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// A missing file means defaults.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// json.Decoder cannot tell an empty file from a broken one.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if strings.TrimSpace(string(b)) == "" {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

// Raw returns a copy of the effective config with every default filled in.
func (f *File) Raw() *RawFileConfig {
	return &RawFileConfig{
		TargetHealth:    ptr.To(f.TargetHealth()),
		MaxCharge:       ptr.To(f.MaxCharge()),
		MinCharge:       ptr.To(f.MinCharge()),
		IntervalSeconds: ptr.To(int(f.Interval() / time.Second)),
		Variant:         ptr.To(f.Variant()),
		TelemetrySource: ptr.To(f.TelemetrySource()),
		PreventSleep:    ptr.To(f.PreventSleep()),
		StatusSocket:    ptr.To(f.StatusSocket()),
	}
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"targetHealth":    f.TargetHealth(),
		"maxCharge":       f.MaxCharge(),
		"minCharge":       f.MinCharge(),
		"interval":        f.Interval().String(),
		"variant":         f.Variant(),
		"telemetrySource": f.TelemetrySource(),
		"preventSleep":    f.PreventSleep(),
		"statusSocket":    f.StatusSocket(),
	}
}
