package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/magtag-badge/badge/pkg/co2"
	"github.com/magtag-badge/badge/pkg/qr"
	"github.com/magtag-badge/badge/pkg/utils/ptr"
)

// Defaults returns a fully populated raw config. Timing defaults depend on
// the build profile.
func Defaults() *RawFileConfig {
	return &RawFileConfig{
		Debug:                    ptr.To(DefaultVerbosity),
		SimulateHardware:         ptr.To(false),
		BatteryCapacityMah:       ptr.To(500),
		SiteAltitudeMeters:       ptr.To(236),
		TemperatureOffsetCelsius: ptr.To(4.0),
		NameFirst:                ptr.To(""),
		NameLast:                 ptr.To(""),
		Email:                    ptr.To(""),
		QR: &RawQRConfig{
			URL:     ptr.To(""),
			Version: ptr.To(3),
			ECC:     ptr.To(qr.Low.String()),
			Scale:   ptr.To(3),
		},
		SampleInterval:        ptr.To(Duration(DefaultSampleInterval)),
		ReadsPerSample:        ptr.To(DefaultReadsPerSample),
		SampleSize:            ptr.To(DefaultSampleSize),
		ScreenSwapInterval:    ptr.To(Duration(60 * time.Second)),
		ButtonDebounce:        ptr.To(Duration(100 * time.Millisecond)),
		HardwareErrorInterval: ptr.To(Duration(10 * time.Second)),
		WakeButtons:           []string{"A", "B"},
		CO2Revision:           ptr.To(co2.RevisionFiveLevel),
		NeoPixelCount:         ptr.To(4),
		NeoPixelBrightness:    ptr.To(5),
		Publish: &RawPublishConfig{
			Broker:      ptr.To(""),
			Username:    ptr.To(""),
			Password:    ptr.To(""),
			TopicPrefix: ptr.To("badge"),
			Schedule:    ptr.To("@every 5m"),
		},
	}
}

var defaultFileConfig = Defaults()

var _ Config = &File{}

// File is a Config backed by a JSON or YAML file. The format follows the
// file extension; anything other than .yaml/.yml is JSON.
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

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = Defaults()
	}

	return &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}
}

// RawFileConfig is the on-disk form. Every field is optional; unset fields
// fall back to Defaults.
type RawFileConfig struct {
	Debug                    *Verbosity        `json:"debug,omitempty" yaml:"debug,omitempty"`
	SimulateHardware         *bool             `json:"simulateHardware,omitempty" yaml:"simulateHardware,omitempty"`
	BatteryCapacityMah       *int              `json:"batteryCapacityMah,omitempty" yaml:"batteryCapacityMah,omitempty"`
	SiteAltitudeMeters       *int              `json:"siteAltitudeMeters,omitempty" yaml:"siteAltitudeMeters,omitempty"`
	TemperatureOffsetCelsius *float64          `json:"temperatureOffsetCelsius,omitempty" yaml:"temperatureOffsetCelsius,omitempty"`
	NameFirst                *string           `json:"nameFirst,omitempty" yaml:"nameFirst,omitempty"`
	NameLast                 *string           `json:"nameLast,omitempty" yaml:"nameLast,omitempty"`
	Email                    *string           `json:"email,omitempty" yaml:"email,omitempty"`
	QR                       *RawQRConfig      `json:"qr,omitempty" yaml:"qr,omitempty"`
	SampleInterval           *Duration         `json:"sampleInterval,omitempty" yaml:"sampleInterval,omitempty"`
	ReadsPerSample           *int              `json:"readsPerSample,omitempty" yaml:"readsPerSample,omitempty"`
	SampleSize               *int              `json:"sampleSize,omitempty" yaml:"sampleSize,omitempty"`
	ScreenSwapInterval       *Duration         `json:"screenSwapInterval,omitempty" yaml:"screenSwapInterval,omitempty"`
	ButtonDebounce           *Duration         `json:"buttonDebounce,omitempty" yaml:"buttonDebounce,omitempty"`
	HardwareErrorInterval    *Duration         `json:"hardwareErrorInterval,omitempty" yaml:"hardwareErrorInterval,omitempty"`
	WakeButtons              []string          `json:"wakeButtons,omitempty" yaml:"wakeButtons,omitempty"`
	CO2Revision              *string           `json:"co2Revision,omitempty" yaml:"co2Revision,omitempty"`
	NeoPixelCount            *int              `json:"neoPixelCount,omitempty" yaml:"neoPixelCount,omitempty"`
	NeoPixelBrightness       *int              `json:"neoPixelBrightness,omitempty" yaml:"neoPixelBrightness,omitempty"`
	Publish                  *RawPublishConfig `json:"publish,omitempty" yaml:"publish,omitempty"`
}

type RawPublishConfig struct {
	Broker      *string `json:"broker,omitempty" yaml:"broker,omitempty"`
	Username    *string `json:"username,omitempty" yaml:"username,omitempty"`
	Password    *string `json:"password,omitempty" yaml:"password,omitempty"`
	TopicPrefix *string `json:"topicPrefix,omitempty" yaml:"topicPrefix,omitempty"`
	Schedule    *string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

type RawQRConfig struct {
	URL     *string `json:"url,omitempty" yaml:"url,omitempty"`
	Version *int    `json:"version,omitempty" yaml:"version,omitempty"`
	ECC     *string `json:"ecc,omitempty" yaml:"ecc,omitempty"`
	Scale   *int    `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// NewRawFileConfigFromConfig returns a raw config with every field resolved.
func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	q := c.QR()
	p := c.Publish()
	return &RawFileConfig{
		Debug:                    ptr.To(c.Verbosity()),
		SimulateHardware:         ptr.To(c.SimulateHardware()),
		BatteryCapacityMah:       ptr.To(c.BatteryCapacityMah()),
		SiteAltitudeMeters:       ptr.To(c.SiteAltitudeMeters()),
		TemperatureOffsetCelsius: ptr.To(c.TemperatureOffsetCelsius()),
		NameFirst:                ptr.To(c.NameFirst()),
		NameLast:                 ptr.To(c.NameLast()),
		Email:                    ptr.To(c.Email()),
		QR: &RawQRConfig{
			URL:     ptr.To(q.URL),
			Version: ptr.To(q.Version),
			ECC:     ptr.To(q.ECC),
			Scale:   ptr.To(q.Scale),
		},
		SampleInterval:        ptr.To(Duration(c.SampleInterval())),
		ReadsPerSample:        ptr.To(c.ReadsPerSample()),
		SampleSize:            ptr.To(c.SampleSize()),
		ScreenSwapInterval:    ptr.To(Duration(c.ScreenSwapInterval())),
		ButtonDebounce:        ptr.To(Duration(c.ButtonDebounce())),
		HardwareErrorInterval: ptr.To(Duration(c.HardwareErrorInterval())),
		WakeButtons:           c.WakeButtons(),
		CO2Revision:           ptr.To(c.CO2Revision()),
		NeoPixelCount:         ptr.To(c.NeoPixelCount()),
		NeoPixelBrightness:    ptr.To(c.NeoPixelBrightness()),
		// The password is never handed out.
		Publish: &RawPublishConfig{
			Broker:      ptr.To(p.Broker),
			Username:    ptr.To(p.Username),
			TopicPrefix: ptr.To(p.TopicPrefix),
			Schedule:    ptr.To(p.Schedule),
		},
	}, nil
}

// value returns the field picked from the loaded config, or its default.
func value[T any](f *File, pick func(*RawFileConfig) *T) T {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		panic("config is nil")
	}

	if v := pick(f.c); v != nil {
		return *v
	}
	return *pick(defaultFileConfig)
}

func publishValue[T any](f *File, pick func(*RawPublishConfig) *T) T {
	return value(f, func(c *RawFileConfig) *T {
		if c.Publish == nil {
			return nil
		}
		return pick(c.Publish)
	})
}

func qrValue[T any](f *File, pick func(*RawQRConfig) *T) T {
	return value(f, func(c *RawFileConfig) *T {
		if c.QR == nil {
			return nil
		}
		return pick(c.QR)
	})
}

func (f *File) Verbosity() Verbosity {
	return value(f, func(c *RawFileConfig) *Verbosity { return c.Debug })
}

func (f *File) SimulateHardware() bool {
	return value(f, func(c *RawFileConfig) *bool { return c.SimulateHardware })
}

func (f *File) BatteryCapacityMah() int {
	return value(f, func(c *RawFileConfig) *int { return c.BatteryCapacityMah })
}

func (f *File) SiteAltitudeMeters() int {
	return value(f, func(c *RawFileConfig) *int { return c.SiteAltitudeMeters })
}

func (f *File) TemperatureOffsetCelsius() float64 {
	return value(f, func(c *RawFileConfig) *float64 { return c.TemperatureOffsetCelsius })
}

func (f *File) NameFirst() string {
	return value(f, func(c *RawFileConfig) *string { return c.NameFirst })
}

func (f *File) NameLast() string {
	return value(f, func(c *RawFileConfig) *string { return c.NameLast })
}

func (f *File) Email() string {
	return value(f, func(c *RawFileConfig) *string { return c.Email })
}

func (f *File) QR() QRConfig {
	return QRConfig{
		URL:     qrValue(f, func(q *RawQRConfig) *string { return q.URL }),
		Version: qrValue(f, func(q *RawQRConfig) *int { return q.Version }),
		ECC:     qrValue(f, func(q *RawQRConfig) *string { return q.ECC }),
		Scale:   qrValue(f, func(q *RawQRConfig) *int { return q.Scale }),
	}
}

func (f *File) SampleInterval() time.Duration {
	return time.Duration(value(f, func(c *RawFileConfig) *Duration { return c.SampleInterval }))
}

func (f *File) ReadsPerSample() int {
	return value(f, func(c *RawFileConfig) *int { return c.ReadsPerSample })
}

func (f *File) SampleSize() int {
	return value(f, func(c *RawFileConfig) *int { return c.SampleSize })
}

func (f *File) ScreenSwapInterval() time.Duration {
	return time.Duration(value(f, func(c *RawFileConfig) *Duration { return c.ScreenSwapInterval }))
}

func (f *File) ButtonDebounce() time.Duration {
	return time.Duration(value(f, func(c *RawFileConfig) *Duration { return c.ButtonDebounce }))
}

func (f *File) HardwareErrorInterval() time.Duration {
	return time.Duration(value(f, func(c *RawFileConfig) *Duration { return c.HardwareErrorInterval }))
}

func (f *File) WakeButtons() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		panic("config is nil")
	}

	src := f.c.WakeButtons
	if len(src) == 0 {
		src = defaultFileConfig.WakeButtons
	}

	// Callers must not be able to modify the loaded config.
	ret := make([]string, len(src))
	copy(ret, src)
	return ret
}

func (f *File) CO2Revision() string {
	return value(f, func(c *RawFileConfig) *string { return c.CO2Revision })
}

func (f *File) NeoPixelCount() int {
	return value(f, func(c *RawFileConfig) *int { return c.NeoPixelCount })
}

func (f *File) NeoPixelBrightness() int {
	return value(f, func(c *RawFileConfig) *int { return c.NeoPixelBrightness })
}

func (f *File) Publish() PublishConfig {
	return PublishConfig{
		Broker:      publishValue(f, func(p *RawPublishConfig) *string { return p.Broker }),
		Username:    publishValue(f, func(p *RawPublishConfig) *string { return p.Username }),
		Password:    publishValue(f, func(p *RawPublishConfig) *string { return p.Password }),
		TopicPrefix: publishValue(f, func(p *RawPublishConfig) *string { return p.TopicPrefix }),
		Schedule:    publishValue(f, func(p *RawPublishConfig) *string { return p.Schedule }),
	}
}

// Path returns the backing file path.
func (f *File) Path() string {
	return f.filepath
}

func (f *File) isYAML() bool {
	switch strings.ToLower(filepath.Ext(f.filepath)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
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

	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	if f.isYAML() {
		err = yaml.Unmarshal(b, &conf)
	} else {
		err = json.Unmarshal(b, &conf)
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

// Reload re-reads the file and adopts it only if check accepts it. On error
// the current values stay in place.
func (f *File) Reload(check func(Config) error) error {
	next, err := NewFile(f.filepath)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(next); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.c = next.c
	f.mu.Unlock()

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	var (
		b   []byte
		err error
	)
	if f.isYAML() {
		b, err = yaml.Marshal(f.c)
	} else {
		b, err = json.MarshalIndent(f.c, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config for file %s", f.filepath)
	}

	if err := os.WriteFile(f.filepath, b, 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	q := f.QR()
	return logrus.Fields{
		"profile":            ProfileName,
		"debug":              f.Verbosity().String(),
		"simulateHardware":   f.SimulateHardware(),
		"batteryCapacityMah": f.BatteryCapacityMah(),
		"siteAltitude":       f.SiteAltitudeMeters(),
		"temperatureOffset":  f.TemperatureOffsetCelsius(),
		"sampleInterval":     f.SampleInterval().String(),
		"readsPerSample":     f.ReadsPerSample(),
		"sampleSize":         f.SampleSize(),
		"wakeButtons":        strings.Join(f.WakeButtons(), ","),
		"co2Revision":        f.CO2Revision(),
		"qrVersion":          q.Version,
		"qrECC":              q.ECC,
		"publishBroker":      f.Publish().Broker,
	}
}
