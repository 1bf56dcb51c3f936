package config

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config is the read-only view of the badge configuration handed to the
// rest of the program.
type Config interface {
	Verbosity() Verbosity
	SimulateHardware() bool

	BatteryCapacityMah() int
	SiteAltitudeMeters() int
	TemperatureOffsetCelsius() float64

	NameFirst() string
	NameLast() string
	Email() string
	QR() QRConfig

	SampleInterval() time.Duration
	ReadsPerSample() int
	SampleSize() int
	ScreenSwapInterval() time.Duration
	ButtonDebounce() time.Duration
	HardwareErrorInterval() time.Duration

	WakeButtons() []string
	CO2Revision() string
	NeoPixelCount() int
	NeoPixelBrightness() int

	Publish() PublishConfig

	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	LogrusFields() logrus.Fields
}

// QRConfig is the resolved QR code configuration.
type QRConfig struct {
	URL     string `json:"url" yaml:"url"`
	Version int    `json:"version" yaml:"version"`
	ECC     string `json:"ecc" yaml:"ecc"`
	Scale   int    `json:"scale" yaml:"scale"`
}

// PublishConfig is the resolved MQTT publishing configuration. An empty
// Broker disables publishing.
type PublishConfig struct {
	Broker      string `json:"broker" yaml:"broker"`
	Username    string `json:"username" yaml:"username"`
	Password    string `json:"-" yaml:"-"`
	TopicPrefix string `json:"topicPrefix" yaml:"topicPrefix"`
	Schedule    string `json:"schedule" yaml:"schedule"`
}
