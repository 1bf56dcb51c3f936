// Package api holds the JSON bodies exchanged between the badge daemon and
// its clients.
package api

import (
	"time"

	"github.com/magtag-badge/badge/pkg/co2"
)

// BatteryPercent is the answer to a voltage lookup.
type BatteryPercent struct {
	Voltage      float32 `json:"voltage"`
	Percent      int     `json:"percent"`
	PercentExact float32 `json:"percentExact"`
}

// BatteryGauge describes the fuel gauge setup.
type BatteryGauge struct {
	CapacityMah int    `json:"capacityMah"`
	APA         string `json:"apa"`
}

// CO2Classification is the answer to a ppm lookup.
type CO2Classification struct {
	PPM      uint16   `json:"ppm"`
	Revision string   `json:"revision"`
	Band     co2.Band `json:"band"`
}

// CO2Bands is a named threshold table.
type CO2Bands struct {
	Revision string    `json:"revision"`
	Bands    co2.Table `json:"bands"`
}

// WakeMask is the ext1 wake-up configuration.
type WakeMask struct {
	Mask    uint64   `json:"mask"`
	Hex     string   `json:"hex"`
	Buttons []string `json:"buttons"`
}

// QR describes the rendered QR code.
type QR struct {
	URL       string `json:"url"`
	Version   int    `json:"version"`
	ECC       string `json:"ecc"`
	Scale     int    `json:"scale"`
	Modules   int    `json:"modules"`
	PixelSize int    `json:"pixelSize"`
	// MinVersion is the smallest version the url fits, 0 without a url.
	MinVersion int    `json:"minVersion"`
	Fits       bool   `json:"fits"`
	Problem    string `json:"problem,omitempty"`
}

// ConfigValidation reports whether the loaded config is valid.
type ConfigValidation struct {
	Valid   bool   `json:"valid"`
	Problem string `json:"problem,omitempty"`
}

// PublishSchedule describes MQTT publishing. NextRun is nil when nothing is
// scheduled.
type PublishSchedule struct {
	Enabled  bool       `json:"enabled"`
	Broker   string     `json:"broker,omitempty"`
	Topic    string     `json:"topic,omitempty"`
	Schedule string     `json:"schedule,omitempty"`
	NextRun  *time.Time `json:"nextRun,omitempty"`
}
