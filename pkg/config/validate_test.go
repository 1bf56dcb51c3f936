package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magtag-badge/badge/pkg/utils/ptr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *RawFileConfig)
		wantErr []string
	}{
		{
			name:   "defaults",
			mutate: func(_ *RawFileConfig) {},
		},
		{
			name:    "bad email",
			mutate:  func(c *RawFileConfig) { c.Email = ptr.To("not-an-email") },
			wantErr: []string{"email"},
		},
		{
			name:    "zero capacity",
			mutate:  func(c *RawFileConfig) { c.BatteryCapacityMah = ptr.To(0) },
			wantErr: []string{"batteryCapacityMah must be greater than 0", "battery capacity must be positive"},
		},
		{
			name:    "altitude",
			mutate:  func(c *RawFileConfig) { c.SiteAltitudeMeters = ptr.To(9000) },
			wantErr: []string{"siteAltitudeMeters must be at most 3000"},
		},
		{
			name:    "temperature offset",
			mutate:  func(c *RawFileConfig) { c.TemperatureOffsetCelsius = ptr.To(-1.0) },
			wantErr: []string{"temperatureOffsetCelsius must be at least 0"},
		},
		{
			name: "debounce longer than sample interval",
			mutate: func(c *RawFileConfig) {
				c.SampleInterval = ptr.To(Duration(time.Second))
				c.ButtonDebounce = ptr.To(Duration(2 * time.Second))
			},
			wantErr: []string{"buttonDebounce (2s) must be shorter than sampleInterval (1s)"},
		},
		{
			name:    "reads per sample",
			mutate:  func(c *RawFileConfig) { c.ReadsPerSample = ptr.To(0) },
			wantErr: []string{"readsPerSample must be at least 1"},
		},
		{
			name:    "sample size",
			mutate:  func(c *RawFileConfig) { c.SampleSize = ptr.To(64) },
			wantErr: []string{"sampleSize must be at most 32"},
		},
		{
			name:    "wake buttons",
			mutate:  func(c *RawFileConfig) { c.WakeButtons = []string{"A", "X"} },
			wantErr: []string{"unknown button \"X\""},
		},
		{
			name:    "co2 revision",
			mutate:  func(c *RawFileConfig) { c.CO2Revision = ptr.To("rainbow") },
			wantErr: []string{"unknown co2 revision"},
		},
		{
			name:    "neopixels",
			mutate:  func(c *RawFileConfig) { c.NeoPixelCount = ptr.To(5) },
			wantErr: []string{"neoPixelCount must be at most 4"},
		},
		{
			name:    "qr ecc",
			mutate:  func(c *RawFileConfig) { c.QR.ECC = ptr.To("Z") },
			wantErr: []string{"unknown error correction level"},
		},
		{
			name:    "qr version",
			mutate:  func(c *RawFileConfig) { c.QR.Version = ptr.To(41) },
			wantErr: []string{"qr.version must be at most 40"},
		},
		{
			name: "qr too big for the panel",
			mutate: func(c *RawFileConfig) {
				c.QR.URL = ptr.To("https://example.com")
				c.QR.Scale = ptr.To(5)
			},
			wantErr: []string{"more than the 128px available"},
		},
		{
			name: "several problems at once",
			mutate: func(c *RawFileConfig) {
				c.SampleSize = ptr.To(0)
				c.CO2Revision = ptr.To("")
			},
			wantErr: []string{"sampleSize must be at least 1", "co2Revision is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Defaults()
			tt.mutate(raw)

			err := Validate(NewFileFromConfig(raw, ""))
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidatePublish(t *testing.T) {
	tests := []struct {
		name    string
		p       PublishConfig
		wantErr string
	}{
		{"disabled", PublishConfig{Schedule: "garbage"}, ""},
		{"tcp", PublishConfig{Broker: "tcp://broker:1883", Schedule: "@every 5m"}, ""},
		{"websocket", PublishConfig{Broker: "wss://broker/mqtt", Schedule: "0 */15 * * * *"}, ""},
		{"no scheme", PublishConfig{Broker: "broker:1883", Schedule: "@every 5m"}, "must look like"},
		{"http", PublishConfig{Broker: "http://broker", Schedule: "@every 5m"}, "must look like"},
		{"bad schedule", PublishConfig{Broker: "tcp://broker:1883", Schedule: "every 5 minutes"}, "publish.schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := validatePublish(tt.p)
			if tt.wantErr == "" {
				assert.Empty(t, problems)
				return
			}
			require.Len(t, problems, 1)
			assert.Contains(t, problems[0], tt.wantErr)
		})
	}
}

func TestNilConfig(t *testing.T) {
	assert.Error(t, Validate(nil))
}
