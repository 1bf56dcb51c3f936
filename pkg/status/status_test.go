package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/sensor"
	"github.com/magtag-badge/badge/pkg/utils/ptr"
)

func TestBuildWithoutReading(t *testing.T) {
	raw := config.Defaults()
	raw.NameFirst = ptr.To("Grace")
	c := config.NewFileFromConfig(raw, "")

	s, err := Build(c, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, config.ProfileName, s.Profile)
	assert.Equal(t, "0xC000", s.WakeMask)
	assert.Equal(t, []string{"A", "B"}, s.WakeButtons)
	assert.Equal(t, "Grace", s.DisplayName())
	assert.Nil(t, s.Reading)
	assert.Nil(t, s.Battery)
	assert.Nil(t, s.CO2)
	assert.Nil(t, s.Environment)
}

func TestBuildWithReading(t *testing.T) {
	raw := config.Defaults()
	raw.CO2Revision = ptr.To("three-level")
	raw.SiteAltitudeMeters = ptr.To(500)
	c := config.NewFileFromConfig(raw, "")

	r := &sensor.Reading{
		ID:             "r1",
		Time:           time.Now(),
		CO2:            2100,
		TemperatureC:   21.5,
		Humidity:       40,
		BatteryVoltage: 4.2,
	}
	s, err := Build(c, nil, r)
	require.NoError(t, err)

	require.NotNil(t, s.CO2)
	assert.Equal(t, "Bad", s.CO2.Label)
	assert.Equal(t, "black", s.CO2.Color)
	assert.Equal(t, "three-level", s.CO2.Revision)

	require.NotNil(t, s.Battery)
	assert.Equal(t, 100, s.Battery.Percent)
	assert.Equal(t, "0x10", s.Battery.APA)

	require.NotNil(t, s.Environment)
	assert.Equal(t, 500, s.Environment.AltitudeM)

	// The snapshot holds its own copy.
	r.CO2 = 0
	assert.Equal(t, uint16(2100), s.Reading.CO2)
}

func TestBuildInvalidConfig(t *testing.T) {
	raw := config.Defaults()
	raw.WakeButtons = []string{"Z"}
	_, err := Build(config.NewFileFromConfig(raw, ""), nil, nil)
	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	s := &Snapshot{Identity: Identity{NameFirst: "Ada", NameLast: "Lovelace"}}
	assert.Equal(t, "Ada Lovelace", s.DisplayName())

	s.Identity.NameFirst = ""
	assert.Equal(t, "Lovelace", s.DisplayName())
}
