// Package status assembles what the badge would show: identity, battery
// charge and the CO2 label, from the configuration and a reading.
package status

import (
	"fmt"

	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/sensor"
)

type Identity struct {
	NameFirst string `json:"nameFirst"`
	NameLast  string `json:"nameLast"`
	Email     string `json:"email"`
}

type Battery struct {
	Voltage     float32 `json:"voltage"`
	Percent     int     `json:"percent"`
	CapacityMah int     `json:"capacityMah"`
	APA         string  `json:"apa"`
}

type CO2 struct {
	PPM      uint16 `json:"ppm"`
	Label    string `json:"label"`
	Color    string `json:"color,omitempty"`
	Revision string `json:"revision"`
}

type Environment struct {
	TemperatureC float32 `json:"temperatureC"`
	Humidity     float32 `json:"humidity"`
	AltitudeM    int     `json:"altitudeMeters"`
}

// Snapshot is the badge state at one reading. Reading-derived parts are nil
// when there is no reading.
type Snapshot struct {
	Profile     string          `json:"profile"`
	Simulated   bool            `json:"simulated"`
	Identity    Identity        `json:"identity"`
	WakeMask    string          `json:"wakeMask"`
	WakeButtons []string        `json:"wakeButtons"`
	QRURL       string          `json:"qrUrl,omitempty"`
	Reading     *sensor.Reading `json:"reading,omitempty"`
	Battery     *Battery        `json:"battery,omitempty"`
	CO2         *CO2            `json:"co2,omitempty"`
	Environment *Environment    `json:"environment,omitempty"`
}

// Build derives a snapshot. table may be nil to use battery.DefaultTable.
func Build(c config.Config, table *battery.VoltageTable, r *sensor.Reading) (*Snapshot, error) {
	if table == nil {
		table = &battery.DefaultTable
	}

	mask, err := config.WakeMask(c)
	if err != nil {
		return nil, err
	}
	apa, err := config.APA(c)
	if err != nil {
		return nil, err
	}
	bands, err := config.CO2Table(c)
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Profile:   config.ProfileName,
		Simulated: c.SimulateHardware(),
		Identity: Identity{
			NameFirst: c.NameFirst(),
			NameLast:  c.NameLast(),
			Email:     c.Email(),
		},
		WakeMask:    fmt.Sprintf("0x%X", mask),
		WakeButtons: c.WakeButtons(),
		QRURL:       c.QR().URL,
	}

	if r == nil {
		return s, nil
	}

	reading := *r
	band := bands.Classify(reading.CO2)
	s.Reading = &reading
	s.Battery = &Battery{
		Voltage:     reading.BatteryVoltage,
		Percent:     table.PercentInt(reading.BatteryVoltage),
		CapacityMah: c.BatteryCapacityMah(),
		APA:         apa.String(),
	}
	s.CO2 = &CO2{
		PPM:      reading.CO2,
		Label:    band.Label,
		Color:    string(band.Color),
		Revision: c.CO2Revision(),
	}
	s.Environment = &Environment{
		TemperatureC: reading.TemperatureC,
		Humidity:     reading.Humidity,
		AltitudeM:    c.SiteAltitudeMeters(),
	}

	return s, nil
}

// DisplayName is "First Last", trimmed when either part is missing.
func (s *Snapshot) DisplayName() string {
	switch {
	case s.Identity.NameFirst == "":
		return s.Identity.NameLast
	case s.Identity.NameLast == "":
		return s.Identity.NameFirst
	}
	return s.Identity.NameFirst + " " + s.Identity.NameLast
}
