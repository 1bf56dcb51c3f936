package config

import (
	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/board"
	"github.com/magtag-badge/badge/pkg/co2"
	"github.com/magtag-badge/badge/pkg/qr"
)

// Values the firmware derives from the configuration rather than storing.

// APA returns the LC709203F code for the configured pack.
func APA(c Config) (battery.APA, error) {
	return battery.APAFor(c.BatteryCapacityMah())
}

// CO2Table returns the configured threshold table.
func CO2Table(c Config) (co2.Table, error) {
	return co2.Revision(c.CO2Revision())
}

// WakeMask returns the ext1 wake-up bitmask for the configured buttons.
func WakeMask(c Config) (uint64, error) {
	buttons, err := board.ParseButtons(c.WakeButtons())
	if err != nil {
		return 0, err
	}
	return board.WakeMask(buttons...), nil
}

// QRParams returns the QR rendering parameters.
func QRParams(c Config) (qr.Params, error) {
	q := c.QR()
	ecc, err := qr.ParseECC(q.ECC)
	if err != nil {
		return qr.Params{}, err
	}
	return qr.Params{
		URL:     q.URL,
		Version: q.Version,
		ECC:     ecc,
		Scale:   q.Scale,
	}, nil
}
