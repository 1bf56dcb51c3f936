// Package sensor defines badge readings and the sources that produce them.
// Real SCD40 and LC709203F drivers live in the firmware; this package holds
// the simulation used when hardware is not attached.
package sensor

import (
	"context"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Reading is one read of every badge sensor.
type Reading struct {
	ID             string    `json:"id"`
	Time           time.Time `json:"time"`
	CO2            uint16    `json:"co2"`
	TemperatureC   float32   `json:"temperatureC"`
	Humidity       float32   `json:"humidity"`
	BatteryVoltage float32   `json:"batteryVoltage"`
}

// Source produces readings.
type Source interface {
	Read(ctx context.Context) (Reading, error)
}

func newReading(now time.Time) Reading {
	return Reading{
		ID: uuid.NewString(),
		// Strip monotonic clock reading.
		Time: now.Round(0),
	}
}

// Sample reads src reads times and returns the last reading. The SCD40
// settles over consecutive measurements, so earlier reads are discarded.
func Sample(ctx context.Context, src Source, reads int) (Reading, error) {
	if src == nil {
		return Reading{}, pkgerrors.New("sensor source is nil")
	}
	if reads < 1 {
		return Reading{}, pkgerrors.Errorf("reads per sample must be at least 1, got %d", reads)
	}

	var (
		r   Reading
		err error
	)
	for i := 0; i < reads; i++ {
		if err := ctx.Err(); err != nil {
			return Reading{}, err
		}
		r, err = src.Read(ctx)
		if err != nil {
			return Reading{}, pkgerrors.Wrapf(err, "read %d of %d failed", i+1, reads)
		}
		logrus.WithFields(logrus.Fields{
			"read":    i + 1,
			"of":      reads,
			"co2":     r.CO2,
			"voltage": r.BatteryVoltage,
		}).Trace("sensor read")
	}

	return r, nil
}
