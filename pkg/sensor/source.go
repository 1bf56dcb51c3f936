package sensor

import (
	"context"
	"errors"
	"time"
)

// ErrNoHardware is returned when simulation is off and no sensor hardware
// is reachable from this process.
var ErrNoHardware = errors.New("no sensor hardware attached")

type unavailable struct{}

func (unavailable) Read(_ context.Context) (Reading, error) {
	return Reading{}, ErrNoHardware
}

// Options selects a Source.
type Options struct {
	Simulate          bool
	HostBattery       bool
	TemperatureOffset float32
	Bounds            *Bounds
	// Seed for the simulator. 0 seeds from the clock.
	Seed int64
}

// NewSource builds the source described by opts. With simulation off, reads
// fail with ErrNoHardware.
func NewSource(opts Options) (Source, error) {
	var src Source = unavailable{}

	if opts.Simulate {
		bounds := DefaultBounds
		if opts.Bounds != nil {
			bounds = *opts.Bounds
		}
		seed := opts.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		sim, err := NewSimulator(bounds, opts.TemperatureOffset, seed)
		if err != nil {
			return nil, err
		}
		src = sim
	}

	if opts.HostBattery {
		src = NewHostBattery(src)
	}

	return src, nil
}
