package sensor

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/chewxy/math32"
	pkgerrors "github.com/pkg/errors"
)

// Range is an inclusive interval.
type Range struct {
	Min float32 `json:"min"`
	Max float32 `json:"max"`
}

func (r Range) valid() bool {
	return r.Min <= r.Max
}

// Bounds limits what the simulator produces.
type Bounds struct {
	CO2          Range `json:"co2"`
	TemperatureC Range `json:"temperatureC"`
	Humidity     Range `json:"humidity"`
	Voltage      Range `json:"voltage"`
}

// DefaultBounds are plausible indoor conference values.
var DefaultBounds = Bounds{
	CO2:          Range{Min: 400, Max: 2000},
	TemperatureC: Range{Min: 15, Max: 30},
	Humidity:     Range{Min: 30, Max: 70},
	Voltage:      Range{Min: 3.2, Max: 4.2},
}

// Validate checks every range is ordered and inside what the sensors report.
func (b Bounds) Validate() error {
	for name, r := range map[string]Range{
		"co2":         b.CO2,
		"temperature": b.TemperatureC,
		"humidity":    b.Humidity,
		"voltage":     b.Voltage,
	} {
		if !r.valid() {
			return pkgerrors.Errorf("%s bounds are reversed: min %v > max %v", name, r.Min, r.Max)
		}
	}
	if b.CO2.Min < 0 || b.CO2.Max > 40000 {
		return pkgerrors.Errorf("co2 bounds must be within 0..40000 ppm, got %v..%v", b.CO2.Min, b.CO2.Max)
	}
	if b.Humidity.Min < 0 || b.Humidity.Max > 100 {
		return pkgerrors.Errorf("humidity bounds must be within 0..100%%, got %v..%v", b.Humidity.Min, b.Humidity.Max)
	}
	return nil
}

// Simulator returns random readings within Bounds. It stands in for the
// hardware when the simulation toggle is on.
type Simulator struct {
	bounds            Bounds
	temperatureOffset float32
	now               func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ Source = &Simulator{}

// NewSimulator creates a simulator. temperatureOffset is subtracted from the
// simulated die temperature, as the SCD40 does with its configured offset.
func NewSimulator(bounds Bounds, temperatureOffset float32, seed int64) (*Simulator, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		bounds:            bounds,
		temperatureOffset: temperatureOffset,
		now:               time.Now,
		rnd:               rand.New(rand.NewSource(seed)),
	}, nil
}

func (s *Simulator) between(r Range) float32 {
	v := r.Min + s.rnd.Float32()*(r.Max-r.Min)
	// float32 rounding can land just past Max.
	return math32.Min(v, r.Max)
}

func (s *Simulator) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := newReading(s.now())
	r.CO2 = uint16(s.between(s.bounds.CO2))
	r.TemperatureC = s.between(s.bounds.TemperatureC) - s.temperatureOffset
	r.Humidity = s.between(s.bounds.Humidity)
	r.BatteryVoltage = s.between(s.bounds.Voltage)

	return r, nil
}
