package sensor

import (
	"context"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// HostBattery wraps a source and replaces its battery voltage with the
// voltage of the machine running the tool. Useful to drive the charge
// estimate from a real discharging cell while the badge itself is absent.
type HostBattery struct {
	inner  Source
	getAll func() ([]*battery.Battery, error)
}

var _ Source = &HostBattery{}

func NewHostBattery(inner Source) *HostBattery {
	return &HostBattery{
		inner:  inner,
		getAll: battery.GetAll,
	}
}

// Voltage returns the voltage of the first host battery that reports one.
func (h *HostBattery) Voltage() (float32, error) {
	batteries, err := h.getAll()
	if len(batteries) == 0 {
		if err != nil {
			return 0, pkgerrors.Wrap(err, "failed to get host battery info")
		}
		return 0, pkgerrors.New("no batteries found")
	}
	if err != nil {
		// Partial errors: some batteries could not be read.
		logrus.Debugf("host battery info is incomplete: %v", err)
	}

	for _, b := range batteries {
		if b == nil || b.Voltage <= 0 {
			continue
		}
		return float32(b.Voltage), nil
	}

	return 0, pkgerrors.New("no host battery reports a voltage")
}

func (h *HostBattery) Read(ctx context.Context) (Reading, error) {
	r, err := h.inner.Read(ctx)
	if err != nil {
		return Reading{}, err
	}

	v, err := h.Voltage()
	if err != nil {
		return Reading{}, err
	}
	r.BatteryVoltage = v

	return r, nil
}
