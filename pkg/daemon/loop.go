package daemon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/events"
	"github.com/magtag-badge/badge/pkg/sensor"
)

// sampleLoop takes one sample per sample interval until ctx is done. A
// failed sample is retried after the hardware error interval instead.
func sampleLoop(ctx context.Context) {
	for {
		wait := takeSample(ctx)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// takeSample records one sample and returns how long to wait before the
// next one.
func takeSample(ctx context.Context) time.Duration {
	r, err := sensor.Sample(ctx, getSource(), conf.ReadsPerSample())
	if err != nil {
		if ctx.Err() != nil {
			return 0
		}

		retry := conf.HardwareErrorInterval()
		logrus.WithField("retryAfter", retry.String()).Errorf("failed to take sample: %v", err)
		samplesTotal.WithLabelValues("error").Inc()
		hub.Publish(events.SampleFailed, events.SampleFailedEvent{
			Error:      err.Error(),
			RetryAfter: retry.String(),
			Ts:         time.Now().Unix(),
		})
		return retry
	}

	history.Add(r)
	percent := table.PercentInt(r.BatteryVoltage)

	label := ""
	if bands, err := config.CO2Table(conf); err == nil {
		label = bands.Label(r.CO2)
	}

	observeReading(r, percent)
	samplesTotal.WithLabelValues("ok").Inc()

	logrus.WithFields(logrus.Fields{
		"co2":            r.CO2,
		"label":          label,
		"batteryPercent": percent,
		"temperature":    r.TemperatureC,
		"humidity":       r.Humidity,
	}).Info("sample taken")

	hub.Publish(events.SampleTaken, events.SampleTakenEvent{
		ID:             r.ID,
		CO2:            r.CO2,
		Label:          label,
		BatteryPercent: percent,
		BatteryVoltage: r.BatteryVoltage,
		Ts:             r.Time.Unix(),
	})

	return conf.SampleInterval()
}
