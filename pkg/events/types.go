package events

import "encoding/json"

// Event names published by the daemon.
const (
	ConfigReloaded = "config.reloaded"
	SampleTaken    = "sample.taken"
	SampleFailed   = "sample.failed"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// ConfigReloadedEvent is the payload of config.reloaded.
type ConfigReloadedEvent struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Ts      int64  `json:"ts"`
}

// SampleTakenEvent is the payload of sample.taken.
type SampleTakenEvent struct {
	ID             string  `json:"id"`
	CO2            uint16  `json:"co2"`
	Label          string  `json:"label"`
	BatteryPercent int     `json:"batteryPercent"`
	BatteryVoltage float32 `json:"batteryVoltage"`
	Ts             int64   `json:"ts"`
}

// SampleFailedEvent is the payload of sample.failed.
type SampleFailedEvent struct {
	Error      string `json:"error"`
	RetryAfter string `json:"retryAfter"`
	Ts         int64  `json:"ts"`
}

// DecodeAs decodes the event payload into T. Empty data yields the zero
// value of T.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
