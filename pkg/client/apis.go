package client

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/magtag-badge/badge/pkg/api"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/sensor"
	"github.com/magtag-badge/badge/pkg/status"
)

func getJSON[T any](c *Client, path string, what string) (*T, error) {
	ret, err := c.Get(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get %s", what)
	}

	var v T
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal %s", what)
	}
	return &v, nil
}

func (c *Client) GetConfig() (*config.RawFileConfig, error) {
	return getJSON[config.RawFileConfig](c, "/config", "config")
}

func (c *Client) ValidateConfig() (*api.ConfigValidation, error) {
	return getJSON[api.ConfigValidation](c, "/config/validate", "config validation")
}

// ReloadConfig asks the daemon to re-read its config file.
func (c *Client) ReloadConfig() (*api.ConfigValidation, error) {
	ret, err := c.Send("POST", "/config/reload", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to reload config")
	}

	var v api.ConfigValidation
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal reload result")
	}
	return &v, nil
}

func (c *Client) GetBatteryPercent(voltage float32) (*api.BatteryPercent, error) {
	v := strconv.FormatFloat(float64(voltage), 'f', -1, 32)
	return getJSON[api.BatteryPercent](c, "/battery/percent?voltage="+url.QueryEscape(v), "battery percent")
}

func (c *Client) GetBatteryTable() ([]float32, error) {
	t, err := getJSON[[]float32](c, "/battery/table", "battery table")
	if err != nil {
		return nil, err
	}
	return *t, nil
}

// GetBatteryGauge returns the gauge setup. capacityMah 0 uses the configured
// capacity.
func (c *Client) GetBatteryGauge(capacityMah int) (*api.BatteryGauge, error) {
	path := "/battery/gauge"
	if capacityMah != 0 {
		path += "?capacity=" + strconv.Itoa(capacityMah)
	}
	return getJSON[api.BatteryGauge](c, path, "battery gauge")
}

// ClassifyCO2 labels ppm. An empty revision uses the configured one.
func (c *Client) ClassifyCO2(ppm uint16, revision string) (*api.CO2Classification, error) {
	q := url.Values{}
	q.Set("ppm", strconv.Itoa(int(ppm)))
	if revision != "" {
		q.Set("revision", revision)
	}
	return getJSON[api.CO2Classification](c, "/co2/classify?"+q.Encode(), "co2 classification")
}

func (c *Client) GetCO2Bands(revision string) (*api.CO2Bands, error) {
	path := "/co2/bands"
	if revision != "" {
		path += "?revision=" + url.QueryEscape(revision)
	}
	return getJSON[api.CO2Bands](c, path, "co2 bands")
}

// GetWakeMask returns the mask for buttons, or for the configured wake
// buttons when none are given.
func (c *Client) GetWakeMask(buttons ...string) (*api.WakeMask, error) {
	path := "/wake-mask"
	if len(buttons) > 0 {
		path += "?" + url.Values{"button": buttons}.Encode()
	}
	return getJSON[api.WakeMask](c, path, "wake mask")
}

func (c *Client) GetQR() (*api.QR, error) {
	return getJSON[api.QR](c, "/qr", "qr parameters")
}

func (c *Client) GetReading() (*sensor.Reading, error) {
	return getJSON[sensor.Reading](c, "/reading", "latest reading")
}

// GetHistory returns the recorded samples. since 0 returns all of them.
func (c *Client) GetHistory(since time.Duration) ([]sensor.Reading, error) {
	path := "/history"
	if since > 0 {
		path += "?since=" + url.QueryEscape(since.String())
	}
	h, err := getJSON[[]sensor.Reading](c, path, "history")
	if err != nil {
		return nil, err
	}
	return *h, nil
}

func (c *Client) GetStatus() (*status.Snapshot, error) {
	return getJSON[status.Snapshot](c, "/status", "status")
}

// PublishNow publishes the latest snapshot without waiting for the schedule.
func (c *Client) PublishNow() (string, error) {
	ret, err := c.Send("POST", "/publish", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to publish")
	}

	var msg string
	if err := json.Unmarshal([]byte(ret), &msg); err != nil {
		return ret, nil
	}
	return msg, nil
}

func (c *Client) GetPublishSchedule() (*api.PublishSchedule, error) {
	return getJSON[api.PublishSchedule](c, "/publish", "publish schedule")
}

// SkipPublish drops the next scheduled publish.
func (c *Client) SkipPublish() (*api.PublishSchedule, error) {
	ret, err := c.Send("POST", "/publish/skip", "")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to skip publish")
	}

	var v api.PublishSchedule
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal publish schedule")
	}
	return &v, nil
}

type Version struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	Profile   string `json:"profile"`
}

func (c *Client) GetVersion() (*Version, error) {
	return getJSON[Version](c, "/version", "version")
}
