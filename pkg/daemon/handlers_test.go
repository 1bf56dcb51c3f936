package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magtag-badge/badge/pkg/api"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/sensor"
	"github.com/magtag-badge/badge/pkg/status"
	"github.com/magtag-badge/badge/pkg/utils/ptr"
)

func setupTestDaemon(t *testing.T, mutate func(c *config.RawFileConfig)) {
	t.Helper()

	raw := config.Defaults()
	raw.SimulateHardware = ptr.To(true)
	raw.ReadsPerSample = ptr.To(2)
	raw.SampleSize = ptr.To(4)
	if mutate != nil {
		mutate(raw)
	}

	conf = config.NewFileFromConfig(raw, filepath.Join(t.TempDir(), "badge.json"))
	history = sensor.NewHistory(conf.SampleSize())
	runOpts = Options{Seed: 1}
	require.NoError(t, rebuildSource())
}

func request(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	setupRoutes().ServeHTTP(w, req)
	return w
}

func get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return request(t, http.MethodGet, path)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetBatteryPercent(t *testing.T) {
	setupTestDaemon(t, nil)

	tests := []struct {
		voltage string
		want    int
	}{
		{"3.2", 0},
		{"3.0", 0},
		{"3.8", 50},
		{"4.2", 100},
		{"4.5", 100},
	}
	for _, tt := range tests {
		t.Run(tt.voltage, func(t *testing.T) {
			w := get(t, "/battery/percent?voltage="+tt.voltage)
			require.Equal(t, http.StatusOK, w.Code)
			got := decode[api.BatteryPercent](t, w)
			assert.Equal(t, tt.want, got.Percent)
		})
	}
}

func TestGetBatteryPercentBadInput(t *testing.T) {
	setupTestDaemon(t, nil)

	assert.Equal(t, http.StatusBadRequest, get(t, "/battery/percent").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, "/battery/percent?voltage=high").Code)

	for _, v := range []string{"NaN", "Inf", "-Inf", "inf"} {
		w := get(t, "/battery/percent?voltage="+v)
		assert.Equal(t, http.StatusBadRequest, w.Code, v)
		assert.Contains(t, w.Body.String(), "finite", v)
	}
}

func TestGetBatteryTable(t *testing.T) {
	setupTestDaemon(t, nil)

	w := get(t, "/battery/table")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]float32](t, w)
	require.Len(t, got, 101)
	assert.InDelta(t, 3.2, got[0], 1e-6)
	assert.InDelta(t, 4.2, got[100], 1e-6)
}

func TestGetBatteryGauge(t *testing.T) {
	setupTestDaemon(t, nil)

	got := decode[api.BatteryGauge](t, get(t, "/battery/gauge"))
	assert.Equal(t, 500, got.CapacityMah)
	assert.Equal(t, "0x10", got.APA)

	got = decode[api.BatteryGauge](t, get(t, "/battery/gauge?capacity=2000"))
	assert.Equal(t, "0x2D", got.APA)

	assert.Equal(t, http.StatusBadRequest, get(t, "/battery/gauge?capacity=0").Code)
}

func TestGetCO2Classification(t *testing.T) {
	setupTestDaemon(t, nil)

	tests := []struct {
		query string
		want  string
	}{
		{"ppm=0", "Good"},
		{"ppm=799", "Good"},
		{"ppm=800", "OK"},
		{"ppm=1499", "So-So"},
		{"ppm=1500", "Poor"},
		{"ppm=65535", "Bad"},
		{"ppm=999&revision=three-level", "Good"},
		{"ppm=1000&revision=three-level", "Poor"},
		{"ppm=2000&revision=three-level", "Bad"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := get(t, "/co2/classify?"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)
			got := decode[api.CO2Classification](t, w)
			assert.Equal(t, tt.want, got.Band.Label)
		})
	}
}

func TestGetCO2ClassificationBadInput(t *testing.T) {
	setupTestDaemon(t, nil)

	assert.Equal(t, http.StatusBadRequest, get(t, "/co2/classify").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, "/co2/classify?ppm=70000").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, "/co2/classify?ppm=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, "/co2/classify?ppm=500&revision=seven-level").Code)
}

func TestGetCO2Bands(t *testing.T) {
	setupTestDaemon(t, nil)

	got := decode[api.CO2Bands](t, get(t, "/co2/bands?revision=three-level"))
	assert.Equal(t, "three-level", got.Revision)
	require.Len(t, got.Bands, 3)
	assert.Equal(t, []string{"Good", "Poor", "Bad"}, got.Bands.Labels())
}

func TestGetWakeMask(t *testing.T) {
	setupTestDaemon(t, nil)

	got := decode[api.WakeMask](t, get(t, "/wake-mask"))
	assert.Equal(t, uint64(0xC000), got.Mask)
	assert.Equal(t, "0xC000", got.Hex)
	assert.Equal(t, []string{"A", "B"}, got.Buttons)

	got = decode[api.WakeMask](t, get(t, "/wake-mask?button=C&button=D"))
	assert.Equal(t, uint64(1<<12|1<<11), got.Mask)

	assert.Equal(t, http.StatusBadRequest, get(t, "/wake-mask?button=E").Code)
}

func TestGetQR(t *testing.T) {
	setupTestDaemon(t, func(c *config.RawFileConfig) {
		c.QR.URL = ptr.To("https://example.com/u/42")
	})

	got := decode[api.QR](t, get(t, "/qr"))
	assert.True(t, got.Fits, got.Problem)
	assert.Equal(t, 29, got.Modules)
	assert.Equal(t, (29+8)*3, got.PixelSize)
	assert.Equal(t, 2, got.MinVersion)
}

func TestGetQRTooLong(t *testing.T) {
	setupTestDaemon(t, func(c *config.RawFileConfig) {
		c.QR.URL = ptr.To("https://example.com/" + strings.Repeat("x", 100))
	})

	got := decode[api.QR](t, get(t, "/qr"))
	assert.False(t, got.Fits)
	assert.Contains(t, got.Problem, "use version 6")
	assert.Equal(t, 6, got.MinVersion)
}

func TestGetConfigValidation(t *testing.T) {
	setupTestDaemon(t, nil)
	got := decode[api.ConfigValidation](t, get(t, "/config/validate"))
	assert.True(t, got.Valid, got.Problem)

	setupTestDaemon(t, func(c *config.RawFileConfig) {
		c.BatteryCapacityMah = ptr.To(-1)
	})
	got = decode[api.ConfigValidation](t, get(t, "/config/validate"))
	assert.False(t, got.Valid)
	assert.Contains(t, got.Problem, "batteryCapacityMah")
}

func TestReadingAndStatus(t *testing.T) {
	setupTestDaemon(t, func(c *config.RawFileConfig) {
		c.NameFirst = ptr.To("Ada")
		c.NameLast = ptr.To("Lovelace")
	})

	assert.Equal(t, http.StatusNotFound, get(t, "/reading").Code)

	s := decode[status.Snapshot](t, get(t, "/status"))
	assert.Nil(t, s.Reading)
	assert.Equal(t, "Ada Lovelace", s.DisplayName())

	history.Add(sensor.Reading{ID: "r1", Time: time.Now(), CO2: 1600, BatteryVoltage: 3.8})

	r := decode[sensor.Reading](t, get(t, "/reading"))
	assert.Equal(t, "r1", r.ID)

	s = decode[status.Snapshot](t, get(t, "/status"))
	require.NotNil(t, s.CO2)
	assert.Equal(t, "Poor", s.CO2.Label)
	require.NotNil(t, s.Battery)
	assert.Equal(t, 50, s.Battery.Percent)
}

func TestGetHistory(t *testing.T) {
	setupTestDaemon(t, nil)

	history.Add(sensor.Reading{ID: "old", Time: time.Now().Add(-time.Hour)})
	history.Add(sensor.Reading{ID: "new", Time: time.Now()})

	all := decode[[]sensor.Reading](t, get(t, "/history"))
	assert.Len(t, all, 2)

	recent := decode[[]sensor.Reading](t, get(t, "/history?since=10m"))
	require.Len(t, recent, 1)
	assert.Equal(t, "new", recent[0].ID)

	assert.Equal(t, http.StatusBadRequest, get(t, "/history?since=yesterday").Code)
}

func TestTakeSample(t *testing.T) {
	setupTestDaemon(t, nil)

	wait := takeSample(context.Background())
	assert.Equal(t, conf.SampleInterval(), wait)

	r, ok := history.Last()
	require.True(t, ok)
	assert.GreaterOrEqual(t, r.CO2, uint16(400))
	assert.LessOrEqual(t, r.CO2, uint16(2000))

	w := get(t, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "badge_samples_total")
}

func TestTakeSampleWithoutHardware(t *testing.T) {
	setupTestDaemon(t, func(c *config.RawFileConfig) {
		c.SimulateHardware = ptr.To(false)
	})

	wait := takeSample(context.Background())
	assert.Equal(t, conf.HardwareErrorInterval(), wait)

	_, ok := history.Last()
	assert.False(t, ok)
}

func TestSamplePublishesEvent(t *testing.T) {
	setupTestDaemon(t, nil)

	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	takeSample(context.Background())

	select {
	case ev := <-ch:
		assert.Equal(t, "sample.taken", ev.Name)
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestHavePublishableSample(t *testing.T) {
	setupTestDaemon(t, nil)

	assert.Error(t, havePublishableSample())
	history.Add(sensor.Reading{ID: "r1", Time: time.Now()})
	assert.NoError(t, havePublishableSample())
}

func TestPostConfigReload(t *testing.T) {
	setupTestDaemon(t, nil)

	err := os.WriteFile(conf.Path(), []byte(`{"simulateHardware": true, "co2Revision": "three-level"}`), 0o644)
	require.NoError(t, err)

	w := request(t, http.MethodPost, "/config/reload")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[api.ConfigValidation](t, w)
	assert.True(t, got.Valid, got.Problem)
	assert.Equal(t, "three-level", conf.CO2Revision())

	err = os.WriteFile(conf.Path(), []byte(`{"batteryCapacityMah": 0, "sampleSize": 99}`), 0o644)
	require.NoError(t, err)

	got = decode[api.ConfigValidation](t, request(t, http.MethodPost, "/config/reload"))
	assert.False(t, got.Valid)
	assert.Contains(t, got.Problem, "sampleSize")
	assert.Equal(t, "three-level", conf.CO2Revision())
	assert.Equal(t, 500, conf.BatteryCapacityMah())
}

func TestPostPublishWithoutBroker(t *testing.T) {
	setupTestDaemon(t, nil)

	assert.Equal(t, http.StatusConflict, request(t, http.MethodPost, "/publish").Code)
}

func TestPublishSchedule(t *testing.T) {
	setupTestDaemon(t, nil)

	w := get(t, "/publish")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[api.PublishSchedule](t, w).Enabled)
	assert.Equal(t, http.StatusConflict, request(t, http.MethodPost, "/publish/skip").Code)

	setupTestDaemon(t, func(c *config.RawFileConfig) {
		c.Email = ptr.To("ada@example.com")
		c.Publish.Broker = ptr.To("tcp://127.0.0.1:1883")
		c.Publish.Schedule = ptr.To("@every 10m")
	})
	publishScheduler = NewScheduler(publishLatest, havePublishableSample, nil)
	t.Cleanup(func() {
		closePublisher()
		publishScheduler = nil
	})
	setupPublishing()

	w = get(t, "/publish")
	require.Equal(t, http.StatusOK, w.Code)
	before := decode[api.PublishSchedule](t, w)
	assert.True(t, before.Enabled)
	assert.Equal(t, "@every 10m", before.Schedule)
	assert.True(t, strings.HasSuffix(before.Topic, "/ada_example.com/status"))
	require.NotNil(t, before.NextRun)

	w = request(t, http.MethodPost, "/publish/skip")
	require.Equal(t, http.StatusOK, w.Code)
	after := decode[api.PublishSchedule](t, w)
	require.NotNil(t, after.NextRun)
	assert.True(t, after.NextRun.After(*before.NextRun))
}
