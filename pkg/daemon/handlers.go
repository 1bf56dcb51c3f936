package daemon

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/magtag-badge/badge/pkg/api"
	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/board"
	"github.com/magtag-badge/badge/pkg/co2"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/qr"
	"github.com/magtag-badge/badge/pkg/status"
	"github.com/magtag-badge/badge/pkg/version"
)

func badRequest(c *gin.Context, err error) {
	c.IndentedJSON(http.StatusBadRequest, err.Error())
	_ = c.AbortWithError(http.StatusBadRequest, err)
}

func internalError(c *gin.Context, err error) {
	c.IndentedJSON(http.StatusInternalServerError, err.Error())
	_ = c.AbortWithError(http.StatusInternalServerError, err)
}

func getConfig(c *gin.Context) {
	fc, err := config.NewRawFileConfigFromConfig(conf)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.IndentedJSON(http.StatusOK, fc)
}

func getConfigValidation(c *gin.Context) {
	v := api.ConfigValidation{Valid: true}
	if err := config.Validate(conf); err != nil {
		v.Valid = false
		v.Problem = err.Error()
	}
	c.IndentedJSON(http.StatusOK, v)
}

func getBatteryPercent(c *gin.Context) {
	raw := c.Query("voltage")
	if raw == "" {
		badRequest(c, fmt.Errorf("missing voltage query parameter"))
		return
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid voltage %q: %w", raw, err))
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		badRequest(c, fmt.Errorf("invalid voltage %q: must be a finite number", raw))
		return
	}

	c.IndentedJSON(http.StatusOK, api.BatteryPercent{
		Voltage:      float32(v),
		Percent:      table.PercentInt(float32(v)),
		PercentExact: table.Percent(float32(v)),
	})
}

func getBatteryTable(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, table[:])
}

func getBatteryGauge(c *gin.Context) {
	capacity := conf.BatteryCapacityMah()
	if raw := c.Query("capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid capacity %q: %w", raw, err))
			return
		}
		capacity = n
	}

	apa, err := battery.APAFor(capacity)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, api.BatteryGauge{
		CapacityMah: capacity,
		APA:         apa.String(),
	})
}

// co2Revision picks the revision from the query, falling back to the config.
func co2Revision(c *gin.Context) (string, co2.Table, error) {
	name := c.Query("revision")
	if name == "" {
		name = conf.CO2Revision()
	}
	t, err := co2.Revision(name)
	return name, t, err
}

func getCO2Classification(c *gin.Context) {
	raw := c.Query("ppm")
	ppm, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		badRequest(c, fmt.Errorf("invalid ppm %q: must be an integer between 0 and 65535", raw))
		return
	}

	name, t, err := co2Revision(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	c.IndentedJSON(http.StatusOK, api.CO2Classification{
		PPM:      uint16(ppm),
		Revision: name,
		Band:     t.Classify(uint16(ppm)),
	})
}

func getCO2Bands(c *gin.Context) {
	name, t, err := co2Revision(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, api.CO2Bands{Revision: name, Bands: t})
}

func getWakeMask(c *gin.Context) {
	names := c.QueryArray("button")
	if len(names) == 0 {
		names = conf.WakeButtons()
	}

	buttons, err := board.ParseButtons(names)
	if err != nil {
		badRequest(c, err)
		return
	}

	mask := board.WakeMask(buttons...)
	resp := api.WakeMask{
		Mask: mask,
		Hex:  fmt.Sprintf("0x%X", mask),
	}
	for _, b := range buttons {
		resp.Buttons = append(resp.Buttons, b.String())
	}

	c.IndentedJSON(http.StatusOK, resp)
}

func getQR(c *gin.Context) {
	p, err := config.QRParams(conf)
	if err != nil {
		internalError(c, err)
		return
	}

	resp := api.QR{
		URL:     p.URL,
		Version: p.Version,
		ECC:     p.ECC.String(),
		Scale:   p.Scale,
		Fits:    true,
	}
	if p.Version >= qr.MinVersionNumber && p.Version <= qr.MaxVersionNumber {
		resp.Modules = p.Modules()
		resp.PixelSize = p.PixelSize()
	}
	if p.URL != "" {
		resp.MinVersion, _ = qr.MinVersion(p.URL, p.ECC)
	}
	if err := p.Validate(board.DisplayHeight); err != nil {
		resp.Fits = false
		resp.Problem = err.Error()
	}

	c.IndentedJSON(http.StatusOK, resp)
}

func getReading(c *gin.Context) {
	r, ok := history.Last()
	if !ok {
		c.IndentedJSON(http.StatusNotFound, "no sample taken yet")
		return
	}
	c.IndentedJSON(http.StatusOK, r)
}

func getHistory(c *gin.Context) {
	raw := c.Query("since")
	if raw == "" {
		c.IndentedJSON(http.StatusOK, history.Records())
		return
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		badRequest(c, fmt.Errorf("invalid since %q: want a positive duration such as 10m", raw))
		return
	}
	c.IndentedJSON(http.StatusOK, history.Since(d))
}

func getStatus(c *gin.Context) {
	var s *status.Snapshot
	var err error
	if r, ok := history.Last(); ok {
		s, err = status.Build(conf, table, &r)
	} else {
		s, err = status.Build(conf, table, nil)
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.IndentedJSON(http.StatusOK, s)
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{
		"version":   version.Version,
		"gitCommit": version.GitCommit,
		"profile":   config.ProfileName,
	})
}

func postConfigReload(c *gin.Context) {
	v := api.ConfigValidation{Valid: true}
	if err := reloadConfig(); err != nil {
		v.Valid = false
		v.Problem = err.Error()
	}
	c.IndentedJSON(http.StatusOK, v)
}

func publishDisabled(c *gin.Context) bool {
	if conf.Publish().Broker != "" {
		return false
	}
	err := fmt.Errorf("publishing is disabled: publish.broker is not set")
	c.IndentedJSON(http.StatusConflict, err.Error())
	_ = c.AbortWithError(http.StatusConflict, err)
	return true
}

func getPublishSchedule(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, publishSchedule())
}

func postPublishSkip(c *gin.Context) {
	if publishDisabled(c) {
		return
	}
	if err := publishScheduler.Skip(); err != nil {
		c.IndentedJSON(http.StatusConflict, err.Error())
		_ = c.AbortWithError(http.StatusConflict, err)
		return
	}
	c.IndentedJSON(http.StatusOK, publishSchedule())
}

func postPublish(c *gin.Context) {
	if publishDisabled(c) {
		return
	}

	if err := publishLatest(); err != nil {
		internalError(c, err)
		return
	}

	c.IndentedJSON(http.StatusCreated, "published to "+publishSchedule().Topic)
}
