package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/magtag-badge/badge/pkg/battery"
	"github.com/magtag-badge/badge/pkg/config"
	"github.com/magtag-badge/badge/pkg/events"
	"github.com/magtag-badge/badge/pkg/sensor"
)

// Options are the daemon's command line settings.
type Options struct {
	ConfigPath     string
	UnixSocketPath string
	AllowNonRoot   bool
	// HostBattery replaces simulated voltages with the host's battery.
	HostBattery bool
	// Seed for the hardware simulator.
	Seed int64
	// FollowConfigLogLevel sets the log level from the configured debug
	// verbosity, on start and on every reload.
	FollowConfigLogLevel bool
}

var (
	conf    *config.File
	table   = &battery.DefaultTable
	history = sensor.NewHistory(config.DefaultSampleSize)
	hub     = events.NewHub()

	sourceMu sync.RWMutex
	source   sensor.Source

	runOpts Options
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.Use(ginMetrics())
	router.GET("/config", getConfig)
	router.GET("/config/validate", getConfigValidation)
	router.POST("/config/reload", postConfigReload)
	router.GET("/battery/percent", getBatteryPercent)
	router.GET("/battery/table", getBatteryTable)
	router.GET("/battery/gauge", getBatteryGauge)
	router.GET("/co2/classify", getCO2Classification)
	router.GET("/co2/bands", getCO2Bands)
	router.GET("/wake-mask", getWakeMask)
	router.GET("/qr", getQR)
	router.GET("/reading", getReading)
	router.GET("/history", getHistory)
	router.GET("/status", getStatus)
	router.GET("/publish", getPublishSchedule)
	router.POST("/publish", postPublish)
	router.POST("/publish/skip", postPublishSkip)
	router.GET("/events", streamEvents)
	router.GET("/metrics", getMetrics())
	router.GET("/version", getVersion)

	return router
}

func getSource() sensor.Source {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	return source
}

func rebuildSource() error {
	src, err := sensor.NewSource(sensor.Options{
		Simulate:          conf.SimulateHardware(),
		HostBattery:       runOpts.HostBattery,
		TemperatureOffset: float32(conf.TemperatureOffsetCelsius()),
		Seed:              runOpts.Seed,
	})
	if err != nil {
		return err
	}

	sourceMu.Lock()
	source = src
	sourceMu.Unlock()
	return nil
}

func applyLogLevel() {
	if !runOpts.FollowConfigLogLevel {
		return
	}
	level := conf.Verbosity().LogrusLevel()
	logrus.SetLevel(level)
	logrus.Debugf("log level set to %s from debug verbosity %s", level, conf.Verbosity())
}

// applyConfig pushes the loaded config into everything derived from it.
func applyConfig() error {
	applyLogLevel()
	history.Resize(conf.SampleSize())
	if err := rebuildSource(); err != nil {
		return err
	}
	setupPublishing()
	return nil
}

func reloadConfig() error {
	ev := events.ConfigReloadedEvent{Valid: true}

	err := conf.Reload(config.Validate)
	if err == nil {
		err = applyConfig()
	}

	if err != nil {
		logrus.Errorf("failed to reload config: %v", err)
		configReloadsTotal.WithLabelValues("error").Inc()
		ev.Valid = false
		ev.Message = err.Error()
	} else {
		logrus.WithFields(conf.LogrusFields()).Info("config reloaded")
		configReloadsTotal.WithLabelValues("ok").Inc()
	}

	ev.Ts = time.Now().Unix()
	hub.Publish(events.ConfigReloaded, ev)
	return err
}

func Run(opts Options) error {
	runOpts = opts

	var err error
	conf, err = config.NewFile(opts.ConfigPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	if err := config.Validate(conf); err != nil {
		return err
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	publishScheduler = NewScheduler(publishLatest, havePublishableSample, func(data any) {
		logrus.Warnf("scheduled publish: %v", data)
	})
	publishScheduler.Start()

	if err := applyConfig(); err != nil {
		return err
	}

	router := setupRoutes()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			_ = reloadConfig()
		}
	}()

	srv := &http.Server{
		Handler: router,
	}
	// Event streams never finish on their own.
	srv.RegisterOnShutdown(hub.Close)

	// A socket left behind by a crashed daemon would make Listen fail.
	if _, err := os.Stat(opts.UnixSocketPath); err == nil {
		logrus.Warnf("removing stale socket %s", opts.UnixSocketPath)
		if err := os.Remove(opts.UnixSocketPath); err != nil {
			return pkgerrors.Wrapf(err, "failed to remove stale socket %s", opts.UnixSocketPath)
		}
	}

	l, err := net.Listen("unix", opts.UnixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", opts.UnixSocketPath)
	}

	if opts.AllowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", opts.UnixSocketPath)
		err = os.Chmod(opts.UnixSocketPath, 0777)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to chmod %s", opts.UnixSocketPath)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	ctx, cancelLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		logrus.Debugln("sample loop starts")
		sampleLoop(ctx)
		logrus.Debugln("sample loop stopped")
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	cancelLoop()
	<-loopDone

	logrus.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	publishScheduler.Stop()
	closePublisher()

	logrus.Info("exiting")
	return nil
}
