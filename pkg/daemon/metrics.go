package daemon

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magtag-badge/badge/pkg/sensor"
)

const metricsNamespace = "badge"

var (
	registry = prometheus.NewRegistry()

	co2Gauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "co2_ppm",
		Help:      "CO2 concentration of the last sample.",
	})
	temperatureGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "temperature_celsius",
		Help:      "Temperature of the last sample.",
	})
	humidityGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "humidity_percent",
		Help:      "Relative humidity of the last sample.",
	})
	batteryVoltageGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "battery_voltage_volts",
		Help:      "Cell voltage of the last sample.",
	})
	batteryPercentGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "battery_percent",
		Help:      "State of charge estimated from the voltage table.",
	})
	samplesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "samples_total",
		Help:      "Samples attempted, by result.",
	}, []string{"result"})
	configReloadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "config_reloads_total",
		Help:      "Config reloads, by result.",
	}, []string{"result"})
	publishesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "publishes_total",
		Help:      "MQTT status publishes, by result.",
	}, []string{"result"})
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "API requests, by route and status code.",
	}, []string{"route", "code"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		co2Gauge,
		temperatureGauge,
		humidityGauge,
		batteryVoltageGauge,
		batteryPercentGauge,
		samplesTotal,
		configReloadsTotal,
		publishesTotal,
		requestsTotal,
	)
}

func observeReading(r sensor.Reading, percent int) {
	co2Gauge.Set(float64(r.CO2))
	temperatureGauge.Set(float64(r.TemperatureC))
	humidityGauge.Set(float64(r.Humidity))
	batteryVoltageGauge.Set(float64(r.BatteryVoltage))
	batteryPercentGauge.Set(float64(percent))
}

func getMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
