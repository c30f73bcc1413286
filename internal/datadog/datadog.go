package datadog

import (
	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/model"
)

type client interface {
	Gauge(name string, value float64, tags []string, rate float64) error
	Count(name string, value int64, tags []string, rate float64) error
	Close() error
}

// Metrics is nil-safe: a nil or disabled Metrics drops everything.
type Metrics struct {
	client client
}

func New(addr, namespace string, tags []string) *Metrics {
	dogstatsd, err := statsd.New(addr, statsd.WithNamespace(namespace), statsd.WithTags(tags))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client, metrics disabled")
		return &Metrics{}
	}

	log.Info().
		Str("addr", addr).
		Str("namespace", namespace).
		Strs("tags", tags).
		Msg("Datadog metrics initialized")

	return &Metrics{client: dogstatsd}
}

func (m *Metrics) Gauge(name string, value float64, tags ...string) {
	if m == nil || m.client == nil {
		return
	}
	if err := m.client.Gauge(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
	}
}

func (m *Metrics) Count(name string, value int64, tags ...string) {
	if m == nil || m.client == nil {
		return
	}
	if err := m.client.Count(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
	}
}

// Reading emits one gauge per valid frame field.
func (m *Metrics) Reading(r model.Reading) {
	if r.HumidityValid {
		m.Gauge("sensor.temperature", r.TempA, "sensor:aht20")
		m.Gauge("sensor.humidity", r.Humidity, "sensor:aht20")
	}
	if r.PressureValid {
		m.Gauge("sensor.temperature", r.TempB, "sensor:bmp280")
		m.Gauge("sensor.pressure", r.Pressure, "sensor:bmp280")
	}
	m.Gauge("sensor.gas_raw", float64(r.GasRaw), "sensor:mq9")
	m.Gauge("sensor.light_raw", float64(r.LightRaw), "sensor:temt6000")
	m.Gauge("sensor.light_lux", float64(r.Lux), "sensor:temt6000")
}

// Health reports 1 for OK, 0 otherwise.
func (m *Metrics) Health(sensor string, h model.Health) {
	v := 0.0
	if h == model.HealthOK {
		v = 1
	}
	m.Gauge("sensor.healthy", v, "sensor:"+sensor)
}

func (m *Metrics) Close() {
	if m == nil || m.client == nil {
		return
	}
	m.client.Close()
}
