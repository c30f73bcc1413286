package sensor

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/internal/model"
)

// Channel is one I2C sensor slot in the bank.
type Channel struct {
	Name       string
	Sensor     Sensor
	Addresses  []uint16 // tried in order
	RetryDelay time.Duration
	Policy     ReadPolicy
	Range      Range // RangeValidated only

	health model.Health
}

func (c *Channel) Health() model.Health {
	return c.health
}

// Bank owns the two I2C channels and the two analog channels. It is not safe
// for concurrent use; the scheduler is its only caller.
type Bank struct {
	Humidity *Channel
	Pressure *Channel
	Gas      Analog
	Light    Analog

	attempts int
	sleep    func(time.Duration)
	diag     io.Writer
}

// NewBank wires the channels. Diagnostic lines for the serial console go to
// diag; sleep is used between bind attempts.
func NewBank(humidity, pressure *Channel, gas, light Analog, attempts int, sleep func(time.Duration), diag io.Writer) *Bank {
	if attempts <= 0 {
		attempts = 1
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	if diag == nil {
		diag = io.Discard
	}
	return &Bank{
		Humidity: humidity,
		Pressure: pressure,
		Gas:      gas,
		Light:    light,
		attempts: attempts,
		sleep:    sleep,
		diag:     diag,
	}
}

func (b *Bank) channels() []*Channel {
	return []*Channel{b.Humidity, b.Pressure}
}

// Initialize runs the bounded-retry bind for every channel regardless of its
// current health and returns how many ended FAILED. Failure is never fatal.
func (b *Bank) Initialize() int {
	failed := 0
	for _, ch := range b.channels() {
		if b.bind(ch) {
			ch.health = model.HealthOK
			continue
		}
		ch.health = model.HealthFailed
		failed++
		fmt.Fprintf(b.diag, "ERROR:%s_INIT_FAILED\n", ch.Name)
	}
	return failed
}

// Reconnect retries only FAILED channels and reports whether any health
// state changed.
func (b *Bank) Reconnect() bool {
	changed := false
	for _, ch := range b.channels() {
		if ch.health != model.HealthFailed {
			continue
		}
		if b.bind(ch) {
			ch.health = model.HealthOK
			changed = true
			log.Info().Str("sensor", ch.Name).Msg("Sensor reconnected")
			fmt.Fprintf(b.diag, "RECONNECTED:%s\n", ch.Name)
		}
	}
	return changed
}

func (b *Bank) bind(ch *Channel) bool {
	for _, addr := range ch.Addresses {
		for attempt := 1; attempt <= b.attempts; attempt++ {
			err := ch.Sensor.Bind(addr)
			if err == nil {
				if c, ok := ch.Sensor.(Configurable); ok {
					err = c.Configure()
				}
			}
			if err == nil {
				log.Info().
					Str("sensor", ch.Name).
					Str("address", fmt.Sprintf("0x%02X", addr)).
					Int("attempt", attempt).
					Msg("Sensor bound")
				return true
			}

			log.Warn().
				Err(err).
				Str("sensor", ch.Name).
				Str("address", fmt.Sprintf("0x%02X", addr)).
				Int("attempt", attempt).
				Int("max_attempts", b.attempts).
				Msg("Sensor bind attempt failed")

			if attempt < b.attempts {
				b.sleep(ch.RetryDelay)
			}
		}
	}
	return false
}

// ReadAll samples every channel once. Timestamp and lux are left for the
// caller to fill in.
func (b *Bank) ReadAll() model.Reading {
	var r model.Reading

	r.GasRaw = b.Gas.Read()
	r.LightRaw = b.Light.Read()

	if m, ok := b.read(b.Humidity); ok {
		r.TempA = m.Temperature
		r.Humidity = m.Humidity
		r.HumidityValid = true
	}
	if m, ok := b.read(b.Pressure); ok {
		r.TempB = m.Temperature
		r.Pressure = m.Pressure
		r.PressureValid = true
	}
	return r
}

func (b *Bank) read(ch *Channel) (Measurement, bool) {
	if ch.health != model.HealthOK {
		return Measurement{}, false
	}

	m, err := ch.Sensor.Read()
	switch ch.Policy {
	case LinkChecked:
		if err != nil {
			ch.health = model.HealthFailed
			log.Error().Err(err).Str("sensor", ch.Name).Msg("Sensor read failed, marking FAILED")
			fmt.Fprintf(b.diag, "ERROR:%s_READ_FAILED\n", ch.Name)
			return Measurement{}, false
		}
	case RangeValidated:
		if err != nil {
			log.Warn().Err(err).Str("sensor", ch.Name).Msg("Sensor read failed")
			fmt.Fprintf(b.diag, "WARN:%s_READ_FAILED\n", ch.Name)
			return Measurement{}, false
		}
		if !ch.Range.Contains(m) {
			log.Warn().
				Str("sensor", ch.Name).
				Float64("temperature", m.Temperature).
				Float64("pressure", m.Pressure).
				Msg("Sensor returned implausible values, dropping this cycle")
			fmt.Fprintf(b.diag, "WARN:%s_INVALID_DATA\n", ch.Name)
			return Measurement{}, false
		}
	}
	return m, true
}
