// Package startup builds the controller's hardware and storage from config.
package startup

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/envmon/db"
	"github.com/thatsimonsguy/envmon/internal/config"
	"github.com/thatsimonsguy/envmon/internal/datadog"
	"github.com/thatsimonsguy/envmon/internal/indicator"
	"github.com/thatsimonsguy/envmon/internal/light"
	"github.com/thatsimonsguy/envmon/internal/monitor"
	"github.com/thatsimonsguy/envmon/internal/persist"
	"github.com/thatsimonsguy/envmon/internal/sensor"
	"github.com/thatsimonsguy/envmon/internal/serialport"
)

// System is everything the monitor loop runs against.
type System struct {
	Bank    *sensor.Bank
	Store   *persist.Store
	Link    serialport.Link
	LED     indicator.LED
	Metrics *datadog.Metrics

	closers []func() error
}

// Build opens storage, the console link, the sensors and the LED. On error
// whatever was already opened is closed again.
func Build(cfg *config.Config) (_ *System, err error) {
	sys := &System{}
	defer func() {
		if err != nil {
			sys.Close()
		}
	}()

	medium, err := sys.openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}
	sys.Store = persist.New(medium)

	if err = sys.openLink(cfg.Serial); err != nil {
		return nil, err
	}

	if err = sys.openSensors(cfg.Sensors); err != nil {
		return nil, err
	}

	sys.LED, err = indicator.Open(cfg.LED.Driver, cfg.LED.Pin)
	if err != nil {
		return nil, fmt.Errorf("failed to open status LED: %w", err)
	}

	if cfg.Datadog.Enabled {
		sys.Metrics = datadog.New(cfg.Datadog.AgentAddr, cfg.Datadog.Namespace, cfg.Datadog.Tags)
		sys.closers = append(sys.closers, func() error {
			sys.Metrics.Close()
			return nil
		})
	}

	return sys, nil
}

func (s *System) openStorage(cfg config.Storage) (persist.Medium, error) {
	switch cfg.Driver {
	case "sqlite":
		nvram, err := db.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, nvram.Close)
		return nvram, nil
	case "file":
		return persist.NewFileMedium(cfg.Path), nil
	case "memory":
		log.Warn().Msg("Using in-memory NVRAM, counters will not survive a restart")
		return persist.NewMemoryMedium(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (s *System) openLink(cfg config.Serial) error {
	if cfg.Port == "stdio" {
		s.Link = serialport.NewStreamLink(os.Stdin, os.Stdout)
		log.Info().Msg("Console on stdin/stdout")
		return nil
	}

	port, err := serialport.Open(cfg.Port, cfg.BaudRate)
	if err != nil {
		return err
	}
	s.Link = port
	s.closers = append(s.closers, port.Close)
	log.Info().Str("port", cfg.Port).Int("baud", cfg.BaudRate).Msg("Console on serial port")
	return nil
}

func (s *System) openSensors(cfg config.Sensors) error {
	var (
		humidity, pressure sensor.Sensor
		gas, lux           sensor.Analog
	)

	if cfg.Simulate {
		log.Warn().Msg("Sensor simulation enabled, no hardware will be touched")
		humidity = &sensor.Simulated{Base: sensor.Measurement{Temperature: 22, Humidity: 45}}
		pressure = &sensor.Simulated{Base: sensor.Measurement{Temperature: 22.5, Pressure: 1013.25}}
		gas = sensor.SimulatedAnalog{Base: 140, Swing: 20}
		lux = sensor.SimulatedAnalog{Base: 400, Swing: 150}
	} else {
		bus, err := sensor.OpenI2C(cfg.I2CBus)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, bus.Close)
		humidity = sensor.NewAHT20(bus)
		pressure = sensor.NewBMP280(bus)
		gas = sensor.IIOChannel{Name: "MQ9", Path: cfg.GasChannel}
		lux = sensor.IIOChannel{Name: "TEMT6000", Path: cfg.LightChannel}
	}

	s.Bank = sensor.NewBank(
		&sensor.Channel{
			Name:       "AHT20",
			Sensor:     humidity,
			Addresses:  []uint16{cfg.AHT20Address},
			RetryDelay: cfg.AHT20RetryDelay,
			Policy:     sensor.LinkChecked,
		},
		&sensor.Channel{
			Name:       "BMP280",
			Sensor:     pressure,
			Addresses:  cfg.BMP280Addresses,
			RetryDelay: cfg.BMP280RetryDelay,
			Policy:     sensor.RangeValidated,
			Range:      sensor.PressureSensorRange,
		},
		gas,
		lux,
		cfg.InitAttempts,
		nil,
		s.Link,
	)
	return nil
}

// Close releases everything in reverse order of opening.
func (s *System) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Error while closing")
		}
	}
	s.closers = nil
}

// Deps returns the monitor's collaborators.
func (s *System) Deps(cfg *config.Config) monitor.Deps {
	return monitor.Deps{
		Bank:  s.Bank,
		Store: s.Store,
		Link:  s.Link,
		Lux: light.Converter{
			ADCMax: cfg.Light.ADCMax,
			VRef:   cfg.Light.VRef,
			Gain:   cfg.Light.Gain,
		},
		LED:     s.LED,
		Metrics: s.Metrics,
	}
}

func Settings(cfg *config.Config) monitor.Settings {
	return monitor.Settings{
		HealthCheckInterval: cfg.Timing.HealthCheckInterval,
		HeartbeatInterval:   cfg.Timing.HeartbeatInterval,
		WatchdogInterval:    cfg.Timing.WatchdogInterval,
		Quantum:             cfg.Timing.LoopQuantum,
		PulseEvery:          cfg.Timing.PulseEvery,
		PulseLength:         cfg.LED.Pulse,
		CalibrationWindow:   cfg.Light.CalibrationWindow,
		CalibrationPeriod:   cfg.Light.CalibrationPeriod,
		CaseInsensitive:     cfg.Console.CaseInsensitive,
	}
}
