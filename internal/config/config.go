package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/thatsimonsguy/envmon/internal/logging"
)

type Serial struct {
	// Port is a device path, or "stdio" to serve the console on stdin/stdout.
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

type Storage struct {
	Driver string `yaml:"driver"` // sqlite | file | memory
	Path   string `yaml:"path"`
}

type Sensors struct {
	I2CBus           string        `yaml:"i2c_bus"`
	AHT20Address     uint16        `yaml:"aht20_address"`
	BMP280Addresses  []uint16      `yaml:"bmp280_addresses"`
	InitAttempts     int           `yaml:"init_attempts"`
	AHT20RetryDelay  time.Duration `yaml:"aht20_retry_delay"`
	BMP280RetryDelay time.Duration `yaml:"bmp280_retry_delay"`
	GasChannel       string        `yaml:"gas_channel"`
	LightChannel     string        `yaml:"light_channel"`
	Simulate         bool          `yaml:"simulate"`
}

type Light struct {
	ADCMax            uint16        `yaml:"adc_max"`
	VRef              float32       `yaml:"vref"`
	Gain              float32       `yaml:"gain"`
	CalibrationWindow time.Duration `yaml:"calibration_window"`
	CalibrationPeriod time.Duration `yaml:"calibration_period"`
}

type Timing struct {
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	HeartbeatInterval   time.Duration `yaml:"heartbeat_interval"`
	WatchdogInterval    time.Duration `yaml:"watchdog_interval"`
	LoopQuantum         time.Duration `yaml:"loop_quantum"`
	PulseEvery          uint32        `yaml:"pulse_every"`
}

type Console struct {
	CaseInsensitive bool `yaml:"case_insensitive"`
}

type LED struct {
	Driver string        `yaml:"driver"` // none | rpio | pinctrl
	Pin    int           `yaml:"pin"`
	Pulse  time.Duration `yaml:"pulse"`
}

type Datadog struct {
	Enabled   bool     `yaml:"enabled"`
	AgentAddr string   `yaml:"agent_addr"`
	Namespace string   `yaml:"namespace"`
	Tags      []string `yaml:"tags"`
}

type Config struct {
	ConfigFile string        `yaml:"-"`
	LogLevel   zerolog.Level `yaml:"-"`
	LogFile    string        `yaml:"log_file"`
	LogConsole bool          `yaml:"log_console"`

	Serial  Serial  `yaml:"serial"`
	Storage Storage `yaml:"storage"`
	Sensors Sensors `yaml:"sensors"`
	Light   Light   `yaml:"light"`
	Timing  Timing  `yaml:"timing"`
	Console Console `yaml:"console"`
	LED     LED     `yaml:"led"`
	Datadog Datadog `yaml:"datadog"`
}

func Default() *Config {
	return &Config{
		LogLevel: zerolog.InfoLevel,
		LogFile:  "/var/log/envmon.log",
		Serial: Serial{
			Port:     "stdio",
			BaudRate: 9600,
		},
		Storage: Storage{
			Driver: "sqlite",
			Path:   "data/envmon.db",
		},
		Sensors: Sensors{
			AHT20Address:     0x38,
			BMP280Addresses:  []uint16{0x76, 0x77},
			InitAttempts:     3,
			AHT20RetryDelay:  time.Second,
			BMP280RetryDelay: 500 * time.Millisecond,
			GasChannel:       "/sys/bus/iio/devices/iio:device0/in_voltage0_raw",
			LightChannel:     "/sys/bus/iio/devices/iio:device0/in_voltage1_raw",
		},
		Light: Light{
			ADCMax:            1023,
			VRef:              5.0,
			Gain:              200,
			CalibrationWindow: 10 * time.Second,
			CalibrationPeriod: 100 * time.Millisecond,
		},
		Timing: Timing{
			HealthCheckInterval: 20 * time.Second,
			HeartbeatInterval:   5 * time.Second,
			WatchdogInterval:    25 * time.Second,
			LoopQuantum:         time.Second,
			PulseEvery:          20,
		},
		LED: LED{
			Driver: "none",
			Pin:    17,
			Pulse:  50 * time.Millisecond,
		},
		Datadog: Datadog{
			AgentAddr: "127.0.0.1:8125",
			Namespace: "envmon.",
		},
	}
}

// Load parses flags and the YAML config file. Invalid configuration panics.
func Load() *Config {
	var configFile, logLevel, logFile string

	flag.StringVar(&configFile, "config-file", "envmon.yaml", "Path to controller config file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&logFile, "log-file", "", "Override log file path")
	flag.Parse()

	cfg, err := LoadFile(configFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	cfg.LogLevel = logging.ParseLevel(logLevel)
	if logFile != "" {
		cfg.LogFile = logFile
	}

	cfg.validate()
	return cfg
}

// LoadFile reads path over the defaults. A missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.ConfigFile = path

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) validate() {
	var problems []string

	if cfg.Serial.Port == "" {
		problems = append(problems, "serial.port is empty")
	}
	if cfg.Serial.Port != "stdio" && cfg.Serial.BaudRate <= 0 {
		problems = append(problems, "serial.baud_rate must be > 0")
	}
	switch cfg.Storage.Driver {
	case "sqlite", "file", "memory":
	default:
		problems = append(problems, fmt.Sprintf("storage.driver %q is not one of sqlite, file, memory", cfg.Storage.Driver))
	}
	if cfg.Storage.Path == "" {
		problems = append(problems, "storage.path is empty")
	}
	if cfg.Sensors.InitAttempts <= 0 {
		problems = append(problems, "sensors.init_attempts must be > 0")
	}
	if len(cfg.Sensors.BMP280Addresses) == 0 {
		problems = append(problems, "sensors.bmp280_addresses is empty")
	}
	if cfg.Light.ADCMax == 0 {
		problems = append(problems, "light.adc_max must be > 0")
	}
	if cfg.Light.CalibrationPeriod <= 0 || cfg.Light.CalibrationWindow < cfg.Light.CalibrationPeriod {
		problems = append(problems, "light.calibration_window must be >= light.calibration_period > 0")
	}

	durations := map[string]time.Duration{
		"timing.health_check_interval": cfg.Timing.HealthCheckInterval,
		"timing.heartbeat_interval":    cfg.Timing.HeartbeatInterval,
		"timing.watchdog_interval":     cfg.Timing.WatchdogInterval,
		"timing.loop_quantum":          cfg.Timing.LoopQuantum,
	}
	for name, d := range durations {
		if d <= 0 {
			problems = append(problems, name+" must be > 0")
		}
	}
	if cfg.Timing.PulseEvery == 0 {
		problems = append(problems, "timing.pulse_every must be > 0")
	}

	switch cfg.LED.Driver {
	case "none", "rpio", "pinctrl":
	default:
		problems = append(problems, fmt.Sprintf("led.driver %q is not one of none, rpio, pinctrl", cfg.LED.Driver))
	}

	if len(problems) > 0 {
		panic("Invalid config: " + strings.Join(problems, ", "))
	}
}
