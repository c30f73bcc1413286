package model

type Health int

const (
	HealthUninitialized Health = iota
	HealthOK
	HealthFailed
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "OK"
	case HealthFailed:
		return "FAIL"
	default:
		return "UNINIT"
	}
}

// Reading is one sampling cycle. It is replaced wholesale every iteration.
type Reading struct {
	Timestamp uint32 // seconds since boot

	TempA         float64 // AHT20, °C
	Humidity      float64 // AHT20, %RH
	HumidityValid bool

	TempB         float64 // BMP280, °C
	Pressure      float64 // BMP280, hPa
	PressureValid bool

	GasRaw   uint16
	LightRaw uint16
	Lux      float32
}

// PersistedStatus survives power cycles. Initialized is the first-boot sentinel.
type PersistedStatus struct {
	Initialized    bool
	TotalRuntime   uint32 // seconds
	ResetCount     uint32
	SensorFailures uint32
	LightReadings  uint32
}

// TimerState holds last-fired millisecond stamps. The main loop has no entry
// because it runs on a fixed sleep.
type TimerState struct {
	Watchdog    uint32
	HealthCheck uint32
	Heartbeat   uint32
}

// Elapsed reports whether interval ms have passed since last. Unsigned
// subtraction keeps it correct across counter wrap.
func Elapsed(now, last, interval uint32) bool {
	return now-last >= interval
}
