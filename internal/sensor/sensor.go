package sensor

// Measurement carries whatever a sensor measures. Fields a sensor does not
// support stay zero.
type Measurement struct {
	Temperature float64 // °C
	Humidity    float64 // %RH
	Pressure    float64 // hPa
}

// Sensor is the capability shared by the I2C sensors. Bind probes the device
// at addr and keeps the handle on success.
type Sensor interface {
	Bind(addr uint16) error
	Read() (Measurement, error)
}

// Configurable sensors get a fixed profile applied after a successful bind.
type Configurable interface {
	Configure() error
}

// Analog is a raw ADC channel. It cannot fail at the interface level;
// implementations report problems and return 0.
type Analog interface {
	Read() uint16
}

// ReadPolicy decides what a read does to channel health.
type ReadPolicy int

const (
	// LinkChecked: a failed read call means the link is gone, health goes FAILED.
	LinkChecked ReadPolicy = iota
	// RangeValidated: the link is not judged by reads. Values outside the
	// plausible range are dropped for that cycle only.
	RangeValidated
)

// Range bounds plausible values for a RangeValidated channel.
type Range struct {
	MinTemperature, MaxTemperature float64
	MinPressure, MaxPressure       float64
}

var PressureSensorRange = Range{
	MinTemperature: -40,
	MaxTemperature: 85,
	MinPressure:    300,
	MaxPressure:    1100,
}

func (r Range) Contains(m Measurement) bool {
	return m.Temperature >= r.MinTemperature && m.Temperature <= r.MaxTemperature &&
		m.Pressure >= r.MinPressure && m.Pressure <= r.MaxPressure
}
