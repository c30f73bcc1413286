package sensor

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/i2c"
	"periph.io/x/periph/conn/i2c/i2creg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/devices/bmxx80"
	"periph.io/x/periph/host"
)

// OpenI2C initializes the host drivers and opens the named bus ("" picks the
// first one available).
func OpenI2C(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", name, err)
	}
	return bus, nil
}

var errNotBound = errors.New("sensor not bound")

const (
	aht20CmdStatus  = 0x71
	aht20CmdInit    = 0xBE
	aht20CmdMeasure = 0xAC

	aht20StatusBusy       = 0x80
	aht20StatusCalibrated = 0x08
)

// AHT20 humidity/temperature sensor.
type AHT20 struct {
	bus i2c.Bus
	dev *i2c.Dev
}

func NewAHT20(bus i2c.Bus) *AHT20 {
	return &AHT20{bus: bus}
}

func (a *AHT20) Bind(addr uint16) error {
	a.dev = nil
	d := &i2c.Dev{Bus: a.bus, Addr: addr}

	status := make([]byte, 1)
	if err := d.Tx([]byte{aht20CmdStatus}, status); err != nil {
		return fmt.Errorf("aht20 status: %w", err)
	}
	if status[0]&aht20StatusCalibrated == 0 {
		if err := d.Tx([]byte{aht20CmdInit, 0x08, 0x00}, nil); err != nil {
			return fmt.Errorf("aht20 init: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	a.dev = d
	return nil
}

func (a *AHT20) Read() (Measurement, error) {
	if a.dev == nil {
		return Measurement{}, errNotBound
	}
	if err := a.dev.Tx([]byte{aht20CmdMeasure, 0x33, 0x00}, nil); err != nil {
		return Measurement{}, fmt.Errorf("aht20 trigger: %w", err)
	}
	time.Sleep(80 * time.Millisecond)

	buf := make([]byte, 6)
	if err := a.dev.Tx(nil, buf); err != nil {
		return Measurement{}, fmt.Errorf("aht20 read: %w", err)
	}
	if buf[0]&aht20StatusBusy != 0 {
		return Measurement{}, errors.New("aht20 measurement not ready")
	}

	rawHumidity := uint32(buf[1])<<12 | uint32(buf[2])<<4 | uint32(buf[3])>>4
	rawTemperature := uint32(buf[3]&0x0F)<<16 | uint32(buf[4])<<8 | uint32(buf[5])

	return Measurement{
		Humidity:    float64(rawHumidity) * 100 / (1 << 20),
		Temperature: float64(rawTemperature)*200/(1<<20) - 50,
	}, nil
}

// BMP280 pressure/temperature sensor on top of the periph bmxx80 driver.
type BMP280 struct {
	bus  i2c.Bus
	addr uint16
	dev  *bmxx80.Dev
}

// BMP280Profile is applied once the sensor answers: temperature x2,
// pressure x16, IIR filter x16.
var BMP280Profile = bmxx80.Opts{
	Temperature: bmxx80.O2x,
	Pressure:    bmxx80.O16x,
	Filter:      bmxx80.F16,
}

func NewBMP280(bus i2c.Bus) *BMP280 {
	return &BMP280{bus: bus}
}

func (b *BMP280) Bind(addr uint16) error {
	b.halt()
	dev, err := bmxx80.NewI2C(b.bus, addr, &bmxx80.Opts{Temperature: bmxx80.O1x, Pressure: bmxx80.O1x})
	if err != nil {
		return fmt.Errorf("bmp280 probe: %w", err)
	}
	b.dev = dev
	b.addr = addr
	return nil
}

func (b *BMP280) Configure() error {
	if b.dev == nil {
		return errNotBound
	}
	b.halt()
	opts := BMP280Profile
	dev, err := bmxx80.NewI2C(b.bus, b.addr, &opts)
	if err != nil {
		return fmt.Errorf("bmp280 configure: %w", err)
	}
	b.dev = dev
	return nil
}

func (b *BMP280) Read() (Measurement, error) {
	if b.dev == nil {
		return Measurement{}, errNotBound
	}
	var env physic.Env
	if err := b.dev.Sense(&env); err != nil {
		return Measurement{}, fmt.Errorf("bmp280 sense: %w", err)
	}
	return Measurement{
		Temperature: float64(env.Temperature-physic.ZeroCelsius) / float64(physic.Kelvin),
		Pressure:    float64(env.Pressure) / float64(physic.Pascal) / 100,
	}, nil
}

func (b *BMP280) halt() {
	if b.dev != nil {
		b.dev.Halt()
		b.dev = nil
	}
}
