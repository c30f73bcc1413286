// Package indicator drives the status LED used for the liveness blink.
package indicator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	rpio "github.com/stianeikeland/go-rpio"

	"github.com/thatsimonsguy/envmon/internal/pinctrl"
)

type LED interface {
	Set(on bool) error
	Close() error
}

// Pulse lights led for d and turns it off again. It blocks for d.
func Pulse(led LED, d time.Duration, sleep func(time.Duration)) {
	if err := led.Set(true); err != nil {
		log.Warn().Err(err).Msg("Failed to switch status LED on")
		return
	}
	sleep(d)
	if err := led.Set(false); err != nil {
		log.Warn().Err(err).Msg("Failed to switch status LED off")
	}
}

// Open returns the LED for driver: "rpio" (memory-mapped GPIO), "pinctrl"
// (the Raspberry Pi pinctrl tool) or "none".
func Open(driver string, pin int) (LED, error) {
	switch driver {
	case "rpio":
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("open gpio memory: %w", err)
		}
		p := rpio.Pin(pin)
		p.Output()
		p.Low()
		return &rpioLED{pin: p}, nil
	case "pinctrl":
		led := &pinctrlLED{pin: pin}
		if err := led.Set(false); err != nil {
			return nil, err
		}
		high, err := pinctrl.ReadLevel(pin)
		if err != nil {
			return nil, err
		}
		if high {
			return nil, fmt.Errorf("status LED pin %d still reads high after driving it low", pin)
		}
		return led, nil
	case "none", "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown led driver %q", driver)
	}
}

type rpioLED struct {
	pin rpio.Pin
}

func (l *rpioLED) Set(on bool) error {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	return nil
}

func (l *rpioLED) Close() error {
	l.pin.Low()
	return rpio.Close()
}

type pinctrlLED struct {
	pin int
}

func (l *pinctrlLED) Set(on bool) error {
	return pinctrl.Drive(l.pin, on)
}

func (l *pinctrlLED) Close() error {
	return pinctrl.Drive(l.pin, false)
}

type Nop struct{}

func (Nop) Set(bool) error { return nil }
func (Nop) Close() error   { return nil }
