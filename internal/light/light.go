// Package light converts TEMT6000 ADC counts to illuminance.
//
// The conversion is linear in the sensor output voltage. It is an empirical
// approximation, not a calibrated photometric model.
package light

import (
	"time"

	"github.com/chewxy/math32"
)

type Converter struct {
	ADCMax uint16  // full-scale ADC count
	VRef   float32 // ADC reference voltage
	Gain   float32 // lux per volt
}

func (c Converter) ToLux(raw uint16) float32 {
	if c.ADCMax == 0 {
		return 0
	}
	fraction := math32.Min(float32(raw)/float32(c.ADCMax), 1)
	return math32.Max(fraction*c.VRef*c.Gain, 0)
}

type Calibration struct {
	Min     uint16
	Max     uint16
	Mean    float32
	Lux     float32
	Samples int
}

// Clock and Sleep let the blocking window run against a fake clock in tests.
type Clock func() time.Time
type Sleep func(time.Duration)

// Calibrate samples read every period until window has elapsed. It blocks
// the caller for the whole window.
func (c Converter) Calibrate(read func() uint16, window, period time.Duration, now Clock, sleep Sleep) Calibration {
	var (
		cal Calibration
		sum uint64
	)

	start := now()
	for now().Sub(start) < window {
		v := read()
		if cal.Samples == 0 || v < cal.Min {
			cal.Min = v
		}
		if v > cal.Max {
			cal.Max = v
		}
		sum += uint64(v)
		cal.Samples++
		sleep(period)
	}

	if cal.Samples > 0 {
		cal.Mean = float32(sum) / float32(cal.Samples)
		cal.Lux = c.ToLux(uint16(cal.Mean + 0.5))
	}
	return cal
}
