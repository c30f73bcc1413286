package sensor

import (
	"math"
	"slices"
	"time"
)

// Simulated stands in for an I2C sensor when running without hardware.
// It binds on any address in Accept (all addresses when empty).
type Simulated struct {
	Base   Measurement
	Accept []uint16
	start  time.Time
}

func (s *Simulated) Bind(addr uint16) error {
	if len(s.Accept) > 0 && !slices.Contains(s.Accept, addr) {
		return errNotBound
	}
	s.start = time.Now()
	return nil
}

func (s *Simulated) Read() (Measurement, error) {
	phase := time.Since(s.start).Seconds() / 60
	m := s.Base
	m.Temperature += 0.5 * math.Sin(phase)
	if m.Humidity != 0 {
		m.Humidity += 2 * math.Cos(phase)
	}
	if m.Pressure != 0 {
		m.Pressure += 0.8 * math.Sin(phase/3)
	}
	return m, nil
}

// SimulatedAnalog drifts slowly around Base.
type SimulatedAnalog struct {
	Base  uint16
	Swing uint16
}

func (s SimulatedAnalog) Read() uint16 {
	offset := float64(s.Swing) * math.Sin(float64(time.Now().Unix())/30)
	v := float64(s.Base) + offset
	if v < 0 {
		return 0
	}
	return uint16(v)
}
