package light

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToLux(t *testing.T) {
	c := Converter{ADCMax: 1023, VRef: 5.0, Gain: 200}

	tests := []struct {
		name string
		raw  uint16
		want float32
	}{
		{"dark", 0, 0},
		{"full scale", 1023, 1000},
		{"half scale", 1023 / 2, 511.0 / 1023 * 1000},
		{"above full scale clamps", 4095, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.ToLux(tt.raw), 0.01)
		})
	}

	assert.Zero(t, Converter{}.ToLux(500), "zero full-scale")
}

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }
func (f *fakeClock) sleep(d time.Duration) { f.t = f.t.Add(d) }

func TestCalibrate(t *testing.T) {
	c := Converter{ADCMax: 1023, VRef: 5.0, Gain: 200}
	clk := &fakeClock{t: time.Unix(1000, 0)}

	values := []uint16{100, 300, 200}
	i := 0
	read := func() uint16 {
		v := values[i%len(values)]
		i++
		return v
	}

	cal := c.Calibrate(read, 10*time.Second, 100*time.Millisecond, clk.now, clk.sleep)

	assert.Equal(t, 100, cal.Samples)
	assert.Equal(t, uint16(100), cal.Min)
	assert.Equal(t, uint16(300), cal.Max)
	// 34 x 100 + 33 x 300 + 33 x 200 over 100 samples
	assert.InDelta(t, 199.0, cal.Mean, 0.001)
	assert.InDelta(t, c.ToLux(199), cal.Lux, 0.001)
	assert.Equal(t, time.Unix(1010, 0), clk.t, "blocks for the full window")
}

func TestCalibrate_ZeroWindow(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	cal := Converter{ADCMax: 1023, VRef: 5, Gain: 200}.Calibrate(func() uint16 { return 1 }, 0, time.Millisecond, clk.now, clk.sleep)
	assert.Zero(t, cal.Samples)
	assert.Zero(t, cal.Lux)
}
