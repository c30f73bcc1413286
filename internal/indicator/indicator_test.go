package indicator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/envmon/internal/pinctrl"
)

type recordingLED struct {
	states []bool
	err    error
}

func (r *recordingLED) Set(on bool) error {
	r.states = append(r.states, on)
	return r.err
}

func (r *recordingLED) Close() error { return nil }

func TestPulse(t *testing.T) {
	led := &recordingLED{}
	var slept time.Duration

	Pulse(led, 50*time.Millisecond, func(d time.Duration) { slept += d })

	assert.Equal(t, []bool{true, false}, led.states)
	assert.Equal(t, 50*time.Millisecond, slept)
}

func TestPulse_SkipsSleepWhenLEDFails(t *testing.T) {
	led := &recordingLED{err: errors.New("gpio busy")}
	slept := false

	Pulse(led, time.Second, func(time.Duration) { slept = true })

	assert.Equal(t, []bool{true}, led.states)
	assert.False(t, slept)
}

// fakePinctrl records pinctrl invocations and answers `lev` with level.
func fakePinctrl(t *testing.T, level string) *[][]string {
	t.Helper()
	var calls [][]string
	orig := pinctrl.Run
	pinctrl.Run = func(args ...string) ([]byte, error) {
		calls = append(calls, args)
		if args[0] == "lev" {
			return []byte(level + "\n"), nil
		}
		return nil, nil
	}
	t.Cleanup(func() { pinctrl.Run = orig })
	return &calls
}

func TestOpen_Pinctrl(t *testing.T) {
	calls := fakePinctrl(t, "0")

	led, err := Open("pinctrl", 17)
	require.NoError(t, err)
	Pulse(led, 0, func(time.Duration) {})

	assert.Equal(t, [][]string{
		{"set", "17", "op", "pn", "dl"},
		{"lev", "17"},
		{"set", "17", "op", "pn", "dh"},
		{"set", "17", "op", "pn", "dl"},
	}, *calls)
}

func TestOpen_PinctrlPinStuckHigh(t *testing.T) {
	fakePinctrl(t, "1")

	_, err := Open("pinctrl", 17)

	assert.ErrorContains(t, err, "still reads high")
}

func TestOpen_None(t *testing.T) {
	led, err := Open("none", 0)
	require.NoError(t, err)
	assert.Equal(t, Nop{}, led)

	_, err = Open("laser", 0)
	assert.Error(t, err)
}
