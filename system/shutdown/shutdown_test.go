package shutdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeLED struct {
	closed bool
}

func (f *fakeLED) Set(bool) error { return nil }
func (f *fakeLED) Close() error {
	f.closed = true
	return nil
}

func captureExit(t *testing.T) *int {
	t.Helper()
	code := -1
	orig := ExitFunc
	ExitFunc = func(c int) { code = c }
	t.Cleanup(func() { ExitFunc = orig })
	return &code
}

func TestShutdown_ReleasesLED(t *testing.T) {
	code := captureExit(t)
	led := &fakeLED{}

	Shutdown(led, 0)

	assert.True(t, led.closed)
	assert.Equal(t, 0, *code)
}

func TestShutdownWithError(t *testing.T) {
	code := captureExit(t)

	ShutdownWithError(errors.New("no such device"), "Failed to open serial port")

	assert.Equal(t, 1, *code)
}
