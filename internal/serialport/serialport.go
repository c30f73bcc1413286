// Package serialport provides the byte link the console runs over.
package serialport

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Link is a serial-like byte channel. ReadAvailable returns whatever has
// already been received and never waits for more.
type Link interface {
	io.Writer
	ReadAvailable(p []byte) (int, error)
	Close() error
}

// pollTimeout is the read timeout used to make port reads effectively
// non-blocking.
const pollTimeout = time.Millisecond

// Port is a Link over a real serial device.
type Port struct {
	name string
	port serial.Port
}

var _ Link = (*Port)(nil)

// Open opens the named device in 8N1 at baudRate.
func Open(name string, baudRate int) (*Port, error) {
	port, err := OpenStream(name, baudRate, pollTimeout)
	if err != nil {
		return nil, err
	}
	return &Port{name: name, port: port}, nil
}

// OpenStream opens the device with the given read timeout and drops any
// stale input so the first line read is not a torn one.
func OpenStream(name string, baudRate int, readTimeout time.Duration) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to reset input buffer on %s: %w", name, err)
	}
	return port, nil
}

func (p *Port) ReadAvailable(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", p.name, err)
	}
	return n, nil
}

func (p *Port) Write(buf []byte) (int, error) {
	return p.port.Write(buf)
}

func (p *Port) Close() error {
	return p.port.Close()
}
