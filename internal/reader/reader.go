// Package reader consumes the controller's serial output on the host side,
// printing each line and optionally fanning it out over MQTT.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
)

// Opener opens the line source, typically a serial port.
type Opener func() (io.ReadCloser, error)

type Publisher interface {
	Publish(line string) error
}

type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

var DefaultBackoff = Backoff{Initial: 2 * time.Second, Max: 30 * time.Second}

func (b Backoff) next(d time.Duration) time.Duration {
	d *= 2
	if d > b.Max {
		return b.Max
	}
	return d
}

type Reader struct {
	Open      Opener
	Out       io.Writer
	Publisher Publisher // optional
	Backoff   Backoff

	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration)
}

func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Run opens the source, forwards lines and reopens after a read failure until
// ctx is cancelled.
func (r *Reader) Run(ctx context.Context) error {
	if r.Sleep == nil {
		r.Sleep = sleepContext
	}
	if r.Backoff == (Backoff{}) {
		r.Backoff = DefaultBackoff
	}

	for ctx.Err() == nil {
		src, err := r.connect(ctx)
		if err != nil {
			break
		}

		err = r.forward(ctx, src)
		src.Close()
		if ctx.Err() != nil {
			break
		}
		log.Warn().Err(err).Msg("Serial connection lost, reopening")
	}
	log.Info().Msg("Reader stopped")
	return nil
}

// connect retries Open with exponential backoff. It only fails when ctx ends.
func (r *Reader) connect(ctx context.Context) (io.ReadCloser, error) {
	delay := r.Backoff.Initial
	for {
		src, err := r.Open()
		if err == nil {
			log.Info().Msg("Serial port opened")
			return src, nil
		}

		log.Warn().Err(err).Dur("retry_in", delay).Msg("Failed to open serial port")
		r.Sleep(ctx, delay)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		delay = r.Backoff.next(delay)
	}
}

// forward splits src into lines. Zero-length reads (port timeouts) are
// retried; any read error ends the connection.
func (r *Reader) forward(ctx context.Context, src io.Reader) error {
	buf := make([]byte, 256)
	var pending []byte

	for ctx.Err() == nil {
		n, err := src.Read(buf)
		pending = append(pending, buf[:n]...)

		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			r.emit(pending[:i])
			pending = pending[i+1:]
		}

		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("serial port closed: %w", err)
			}
			return err
		}
	}
	return ctx.Err()
}

func (r *Reader) emit(raw []byte) {
	line := string(bytes.TrimSpace(bytes.ToValidUTF8(raw, nil)))
	if line == "" {
		return
	}

	fmt.Fprintln(r.Out, line)

	if r.Publisher == nil {
		return
	}
	if err := r.Publisher.Publish(line); err != nil {
		log.Error().Err(err).Msg("Failed to publish line")
	}
}
