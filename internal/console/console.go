// Package console turns newline-terminated ASCII input into commands.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// MaxLine bounds the line buffer. Longer lines are discarded.
const MaxLine = 128

// Handler runs a command and writes its response lines to w.
type Handler func(w io.Writer)

type Options struct {
	// CaseInsensitive uppercases each line before lookup. Unknown commands
	// are still echoed as typed.
	CaseInsensitive bool
}

// Dispatcher accumulates bytes until a newline, then dispatches the trimmed
// line. It is driven from the scheduler's thread only.
type Dispatcher struct {
	opts     Options
	out      io.Writer
	handlers map[string]Handler

	buf      [MaxLine]byte
	n        int
	overflow bool
}

func New(out io.Writer, opts Options) *Dispatcher {
	return &Dispatcher{
		opts:     opts,
		out:      out,
		handlers: make(map[string]Handler),
	}
}

// Handle registers h for name. Names are matched exactly, or uppercased when
// CaseInsensitive is set.
func (d *Dispatcher) Handle(name string, h Handler) {
	if d.opts.CaseInsensitive {
		name = strings.ToUpper(name)
	}
	d.handlers[name] = h
}

// Feed consumes one input byte.
func (d *Dispatcher) Feed(b byte) {
	if b == '\n' {
		if d.overflow {
			d.overflow = false
			d.n = 0
			fmt.Fprintln(d.out, "ERROR:LINE_TOO_LONG")
			return
		}
		line := string(d.buf[:d.n])
		d.n = 0
		d.Dispatch(line)
		return
	}

	if d.overflow {
		return
	}
	if d.n == len(d.buf) {
		log.Warn().Int("max", MaxLine).Msg("Console line too long, discarding")
		d.overflow = true
		return
	}
	d.buf[d.n] = b
	d.n++
}

// Write feeds p byte by byte, so the dispatcher can sit behind an io.Writer.
func (d *Dispatcher) Write(p []byte) (int, error) {
	for _, b := range p {
		d.Feed(b)
	}
	return len(p), nil
}

// Dispatch runs one line. Empty lines are ignored.
func (d *Dispatcher) Dispatch(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	key := line
	if d.opts.CaseInsensitive {
		key = strings.ToUpper(key)
	}

	h, ok := d.handlers[key]
	if !ok {
		log.Debug().Str("line", line).Msg("Unknown console command")
		fmt.Fprintf(d.out, "UNKNOWN_COMMAND: %s\n", line)
		return
	}

	log.Debug().Str("command", key).Msg("Dispatching console command")
	h(d.out)
}
