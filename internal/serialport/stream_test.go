package serialport

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainUntil(t *testing.T, l Link, want int) ([]byte, error) {
	t.Helper()
	var got []byte
	buf := make([]byte, 8)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := l.ReadAvailable(buf)
		got = append(got, buf[:n]...)
		if err != nil || len(got) >= want {
			return got, err
		}
		time.Sleep(time.Millisecond)
	}
	return got, nil
}

func TestStreamLink_ReadsEverythingThenEOF(t *testing.T) {
	out := &bytes.Buffer{}
	l := NewStreamLink(strings.NewReader("PING\nSTATUS\n"), out)

	got, err := drainUntil(t, l, 12)
	require.NoError(t, err)
	assert.Equal(t, "PING\nSTATUS\n", string(got))

	_, err = drainUntil(t, l, 1)
	assert.ErrorIs(t, err, io.EOF)

	_, err = l.Write([]byte("PONG\n"))
	require.NoError(t, err)
	assert.Equal(t, "PONG\n", out.String())
}

func TestStreamLink_NonBlockingWhenIdle(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	l := NewStreamLink(r, io.Discard)

	start := time.Now()
	n, err := l.ReadAvailable(make([]byte, 16))
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
