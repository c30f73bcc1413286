package reader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkSource hands out one chunk per Read, then fails with err.
type chunkSource struct {
	chunks []string
	err    error
	closed bool
}

func (s *chunkSource) Read(p []byte) (int, error) {
	if len(s.chunks) == 0 {
		return 0, s.err
	}
	n := copy(p, s.chunks[0])
	s.chunks = s.chunks[1:]
	return n, nil
}

func (s *chunkSource) Close() error {
	s.closed = true
	return nil
}

type recordingPublisher struct {
	lines []string
}

func (p *recordingPublisher) Publish(line string) error {
	p.lines = append(p.lines, line)
	return nil
}

func TestForward_SplitsLinesAcrossReads(t *testing.T) {
	var out bytes.Buffer
	pub := &recordingPublisher{}
	r := &Reader{Out: &out, Publisher: pub}
	src := &chunkSource{
		chunks: []string{"DATA:1,1,21.", "50,45.00\r\n", "", "\n  \nPONG\nHEART"},
		err:    io.EOF,
	}

	err := r.forward(context.Background(), src)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "DATA:1,1,21.50,45.00\nPONG\n", out.String())
	assert.Equal(t, []string{"DATA:1,1,21.50,45.00", "PONG"}, pub.lines)
}

func TestRun_BacksOffUntilOpenSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	var delays []time.Duration
	opens := 0
	src := &chunkSource{chunks: []string{"SYSTEM_READY\n"}, err: errors.New("device disconnected")}

	r := &Reader{
		Out: &out,
		Open: func() (io.ReadCloser, error) {
			opens++
			if opens <= 5 {
				return nil, errors.New("no such file or directory")
			}
			if opens == 6 {
				return src, nil
			}
			cancel()
			return nil, errors.New("gone")
		},
		Sleep: func(_ context.Context, d time.Duration) { delays = append(delays, d) },
	}

	require.NoError(t, r.Run(ctx))

	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second,
		2 * time.Second,
	}, delays)
	assert.True(t, src.closed)
	assert.Equal(t, "SYSTEM_READY\n", out.String())
}

func TestRun_ReopensAfterReadFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	sources := []*chunkSource{
		{chunks: []string{"A\n"}, err: errors.New("input/output error")},
		{chunks: []string{"B\n"}, err: io.EOF},
	}
	opens := 0

	r := &Reader{
		Out: &out,
		Open: func() (io.ReadCloser, error) {
			if opens == len(sources) {
				cancel()
				return nil, errors.New("done")
			}
			s := sources[opens]
			opens++
			return s, nil
		},
		Sleep: func(context.Context, time.Duration) {},
	}

	require.NoError(t, r.Run(ctx))

	assert.Equal(t, []string{"A", "B"}, strings.Fields(out.String()))
	for _, s := range sources {
		assert.True(t, s.closed)
	}
}

func TestBackoff_CapsAtMax(t *testing.T) {
	b := Backoff{Initial: time.Second, Max: 3 * time.Second}
	assert.Equal(t, 2*time.Second, b.next(time.Second))
	assert.Equal(t, 3*time.Second, b.next(2*time.Second))
	assert.Equal(t, 3*time.Second, b.next(3*time.Second))
}
