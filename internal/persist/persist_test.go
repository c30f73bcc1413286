package persist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/envmon/internal/model"
)

func TestLoad_FirstBootInitializesStorage(t *testing.T) {
	medium := NewMemoryMedium()
	store := New(medium)

	status, err := store.Load()
	require.NoError(t, err)

	assert.True(t, status.Initialized)
	assert.Zero(t, status.TotalRuntime)
	assert.Zero(t, status.ResetCount)
	assert.Zero(t, status.SensorFailures)
	assert.Zero(t, status.LightReadings)
	assert.Equal(t, 1, medium.Writes, "defaults are committed immediately")

	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, status, again)
	assert.Equal(t, 1, medium.Writes, "second load must not rewrite")
}

func TestLoad_ZeroedStorageIsUninitialized(t *testing.T) {
	medium := NewMemoryMedium()
	require.NoError(t, medium.WriteBlock(make([]byte, BlockSize)))

	status, err := New(medium).Load()
	require.NoError(t, err)
	assert.True(t, status.Initialized)
	assert.Equal(t, Marker, medium.data[0])
}

func TestResetCounterMonotonicAcrossReboots(t *testing.T) {
	medium := NewMemoryMedium()

	var previous uint32
	for boot := 1; boot <= 10; boot++ {
		store := New(medium)
		status, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, previous, status.ResetCount)

		status.ResetCount++
		require.NoError(t, store.Save(status))

		assert.Equal(t, uint32(boot), status.ResetCount)
		previous = status.ResetCount
	}
}

func TestEncodeDecodeLayout(t *testing.T) {
	status := model.PersistedStatus{
		Initialized:    true,
		TotalRuntime:   0x01020304,
		ResetCount:     7,
		SensorFailures: 3,
		LightReadings:  123456,
	}

	block := Encode(status)
	assert.Equal(t, Marker, block[0])
	assert.Equal(t, []byte{0, 0, 0}, block[1:4])
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, block[4:8])

	decoded, ok := Decode(block[:])
	require.True(t, ok)
	assert.Equal(t, status, decoded)

	_, ok = Decode(block[:BlockSize-1])
	assert.False(t, ok, "short block")
}

func TestFileMedium(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")
	store := New(NewFileMedium(path))

	status, err := store.Load()
	require.NoError(t, err)
	assert.Zero(t, status.ResetCount)

	status.ResetCount = 4
	status.LightReadings = 99
	require.NoError(t, store.Save(status))

	reopened, err := New(NewFileMedium(path)).Load()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), reopened.ResetCount)
	assert.Equal(t, uint32(99), reopened.LightReadings)
}
