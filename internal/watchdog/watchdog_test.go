package watchdog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldFire(t *testing.T) {
	w := New(25000, 1000)

	assert.False(t, w.ShouldFire(1000))
	assert.False(t, w.ShouldFire(25999))
	assert.True(t, w.ShouldFire(26000), "fires at the interval")
	assert.True(t, w.ShouldFire(90000))
}

func TestServiceResetsWindow(t *testing.T) {
	w := New(25000, 0)
	assert.True(t, w.ShouldFire(30000))

	w.Service(30000)
	assert.False(t, w.ShouldFire(30000))
	assert.False(t, w.ShouldFire(54999))
	assert.True(t, w.ShouldFire(55000))
}

func TestShouldFire_AcrossWrap(t *testing.T) {
	start := uint32(math.MaxUint32 - 5000)
	w := New(25000, start)

	assert.False(t, w.ShouldFire(start+10000), "wrapped to a small value, only 10s elapsed")
	assert.True(t, w.ShouldFire(start+25000))
}
