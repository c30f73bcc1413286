package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulated_BindHonoursAcceptList(t *testing.T) {
	s := &Simulated{Accept: []uint16{0x77}}

	assert.ErrorIs(t, s.Bind(0x76), errNotBound)
	assert.NoError(t, s.Bind(0x77))

	open := &Simulated{}
	assert.NoError(t, open.Bind(0x12))
}
