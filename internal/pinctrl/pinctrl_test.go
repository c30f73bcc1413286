package pinctrl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeRun(t *testing.T, out string, err error) *[][]string {
	t.Helper()
	var calls [][]string
	orig := Run
	Run = func(args ...string) ([]byte, error) {
		calls = append(calls, args)
		return []byte(out), err
	}
	t.Cleanup(func() { Run = orig })
	return &calls
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0", false},
		{"1", true},
		{"\n1\n", true},
		{"\n0\n", false},
	}
	for _, tc := range tests {
		result, err := parseLevel(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.expected, result, "input %q", tc.input)
	}

	_, err := parseLevel("hi")
	assert.Error(t, err)
}

func TestDrive(t *testing.T) {
	calls := fakeRun(t, "", nil)

	require.NoError(t, Drive(17, true))
	require.NoError(t, Drive(17, false))

	assert.Equal(t, [][]string{
		{"set", "17", "op", "pn", "dh"},
		{"set", "17", "op", "pn", "dl"},
	}, *calls)
}

func TestReadLevel(t *testing.T) {
	fakeRun(t, "1\n", nil)
	level, err := ReadLevel(4)
	require.NoError(t, err)
	assert.True(t, level)
}

func TestSetPin_Error(t *testing.T) {
	fakeRun(t, "permission denied", errors.New("exit status 1"))
	err := SetPin(17, "op")
	assert.ErrorContains(t, err, "permission denied")
}
