package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedZoneClock(t *testing.T) {
	c, err := NewFixedZoneClock()
	require.NoError(t, err)

	assert.Equal(t, PlatformZone, c.Now().Location().String())
	assert.True(t, ValidDate(c.Today()))
}

func TestFakeClock(t *testing.T) {
	c, err := NewFakeClock("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", c.Today())

	_, err = NewFakeClock("10/03/2025")
	assert.Error(t, err)
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2025-03-10", true},
		{"2025-12-31", true},
		{"2025-02-30", false},
		{"2025-3-10", false},
		{"10-03-2025", false},
		{"2025-03-10T00:00:00Z", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidDate(tt.input), "input %q", tt.input)
	}
}
