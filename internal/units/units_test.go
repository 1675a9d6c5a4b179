package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	assert.Equal(t, 25.4, Convert(1, "in", "mm"))
	assert.InDelta(t, 1.0, Convert(25.4, "mm", "in"), 1e-12)
	assert.Equal(t, 7.0, Convert(7, "mm", "mm"))
	assert.Equal(t, 7.0, Convert(7, "in", "in"))

	// unknown units are identity on their side of the pivot
	assert.Equal(t, 3.0, Convert(3, "deg", "mm"))
	assert.Equal(t, 3.0*25.4, Convert(3, "in", "cm"))
}

func TestConvert_RoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 0.2, 3.14159, 1e-6, 12345.678, -987.654321}
	pairs := [][2]string{{"mm", "in"}, {"in", "mm"}}
	for _, v := range values {
		for _, p := range pairs {
			back := Convert(Convert(v, p[0], p[1]), p[1], p[0])
			assert.InDelta(t, v, back, 1e-9, "v=%v %s→%s→%s", v, p[0], p[1], p[0])
		}
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		digits int
		want   float64
	}{
		{100.2, 3, 100.2},
		{2.5, 0, 3},
		{-2.5, 0, -3},
		{1.23456, 2, 1.23},
		{1.235, 2, 1.24},
		{-1.235, 2, -1.24},
		{0.123456789012345, 12, 0.1234567890},
		{9.99, -4, 10},
		{1.005, 2, 1.01},
		{-1.005, 2, -1.01},
		{2.675, 2, 2.68},
		{1.0005, 3, 1.001},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.v, tt.digits), "Round(%v, %d)", tt.v, tt.digits)
	}
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
	assert.Equal(t, 1e308, Round(1e308, 10))
}

func TestClampDigits(t *testing.T) {
	assert.Equal(t, 0, ClampDigits(-1))
	assert.Equal(t, 5, ClampDigits(5))
	assert.Equal(t, MaxDigits, ClampDigits(99))
}

func TestParseLength(t *testing.T) {
	u, err := ParseLength(" IN ")
	require.NoError(t, err)
	assert.Equal(t, Inch, u)

	_, err = ParseLength("cm")
	assert.Error(t, err)

	assert.True(t, IsLength("mm"))
	assert.False(t, IsLength("MM"))
}
