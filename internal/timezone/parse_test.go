package timezone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOffset(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   ", 0},
		{"+3", 3},
		{"-2", -2},
		{"4", 4},
		{"+3 часа", 3},
		{"UTC+5 (летнее)", 5},
		{"МСК", 0},
		{"мск", 0},
		{"MSK", 0},
		{"mck", 0},
		{"UTC", 0},
		{"по мск", 0},
		{"МСК+2", 2},
		{"+ 7", 7},
		{"- 1", -1},
		{"3 или 4", 3},
	}
	for _, tc := range cases {
		got, err := ParseOffset(tc.in)
		require.NoErrorf(t, err, "input %q", tc.in)
		assert.Equalf(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParseOffsetFailure(t *testing.T) {
	for _, in := range []string{"abc", "+", "-", "нет данных"} {
		_, err := ParseOffset(in)
		assert.Errorf(t, err, "input %q should not parse", in)
	}
}

func TestParseOffsetMarkerWithDigitUsesDigit(t *testing.T) {
	got, err := ParseOffset("utc +4")
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}
