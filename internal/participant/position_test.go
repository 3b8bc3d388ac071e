package participant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestPositionAt(t *testing.T) {
	// 07:00 UTC → Moscow hour 10
	now := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, PositionAt(now, nil))
	assert.Equal(t, 19, PositionAt(now, intPtr(9)))
	assert.Equal(t, 15, PositionAt(now, intPtr(5)))
	assert.Equal(t, 10, PositionAt(now, intPtr(0)))
	assert.Equal(t, 9, PositionAt(now, intPtr(-1)))
}

func TestPositionAtWrapsMidnight(t *testing.T) {
	// 22:00 UTC → Moscow hour 1
	late := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, PositionAt(late, intPtr(0)))
	assert.Equal(t, 23, PositionAt(late, intPtr(-2)))
	assert.Equal(t, 0, PositionAt(late, intPtr(23)))

	// 20:00 UTC → Moscow hour 23, +2 wraps to 1
	eve := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, PositionAt(eve, intPtr(2)))
}

func TestPositionAtUsesUTCClock(t *testing.T) {
	// same instant expressed in a non-UTC zone must not change the result
	loc := time.FixedZone("x", -5*3600)
	now := time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC)
	assert.Equal(t, PositionAt(now, intPtr(4)), PositionAt(now.In(loc), intPtr(4)))
}
