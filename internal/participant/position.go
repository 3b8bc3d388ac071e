package participant

import "time"

// moscowHour is the current Moscow civil hour, taken as a fixed UTC+3
// offset rather than a tzdata lookup.
func moscowHour(now time.Time) int {
	return (now.UTC().Hour() + 3) % 24
}

// PositionAt derives the queue sort key: the participant's local hour of
// day in [0,23] at the given instant. No offset means no timezone
// information, which lands the participant in the unprioritized pool (0).
func PositionAt(now time.Time, mskOffsetHours *int) int {
	if mskOffsetHours == nil {
		return 0
	}
	h := (moscowHour(now) + *mskOffsetHours) % 24
	if h < 0 {
		h += 24
	}
	return h
}
