package timezone

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	digitRe  = regexp.MustCompile(`\d`)
	offsetRe = regexp.MustCompile(`[-+]\s*\d+|\d+`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// ParseOffset extracts a signed hour offset from free-text zone labels,
// e.g. "+3", "-2", "UTC+5 (летнее)", "МСК". A bare Moscow or UTC marker
// without digits means "no adjustment" and parses as 0.
func ParseOffset(text string) (int, error) {
	v := strings.TrimSpace(text)
	if v == "" {
		return 0, nil
	}

	low := strings.ReplaceAll(strings.ToLower(v), "ё", "е")
	if !digitRe.MatchString(low) {
		if strings.Contains(low, "мск") || strings.Contains(low, "msk") || strings.Contains(low, "mck") {
			return 0, nil
		}
		if strings.Contains(low, "utc") {
			return 0, nil
		}
	}

	m := offsetRe.FindString(low)
	if m == "" {
		return 0, fmt.Errorf("cannot parse offset from %q", text)
	}
	return strconv.Atoi(spaceRe.ReplaceAllString(m, ""))
}
