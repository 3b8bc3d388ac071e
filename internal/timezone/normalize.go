package timezone

import (
	"regexp"
	"strings"
)

var (
	// "г.казань" — abbreviated city prefix glued to the name.
	cityDotRe = regexp.MustCompile(`(^|[^a-zа-я0-9])г\.([a-zа-я0-9])`)
	// standalone "г" or "город" tokens.
	cityWordRe = regexp.MustCompile(`(^|[^a-zа-я0-9])(г|город)($|[^a-zа-я0-9])`)
	punctRe    = regexp.MustCompile(`[^a-zа-я0-9\s]+`)
	wsRe       = regexp.MustCompile(`\s+`)
)

// fold lowercases, folds "ё" to "е" and trims. This light form is what
// substring search matches against.
func fold(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "ё", "е"))
}

// NormalizeRegion canonicalizes a region name for exact matching: fold,
// drop administrative "city" prefixes, strip punctuation, collapse
// whitespace. Idempotent.
func NormalizeRegion(s string) string {
	s = fold(s)
	for {
		out := cityDotRe.ReplaceAllString(s, "$1 $2")
		out = cityWordRe.ReplaceAllString(out, "$1 $3")
		if out == s {
			break
		}
		s = out
	}
	s = punctRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
