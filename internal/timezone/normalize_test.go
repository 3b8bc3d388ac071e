package timezone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRegion(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Москва", "москва"},
		{"Г. Москва!!", "москва"},
		{"г.Казань", "казань"},
		{"город Орёл", "орел"},
		{"  Санкт-Петербург ", "санкт петербург"},
		{"Ханты-Мансийский АО — Югра", "ханты мансийский ао югра"},
		{"Волгоградская область", "волгоградская область"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, NormalizeRegion(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeRegionEquivalence(t *testing.T) {
	assert.Equal(t, NormalizeRegion("москва"), NormalizeRegion("Г. Москва!!"))
	assert.Equal(t, NormalizeRegion("орел"), NormalizeRegion("ОРЁЛ"))
}

func TestNormalizeRegionIdempotent(t *testing.T) {
	inputs := []string{
		"Г. Москва!!",
		"г г Москва",
		"город город Тула",
		"г.",
		"Пермский край (г. Пермь)",
		"респ. Саха (Якутия)",
		"ёж",
	}
	for _, in := range inputs {
		once := NormalizeRegion(in)
		assert.Equalf(t, once, NormalizeRegion(once), "input %q", in)
	}
}

func TestFoldKeepsStructure(t *testing.T) {
	// Search matches against the light fold, which keeps punctuation.
	assert.Equal(t, "г. орел", fold("Г. Орёл "))
}
