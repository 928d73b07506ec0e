package slug

import "testing"

func TestForLabel(t *testing.T) {
	cases := []struct {
		name    string
		country string
		want    string
	}{
		{"Tails & Tornadoes", "US", "tails-and-tornadoes"},
		{"2Dance", "DE", "ii-dance"},
		{"Örli Försztivál", "HU", "orli-forsztival"},
		{"Anthrocon", "US", "anthrocon"},
		{"A2B", "US", "a-ii-b"},
		{"Futrołajki", "PL", "futrolajki"},
		{"Fur-Eh!", "CA", "fur-eh"},
	}
	for _, c := range cases {
		got := ForLabel(c.name, ForCountry(c.country))
		if got != c.want {
			t.Errorf("ForLabel(%q, %q) = %q, want %q", c.name, c.country, got, c.want)
		}
	}
}

func TestForCountryUnknownFallsBackToUnd(t *testing.T) {
	tag := ForCountry("")
	if tag.String() != "und" {
		t.Errorf("ForCountry(\"\") = %q, want und", tag.String())
	}
}

func TestToRoman(t *testing.T) {
	cases := []struct {
		n    uint32
		want string
	}{
		{0, "N"}, {1, "I"}, {4, "IV"}, {9, "IX"}, {40, "XL"},
		{944, "CMXLIV"}, {1994, "MCMXCIV"}, {3999, "MMMCMXCIX"},
	}
	for _, c := range cases {
		if got := toRoman(c.n); got != c.want {
			t.Errorf("toRoman(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}
