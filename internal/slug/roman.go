package slug

import "strings"

var romanSymbols = []struct {
	value  uint32
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// toRoman converts num to its Roman numeral representation. 0 maps to
// the nulla symbol "N", matching the classical convention used by the
// historical source's label ids.
func toRoman(num uint32) string {
	if num == 0 {
		return "N"
	}
	var b strings.Builder
	for _, s := range romanSymbols {
		for num >= s.value {
			b.WriteString(s.symbol)
			num -= s.value
		}
	}
	return b.String()
}
