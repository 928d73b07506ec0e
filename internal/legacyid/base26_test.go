package legacyid

import "testing"

func TestDecode(t *testing.T) {
	cases := []struct {
		s    string
		want uint64
		ok   bool
	}{
		{"a", 1, true},
		{"z", 26, true},
		{"aa", 27, true},
		{"ab", 28, true},
		{"A1", 0, false},
		{"", 0, true},
	}
	for _, c := range cases {
		got, ok := Decode(c.s)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("Decode(%q) = (%d, %v), want (%d, %v)", c.s, got, ok, c.want, c.ok)
		}
	}
}
