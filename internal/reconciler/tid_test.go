package reconciler

import "testing"

func TestEncodeTIDLength(t *testing.T) {
	got := encodeTID(1700000000000000)
	if len(got) != 13 {
		t.Errorf("encodeTID length = %d, want 13", len(got))
	}
	for _, r := range got {
		if !containsRune(tidCharset, r) {
			t.Errorf("encodeTID produced out-of-charset rune %q", r)
		}
	}
}

func TestEncodeTIDIsMonotonicWithMicros(t *testing.T) {
	a := encodeTID(1700000000000000)
	b := encodeTID(1700000000001000)
	if !(a < b) {
		t.Errorf("encodeTID(%d) = %q should sort before encodeTID(%d) = %q", 1700000000000000, a, 1700000000001000, b)
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
