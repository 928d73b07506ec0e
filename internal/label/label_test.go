package label

import (
	"testing"
	"time"
)

func TestNewPositiveLabel(t *testing.T) {
	cts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := cts.AddDate(0, 0, 7)
	lbl := New("did:plc:labeler", "anthrocon", "did:plc:liker", cts, exp)

	if lbl.Src != "did:plc:labeler" || lbl.Val != "anthrocon" || lbl.Uri != "did:plc:liker" {
		t.Errorf("unexpected label fields: %+v", lbl)
	}
	if lbl.Neg != nil {
		t.Error("a positive label should leave Neg unset")
	}
	if lbl.Exp == nil || *lbl.Exp != exp.UTC().Format(time.RFC3339Nano) {
		t.Errorf("Exp = %v, want %v", lbl.Exp, exp)
	}
	if lbl.Ver == nil || *lbl.Ver != CurrentVersion {
		t.Errorf("Ver = %v, want %d", lbl.Ver, CurrentVersion)
	}
}

func TestNewNegation(t *testing.T) {
	cts := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	lbl := NewNegation("did:plc:labeler", "anthrocon", "did:plc:liker", cts)

	if lbl.Neg == nil || !*lbl.Neg {
		t.Error("a negation label must have Neg = true")
	}
	if lbl.Exp != nil {
		t.Error("a negation label must not carry an Exp field")
	}
}

func TestMicrosRoundTrip(t *testing.T) {
	us := int64(1700000000123456)
	got := ToMicros(FromMicros(us))
	if got != us {
		t.Errorf("round trip = %d, want %d", got, us)
	}
}
