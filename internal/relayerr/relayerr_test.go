package relayerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfClassifiesWrappedErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"transient", Transient(errors.New("dial timeout")), KindTransientNetwork},
		{"malformed", Malformed(errors.New("bad json")), KindMalformedInput},
		{"subscriber io", SubscriberIO(errors.New("write: broken pipe")), KindSubscriberIO},
	}
	for _, c := range cases {
		kind, ok := KindOf(c.err)
		if !ok {
			t.Errorf("%s: KindOf returned ok=false", c.name)
			continue
		}
		if kind != c.want {
			t.Errorf("%s: KindOf = %v, want %v", c.name, kind, c.want)
		}
	}
}

func TestKindOfUnwrapsThroughFmtErrorf(t *testing.T) {
	wrapped := fmt.Errorf("firehose: read: %w", Transient(errors.New("eof")))
	kind, ok := KindOf(wrapped)
	if !ok || kind != KindTransientNetwork {
		t.Errorf("KindOf(wrapped) = (%v, %v), want (KindTransientNetwork, true)", kind, ok)
	}
}

func TestKindOfFalseForPlainError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf should return ok=false for an unclassified error")
	}
}

func TestKindOfFalseForSentinels(t *testing.T) {
	// The sentinel errors carry no Kind; callers distinguish them with
	// errors.Is, not KindOf.
	if _, ok := KindOf(ErrAlreadySigned); ok {
		t.Error("ErrAlreadySigned should not classify as a Kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Transient(cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through *Error to its wrapped cause")
	}
}
