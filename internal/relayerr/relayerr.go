// Package relayerr defines the error taxonomy shared across the label
// pipeline, so call sites can decide retry vs. abort vs. HTTP status with
// errors.Is/errors.As instead of string matching.
package relayerr

import "errors"

// Sentinel errors for conditions that don't carry extra data.
var (
	// ErrAlreadySigned is returned by the canonical signer when asked to
	// sign a label that already has a sig field set.
	ErrAlreadySigned = errors.New("relayerr: label already signed")

	// ErrConflict indicates a Reconciler run was requested while one was
	// already in progress.
	ErrConflict = errors.New("relayerr: reconciler already running")

	// ErrFutureCursor indicates a subscription cursor beyond the known
	// maximum sequence.
	ErrFutureCursor = errors.New("relayerr: cursor is ahead of known sequence")

	// ErrLogicInvariant marks a condition that should be impossible under
	// correct operation (e.g. a correlation-map lookup failing on state
	// that was just rebuilt). It is not recoverable at the call site; the
	// supervisor should abort the process.
	ErrLogicInvariant = errors.New("relayerr: logic invariant violated")
)

// Kind classifies a failure for the purposes of the outer retry loops.
type Kind int

const (
	// KindTransientNetwork covers HTTP 5xx, socket errors, and WebSocket
	// closes. The caller should log and retry after a fixed delay.
	KindTransientNetwork Kind = iota
	// KindMalformedInput covers calendar parse errors and malformed
	// firehose JSON. The caller should log and skip, not abort.
	KindMalformedInput
	// KindSubscriberIO covers WebSocket send errors and client
	// disconnects on the subscription server. Only that one subscriber is
	// affected.
	KindSubscriberIO
)

// Error wraps an underlying cause with a Kind so callers can branch on
// classification without re-parsing messages.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a TransientNetwork failure.
func Transient(err error) error {
	return &Error{Kind: KindTransientNetwork, Err: err}
}

// Malformed wraps err as a MalformedExternalInput failure.
func Malformed(err error) error {
	return &Error{Kind: KindMalformedInput, Err: err}
}

// SubscriberIO wraps err as a SubscriberIO failure.
func SubscriberIO(err error) error {
	return &Error{Kind: KindSubscriberIO, Err: err}
}

// KindOf reports the Kind of err, if it (or something it wraps) is an
// *Error. The second return is false for errors with no classification.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
