package session

import "errors"

var (
	// ErrTimeout is synthesized by the scheduler when an operation misses
	// its deadline. The pending slot is freed, so a retry is legal.
	ErrTimeout = errors.New("operation timed out")

	// ErrConflict means an operation is already pending for the same
	// target. The new request is rejected, never queued.
	ErrConflict = errors.New("operation already pending")

	// ErrNeedsCredential is a control signal, not a failure: the target
	// requires a passphrase and none was supplied. No adapter call is made.
	ErrNeedsCredential = errors.New("credential required")

	// ErrNotSaved means the operation only applies to saved networks.
	ErrNotSaved = errors.New("network is not saved")

	// ErrInvalidTransition means a state change was requested that the
	// connection lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
)
