package ea

import "errors"

// Error kinds raised by the trainer. Callers match them with errors.Is.
var (
	// ErrConfiguration reports a trainer that cannot start, e.g. no operators.
	ErrConfiguration = errors.New("configuration error")
	// ErrSizeViolation rejects offspring larger than the maximum individual size.
	ErrSizeViolation = errors.New("offspring exceeds maximum individual size")
	// ErrOperatorFailure wraps a failing or panicking evolutionary operator.
	ErrOperatorFailure = errors.New("evolutionary operator failed")
	// ErrSelectorExhausted is returned when no eligible slot frees up in time.
	ErrSelectorExhausted = errors.New("no eligible genome available for selection")
	// ErrShutdownJoin reports workers that did not stop within the join timeout.
	ErrShutdownJoin = errors.New("training workers did not shut down")
	// ErrTrainerStopped is returned to workers submitting after termination.
	ErrTrainerStopped = errors.New("trainer is stopped")
)
