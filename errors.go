package lifecycle

import "errors"

var (
	ErrNotFound           = errors.New("no entry registered for this tag")
	ErrAlreadyTaken       = errors.New("handle was already handed out")
	ErrWrongState         = errors.New("operation not allowed in the current state")
	ErrTooEarly           = errors.New("completed before the allowed time range")
	ErrTooLate            = errors.New("completed after the allowed time range")
	ErrMultipleHeartbeats = errors.New("more than one heartbeat in the same cycle")
)
