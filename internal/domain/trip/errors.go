package trip

import "errors"

var (
	ErrTripNotFound      = errors.New("trip not found")
	ErrTripExists        = errors.New("trip already exists")
	ErrStaleState        = errors.New("trip status changed since read")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotAuthorized     = errors.New("actor not authorized for this transition")
)
