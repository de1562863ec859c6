package driver

import "errors"

var (
	ErrDriverNotFound    = errors.New("driver not found")
	ErrDriverExists      = errors.New("driver already registered")
	ErrIneligible        = errors.New("driver is offline, unapproved or already assigned")
	ErrNotAssigned       = errors.New("driver does not hold this trip assignment")
	ErrInvalidDocsStatus = errors.New("unknown docs status")
)
