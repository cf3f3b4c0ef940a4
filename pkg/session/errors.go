package session

import "errors"

var (
	// ErrNotInitialized is reported by Run before Initialize succeeds.
	ErrNotInitialized = errors.New("session is not initialized")
	// ErrAlreadyInitialized is returned by a second Initialize.
	ErrAlreadyInitialized = errors.New("session is already initialized")
	// ErrBusy is reported by a Run issued while another is in flight.
	ErrBusy = errors.New("session is busy")
)
