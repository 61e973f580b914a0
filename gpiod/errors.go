package gpiod

import (
	"errors"
	"fmt"
)

var (
	// ErrorValidation is returned for invalid offsets, out-of-range
	// enum values or negative debounce periods. It is raised before
	// any hardware interaction takes place.
	ErrorValidation = errors.New("Invalid parameter")

	// ErrorNotExported is returned when a line value is accessed
	// before the line has been exported.
	ErrorNotExported = errors.New("Line is not exported")

	// ErrorDirection is returned when a value is written to a line
	// that is configured as an input.
	ErrorDirection = errors.New("Line is not configured as output")

	// ErrorReleased is returned when a released request is used.
	ErrorReleased = errors.New("Request was released")

	// ErrorLineBusy is returned when an offset is already part of a
	// live request.
	ErrorLineBusy = errors.New("Line is claimed by another request")

	// ErrorChipBusy is returned when a chip is closed while requests
	// on it are still live.
	ErrorChipBusy = errors.New("Chip has live requests")

	// ErrorChipClosed is returned when a closed chip is used.
	ErrorChipClosed = errors.New("Chip is closed")
)

// RequestFailedError is returned when the device layer rejects an
// atomic line claim. The claim is all-or-nothing: when this error is
// returned no line of the request is left claimed.
type RequestFailedError struct {
	Offsets []uint32
	Cause   error
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("Failed to request lines %v: %s", e.Offsets, e.Cause.Error())
}

func (e *RequestFailedError) Unwrap() error {
	return e.Cause
}

// WatchError is delivered once to the listeners of a watched line when
// the blocking edge read fails. The watcher terminates afterwards and
// is not restarted automatically.
type WatchError struct {
	Offset uint32
	Cause  error
}

func (e *WatchError) Error() string {
	return fmt.Sprintf("Watch failed on line %d: %s", e.Offset, e.Cause.Error())
}

func (e *WatchError) Unwrap() error {
	return e.Cause
}
