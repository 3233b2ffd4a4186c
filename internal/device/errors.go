package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // handle not found case
//	}
var (
	// ErrNotFound is returned when a device ID does not exist in the registry.
	ErrNotFound = errors.New("device: not found")

	// ErrExists is returned when registering a device with an ID that already exists.
	ErrExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidDomain is returned when a domain value is not in the closed set.
	ErrInvalidDomain = errors.New("device: invalid domain")

	// ErrInvalidValue is returned when a typed control is given an
	// out-of-range value (brightness, position).
	ErrInvalidValue = errors.New("device: invalid value")
)
