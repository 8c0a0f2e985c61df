package shadowpaste

import "errors"

var (
	// ErrUnknownBackend is returned for an unrecognized storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrUnknownPlatform is returned for an unrecognized clipboard platform.
	ErrUnknownPlatform = errors.New("unknown clipboard platform")

	// ErrCaptureRunning is returned when capture is started twice.
	ErrCaptureRunning = errors.New("clipboard capture already running")
)
