package link

import "errors"

// ErrUnavailable is returned by ReadLine when the link is not available.
// Callers are expected to check IsAvailable first.
var ErrUnavailable = errors.New("link: not available")

// Link is a line-oriented connection to the accelerometer.
type Link interface {
	// IsAvailable reports whether ReadLine may be called.
	IsAvailable() bool
	// ReadLine returns the next line without its line ending. It may block.
	ReadLine() (string, error)
	// Close releases the link. It is safe to call more than once.
	Close() error
}

// Reopener is implemented by links that can recover after becoming
// unavailable, such as a serial port that was unplugged.
type Reopener interface {
	Reopen() error
}
