package station

import (
	"errors"
	"fmt"
)

// ErrAlreadyConnected reports a session started while the previous
// session's connection is still open. This is a programming error, not
// an environmental one: it is never retried and should fail loudly.
var ErrAlreadyConnected = errors.New("session already holds an open connection")

// ConnectError is a transport-level connection failure. Transient.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to station %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ActivationError is a failed notification-enable write. The session
// forces a disconnect before surfacing one, so the station's link is
// never left half-configured. Transient.
type ActivationError struct {
	Handle uint16
	Err    error
}

func (e *ActivationError) Error() string {
	return fmt.Sprintf("enable notifications via handle 0x%04x: %v", e.Handle, e.Err)
}

func (e *ActivationError) Unwrap() error { return e.Err }

// NoDataError reports a session that completed its collection loop
// without a required channel reaching a complete reassembled state.
// Transient: the next attempt usually gets the full burst.
type NoDataError struct {
	Source string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no complete %s data received from station", e.Source)
}

// IsTransient reports whether err is an environmental failure worth
// retrying. Invariant violations and malformed configuration are not.
func IsTransient(err error) bool {
	var ce *ConnectError
	var ae *ActivationError
	var ne *NoDataError
	return errors.As(err, &ce) || errors.As(err, &ae) || errors.As(err, &ne)
}
