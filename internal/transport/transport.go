// Package transport abstracts the BLE link to the weather station as
// a blocking connect/write/wait/disconnect surface, so the session
// logic never touches callback-based notification delivery directly.
package transport

import (
	"context"
	"errors"
	"time"
)

// Common transport errors.
var (
	ErrAlreadyDisconnected = errors.New("connection already closed")
	ErrUnknownEndpoint     = errors.New("unknown endpoint handle")
)

// Channel describes one notification-bearing characteristic on the
// station: the attribute handle its notifications are tagged with, the
// handle of the client configuration descriptor that arms it, and the
// two-byte payload written there (0x02 0x00 indicate, 0x01 0x00
// notify).
type Channel struct {
	Value  uint16
	CCCD   uint16
	Enable []byte
}

// Notification is one inbound message: the value handle it originated
// from and its raw payload, part marker byte included.
type Notification struct {
	Endpoint uint16
	Payload  []byte
}

// Conn is an open connection to a station. It is owned by exactly one
// session at a time; WaitNotification is the only blocking call and is
// bounded by its timeout.
type Conn interface {
	// Write writes value to the attribute at handle. For CCCD handles
	// this arms notification delivery on the corresponding channel.
	Write(handle uint16, value []byte) error

	// WaitNotification blocks until the next notification arrives or
	// the timeout elapses, in which case ok is false. A timeout is not
	// an error: it is how the station signals the end of a burst.
	WaitNotification(timeout time.Duration) (n Notification, ok bool)

	// Disconnect releases the connection. Calling it twice returns
	// ErrAlreadyDisconnected.
	Disconnect() error
}

// Transport opens connections to stations by MAC address.
type Transport interface {
	Connect(ctx context.Context, addr string) (Conn, error)
}
