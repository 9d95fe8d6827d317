// internal/transport/errors.go
package transport

import (
	"context"
	"errors"
	"fmt"

	"printer-service/internal/model"
)

var (
	// ErrUnsupportedTransport is returned when the runtime lacks the capability for a kind
	ErrUnsupportedTransport = errors.New("unsupported transport")

	// ErrCancelled marks a device selection the user backed out of.
	// It is an expected outcome, not a failure.
	ErrCancelled = errors.New("device selection cancelled")

	// ErrNotOpen is returned when a write is attempted on a transport that was never connected
	ErrNotOpen = errors.New("transport not open")
)

// ConnectError reports a failed negotiation with a printer
type ConnectError struct {
	Kind   model.PrinterKind
	Reason string
	Err    error
}

func (e *ConnectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s connect: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s connect: %s", e.Kind, e.Reason)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// WriteError reports a failed transmission of an encoded job
type WriteError struct {
	Kind   model.PrinterKind
	Reason string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s write: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s write: %s", e.Kind, e.Reason)
}

func (e *WriteError) Unwrap() error { return e.Err }

// DisconnectError reports a failure while releasing a device handle
type DisconnectError struct {
	Kind model.PrinterKind
	Err  error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("%s disconnect: %v", e.Kind, e.Err)
}

func (e *DisconnectError) Unwrap() error { return e.Err }

// IsCancelled reports whether err stems from a cancelled device selection
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

func connectErr(kind model.PrinterKind, reason string, err error) error {
	return &ConnectError{Kind: kind, Reason: reason, Err: err}
}

func writeErr(kind model.PrinterKind, reason string, err error) error {
	return &WriteError{Kind: kind, Reason: reason, Err: err}
}
