// internal/service/errors.go
package service

import (
	"fmt"

	"printer-service/internal/model"
	"printer-service/internal/registry"
)

// ErrNotConnected is returned when printing with no active transport
var ErrNotConnected = registry.ErrNotConnected

// PrintError reports a failed print. Err is either ErrNotConnected, an
// encoding error, or the transport's WriteError unchanged.
type PrintError struct {
	Kind        model.PrinterKind
	RequestType model.RequestType
	Err         error
}

func (e *PrintError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("print %s failed: %v", e.RequestType, e.Err)
	}
	return fmt.Sprintf("print %s on %s failed: %v", e.RequestType, e.Kind, e.Err)
}

func (e *PrintError) Unwrap() error { return e.Err }
