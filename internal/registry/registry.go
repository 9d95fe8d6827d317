// Package registry owns the single active printer transport and the
// connection state machine around it.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

var (
	// ErrAlreadyConnected is returned by Connect while a session is active
	ErrAlreadyConnected = errors.New("printer already connected")

	// ErrNotConnected is returned by Write when no transport is active
	ErrNotConnected = errors.New("printer not connected")
)

// TransportFactory builds an unconnected transport for a kind
type TransportFactory interface {
	Create(kind model.PrinterKind, params model.ConnectParams) (transport.Transport, error)
}

// EventHandler is notified after every state transition
type EventHandler interface {
	OnStateChanged(previous, current model.ConnectionState)
}

// Registry holds at most one connected transport.
//
// opMu serializes connect, write, status and disconnect so a print never
// observes a half-torn-down transport and two writes never interleave on
// one endpoint. stateMu guards the state for the pure queries, which
// therefore never wait behind an in-flight print.
type Registry struct {
	factory TransportFactory
	logger  *zap.Logger

	opMu   sync.Mutex
	active transport.Transport

	stateMu sync.RWMutex
	state   model.ConnectionState

	handlerMu sync.RWMutex
	handler   EventHandler
}

// New creates a registry in the DISCONNECTED state
func New(factory TransportFactory, logger *zap.Logger) *Registry {
	return &Registry{
		factory: factory,
		logger:  logger.With(zap.String("component", "registry")),
		state: model.ConnectionState{
			Phase: model.PhaseDisconnected,
			Since: time.Now(),
		},
	}
}

// SetEventHandler installs the state-change listener
func (r *Registry) SetEventHandler(handler EventHandler) {
	r.handlerMu.Lock()
	defer r.handlerMu.Unlock()
	r.handler = handler
}

// Connect builds and connects a transport of the given kind.
// It fails with ErrAlreadyConnected while a session is active, leaving it untouched.
func (r *Registry) Connect(ctx context.Context, kind model.PrinterKind, params model.ConnectParams) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.active != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyConnected, r.CurrentKind())
	}

	if !kind.IsValid() {
		return fmt.Errorf("%w: %q", transport.ErrUnsupportedTransport, kind)
	}

	plog := utils.NewPrinterLogger(r.logger, string(kind))

	r.setState(model.ConnectionState{Phase: model.PhaseConnecting, Kind: kind})

	t, err := r.factory.Create(kind, params)
	if err != nil {
		r.fail(kind, err)
		plog.LogConnection("create", transport.IsCancelled(err), err)
		return err
	}

	if err := t.Connect(ctx); err != nil {
		// release whatever the transport acquired before failing
		if derr := t.Disconnect(context.Background()); derr != nil {
			plog.Debug("Release after failed connect", zap.Error(derr))
		}
		r.fail(kind, err)
		plog.LogConnection("connect", transport.IsCancelled(err), err)
		return err
	}

	r.active = t
	r.setState(model.ConnectionState{Phase: model.PhaseConnected, Kind: kind})
	plog.LogConnection("connect", false, nil)
	return nil
}

// Write sends data through the active transport. Any failure tears the
// session down to DISCONNECTED; the caller must reconnect.
//
// Cancelling ctx does not interrupt a write in progress. A deadline on ctx
// still applies and counts as a write failure when it expires.
func (r *Registry) Write(ctx context.Context, data []byte) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.active == nil {
		return ErrNotConnected
	}

	writeCtx, cancel := detachCancel(ctx)
	defer cancel()

	err := r.active.Write(writeCtx, data)
	if err == nil {
		return nil
	}

	kind := r.active.Kind()
	if derr := r.active.Disconnect(context.Background()); derr != nil {
		r.logger.Warn("Release after failed write",
			zap.String("printer_kind", string(kind)),
			zap.Error(derr),
		)
	}
	r.active = nil
	r.fail(kind, err)

	return err
}

// Status queries the active transport. It never changes the connection state.
func (r *Registry) Status(ctx context.Context) (*model.StatusReport, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.active == nil {
		return model.DisconnectedStatus(), nil
	}

	report, err := r.active.Status(ctx)
	if err != nil {
		return nil, err
	}
	if report.Kind == "" {
		report.Kind = r.active.Kind()
	}
	return report, nil
}

// Disconnect releases the active transport. It always ends DISCONNECTED and
// is a no-op success when nothing is connected.
func (r *Registry) Disconnect(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.active == nil {
		if r.State().Phase != model.PhaseDisconnected {
			r.setState(model.ConnectionState{Phase: model.PhaseDisconnected})
		}
		return nil
	}

	kind := r.active.Kind()
	err := r.active.Disconnect(ctx)
	r.active = nil

	next := model.ConnectionState{Phase: model.PhaseDisconnected, Kind: kind}
	if err != nil {
		next.Reason = err.Error()
	}
	r.setState(next)

	plog := utils.NewPrinterLogger(r.logger, string(kind))
	plog.LogConnection("disconnect", false, err)

	if err != nil {
		var derr *transport.DisconnectError
		if !errors.As(err, &derr) {
			err = &transport.DisconnectError{Kind: kind, Err: err}
		}
		return err
	}
	return nil
}

// IsConnected reports whether a transport is connected
func (r *Registry) IsConnected() bool {
	return r.State().IsConnected()
}

// CurrentKind returns the connected printer kind, or "" when disconnected
func (r *Registry) CurrentKind() model.PrinterKind {
	state := r.State()
	if !state.IsConnected() {
		return ""
	}
	return state.Kind
}

// State returns a snapshot of the connection state
func (r *Registry) State() model.ConnectionState {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.state
}

// detachCancel keeps ctx's values and deadline but not its cancellation
func detachCancel(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

// fail reports the error to listeners and rests in DISCONNECTED with the
// reason recorded. A cancelled selection skips the ERROR phase.
func (r *Registry) fail(kind model.PrinterKind, err error) {
	if !transport.IsCancelled(err) {
		r.setState(model.ConnectionState{Phase: model.PhaseError, Kind: kind, Reason: err.Error()})
	}
	r.setState(model.ConnectionState{Phase: model.PhaseDisconnected, Kind: kind, Reason: err.Error()})
}

func (r *Registry) setState(next model.ConnectionState) {
	if next.Since.IsZero() {
		next.Since = time.Now()
	}

	r.stateMu.Lock()
	previous := r.state
	r.state = next
	r.stateMu.Unlock()

	r.handlerMu.RLock()
	handler := r.handler
	r.handlerMu.RUnlock()

	if handler != nil {
		handler.OnStateChanged(previous, next)
	}
}
