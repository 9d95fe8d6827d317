// internal/transport/factory.go
package transport

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// Constructor creates a transport from connect parameters layered over defaults
type Constructor func(params model.ConnectParams, defaults Defaults, logger *zap.Logger) (Transport, error)

// Factory manages transport registration and creation
type Factory struct {
	constructors map[model.PrinterKind]Constructor
	defaults     Defaults
	mu           sync.RWMutex
	logger       *zap.Logger
}

// NewFactory creates a new transport factory
func NewFactory(defaults Defaults, logger *zap.Logger) *Factory {
	return &Factory{
		constructors: make(map[model.PrinterKind]Constructor),
		defaults:     defaults,
		logger:       logger,
	}
}

// Register registers a constructor for a printer kind, replacing any previous one
func (f *Factory) Register(kind model.PrinterKind, constructor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.constructors[kind] = constructor
	f.logger.Debug("Transport registered", zap.String("kind", string(kind)))
}

// Create builds a transport for kind. It does not connect it.
func (f *Factory) Create(kind model.PrinterKind, params model.ConnectParams) (Transport, error) {
	f.mu.RLock()
	constructor, exists := f.constructors[kind]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransport, kind)
	}

	return constructor(params, f.defaults, f.logger)
}

// IsSupported checks if a constructor is registered for kind
func (f *Factory) IsSupported(kind model.PrinterKind) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, exists := f.constructors[kind]
	return exists
}

// Kinds returns the registered printer kinds in a stable order
func (f *Factory) Kinds() []model.PrinterKind {
	f.mu.RLock()
	defer f.mu.RUnlock()

	kinds := make([]model.PrinterKind, 0, len(f.constructors))
	for kind := range f.constructors {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// RegisterDefaultTransports registers the five built-in transport variants
func RegisterDefaultTransports(factory *Factory, logger *zap.Logger) {
	factory.Register(model.PrinterKindUSB, NewUSBTransport)
	factory.Register(model.PrinterKindBluetooth, NewBluetoothTransport)
	factory.Register(model.PrinterKindSerial, NewSerialTransport)
	factory.Register(model.PrinterKindNetwork, NewNetworkTransport)
	factory.Register(model.PrinterKindAPI, NewAPITransport)

	logger.Info("Printer transports registered",
		zap.Int("kinds", len(factory.Kinds())),
	)
}
