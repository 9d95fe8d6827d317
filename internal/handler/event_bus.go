// internal/handler/event_bus.go
package handler

import (
	"sync"

	"go.uber.org/zap"

	"printer-service/internal/model"
)

// EventBus fans printer state changes out to subscribers.
// It implements registry.EventHandler.
type EventBus struct {
	subscribers []chan *model.PrinterEvent
	events      chan *model.PrinterEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
	closed      bool
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		events: make(chan *model.PrinterEvent, 1000),
		logger: logger,
	}
}

// Start distributes events until Stop is called
func (eb *EventBus) Start() {
	for event := range eb.events {
		eb.distributeEvent(event)
	}

	eb.mutex.Lock()
	for _, subscriber := range eb.subscribers {
		close(subscriber)
	}
	eb.subscribers = nil
	eb.mutex.Unlock()
}

// Stop closes the bus and every subscriber channel
func (eb *EventBus) Stop() {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if !eb.closed {
		eb.closed = true
		close(eb.events)
	}
}

// OnStateChanged publishes a connection state transition
func (eb *EventBus) OnStateChanged(previous, current model.ConnectionState) {
	eb.Publish(model.NewPrinterEvent(previous, current))
}

// Publish publishes an event without blocking the caller
func (eb *EventBus) Publish(event *model.PrinterEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	if eb.closed {
		return
	}

	select {
	case eb.events <- event:
	default:
		if eb.logger != nil {
			eb.logger.Warn("Event bus full, dropping event",
				zap.String("event_type", string(event.EventType)),
			)
		}
	}
}

// Subscribe returns a channel receiving every subsequent event
func (eb *EventBus) Subscribe() <-chan *model.PrinterEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	subscriber := make(chan *model.PrinterEvent, 100)
	eb.subscribers = append(eb.subscribers, subscriber)
	return subscriber
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event *model.PrinterEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for _, subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
