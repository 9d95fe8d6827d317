// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventPrinterConnected    EventType = "PRINTER_CONNECTED"
	EventPrinterConnecting   EventType = "PRINTER_CONNECTING"
	EventPrinterDisconnected EventType = "PRINTER_DISCONNECTED"
	EventPrinterError        EventType = "PRINTER_ERROR"
)

// PrinterEvent represents a connection state change
type PrinterEvent struct {
	ID        uuid.UUID       `json:"id"`
	EventType EventType       `json:"event_type"`
	Previous  ConnectionState `json:"previous"`
	Current   ConnectionState `json:"current"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewPrinterEvent builds an event describing the transition from previous to current
func NewPrinterEvent(previous, current ConnectionState) *PrinterEvent {
	return &PrinterEvent{
		ID:        uuid.New(),
		EventType: EventTypeForPhase(current.Phase),
		Previous:  previous,
		Current:   current,
		Timestamp: time.Now(),
	}
}

// EventTypeForPhase maps a connection phase to its event type
func EventTypeForPhase(phase ConnectionPhase) EventType {
	switch phase {
	case PhaseConnected:
		return EventPrinterConnected
	case PhaseConnecting:
		return EventPrinterConnecting
	case PhaseError:
		return EventPrinterError
	default:
		return EventPrinterDisconnected
	}
}
