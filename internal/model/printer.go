// internal/model/printer.go
package model

import (
	"encoding/json"
	"time"
)

// PrinterKind represents how the printer is attached
type PrinterKind string

const (
	PrinterKindUSB       PrinterKind = "USB"
	PrinterKindBluetooth PrinterKind = "BLUETOOTH"
	PrinterKindSerial    PrinterKind = "SERIAL"
	PrinterKindNetwork   PrinterKind = "NETWORK"
	PrinterKindAPI       PrinterKind = "API"
)

// AllPrinterKinds lists every supported transport kind
var AllPrinterKinds = []PrinterKind{
	PrinterKindUSB,
	PrinterKindBluetooth,
	PrinterKindSerial,
	PrinterKindNetwork,
	PrinterKindAPI,
}

// IsValid reports whether k is a known printer kind
func (k PrinterKind) IsValid() bool {
	for _, kind := range AllPrinterKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ConnectionPhase represents the phase of the printer session
type ConnectionPhase string

const (
	PhaseDisconnected ConnectionPhase = "DISCONNECTED"
	PhaseConnecting   ConnectionPhase = "CONNECTING"
	PhaseConnected    ConnectionPhase = "CONNECTED"
	PhaseError        ConnectionPhase = "ERROR"
)

// ConnectionState is the process-wide printer session state.
// Reason carries the last failure when Phase is ERROR or after a
// failure forced the session back to DISCONNECTED.
type ConnectionState struct {
	Phase  ConnectionPhase `json:"phase"`
	Kind   PrinterKind     `json:"kind,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Since  time.Time       `json:"since"`
}

// IsConnected checks if the state is CONNECTED
func (s ConnectionState) IsConnected() bool {
	return s.Phase == PhaseConnected
}

// ConnectParams carries the transport-specific connection parameters.
// Only the block matching the requested kind is read.
type ConnectParams struct {
	USB       *USBParams       `json:"usb,omitempty"`
	Bluetooth *BluetoothParams `json:"bluetooth,omitempty"`
	Serial    *SerialParams    `json:"serial,omitempty"`
	Network   *NetworkParams   `json:"network,omitempty"`
	API       *APIParams       `json:"api,omitempty"`
}

// USBParams filters USB enumeration by vendor/product identifier (hex, "0x04b8" or "04b8")
type USBParams struct {
	VendorID  string `json:"vendor_id"`
	ProductID string `json:"product_id"`
}

// BluetoothParams selects a BLE printer and its GATT write characteristic
type BluetoothParams struct {
	NamePrefixes       []string `json:"name_prefixes,omitempty"`
	ServiceUUIDs       []string `json:"service_uuids,omitempty"`
	ServiceUUID        string   `json:"service_uuid,omitempty"`
	CharacteristicUUID string   `json:"characteristic_uuid,omitempty"`
	ChunkSize          int      `json:"chunk_size,omitempty"`
}

// SerialParams configures a serial port; zero values fall back to 9600 8N1
type SerialParams struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

// NetworkParams addresses a LAN printer through the relay
type NetworkParams struct {
	Endpoint string `json:"endpoint,omitempty"`
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
}

// APIParams addresses an API-gated relay
type APIParams struct {
	Endpoint string `json:"endpoint,omitempty"`
	APIKey   string `json:"api_key"`
}

// StatusReport is the best-effort introspection result of a transport
type StatusReport struct {
	Kind      PrinterKind            `json:"kind,omitempty"`
	Phase     ConnectionPhase        `json:"phase"`
	Connected bool                   `json:"connected"`
	Live      bool                   `json:"live"`
	Summary   map[string]interface{} `json:"summary,omitempty"`
	Remote    json.RawMessage        `json:"remote,omitempty"`
	CheckedAt time.Time              `json:"checked_at"`
}

// DisconnectedStatus returns the status reported when no transport is active
func DisconnectedStatus() *StatusReport {
	return &StatusReport{
		Phase:     PhaseDisconnected,
		Connected: false,
		CheckedAt: time.Now(),
	}
}
