// internal/transport/bluetooth.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

// gattClient is the part of a connected BLE client the transport needs
type gattClient interface {
	DiscoverServices(filter []ble.UUID) ([]*ble.Service, error)
	DiscoverCharacteristics(filter []ble.UUID, s *ble.Service) ([]*ble.Characteristic, error)
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	CancelConnection() error
}

// bleDialer scans for and connects to the first advertisement accepted by filter
type bleDialer func(ctx context.Context, filter ble.AdvFilter) (gattClient, error)

// BluetoothTransport writes to a GATT characteristic in fixed-size chunks
type BluetoothTransport struct {
	config   BluetoothConfig
	dial     bleDialer
	client   gattClient
	char     *ble.Characteristic
	prefixes []string
	services []ble.UUID
	logger   *zap.Logger
	mutex    sync.RWMutex
	stats    Stats
}

// NewBluetoothTransport creates a Bluetooth LE transport
func NewBluetoothTransport(params model.ConnectParams, defaults Defaults, logger *zap.Logger) (Transport, error) {
	config := defaults.Bluetooth
	if p := params.Bluetooth; p != nil {
		if len(p.NamePrefixes) > 0 {
			config.NamePrefixes = p.NamePrefixes
		}
		if len(p.ServiceUUIDs) > 0 {
			config.ServiceUUIDs = p.ServiceUUIDs
		}
		if p.ServiceUUID != "" {
			config.ServiceUUID = p.ServiceUUID
		}
		if p.CharacteristicUUID != "" {
			config.CharacteristicUUID = p.CharacteristicUUID
		}
		if p.ChunkSize > 0 {
			config.ChunkSize = p.ChunkSize
		}
	}

	dial, err := platformDialer(logger)
	if err != nil {
		return nil, err
	}

	return newBluetoothTransport(config, dial, logger)
}

func newBluetoothTransport(config BluetoothConfig, dial bleDialer, logger *zap.Logger) (*BluetoothTransport, error) {
	if config.ServiceUUID == "" {
		config.ServiceUUID = DefaultServiceUUID
	}
	if config.CharacteristicUUID == "" {
		config.CharacteristicUUID = DefaultCharacteristicUUID
	}
	if config.ChunkSize <= 0 || config.ChunkSize > DefaultChunkSize {
		config.ChunkSize = DefaultChunkSize
	}

	for _, id := range []string{config.ServiceUUID, config.CharacteristicUUID} {
		if _, err := ble.Parse(id); err != nil {
			return nil, connectErr(model.PrinterKindBluetooth, "invalid UUID "+id, err)
		}
	}

	services := make([]ble.UUID, 0, len(config.ServiceUUIDs))
	for _, id := range config.ServiceUUIDs {
		u, err := ble.Parse(id)
		if err != nil {
			return nil, connectErr(model.PrinterKindBluetooth, "invalid service filter "+id, err)
		}
		services = append(services, u)
	}

	prefixes := make([]string, 0, len(config.NamePrefixes))
	for _, p := range config.NamePrefixes {
		prefixes = append(prefixes, strings.ToLower(p))
	}

	return &BluetoothTransport{
		config:   config,
		dial:     dial,
		prefixes: prefixes,
		services: services,
		logger: logger.With(
			zap.String("transport", "bluetooth"),
			zap.Strings("name_prefixes", config.NamePrefixes),
		),
	}, nil
}

// Kind returns the printer kind
func (bt *BluetoothTransport) Kind() model.PrinterKind {
	return model.PrinterKindBluetooth
}

// Connect scans for a matching printer and connects its GATT server
func (bt *BluetoothTransport) Connect(ctx context.Context) error {
	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	if bt.client != nil {
		return nil
	}

	scanCtx := ctx
	if bt.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, bt.config.ScanTimeout)
		defer cancel()
	}

	bt.logger.Info("Scanning for Bluetooth printer")

	client, err := bt.dial(scanCtx, bt.matches)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return connectErr(model.PrinterKindBluetooth, "device selection cancelled", ErrCancelled)
		}
		if errors.Is(scanCtx.Err(), context.DeadlineExceeded) {
			return connectErr(model.PrinterKindBluetooth, "no matching device found", err)
		}
		return connectErr(model.PrinterKindBluetooth, "GATT connect failed", err)
	}

	bt.client = client
	bt.char = nil

	bt.logger.Info("Bluetooth printer connected")
	return nil
}

// matches is the advertisement filter: name prefix or advertised service
func (bt *BluetoothTransport) matches(a ble.Advertisement) bool {
	if len(bt.prefixes) == 0 && len(bt.services) == 0 {
		return true
	}

	name := strings.ToLower(a.LocalName())
	for _, p := range bt.prefixes {
		if name != "" && strings.HasPrefix(name, p) {
			return true
		}
	}

	for _, advertised := range a.Services() {
		for _, want := range bt.services {
			if advertised.Equal(want) {
				return true
			}
		}
	}
	return false
}

// Write resolves the printer characteristic once and sends data in chunks, in order
func (bt *BluetoothTransport) Write(ctx context.Context, data []byte) error {
	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	if bt.client == nil {
		return writeErr(model.PrinterKindBluetooth, "not connected", ErrNotOpen)
	}

	if err := checkContext(ctx); err != nil {
		return writeErr(model.PrinterKindBluetooth, "write aborted", err)
	}

	if bt.char == nil {
		char, err := bt.resolveCharacteristic()
		if err != nil {
			bt.stats.recordError()
			return writeErr(model.PrinterKindBluetooth, "printer characteristic not available", err)
		}
		bt.char = char
	}

	startTime := time.Now()
	size := bt.config.ChunkSize
	for offset := 0; offset < len(data); offset += size {
		end := offset + size
		if end > len(data) {
			end = len(data)
		}

		if err := bt.client.WriteCharacteristic(bt.char, data[offset:end], false); err != nil {
			bt.stats.recordError()
			bt.logger.Error("Characteristic write failed",
				zap.Int("offset", offset),
				zap.Error(err),
			)
			return writeErr(model.PrinterKindBluetooth, fmt.Sprintf("chunk write failed at offset %d", offset), err)
		}
	}

	bt.stats.recordWrite(len(data), time.Since(startTime))
	bt.logger.Debug("Bluetooth write completed",
		zap.Int("bytes", len(data)),
		zap.Int("chunk_size", size),
	)
	return nil
}

func (bt *BluetoothTransport) resolveCharacteristic() (*ble.Characteristic, error) {
	serviceUUID := ble.MustParse(bt.config.ServiceUUID)
	charUUID := ble.MustParse(bt.config.CharacteristicUUID)

	services, err := bt.client.DiscoverServices([]ble.UUID{serviceUUID})
	if err != nil {
		return nil, fmt.Errorf("service discovery failed: %w", err)
	}

	for _, s := range services {
		if !s.UUID.Equal(serviceUUID) {
			continue
		}

		chars, err := bt.client.DiscoverCharacteristics([]ble.UUID{charUUID}, s)
		if err != nil {
			return nil, fmt.Errorf("characteristic discovery failed: %w", err)
		}
		for _, c := range chars {
			if c.UUID.Equal(charUUID) {
				return c, nil
			}
		}
	}

	return nil, fmt.Errorf("characteristic %s not found in service %s", bt.config.CharacteristicUUID, bt.config.ServiceUUID)
}

// Status returns a static summary of the connected device
func (bt *BluetoothTransport) Status(ctx context.Context) (*model.StatusReport, error) {
	bt.mutex.RLock()
	defer bt.mutex.RUnlock()

	extra := map[string]interface{}{
		"service_uuid":        bt.config.ServiceUUID,
		"characteristic_uuid": bt.config.CharacteristicUUID,
		"chunk_size":          bt.config.ChunkSize,
		"resolved":            bt.char != nil,
	}
	return localStatus(model.PrinterKindBluetooth, bt.client != nil, &bt.stats, extra), nil
}

// Disconnect cancels the GATT connection
func (bt *BluetoothTransport) Disconnect(ctx context.Context) error {
	bt.mutex.Lock()
	defer bt.mutex.Unlock()

	if bt.client == nil {
		return nil
	}

	err := bt.client.CancelConnection()
	bt.client = nil
	bt.char = nil

	if err != nil {
		bt.logger.Warn("Failed to cancel GATT connection", zap.Error(err))
		return &DisconnectError{Kind: model.PrinterKindBluetooth, Err: err}
	}

	bt.logger.Info("Bluetooth printer disconnected")
	return nil
}
