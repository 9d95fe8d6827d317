//go:build !linux

// internal/transport/bluetooth_other.go
package transport

import (
	"go.uber.org/zap"

	"printer-service/internal/model"
)

func platformDialer(logger *zap.Logger) (bleDialer, error) {
	return nil, connectErr(model.PrinterKindBluetooth, "Bluetooth requires a Linux HCI device", ErrUnsupportedTransport)
}
