//go:build linux

// internal/transport/bluetooth_linux.go
package transport

import (
	"context"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

var (
	hciOnce sync.Once
	hciErr  error
)

// platformDialer opens the HCI device once per process and dials through it
func platformDialer(logger *zap.Logger) (bleDialer, error) {
	hciOnce.Do(func() {
		d, err := linux.NewDevice()
		if err != nil {
			hciErr = err
			return
		}
		ble.SetDefaultDevice(d)
		logger.Info("Bluetooth HCI device opened")
	})

	if hciErr != nil {
		return nil, connectErr(model.PrinterKindBluetooth, "no Bluetooth adapter available", ErrUnsupportedTransport)
	}

	return func(ctx context.Context, filter ble.AdvFilter) (gattClient, error) {
		return ble.Connect(ctx, filter)
	}, nil
}
