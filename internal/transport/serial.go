// internal/transport/serial.go
package transport

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

// serialOpener opens a port with the given mode
type serialOpener func(port string, mode *serial.Mode) (io.WriteCloser, error)

// SerialTransport writes to a serial port opened 9600 8N1 unless configured otherwise
type SerialTransport struct {
	config SerialConfig
	open   serialOpener
	port   io.WriteCloser
	logger *zap.Logger
	mutex  sync.RWMutex
	stats  Stats
}

// NewSerialTransport creates a serial transport
func NewSerialTransport(params model.ConnectParams, defaults Defaults, logger *zap.Logger) (Transport, error) {
	config := defaults.Serial
	if p := params.Serial; p != nil {
		if p.Port != "" {
			config.Port = p.Port
		}
		if p.BaudRate > 0 {
			config.BaudRate = p.BaudRate
		}
		if p.DataBits > 0 {
			config.DataBits = p.DataBits
		}
		if p.StopBits > 0 {
			config.StopBits = p.StopBits
		}
		if p.Parity != "" {
			config.Parity = p.Parity
		}
	}

	if config.Port == "" {
		return nil, connectErr(model.PrinterKindSerial, "serial port is required", nil)
	}

	return newSerialTransport(config, openSerialPort, logger), nil
}

func newSerialTransport(config SerialConfig, open serialOpener, logger *zap.Logger) *SerialTransport {
	return &SerialTransport{
		config: config,
		open:   open,
		logger: logger.With(
			zap.String("transport", "serial"),
			zap.String("port", config.Port),
		),
	}
}

// Kind returns the printer kind
func (st *SerialTransport) Kind() model.PrinterKind {
	return model.PrinterKindSerial
}

// Connect opens the serial port
func (st *SerialTransport) Connect(ctx context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.port != nil {
		return nil
	}

	if err := checkContext(ctx); err != nil {
		return connectErr(model.PrinterKindSerial, "device selection aborted", err)
	}

	mode, err := serialMode(st.config)
	if err != nil {
		return connectErr(model.PrinterKindSerial, "invalid port settings", err)
	}

	st.logger.Info("Opening serial port",
		zap.Int("baud_rate", mode.BaudRate),
		zap.Int("data_bits", mode.DataBits),
	)

	port, err := st.open(st.config.Port, mode)
	if err != nil {
		st.logger.Error("Failed to open serial port", zap.Error(err))
		return connectErr(model.PrinterKindSerial, "failed to open serial port", err)
	}

	st.port = port
	st.logger.Info("Serial port opened successfully")
	return nil
}

// Write writes data to the port's output stream
func (st *SerialTransport) Write(ctx context.Context, data []byte) error {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	if st.port == nil {
		return writeErr(model.PrinterKindSerial, "serial port not open", ErrNotOpen)
	}

	if err := checkContext(ctx); err != nil {
		return writeErr(model.PrinterKindSerial, "write aborted", err)
	}

	startTime := time.Now()
	written := 0
	for written < len(data) {
		n, err := st.port.Write(data[written:])
		if err != nil {
			st.stats.recordError()
			st.logger.Error("Serial write failed", zap.Error(err))
			return writeErr(model.PrinterKindSerial, "failed to write to serial port", err)
		}
		if n == 0 {
			st.stats.recordError()
			return writeErr(model.PrinterKindSerial, fmt.Sprintf("incomplete write: wrote %d of %d bytes", written, len(data)), nil)
		}
		written += n
	}

	st.stats.recordWrite(written, time.Since(startTime))
	st.logger.Debug("Serial write completed", zap.Int("bytes", written))
	return nil
}

// Status returns a static summary of the open port
func (st *SerialTransport) Status(ctx context.Context) (*model.StatusReport, error) {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	extra := map[string]interface{}{
		"port":      st.config.Port,
		"baud_rate": st.config.BaudRate,
		"data_bits": st.config.DataBits,
		"stop_bits": st.config.StopBits,
		"parity":    st.config.Parity,
	}
	return localStatus(model.PrinterKindSerial, st.port != nil, &st.stats, extra), nil
}

// Disconnect closes the serial port
func (st *SerialTransport) Disconnect(ctx context.Context) error {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if st.port == nil {
		return nil
	}

	err := st.port.Close()
	st.port = nil

	if err != nil {
		st.logger.Error("Failed to close serial port", zap.Error(err))
		return &DisconnectError{Kind: model.PrinterKindSerial, Err: err}
	}

	st.logger.Info("Serial port closed successfully")
	return nil
}

// serialMode translates the configuration into a port mode
func serialMode(config SerialConfig) (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
	}
	if mode.BaudRate <= 0 {
		mode.BaudRate = 9600
	}
	if mode.DataBits <= 0 {
		mode.DataBits = 8
	}

	switch config.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits: %d", config.StopBits)
	}

	switch strings.ToLower(config.Parity) {
	case "", "none":
		mode.Parity = serial.NoParity
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	case "mark":
		mode.Parity = serial.MarkParity
	case "space":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("unsupported parity: %s", config.Parity)
	}

	return mode, nil
}

func openSerialPort(name string, mode *serial.Mode) (io.WriteCloser, error) {
	return serial.Open(name, mode)
}
