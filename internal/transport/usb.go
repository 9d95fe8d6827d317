// internal/transport/usb.go
package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"printer-service/internal/model"
)

// usbDevice is the part of an opened USB device the transport needs
type usbDevice interface {
	Desc() *gousb.DeviceDesc
	ActiveConfigNum() (int, error)
	Claim(cfgNum, intfNum, altNum, endpoint int) (usbEndpoint, error)
	Close() error
}

// usbEndpoint is a claimed interface with its bulk OUT endpoint
type usbEndpoint interface {
	Write(data []byte) (int, error)
	Close()
}

// usbOpener opens the first device matching vid/pid
type usbOpener func(vid, pid gousb.ID, autoDetach bool) (usbDevice, error)

// USBTransport writes to the first bulk OUT endpoint of interface 0
type USBTransport struct {
	config   USBConfig
	open     usbOpener
	device   usbDevice
	endpoint usbEndpoint
	outNum   int
	logger   *zap.Logger
	mutex    sync.RWMutex
	stats    Stats
}

// NewUSBTransport creates a USB transport
func NewUSBTransport(params model.ConnectParams, defaults Defaults, logger *zap.Logger) (Transport, error) {
	config := defaults.USB
	if p := params.USB; p != nil {
		if p.VendorID != "" {
			config.VendorID = p.VendorID
		}
		if p.ProductID != "" {
			config.ProductID = p.ProductID
		}
	}

	if config.VendorID == "" || config.ProductID == "" {
		return nil, connectErr(model.PrinterKindUSB, "vendor and product id are required", nil)
	}

	return newUSBTransport(config, openGousbDevice, logger), nil
}

func newUSBTransport(config USBConfig, open usbOpener, logger *zap.Logger) *USBTransport {
	return &USBTransport{
		config: config,
		open:   open,
		logger: logger.With(
			zap.String("transport", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
	}
}

// Kind returns the printer kind
func (ut *USBTransport) Kind() model.PrinterKind {
	return model.PrinterKindUSB
}

// Connect opens the device and claims the interface holding the first OUT endpoint
func (ut *USBTransport) Connect(ctx context.Context) error {
	ut.mutex.Lock()
	defer ut.mutex.Unlock()

	if ut.device != nil {
		return nil
	}

	if err := checkContext(ctx); err != nil {
		return connectErr(model.PrinterKindUSB, "device selection aborted", err)
	}

	vendorID, err := parseHexID(ut.config.VendorID)
	if err != nil {
		return connectErr(model.PrinterKindUSB, "invalid vendor id", err)
	}
	productID, err := parseHexID(ut.config.ProductID)
	if err != nil {
		return connectErr(model.PrinterKindUSB, "invalid product id", err)
	}

	ut.logger.Info("Opening USB device")

	device, err := ut.open(vendorID, productID, ut.config.AutoDetach)
	if err != nil {
		return connectErr(model.PrinterKindUSB, "device not found", err)
	}

	cfgNum, err := device.ActiveConfigNum()
	if err != nil || cfgNum == 0 {
		cfgNum = 1
	}

	altNum, outNum, found := findOutEndpoint(device.Desc(), cfgNum, 0)
	if !found {
		device.Close()
		return connectErr(model.PrinterKindUSB, "no suitable OUT endpoint", nil)
	}

	endpoint, err := device.Claim(cfgNum, 0, altNum, outNum)
	if err != nil {
		device.Close()
		return connectErr(model.PrinterKindUSB, "failed to claim interface", err)
	}

	ut.device = device
	ut.endpoint = endpoint
	ut.outNum = outNum

	ut.logger.Info("USB device opened",
		zap.Int("config", cfgNum),
		zap.Int("alt_setting", altNum),
		zap.Int("endpoint", outNum),
	)
	return nil
}

// Write transmits data to the OUT endpoint
func (ut *USBTransport) Write(ctx context.Context, data []byte) error {
	ut.mutex.RLock()
	defer ut.mutex.RUnlock()

	if ut.endpoint == nil {
		return writeErr(model.PrinterKindUSB, "device not open", ErrNotOpen)
	}

	if err := checkContext(ctx); err != nil {
		return writeErr(model.PrinterKindUSB, "write aborted", err)
	}

	startTime := time.Now()
	n, err := ut.endpoint.Write(data)
	if err != nil {
		ut.stats.recordError()
		ut.logger.Error("USB write failed", zap.Error(err))
		return writeErr(model.PrinterKindUSB, "bulk transfer failed", err)
	}

	if n != len(data) {
		ut.stats.recordError()
		return writeErr(model.PrinterKindUSB, fmt.Sprintf("incomplete write: wrote %d of %d bytes", n, len(data)), nil)
	}

	ut.stats.recordWrite(n, time.Since(startTime))
	ut.logger.Debug("USB write completed", zap.Int("bytes", n))
	return nil
}

// Status returns a static summary of the opened device
func (ut *USBTransport) Status(ctx context.Context) (*model.StatusReport, error) {
	ut.mutex.RLock()
	defer ut.mutex.RUnlock()

	extra := map[string]interface{}{
		"vendor_id":  ut.config.VendorID,
		"product_id": ut.config.ProductID,
	}
	if ut.device != nil {
		extra["endpoint"] = ut.outNum
	}
	return localStatus(model.PrinterKindUSB, ut.device != nil, &ut.stats, extra), nil
}

// Disconnect releases the interface and the device
func (ut *USBTransport) Disconnect(ctx context.Context) error {
	ut.mutex.Lock()
	defer ut.mutex.Unlock()

	if ut.device == nil {
		return nil
	}

	if ut.endpoint != nil {
		ut.endpoint.Close()
		ut.endpoint = nil
	}

	err := ut.device.Close()
	ut.device = nil
	ut.outNum = 0

	if err != nil {
		ut.logger.Warn("Failed to close USB device", zap.Error(err))
		return &DisconnectError{Kind: model.PrinterKindUSB, Err: err}
	}

	ut.logger.Info("USB device closed")
	return nil
}

// findOutEndpoint scans the alternate settings of intfNum in config cfgNum
// and returns the first OUT endpoint in address order
func findOutEndpoint(desc *gousb.DeviceDesc, cfgNum, intfNum int) (alt int, endpoint int, found bool) {
	if desc == nil {
		return 0, 0, false
	}

	cfg, ok := desc.Configs[cfgNum]
	if !ok {
		return 0, 0, false
	}

	for _, intf := range cfg.Interfaces {
		if intf.Number != intfNum {
			continue
		}
		for _, setting := range intf.AltSettings {
			addrs := make([]int, 0, len(setting.Endpoints))
			for addr := range setting.Endpoints {
				addrs = append(addrs, int(addr))
			}
			sort.Ints(addrs)

			for _, addr := range addrs {
				ep := setting.Endpoints[gousb.EndpointAddress(addr)]
				if ep.Direction == gousb.EndpointDirectionOut {
					return setting.Alternate, ep.Number, true
				}
			}
		}
	}
	return 0, 0, false
}

// parseHexID parses hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(hexStr)), "0x")

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}

	return gousb.ID(id), nil
}

// gousbDevice adapts a libusb device and its context
type gousbDevice struct {
	ctx *gousb.Context
	dev *gousb.Device
}

func openGousbDevice(vid, pid gousb.ID, autoDetach bool) (usbDevice, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		ctx.Close()
		return nil, err
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("USB device not found (VID: %s, PID: %s)", vid, pid)
	}

	if autoDetach {
		if err := dev.SetAutoDetach(true); err != nil {
			dev.Close()
			ctx.Close()
			return nil, fmt.Errorf("failed to enable kernel driver auto-detach: %w", err)
		}
	}

	return &gousbDevice{ctx: ctx, dev: dev}, nil
}

func (d *gousbDevice) Desc() *gousb.DeviceDesc {
	return d.dev.Desc
}

func (d *gousbDevice) ActiveConfigNum() (int, error) {
	return d.dev.ActiveConfigNum()
}

func (d *gousbDevice) Claim(cfgNum, intfNum, altNum, endpoint int) (usbEndpoint, error) {
	cfg, err := d.dev.Config(cfgNum)
	if err != nil {
		return nil, fmt.Errorf("failed to select config %d: %w", cfgNum, err)
	}

	intf, err := cfg.Interface(intfNum, altNum)
	if err != nil {
		cfg.Close()
		return nil, fmt.Errorf("failed to claim interface %d: %w", intfNum, err)
	}

	out, err := intf.OutEndpoint(endpoint)
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, fmt.Errorf("failed to open endpoint %d: %w", endpoint, err)
	}

	return &gousbEndpoint{cfg: cfg, intf: intf, out: out}, nil
}

func (d *gousbDevice) Close() error {
	err := d.dev.Close()
	if cerr := d.ctx.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

type gousbEndpoint struct {
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
}

func (e *gousbEndpoint) Write(data []byte) (int, error) {
	return e.out.Write(data)
}

func (e *gousbEndpoint) Close() {
	e.intf.Close()
	e.cfg.Close()
}
