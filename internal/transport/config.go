// internal/transport/config.go
package transport

import "time"

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port     string `json:"port" mapstructure:"port"`
	BaudRate int    `json:"baud_rate" mapstructure:"baud_rate"`
	DataBits int    `json:"data_bits" mapstructure:"data_bits"`
	StopBits int    `json:"stop_bits" mapstructure:"stop_bits"`
	Parity   string `json:"parity" mapstructure:"parity"`
}

// USBConfig represents USB connection configuration
type USBConfig struct {
	VendorID   string `json:"vendor_id" mapstructure:"vendor_id"`
	ProductID  string `json:"product_id" mapstructure:"product_id"`
	AutoDetach bool   `json:"auto_detach" mapstructure:"auto_detach"`
}

// BluetoothConfig represents BLE connection configuration
type BluetoothConfig struct {
	NamePrefixes       []string      `json:"name_prefixes" mapstructure:"name_prefixes"`
	ServiceUUIDs       []string      `json:"service_uuids" mapstructure:"service_uuids"`
	ServiceUUID        string        `json:"service_uuid" mapstructure:"service_uuid"`
	CharacteristicUUID string        `json:"characteristic_uuid" mapstructure:"characteristic_uuid"`
	ChunkSize          int           `json:"chunk_size" mapstructure:"chunk_size"`
	ScanTimeout        time.Duration `json:"scan_timeout" mapstructure:"scan_timeout"`
}

// RelayConfig represents the HTTP relay used by network and API printers
type RelayConfig struct {
	Endpoint string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey   string        `json:"-" mapstructure:"api_key"`
	Host     string        `json:"host" mapstructure:"host"`
	Port     int           `json:"port" mapstructure:"port"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Defaults holds the per-kind configuration that connect parameters override
type Defaults struct {
	Serial    SerialConfig    `mapstructure:"serial"`
	USB       USBConfig       `mapstructure:"usb"`
	Bluetooth BluetoothConfig `mapstructure:"bluetooth"`
	Relay     RelayConfig     `mapstructure:"relay"`
}

const (
	DefaultServiceUUID        = "000018f0-0000-1000-8000-00805f9b34fb"
	DefaultCharacteristicUUID = "00002af1-0000-1000-8000-00805f9b34fb"
	DefaultChunkSize          = 512
	DefaultNetworkPort        = 9100
)

// DefaultDefaults returns the settings used when nothing is configured
func DefaultDefaults() Defaults {
	return Defaults{
		Serial: SerialConfig{
			BaudRate: 9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "none",
		},
		USB: USBConfig{
			AutoDetach: true,
		},
		Bluetooth: BluetoothConfig{
			ServiceUUIDs:       []string{DefaultServiceUUID},
			ServiceUUID:        DefaultServiceUUID,
			CharacteristicUUID: DefaultCharacteristicUUID,
			ChunkSize:          DefaultChunkSize,
			ScanTimeout:        30 * time.Second,
		},
		Relay: RelayConfig{
			Port:    DefaultNetworkPort,
			Timeout: 10 * time.Second,
		},
	}
}
