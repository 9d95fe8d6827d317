// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"printer-service/internal/transport"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Printer  PrinterConfig  `mapstructure:"printer"`
	App      AppConfig      `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host" validate:"required"`
	Port           string        `mapstructure:"port" validate:"required"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// DatabaseConfig represents the print job journal database.
// When disabled the journal is kept in memory.
type DatabaseConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"dbname"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	MigrationsPath string        `mapstructure:"migrations_path"`
	JournalSize    int           `mapstructure:"journal_size"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"required"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// PrinterConfig represents receipt layout and per-transport defaults
type PrinterConfig struct {
	Width      int    `mapstructure:"width"`
	Currency   string `mapstructure:"currency"`
	TimeLayout string `mapstructure:"time_layout"`
	Timezone   string `mapstructure:"timezone"`

	Serial    transport.SerialConfig    `mapstructure:"serial"`
	USB       transport.USBConfig       `mapstructure:"usb"`
	Bluetooth transport.BluetoothConfig `mapstructure:"bluetooth"`
	Relay     transport.RelayConfig     `mapstructure:"relay"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Debug       bool   `mapstructure:"debug"`
}

// Load loads configuration from an optional file and environment variables.
// An empty path searches ./config.yaml and ./configs/config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	// Environment variable support
	v.SetEnvPrefix("PRINTER_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 4<<20)

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "printer_service")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "file://migrations")
	v.SetDefault("database.journal_size", 1000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Printer defaults
	defaults := transport.DefaultDefaults()

	v.SetDefault("printer.width", 32)
	v.SetDefault("printer.currency", "$")
	v.SetDefault("printer.time_layout", "2006-01-02 15:04")
	v.SetDefault("printer.timezone", "")

	v.SetDefault("printer.serial.port", "")
	v.SetDefault("printer.serial.baud_rate", defaults.Serial.BaudRate)
	v.SetDefault("printer.serial.data_bits", defaults.Serial.DataBits)
	v.SetDefault("printer.serial.stop_bits", defaults.Serial.StopBits)
	v.SetDefault("printer.serial.parity", defaults.Serial.Parity)

	v.SetDefault("printer.usb.vendor_id", "")
	v.SetDefault("printer.usb.product_id", "")
	v.SetDefault("printer.usb.auto_detach", defaults.USB.AutoDetach)

	v.SetDefault("printer.bluetooth.name_prefixes", []string{})
	v.SetDefault("printer.bluetooth.service_uuids", defaults.Bluetooth.ServiceUUIDs)
	v.SetDefault("printer.bluetooth.service_uuid", defaults.Bluetooth.ServiceUUID)
	v.SetDefault("printer.bluetooth.characteristic_uuid", defaults.Bluetooth.CharacteristicUUID)
	v.SetDefault("printer.bluetooth.chunk_size", defaults.Bluetooth.ChunkSize)
	v.SetDefault("printer.bluetooth.scan_timeout", defaults.Bluetooth.ScanTimeout.String())

	v.SetDefault("printer.relay.endpoint", "")
	v.SetDefault("printer.relay.api_key", "")
	v.SetDefault("printer.relay.host", "")
	v.SetDefault("printer.relay.port", defaults.Relay.Port)
	v.SetDefault("printer.relay.timeout", defaults.Relay.Timeout.String())

	// App defaults
	v.SetDefault("app.name", "printer-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

// validate validates the configuration
func validate(config *Config) error {
	// Basic validation
	if config.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if config.Database.Enabled && config.Database.Host == "" {
		return fmt.Errorf("database.host is required when the database is enabled")
	}
	if config.Printer.Width <= 0 {
		return fmt.Errorf("printer.width must be positive")
	}
	if config.Printer.Bluetooth.ChunkSize <= 0 || config.Printer.Bluetooth.ChunkSize > transport.DefaultChunkSize {
		return fmt.Errorf("printer.bluetooth.chunk_size must be between 1 and %d", transport.DefaultChunkSize)
	}
	if config.Printer.Timezone != "" {
		if _, err := time.LoadLocation(config.Printer.Timezone); err != nil {
			return fmt.Errorf("printer.timezone: %w", err)
		}
	}

	// Validate environment
	validEnvs := []string{"development", "staging", "production", "test"}
	if !contains(validEnvs, config.App.Environment) {
		return fmt.Errorf("app.environment must be one of: %v", validEnvs)
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error", "fatal"}
	if !contains(validLevels, config.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	return nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// TransportDefaults returns the per-kind settings connect parameters are layered over
func (c *Config) TransportDefaults() transport.Defaults {
	return transport.Defaults{
		Serial:    c.Printer.Serial,
		USB:       c.Printer.USB,
		Bluetooth: c.Printer.Bluetooth,
		Relay:     c.Printer.Relay,
	}
}

// Location returns the receipt timezone, nil when unset
func (c *Config) Location() *time.Location {
	if c.Printer.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(c.Printer.Timezone)
	if err != nil {
		return nil
	}
	return loc
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User,
		c.Database.Password, c.Database.DBName, c.Database.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction checks if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

