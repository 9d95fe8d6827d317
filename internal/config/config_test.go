package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8084", cfg.GetServerAddr())
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 32, cfg.Printer.Width)
	assert.Equal(t, "$", cfg.Printer.Currency)

	defaults := cfg.TransportDefaults()
	assert.Equal(t, 9600, defaults.Serial.BaudRate)
	assert.Equal(t, 8, defaults.Serial.DataBits)
	assert.Equal(t, 1, defaults.Serial.StopBits)
	assert.Equal(t, "none", defaults.Serial.Parity)
	assert.Equal(t, 512, defaults.Bluetooth.ChunkSize)
	assert.Equal(t, "000018f0-0000-1000-8000-00805f9b34fb", defaults.Bluetooth.ServiceUUID)
	assert.Equal(t, "00002af1-0000-1000-8000-00805f9b34fb", defaults.Bluetooth.CharacteristicUUID)
	assert.Equal(t, 30*time.Second, defaults.Bluetooth.ScanTimeout)
	assert.Equal(t, 10*time.Second, defaults.Relay.Timeout)
	assert.Nil(t, cfg.Location())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "printer.yaml")
	content := `
server:
  port: "9090"
printer:
  currency: "€"
  timezone: "Europe/Berlin"
  serial:
    port: /dev/ttyUSB0
  relay:
    endpoint: http://relay.local
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PRINTER_SERVICE_PRINTER_RELAY_API_KEY", "from-env")
	t.Setenv("PRINTER_SERVICE_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "€", cfg.Printer.Currency)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Printer.Serial.Port)
	assert.Equal(t, 9600, cfg.Printer.Serial.BaudRate)
	assert.Equal(t, "http://relay.local", cfg.Printer.Relay.Endpoint)
	assert.Equal(t, "from-env", cfg.Printer.Relay.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)
	require.NotNil(t, cfg.Location())
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Logging.Level = "verbose"
	assert.Error(t, validate(&bad))

	bad = *cfg
	bad.App.Environment = "qa"
	assert.Error(t, validate(&bad))

	bad = *cfg
	bad.Printer.Bluetooth.ChunkSize = 1024
	assert.Error(t, validate(&bad))

	bad = *cfg
	bad.Database.Enabled = true
	bad.Database.Host = ""
	assert.Error(t, validate(&bad))

	bad = *cfg
	bad.Printer.Timezone = "Mars/Olympus"
	assert.Error(t, validate(&bad))
}
