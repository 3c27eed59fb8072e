package hwmon

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigEnvOverrides(t *testing.T) {
	t.Setenv("HWMON_SERIAL_PORT", "/dev/ttyUSB7")
	t.Setenv("HWMON_BAUD_RATE", "115200")

	cfg := NewConfig()
	assert.Equal(t, "/dev/ttyUSB7", cfg.SerialPort)
	assert.Equal(t, 115200, cfg.BaudRate)
}

func TestNewConfigInvalidBaudEnvIgnored(t *testing.T) {
	t.Setenv("HWMON_BAUD_RATE", "fast")

	cfg := NewConfig()
	assert.Equal(t, defaultBaudRate, cfg.BaudRate)
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.LoadWindow())
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout())
	assert.Equal(t, "nvidia-smi", cfg.GPUQueryCommand)
	assert.NoError(t, cfg.Validate())
}

func TestTryUpdateConfigFromFile(t *testing.T) {
	const cfgContent = `
serial_port = "/dev/ttyS1"
baud_rate = 57600
interval = 5.0
log_level = "debug"
`
	path := filepath.Join(t.TempDir(), "hwmon.conf")
	require.NoError(t, ioutil.WriteFile(path, []byte(cfgContent), 0644))

	cfg := NewConfig()
	require.NoError(t, TryUpdateConfigFromFile(cfg, path))

	assert.Equal(t, "/dev/ttyS1", cfg.SerialPort)
	assert.Equal(t, 57600, cfg.BaudRate)
	assert.Equal(t, 5.0, cfg.Interval)
	assert.Equal(t, LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, defaultCPULoadSample, cfg.CPULoadSample, "keys missing from the file keep their defaults")
}

func TestTryUpdateConfigFromFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmon.conf")
	require.NoError(t, ioutil.WriteFile(path, []byte("interval = = 2"), 0644))

	assert.Error(t, TryUpdateConfigFromFile(NewConfig(), path))
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "hwmon.conf")

	cfg := NewConfig()
	cfg.SerialPort = "/dev/ttyACM3"
	require.NoError(t, GenerateDefaultConfigFile(cfg, path))

	loaded := &Config{}
	require.NoError(t, TryUpdateConfigFromFile(loaded, path))
	assert.Equal(t, cfg, loaded)
}

func TestHandleAllConfigSetupCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmon.conf")

	cfg, err := HandleAllConfigSetup(path)
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestHandleAllConfigSetupRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwmon.conf")
	require.NoError(t, ioutil.WriteFile(path, []byte("interval = 0.2\ncpu_load_sample = 0.5\n"), 0644))

	_, err := HandleAllConfigSetup(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *Config)
	}{
		{"empty port", func(cfg *Config) { cfg.SerialPort = "" }},
		{"zero baud", func(cfg *Config) { cfg.BaudRate = 0 }},
		{"zero interval", func(cfg *Config) { cfg.Interval = 0 }},
		{"load sample too long", func(cfg *Config) { cfg.CPULoadSample = cfg.Interval }},
		{"negative write timeout", func(cfg *Config) { cfg.SerialWriteTimeout = -1 }},
		{"zero query timeout", func(cfg *Config) { cfg.GPUQueryTimeout = 0 }},
		{"unknown log level", func(cfg *Config) { cfg.LogLevel = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.SerialPort = "/dev/ttyACM0"
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSerialConfig(t *testing.T) {
	cfg := NewConfig()
	cfg.SerialWriteTimeout = 0.25

	sc := cfg.SerialConfig()
	assert.Equal(t, cfg.SerialPort, sc.Port)
	assert.Equal(t, cfg.BaudRate, sc.BaudRate)
	assert.Equal(t, 250*time.Millisecond, sc.WriteTimeout)
	assert.Equal(t, cfg.SerialLockDir, sc.LockDir)
}

func TestLogLevel(t *testing.T) {
	assert.True(t, LogLevelDebug.IsValid())
	assert.True(t, LogLevelInfo.IsValid())
	assert.True(t, LogLevelError.IsValid())
	assert.False(t, LogLevel("trace").IsValid())
	assert.Equal(t, "error", LogLevelError.LogrusLevel().String())
}
