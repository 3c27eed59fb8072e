package hwmon

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cloudradar-monitoring/hwmon/pkg/common"
	"github.com/cloudradar-monitoring/hwmon/pkg/monitoring/sensors"
	"github.com/cloudradar-monitoring/hwmon/pkg/serial"
)

var (
	DefaultCfgPath       string
	defaultLogPath       string
	defaultSerialPort    string
	defaultSerialLockDir string
)

const (
	defaultBaudRate           = 9600
	defaultSerialWriteTimeout = 1.0
	defaultInterval           = 2.0
	defaultCPULoadSample      = 0.5
	defaultGPUQueryCommand    = "nvidia-smi"
	defaultGPUQueryTimeout    = 2.0
)

const defaultConfigHeader = `# This is the config file for hwmon.
# hwmon streams "cpu_temp,cpu_load,gpu_temp" lines to the serial port below.
# Durations are in seconds.
#
# Changes take effect after a restart.

`

type Config struct {
	SerialPort         string  `toml:"serial_port"`
	BaudRate           int     `toml:"baud_rate"`
	SerialWriteTimeout float64 `toml:"serial_write_timeout"`
	SerialLockDir      string  `toml:"serial_lock_dir"` // UUCP lock files, empty disables locking

	Interval      float64 `toml:"interval"`        // between the starts of two records
	CPULoadSample float64 `toml:"cpu_load_sample"` // cpu utilisation sampling window, part of every interval

	GPUQueryCommand string  `toml:"gpu_query_command"` // used when no hwmon GPU device exists, empty disables
	GPUQueryTimeout float64 `toml:"gpu_query_timeout"`

	SysRoot string `toml:"sys_root"`

	PidFile   string   `toml:"pid"`
	LogFile   string   `toml:"log"`
	LogLevel  LogLevel `toml:"log_level"`
	LogSyslog string   `toml:"log_syslog"` // "local" or "udp://host:port"
}

func NewConfig() *Config {
	cfg := &Config{
		SerialPort:         defaultSerialPort,
		BaudRate:           defaultBaudRate,
		SerialWriteTimeout: defaultSerialWriteTimeout,
		SerialLockDir:      defaultSerialLockDir,
		Interval:           defaultInterval,
		CPULoadSample:      defaultCPULoadSample,
		GPUQueryCommand:    defaultGPUQueryCommand,
		GPUQueryTimeout:    defaultGPUQueryTimeout,
		SysRoot:            common.HostSys(""),
		LogFile:            defaultLogPath,
		LogLevel:           LogLevelInfo,
	}

	if port := os.Getenv("HWMON_SERIAL_PORT"); port != "" {
		cfg.SerialPort = port
	}

	if baud := os.Getenv("HWMON_BAUD_RATE"); baud != "" {
		rate, err := strconv.Atoi(baud)
		if err != nil {
			log.Warnf("Ignoring invalid HWMON_BAUD_RATE \"%s\"", baud)
		} else {
			cfg.BaudRate = rate
		}
	}

	return cfg
}

func TryUpdateConfigFromFile(cfg *Config, configFilePath string) error {
	_, err := toml.DecodeFile(configFilePath, cfg)
	if err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", configFilePath)
	}
	return nil
}

func GenerateDefaultConfigFile(cfg *Config, configFilePath string) error {
	dir := filepath.Dir(configFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create the config dir '%s'", dir)
	}

	f, err := os.OpenFile(configFilePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create the default config file '%s'", configFilePath)
	}
	defer f.Close()

	if _, err = f.WriteString(defaultConfigHeader); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(toml.NewEncoder(f).Encode(cfg))
}

// HandleAllConfigSetup loads the config file, creating it with defaults when
// it doesn't exist yet, and validates the result.
func HandleAllConfigSetup(configFilePath string) (*Config, error) {
	cfg := NewConfig()

	_, err := os.Stat(configFilePath)
	switch {
	case os.IsNotExist(err):
		log.Infof("Config file %s does not exist, creating it with defaults", configFilePath)
		err = GenerateDefaultConfigFile(cfg, configFilePath)
	case err == nil:
		err = TryUpdateConfigFromFile(cfg, configFilePath)
	}
	if err != nil {
		return nil, err
	}

	if err = cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", configFilePath)
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	errs := common.ErrorCollector{}

	if cfg.SerialPort == "" {
		errs.Addf("serial_port must be set")
	}
	if cfg.BaudRate <= 0 {
		errs.Addf("baud_rate must be positive, got %d", cfg.BaudRate)
	}
	if cfg.Interval <= 0 {
		errs.Addf("interval must be positive, got %v", cfg.Interval)
	}
	if cfg.CPULoadSample <= 0 || cfg.CPULoadSample >= cfg.Interval {
		errs.Addf("cpu_load_sample must be positive and shorter than interval, got %v", cfg.CPULoadSample)
	}
	if cfg.SerialWriteTimeout < 0 {
		errs.Addf("serial_write_timeout must not be negative, got %v", cfg.SerialWriteTimeout)
	}
	if cfg.GPUQueryTimeout <= 0 {
		errs.Addf("gpu_query_timeout must be positive, got %v", cfg.GPUQueryTimeout)
	}
	if !cfg.LogLevel.IsValid() {
		errs.Addf("invalid log_level \"%s\"", cfg.LogLevel)
	}

	return errs.Combine()
}

func (cfg *Config) DumpToml() string {
	buff := &bytes.Buffer{}
	if err := toml.NewEncoder(buff).Encode(cfg); err != nil {
		return fmt.Sprintf("failed to dump config: %s", err.Error())
	}
	return buff.String()
}

func (cfg *Config) PollInterval() time.Duration {
	return common.SecToDuration(cfg.Interval)
}

func (cfg *Config) LoadWindow() time.Duration {
	return common.SecToDuration(cfg.CPULoadSample)
}

func (cfg *Config) QueryTimeout() time.Duration {
	return common.SecToDuration(cfg.GPUQueryTimeout)
}

func (cfg *Config) SerialConfig() serial.Config {
	return serial.Config{
		Port:         cfg.SerialPort,
		BaudRate:     cfg.BaudRate,
		WriteTimeout: common.SecToDuration(cfg.SerialWriteTimeout),
		LockDir:      cfg.SerialLockDir,
	}
}

func (cfg *Config) NewLocator() *sensors.Locator {
	return sensors.NewLocator(cfg.SysRoot, cfg.GPUQueryCommand, cfg.QueryTimeout())
}
