//go:build windows
// +build windows

package hwmon

import (
	"os"
	"path/filepath"
)

func init() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}

	exPath := filepath.Dir(ex)

	DefaultCfgPath = filepath.Join(exPath, "./hwmon.conf")
	defaultLogPath = filepath.Join(exPath, "./hwmon.log")
	defaultSerialPort = "COM3"
}
