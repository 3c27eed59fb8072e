//go:build darwin
// +build darwin

package hwmon

import (
	"os"
)

func init() {
	DefaultCfgPath = os.Getenv("HOME") + "/.hwmon/hwmon.conf"
	defaultLogPath = os.Getenv("HOME") + "/.hwmon/hwmon.log"
	defaultSerialPort = "/dev/cu.usbmodem1101"
}
