//go:build !windows && !darwin
// +build !windows,!darwin

package hwmon

func init() {
	DefaultCfgPath = "/etc/hwmon/hwmon.conf"
	defaultLogPath = "/var/log/hwmon/hwmon.log"
	defaultSerialPort = "/dev/ttyACM0"
	defaultSerialLockDir = "/var/lock"
}
