package common

import (
	"math"
	"os"
	"path/filepath"
	"time"
)

const defaultSysRoot = "/sys"

func RoundToOneDecimalPlace(v float64) float64 {
	return math.Round(v*10) / 10
}

// HostSys joins paths onto the sysfs mount point. The root is taken from
// sysRoot when set, then from HOST_SYS (the same variable gopsutil honours),
// and defaults to /sys.
func HostSys(sysRoot string, combineWith ...string) string {
	root := sysRoot
	if root == "" {
		root = os.Getenv("HOST_SYS")
	}
	if root == "" {
		root = defaultSysRoot
	}

	return filepath.Join(append([]string{root}, combineWith...)...)
}

func SecToDuration(seconds float64) time.Duration {
	return time.Duration(int64(float64(time.Second) * seconds))
}
