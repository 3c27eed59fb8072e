package main

import (
	"github.com/cloudradar-monitoring/hwmon"
)

// services on Windows run as LocalSystem
func updateServiceConfig(_ *hwmon.Hwmon, _ string) {}
