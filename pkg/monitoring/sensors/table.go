package sensors

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

var (
	// cpuSensorGroups is scanned in order, the first group present wins.
	cpuSensorGroups  = []string{"coretemp", "k10temp", "cpu_thermal", "soc_thermal"}
	cpuPackageLabels = []string{"package", "tctl"}
)

// TableFunc returns the platform sensor table.
type TableFunc func(ctx context.Context) ([]host.TemperatureStat, error)

// SensorEntry is one temperature of a sensor group.
type SensorEntry struct {
	Label   string
	Current float64
}

// SensorTable is the OS-provided sensor list keyed by "<group>[_<label>]",
// the form gopsutil reports it in.
type SensorTable []host.TemperatureStat

// LoadSensorTable queries the table. A missing or empty table is reported as
// false; partial results that come with warnings are still used.
func LoadSensorTable(ctx context.Context, query TableFunc) (SensorTable, bool) {
	stats, err := query(ctx)
	if len(stats) == 0 {
		if err != nil {
			log.WithError(err).Debug("sensor table is not available")
		}
		return nil, false
	}
	if err != nil {
		log.WithError(err).Debug("sensor table is incomplete")
	}
	return SensorTable(stats), true
}

// Group returns the entries of the named sensor group in table order.
func (t SensorTable) Group(name string) ([]SensorEntry, bool) {
	var entries []SensorEntry
	prefix := name + "_"
	for _, stat := range t {
		key := strings.ToLower(stat.SensorKey)
		switch {
		case key == name:
			entries = append(entries, SensorEntry{Current: stat.Temperature})
		case strings.HasPrefix(key, prefix):
			entries = append(entries, SensorEntry{Label: strings.TrimPrefix(key, prefix), Current: stat.Temperature})
		}
	}
	return entries, len(entries) > 0
}

// CPUTemperature picks the package temperature of the first known CPU group.
func (t SensorTable) CPUTemperature() (float64, bool) {
	for _, group := range cpuSensorGroups {
		entries, ok := t.Group(group)
		if !ok {
			continue
		}
		for _, entry := range entries {
			if containsAny(entry.Label, cpuPackageLabels) {
				return entry.Current, true
			}
		}
		return entries[0].Current, true
	}
	return 0, false
}
