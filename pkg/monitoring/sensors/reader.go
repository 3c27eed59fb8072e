package sensors

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	psutil "github.com/shirou/gopsutil/v3/common"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/cloudradar-monitoring/hwmon/pkg/common"
)

const DefaultLoadWindow = 500 * time.Millisecond

var errNoLoadSample = errors.New("no cpu utilisation sample")

// LoadFunc samples the average utilisation of all cores over window.
type LoadFunc func(ctx context.Context, window time.Duration) (float64, error)

// Reader produces one value per metric per call. Failures never leave the
// Reader: they are logged and reported as an absent value.
type Reader struct {
	sources Sources
	sysRoot string

	loadWindow   time.Duration
	queryTimeout time.Duration

	sensorTable TableFunc
	cpuLoad     LoadFunc
	invoker     common.Invoker
}

// NewReader reads from the discovered sources. sysRoot also redirects the
// platform sensor table; empty keeps gopsutil's own HOST_SYS handling.
func NewReader(sources Sources, sysRoot string, loadWindow, queryTimeout time.Duration) *Reader {
	if loadWindow <= 0 {
		loadWindow = DefaultLoadWindow
	}
	if queryTimeout <= 0 {
		queryTimeout = DefaultGPUQueryTimeout
	}
	return &Reader{
		sources:      sources,
		sysRoot:      sysRoot,
		loadWindow:   loadWindow,
		queryTimeout: queryTimeout,
		sensorTable:  host.SensorsTemperaturesWithContext,
		cpuLoad:      cpuPercent,
		invoker:      common.Invoke{},
	}
}

// SetSensorTable replaces the platform sensor table query.
func (r *Reader) SetSensorTable(f TableFunc) {
	r.sensorTable = f
}

// SetLoadFunc replaces the CPU utilisation sampler.
func (r *Reader) SetLoadFunc(f LoadFunc) {
	r.cpuLoad = f
}

func (r *Reader) SetInvoker(i common.Invoker) {
	r.invoker = i
}

func (r *Reader) Sources() Sources {
	return r.sources
}

type cpuTempStrategy func(ctx context.Context) (float64, bool)

// ReadCPUTemp returns the CPU temperature in degrees Celsius.
func (r *Reader) ReadCPUTemp(ctx context.Context) (value float64, ok bool) {
	defer recoverMetric("CPU temperature", &value, &ok)

	for _, strategy := range []cpuTempStrategy{r.cpuTempFromSensorTable, r.cpuTempFromThermalZones} {
		if v, found := strategy(ctx); found {
			return common.RoundToOneDecimalPlace(v), true
		}
	}

	log.Debug("CPU temperature is not available")
	return 0, false
}

func (r *Reader) cpuTempFromSensorTable(ctx context.Context) (float64, bool) {
	if r.sysRoot != "" {
		ctx = context.WithValue(ctx, psutil.EnvKey, psutil.EnvMap{psutil.HostSysEnvKey: r.sysRoot})
	}

	table, ok := LoadSensorTable(ctx, r.sensorTable)
	if !ok {
		return 0, false
	}
	return table.CPUTemperature()
}

// cpuTempFromThermalZones reports the hottest readable zone.
func (r *Reader) cpuTempFromThermalZones(_ context.Context) (float64, bool) {
	var hottest float64
	found := false
	for _, zone := range r.sources.CPUZones {
		temp, err := readMillidegrees(zone.Path)
		if err != nil {
			log.WithError(err).Errorf("Error reading thermal zone %s", zone.Type)
			continue
		}
		if !found || temp > hottest {
			hottest = temp
		}
		found = true
	}
	return hottest, found
}

// ReadCPULoad blocks for the sampling window.
func (r *Reader) ReadCPULoad(ctx context.Context) (value float64, ok bool) {
	defer recoverMetric("CPU load", &value, &ok)

	load, err := r.cpuLoad(ctx, r.loadWindow)
	if err != nil {
		log.WithError(err).Error("Error reading CPU load")
		return 0, false
	}
	return common.RoundToOneDecimalPlace(load), true
}

// ReadGPUTemp returns the GPU temperature in degrees Celsius.
func (r *Reader) ReadGPUTemp(ctx context.Context) (value float64, ok bool) {
	defer recoverMetric("GPU temperature", &value, &ok)

	var temp float64
	var err error
	switch r.sources.GPU.Method {
	case GPUDirectFile:
		temp, err = readMillidegrees(r.sources.GPU.Path)
	case GPUExternalQuery:
		temp, err = r.queryGPUTemp(ctx)
	default:
		return 0, false
	}

	if err != nil {
		log.WithError(err).Error("Error reading GPU temperature")
		return 0, false
	}
	return common.RoundToOneDecimalPlace(temp), true
}

func (r *Reader) queryGPUTemp(ctx context.Context) (float64, error) {
	command := r.sources.GPU.Command
	if len(command) == 0 {
		return 0, errors.New("GPU query command is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	out, err := r.invoker.CommandWithContext(ctx, command[0], command[1:]...)
	if err != nil {
		return 0, err
	}

	return parseGPUQueryOutput(out)
}

// parseGPUQueryOutput takes the first GPU when several are reported.
func parseGPUQueryOutput(out []byte) (float64, error) {
	for _, line := range bytes.Split(out, []byte("\n")) {
		field := strings.TrimSpace(string(line))
		if field == "" {
			continue
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "unexpected GPU query output %q", field)
		}
		return value, nil
	}
	return 0, errors.New("empty GPU query output")
}

func cpuPercent(ctx context.Context, window time.Duration) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return 0, errors.Wrap(err, "gopsutil cpu.Percent call")
	}
	if len(percents) == 0 {
		return 0, errNoLoadSample
	}
	return percents[0], nil
}

func recoverMetric(metric string, value *float64, ok *bool) {
	if rec := recover(); rec != nil {
		log.Errorf("Unexpected error reading %s: %v", metric, rec)
		*value, *ok = 0, false
	}
}
