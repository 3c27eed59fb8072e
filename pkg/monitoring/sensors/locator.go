package sensors

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudradar-monitoring/hwmon/pkg/common"
)

const DefaultGPUQueryTimeout = 2 * time.Second

var (
	cpuZoneKeywords   = []string{"cpu", "x86_pkg", "coretemp", "k10temp"}
	gpuDeviceKeywords = []string{"nvidia", "amdgpu", "radeon"}
	gpuTempInputs     = []string{"temp1_input", "temp2_input", "temp_input"}

	// GPUQueryArgs asks for a single bare temperature value per GPU.
	GPUQueryArgs = []string{"--query-gpu=temperature.gpu", "--format=csv,noheader,nounits"}
)

// Locator resolves the sensor files once at startup.
type Locator struct {
	SysRoot string

	// GPUQueryCommand is the binary probed when no hwmon GPU device exists.
	// Empty disables the query tier.
	GPUQueryCommand string
	GPUQueryTimeout time.Duration

	Invoker common.Invoker
}

func NewLocator(sysRoot, gpuQueryCommand string, gpuQueryTimeout time.Duration) *Locator {
	if gpuQueryTimeout <= 0 {
		gpuQueryTimeout = DefaultGPUQueryTimeout
	}
	return &Locator{
		SysRoot:         sysRoot,
		GPUQueryCommand: gpuQueryCommand,
		GPUQueryTimeout: gpuQueryTimeout,
		Invoker:         common.Invoke{},
	}
}

// DiscoverCPUZones returns every thermal zone whose type names a CPU sensor,
// in enumeration order.
func (l *Locator) DiscoverCPUZones() []ThermalSource {
	var zones []ThermalSource

	dirs, err := filepath.Glob(common.HostSys(l.SysRoot, "class", "thermal", "thermal_zone*"))
	if err != nil {
		log.WithError(err).Error("failed to list thermal zones")
		return zones
	}

	for _, dir := range dirs {
		zoneType, err := readLabel(filepath.Join(dir, "type"))
		if err != nil {
			log.WithError(err).Debugf("could not read type of thermal zone %s", dir)
			continue
		}
		if !containsAny(zoneType, cpuZoneKeywords) {
			continue
		}

		tempFile := filepath.Join(dir, "temp")
		if _, err := os.Stat(tempFile); err != nil {
			log.WithError(err).Debugf("thermal zone %s has no temperature file", dir)
			continue
		}

		log.Infof("Found CPU thermal zone: %s at %s", zoneType, tempFile)
		zones = append(zones, ThermalSource{Path: tempFile, Type: zoneType})
	}

	return zones
}

type gpuStrategy func(ctx context.Context) (GPUSource, bool)

// DiscoverGPU picks the first GPU temperature source available: a hwmon
// device of a known GPU driver, then the external query command.
func (l *Locator) DiscoverGPU(ctx context.Context) GPUSource {
	for _, strategy := range []gpuStrategy{l.gpuFromHwmon, l.gpuFromQueryCommand} {
		if source, ok := strategy(ctx); ok {
			return source
		}
	}

	log.Warn("No GPU thermal sensor found")
	return GPUSource{Method: GPUNone}
}

func (l *Locator) gpuFromHwmon(_ context.Context) (GPUSource, bool) {
	dirs, err := filepath.Glob(common.HostSys(l.SysRoot, "class", "hwmon", "hwmon*"))
	if err != nil {
		log.WithError(err).Error("failed to list hwmon devices")
		return GPUSource{}, false
	}

	for _, dir := range dirs {
		name, err := readLabel(filepath.Join(dir, "name"))
		if err != nil {
			log.WithError(err).Debugf("could not read name of hwmon device %s", dir)
			continue
		}
		if !containsAny(name, gpuDeviceKeywords) {
			continue
		}

		for _, input := range gpuTempInputs {
			// CentOS has an intermediate /device directory
			for _, candidate := range []string{filepath.Join(dir, input), filepath.Join(dir, "device", input)} {
				if _, err := os.Stat(candidate); err != nil {
					continue
				}
				log.Infof("Found GPU thermal sensor: %s at %s", name, candidate)
				return GPUSource{Method: GPUDirectFile, Name: name, Path: candidate}, true
			}
		}
		log.Debugf("hwmon device %s (%s) has no temperature input", dir, name)
	}

	return GPUSource{}, false
}

func (l *Locator) gpuFromQueryCommand(ctx context.Context) (GPUSource, bool) {
	if l.GPUQueryCommand == "" {
		return GPUSource{}, false
	}

	command := append([]string{l.GPUQueryCommand}, GPUQueryArgs...)

	ctx, cancel := context.WithTimeout(ctx, l.GPUQueryTimeout)
	defer cancel()

	if _, err := l.Invoker.CommandWithContext(ctx, command[0], command[1:]...); err != nil {
		log.WithError(err).Debugf("GPU query command %s is not usable", l.GPUQueryCommand)
		return GPUSource{}, false
	}

	log.Infof("Using %s for GPU temperature", l.GPUQueryCommand)
	return GPUSource{Method: GPUExternalQuery, Name: l.GPUQueryCommand, Command: command}, true
}

// Sources is the result of startup discovery. It is never re-scanned.
type Sources struct {
	CPUZones []ThermalSource
	GPU      GPUSource
}

func (l *Locator) Discover(ctx context.Context) Sources {
	return Sources{
		CPUZones: l.DiscoverCPUZones(),
		GPU:      l.DiscoverGPU(ctx),
	}
}

func (s Sources) String() string {
	zones := "none"
	if len(s.CPUZones) > 0 {
		parts := make([]string, 0, len(s.CPUZones))
		for _, z := range s.CPUZones {
			parts = append(parts, z.Type+" at "+z.Path)
		}
		zones = strings.Join(parts, ", ")
	}
	return "cpu zones: " + zones + "; gpu: " + s.GPU.String()
}
