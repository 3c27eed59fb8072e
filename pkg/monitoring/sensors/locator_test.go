package sensors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLocator(root string, invoker *fakeInvoker) *Locator {
	l := NewLocator(root, "nvidia-smi", DefaultGPUQueryTimeout)
	l.Invoker = invoker
	return l
}

func TestDiscoverCPUZones(t *testing.T) {
	f := newSysfsFixture(t)
	pkg := f.thermalZone("0", "x86_pkg_temp", "45000")
	f.thermalZone("1", "acpitz", "27800")
	k10 := f.thermalZone("2", "K10TEMP", "51000")
	f.thermalZone("3", "cpu-thermal", "") // no temp file
	f.thermalZone("4", "iwlwifi_1", "38000")
	soc := f.thermalZone("5", "coretemp-isa-0000", "44000")

	zones := newTestLocator(f.root, &fakeInvoker{}).DiscoverCPUZones()

	assert.ElementsMatch(t, []ThermalSource{
		{Path: pkg, Type: "x86_pkg_temp"},
		{Path: k10, Type: "K10TEMP"},
		{Path: soc, Type: "coretemp-isa-0000"},
	}, zones)
}

func TestDiscoverCPUZonesMissingHierarchy(t *testing.T) {
	zones := newTestLocator(t.TempDir(), &fakeInvoker{}).DiscoverCPUZones()
	assert.Empty(t, zones)
}

func TestDiscoverGPU(t *testing.T) {
	t.Run("hwmon-wins-over-query", func(t *testing.T) {
		f := newSysfsFixture(t)
		f.hwmon("0", "coretemp", map[string]string{"temp1_input": "40000"})
		input := f.hwmon("1", "nvidia", map[string]string{"temp1_input": "52000"})
		invoker := &fakeInvoker{output: "50\n"}

		gpu := newTestLocator(f.root, invoker).DiscoverGPU(context.Background())

		assert.Equal(t, GPUSource{Method: GPUDirectFile, Name: "nvidia", Path: input}, gpu)
		assert.Empty(t, invoker.calls, "query command must not be probed")
	})

	t.Run("input-priority", func(t *testing.T) {
		f := newSysfsFixture(t)
		f.hwmon("0", "amdgpu", map[string]string{"temp2_input": "48000", "temp_input": "47000"})

		gpu := newTestLocator(f.root, &fakeInvoker{}).DiscoverGPU(context.Background())

		assert.Equal(t, GPUDirectFile, gpu.Method)
		assert.Equal(t, "temp2_input", gpu.Path[len(gpu.Path)-len("temp2_input"):])
	})

	t.Run("device-subdirectory", func(t *testing.T) {
		f := newSysfsFixture(t)
		f.hwmon("0", "radeon", nil)
		input := f.write("class/hwmon/hwmon0/device/temp1_input", "61000")

		gpu := newTestLocator(f.root, &fakeInvoker{}).DiscoverGPU(context.Background())

		assert.Equal(t, GPUSource{Method: GPUDirectFile, Name: "radeon", Path: input}, gpu)
	})

	t.Run("first-match-wins", func(t *testing.T) {
		f := newSysfsFixture(t)
		first := f.hwmon("0", "amdgpu", map[string]string{"temp1_input": "48000"})
		f.hwmon("1", "nvidia", map[string]string{"temp1_input": "52000"})

		gpu := newTestLocator(f.root, &fakeInvoker{}).DiscoverGPU(context.Background())

		assert.Equal(t, first, gpu.Path)
	})

	t.Run("query-fallback", func(t *testing.T) {
		f := newSysfsFixture(t)
		f.hwmon("0", "nvidia", nil) // device without temperature inputs
		invoker := &fakeInvoker{output: "50\n"}

		gpu := newTestLocator(f.root, invoker).DiscoverGPU(context.Background())

		assert.Equal(t, GPUExternalQuery, gpu.Method)
		assert.Equal(t, []string{"nvidia-smi --query-gpu=temperature.gpu --format=csv,noheader,nounits"}, invoker.commandLines())
		assert.Equal(t, invoker.calls[0], gpu.Command)
	})

	t.Run("none", func(t *testing.T) {
		f := newSysfsFixture(t)
		f.hwmon("0", "coretemp", map[string]string{"temp1_input": "40000"})
		invoker := &fakeInvoker{err: errors.New("executable file not found in $PATH")}

		gpu := newTestLocator(f.root, invoker).DiscoverGPU(context.Background())

		assert.Equal(t, GPUSource{Method: GPUNone}, gpu)
		assert.Equal(t, "none", gpu.String())
	})

	t.Run("query-disabled", func(t *testing.T) {
		invoker := &fakeInvoker{output: "50\n"}
		l := newTestLocator(t.TempDir(), invoker)
		l.GPUQueryCommand = ""

		gpu := l.DiscoverGPU(context.Background())

		assert.Equal(t, GPUNone, gpu.Method)
		assert.Empty(t, invoker.calls)
	})
}

func TestSourcesString(t *testing.T) {
	s := Sources{
		CPUZones: []ThermalSource{{Path: "/sys/class/thermal/thermal_zone0/temp", Type: "x86_pkg_temp"}},
		GPU:      GPUSource{Method: GPUDirectFile, Name: "amdgpu", Path: "/sys/class/hwmon/hwmon3/temp1_input"},
	}
	assert.Equal(t, "cpu zones: x86_pkg_temp at /sys/class/thermal/thermal_zone0/temp; gpu: amdgpu at /sys/class/hwmon/hwmon3/temp1_input", s.String())
	assert.Equal(t, "cpu zones: none; gpu: none", Sources{}.String())
}
