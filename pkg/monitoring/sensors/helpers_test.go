package sensors

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/require"
)

// sysfsFixture lays out files relative to a temporary sysfs root.
type sysfsFixture struct {
	t    *testing.T
	root string
}

func newSysfsFixture(t *testing.T) *sysfsFixture {
	t.Helper()
	return &sysfsFixture{t: t, root: t.TempDir()}
}

func (f *sysfsFixture) write(rel, content string) string {
	f.t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(f.t, ioutil.WriteFile(path, []byte(content+"\n"), 0644))
	return path
}

func (f *sysfsFixture) thermalZone(n, zoneType, temp string) string {
	dir := filepath.Join("class", "thermal", "thermal_zone"+n)
	f.write(filepath.Join(dir, "type"), zoneType)
	if temp == "" {
		return ""
	}
	return f.write(filepath.Join(dir, "temp"), temp)
}

func (f *sysfsFixture) hwmon(n, name string, inputs map[string]string) string {
	dir := filepath.Join("class", "hwmon", "hwmon"+n)
	f.write(filepath.Join(dir, "name"), name)
	var last string
	for file, value := range inputs {
		last = f.write(filepath.Join(dir, file), value)
	}
	return last
}

type fakeInvoker struct {
	calls  [][]string
	output string
	err    error
}

func (i *fakeInvoker) CommandWithContext(_ context.Context, name string, arg ...string) ([]byte, error) {
	i.calls = append(i.calls, append([]string{name}, arg...))
	return []byte(i.output), i.err
}

func (i *fakeInvoker) commandLines() []string {
	var lines []string
	for _, c := range i.calls {
		lines = append(lines, strings.Join(c, " "))
	}
	return lines
}

func noSensorTable(context.Context) ([]host.TemperatureStat, error) {
	return nil, errors.New("not implemented yet")
}

func staticSensorTable(stats ...host.TemperatureStat) TableFunc {
	return func(context.Context) ([]host.TemperatureStat, error) {
		return stats, nil
	}
}
