package sensors

import (
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// readLabel returns the trimmed content of a sysfs attribute such as
// thermal_zone*/type or hwmon*/name.
func readLabel(filePath string) (string, error) {
	fileContent, err := ioutil.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(fileContent)), nil
}

// readMillidegrees reads a sysfs temperature file and converts it to degrees Celsius:
// https://www.kernel.org/doc/Documentation/hwmon/sysfs-interface
func readMillidegrees(filePath string) (float64, error) {
	fileContent, err := ioutil.ReadFile(filePath)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(fileContent)), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unexpected content in %s", filePath)
	}

	return value / 1000.0, nil
}
