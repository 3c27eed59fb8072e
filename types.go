package hwmon

import (
	"strconv"
	"strings"
)

// NotAvailable stands in for a metric that could not be read.
const NotAvailable = "N/A"

// Reading is one poll cycle. A nil field was unavailable, which is not the
// same as zero.
type Reading struct {
	CPUTemp *float64
	CPULoad *float64
	GPUTemp *float64
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// Record renders the wire form "cpu_temp,cpu_load,gpu_temp".
func (r Reading) Record() string {
	return strings.Join([]string{
		formatField(r.CPUTemp),
		formatField(r.CPULoad),
		formatField(r.GPUTemp),
	}, ",")
}

func formatField(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
