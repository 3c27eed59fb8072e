package sensors

import (
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "sensors")

// ThermalSource is a CPU thermal zone resolved at startup.
type ThermalSource struct {
	// Path is the zone's temperature file, reported in millidegrees.
	Path string
	// Type is the zone type label that matched.
	Type string
}

type GPUMethod int

const (
	GPUNone GPUMethod = iota
	GPUDirectFile
	GPUExternalQuery
)

func (m GPUMethod) String() string {
	switch m {
	case GPUDirectFile:
		return "file"
	case GPUExternalQuery:
		return "query"
	default:
		return "none"
	}
}

// GPUSource describes how the GPU temperature is acquired. Only the fields
// matching Method are set.
type GPUSource struct {
	Method GPUMethod
	// Name is the hwmon device name or the query binary.
	Name    string
	Path    string
	Command []string
}

func (s GPUSource) String() string {
	switch s.Method {
	case GPUDirectFile:
		return s.Name + " at " + s.Path
	case GPUExternalQuery:
		return strings.Join(s.Command, " ")
	default:
		return "none"
	}
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
