package hwmon

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/temoto/alive/v2"

	"github.com/cloudradar-monitoring/hwmon/pkg/monitoring/sensors"
	"github.com/cloudradar-monitoring/hwmon/pkg/serial"
)

// Reader yields one value per metric; false means unavailable this cycle.
type Reader interface {
	ReadCPUTemp(ctx context.Context) (float64, bool)
	ReadCPULoad(ctx context.Context) (float64, bool)
	ReadGPUTemp(ctx context.Context) (float64, bool)
}

// Sender delivers one record to the consumer.
type Sender interface {
	Send(record string) bool
	Close() error
}

type Hwmon struct {
	Config         *Config
	ConfigLocation string

	discoverOnce sync.Once
	sources      sensors.Sources
	reader       Reader

	linkOnce sync.Once
	link     Sender

	aliveOnce sync.Once
	alive     *alive.Alive

	logFile *logrusFileHook
	version string
}

// New configures logging. Sensor discovery is deferred to the first
// collection so service management does not probe hardware.
func New(cfg *Config, cfgPath string, version string) *Hwmon {
	hm := &Hwmon{
		Config:         cfg,
		ConfigLocation: cfgPath,
		version:        version,
	}

	hm.configureLogger()

	return hm
}

// discover runs sensor discovery once. The set of sources found here is used
// for the lifetime of the process.
func (hm *Hwmon) discover() {
	hm.discoverOnce.Do(func() {
		if hm.reader != nil {
			return
		}
		hm.sources = hm.Config.NewLocator().Discover(context.Background())
		log.Infof("Sensor sources: %s", hm.sources)
		hm.reader = sensors.NewReader(hm.sources, hm.Config.SysRoot, hm.Config.LoadWindow(), hm.Config.QueryTimeout())
	})
}

func (hm *Hwmon) Reader() Reader {
	hm.discover()
	return hm.reader
}

func (hm *Hwmon) Sources() sensors.Sources {
	hm.discover()
	return hm.sources
}

// Link returns the serial link, opening it on first use.
func (hm *Hwmon) Link() Sender {
	hm.linkOnce.Do(func() {
		if hm.link == nil {
			hm.link = serial.NewPortLink(hm.Config.SerialConfig())
		}
	})
	return hm.link
}

func (hm *Hwmon) SetVersion(version string) {
	hm.version = version
}

// Shutdown releases what New acquired. Call it after Wait.
func (hm *Hwmon) Shutdown() error {
	if hm.logFile == nil {
		return nil
	}
	err := hm.logFile.Close()
	hm.logFile = nil
	return err
}
