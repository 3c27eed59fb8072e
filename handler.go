package hwmon

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/temoto/alive/v2"
)

func (hm *Hwmon) lifecycle() *alive.Alive {
	hm.aliveOnce.Do(func() {
		hm.alive = alive.NewAlive()
	})
	return hm.alive
}

// Run sends one record per interval until Stop is called, then closes the
// link. The cycle in progress when Stop arrives is completed.
func (hm *Hwmon) Run() {
	a := hm.lifecycle()
	link := hm.Link()

	if !a.Add(1) {
		hm.closeLink(link)
		return
	}
	defer a.Done()
	defer hm.closeLink(link)

	hm.discover()

	interval := hm.Config.PollInterval()
	watchdog := watchdogInterval(interval)

	log.Infof("Hardware Monitor Daemon v%s starting...", hm.version)
	sdnotify(daemon.SdNotifyReady)

	for a.IsRunning() {
		started := time.Now()

		hm.runCycle()
		if watchdog > 0 {
			sdnotify(daemon.SdNotifyWatchdog)
		}

		select {
		case <-a.StopChan():
		case <-time.After(sleepDuration(started, time.Now(), interval)):
		}
	}

	sdnotify(daemon.SdNotifyStopping)
}

// Stop asks Run to finish. It returns immediately; use Wait to block until
// the link is closed.
func (hm *Hwmon) Stop() {
	hm.lifecycle().Stop()
}

func (hm *Hwmon) Wait() {
	hm.lifecycle().Wait()
}

func (hm *Hwmon) closeLink(link Sender) {
	if err := link.Close(); err != nil {
		log.WithError(err).Error("Failed to close the link")
	}
	log.Info("Hardware Monitor Daemon stopped")
}

// sleepDuration keeps cycle starts one interval apart. A late cycle only
// shortens the next sleep.
func sleepDuration(started, now time.Time, interval time.Duration) time.Duration {
	d := interval - now.Sub(started)
	if d < 0 {
		return 0
	}
	return d
}

func (hm *Hwmon) runCycle() {
	defer func() {
		if err := recover(); err != nil {
			log.Errorf("Unexpected error occurred (main loop): %v", err)
		}
	}()

	if err := hm.RunOnce(nil); err != nil {
		log.WithError(err).Error("Error in main loop")
	}
}

// Collect reads the metrics in wire order.
func (hm *Hwmon) Collect(ctx context.Context) Reading {
	reader := hm.Reader()

	var r Reading
	r.CPUTemp = optional(reader.ReadCPUTemp(ctx))
	r.CPULoad = optional(reader.ReadCPULoad(ctx))
	r.GPUTemp = optional(reader.ReadGPUTemp(ctx))
	return r
}

// RunOnce collects one reading and writes the record to output, or sends it
// over the link when output is nil.
func (hm *Hwmon) RunOnce(output io.Writer) error {
	record := hm.Collect(context.Background()).Record()

	if output != nil {
		_, err := fmt.Fprintln(output, record)
		return errors.Wrap(err, "failed to write record")
	}

	if !hm.Link().Send(record) {
		return errors.Errorf("failed to send record %s", record)
	}

	log.Debugf("Sent: %s", record)
	return nil
}

// TestLink sends a single record and closes the link.
func (hm *Hwmon) TestLink() error {
	link := hm.Link()
	defer link.Close()

	return hm.RunOnce(nil)
}
