package hwmon

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	log "github.com/sirupsen/logrus"
)

// sdnotify is a no-op unless started by systemd with NOTIFY_SOCKET set.
func sdnotify(state string) bool {
	ok, err := daemon.SdNotify(false, state)
	if err != nil {
		log.WithError(err).Debugf("sd_notify %s failed", state)
	}
	return ok
}

// watchdogInterval returns zero when the systemd watchdog is off.
func watchdogInterval(pollInterval time.Duration) time.Duration {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.WithError(err).Warn("Invalid systemd watchdog settings")
		return 0
	}
	if interval > 0 && interval < pollInterval {
		log.Warnf("systemd WatchdogSec (%s) is shorter than the poll interval (%s)", interval, pollInterval)
	}
	return interval
}
