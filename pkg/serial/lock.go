package serial

import (
	"path/filepath"

	"github.com/nightlyone/lockfile"
	"github.com/pkg/errors"
)

var ErrPortLocked = errors.New("serial port is locked by another process")

type portLock struct {
	lock *lockfile.Lockfile
}

func lockFilePath(lockDir, port string) string {
	return filepath.Join(lockDir, "LCK.."+filepath.Base(port))
}

// acquirePortLock takes the UUCP lock of the device. A lock held by a live
// process fails; an unusable lock directory only disables locking.
func acquirePortLock(lockDir, port string) (*portLock, error) {
	if lockDir == "" {
		return &portLock{}, nil
	}

	lockFile, err := lockfile.New(lockFilePath(lockDir, port))
	if err != nil {
		log.WithError(err).Warnf("Serial port lock is disabled for %s", port)
		return &portLock{}, nil
	}

	err = lockFile.TryLock()
	switch errors.Cause(err) {
	case nil:
		return &portLock{lock: &lockFile}, nil
	case lockfile.ErrBusy:
		owner, _ := lockFile.GetOwner()
		if owner != nil {
			return nil, errors.Wrapf(ErrPortLocked, "%s is owned by pid %d", port, owner.Pid)
		}
		return nil, errors.Wrap(ErrPortLocked, port)
	default:
		log.WithError(err).Warnf("Failed to lock serial port %s, continuing without lock", port)
		return &portLock{}, nil
	}
}

func (l *portLock) release() {
	if l == nil || l.lock == nil {
		return
	}
	if err := l.lock.Unlock(); err != nil {
		log.WithError(err).Warn("Failed to release serial port lock")
	}
	l.lock = nil
}
