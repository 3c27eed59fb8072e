// Package serial owns the point-to-point link to the display controller.
package serial

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("package", "serial")

var (
	ErrUnsupportedBaudRate = errors.New("unsupported baud rate")
	ErrDrainTimeout        = errors.New("output queue did not drain in time")
)

const drainPollInterval = 5 * time.Millisecond

type Config struct {
	// Port is the device path, e.g. /dev/ttyACM0.
	Port     string
	BaudRate int
	// WriteTimeout bounds a single record write. Zero disables the deadline.
	WriteTimeout time.Duration
	// LockDir holds UUCP style LCK..<device> files. Empty disables locking.
	LockDir string
}

// Port is an open serial device.
type Port struct {
	f            *os.File
	lock         *portLock
	writeTimeout time.Duration

	// queued reports the bytes still waiting in the driver's output queue.
	queued func() (int, error)
}

// Open opens and configures the device named in cfg.
func Open(cfg Config) (*Port, error) {
	lock, err := acquirePortLock(cfg.LockDir, cfg.Port)
	if err != nil {
		return nil, err
	}

	f, err := openDevice(cfg.Port, cfg.BaudRate)
	if err != nil {
		lock.release()
		return nil, errors.Wrapf(err, "failed to open %s", cfg.Port)
	}

	port := &Port{f: f, lock: lock, writeTimeout: cfg.WriteTimeout}
	port.queued = func() (int, error) { return outputQueued(f) }
	return port, nil
}

func (p *Port) Name() string {
	return filepath.Base(p.f.Name())
}

func (p *Port) Write(b []byte) (int, error) {
	if p.writeTimeout > 0 {
		if err := p.f.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err != nil && err != os.ErrNoDeadline {
			return 0, errors.Wrap(err, "failed to set write deadline")
		}
	}
	return p.f.Write(b)
}

// Flush waits until the written bytes have been transmitted, for at most
// the write timeout. A device that stopped reading keeps its queue full.
func (p *Port) Flush() error {
	return waitDrained(p.queued, p.writeTimeout)
}

// waitDrained polls the output queue until it is empty. A zero timeout waits
// without limit.
func waitDrained(queued func() (int, error), timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		n, err := queued()
		if err != nil {
			return errors.Wrap(err, "failed to query output queue")
		}
		if n == 0 {
			return nil
		}
		if timeout > 0 && !time.Now().Before(deadline) {
			return errors.Wrapf(ErrDrainTimeout, "%d bytes pending after %s", n, timeout)
		}
		time.Sleep(drainPollInterval)
	}
}

func (p *Port) Close() error {
	err := p.f.Close()
	p.lock.release()
	return err
}
