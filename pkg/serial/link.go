package serial

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

var ErrLinkClosed = errors.New("link is closed")

// Opener opens the transport of a Link.
type Opener func() (io.WriteCloser, error)

type flusher interface {
	Flush() error
}

// Link delivers records over a transport that may come and go. It is either
// connected (port != nil) or disconnected; a failed write drops back to
// disconnected and the next Send reconnects once.
type Link struct {
	name string
	open Opener

	mu     sync.Mutex
	port   io.WriteCloser
	closed bool
}

// NewLink makes one connection attempt. The link is usable even when it
// fails.
func NewLink(name string, open Opener) *Link {
	l := &Link{name: name, open: open}
	l.Connect()
	return l
}

// NewPortLink builds a Link over the serial device described by cfg.
func NewPortLink(cfg Config) *Link {
	return NewLink(cfg.Port, func() (io.WriteCloser, error) {
		return Open(cfg)
	})
}

func (l *Link) Connect() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.connect()
}

func (l *Link) connect() bool {
	if l.closed {
		return false
	}
	if l.port != nil {
		return true
	}

	port, err := l.open()
	if err != nil {
		log.WithError(err).Errorf("Failed to connect to serial port %s", l.name)
		return false
	}

	l.port = port
	log.Infof("Connected to serial port %s", l.name)
	return true
}

func (l *Link) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.port != nil
}

// Send writes record and a line terminator. It never retries beyond the
// single reconnect of a disconnected link.
func (l *Link) Send(record string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		log.WithError(ErrLinkClosed).Debug("Dropping record")
		return false
	}

	if l.port == nil {
		log.Warnf("Serial port %s not connected, attempting reconnect...", l.name)
		if !l.connect() {
			return false
		}
	}

	if err := l.write(record); err != nil {
		log.WithError(err).Errorf("Error sending data via serial port %s", l.name)
		l.disconnect()
		return false
	}

	return true
}

func (l *Link) write(record string) error {
	if _, err := io.WriteString(l.port, record+"\n"); err != nil {
		return errors.Wrap(err, "write")
	}
	if f, ok := l.port.(flusher); ok {
		if err := f.Flush(); err != nil {
			return errors.Wrap(err, "flush")
		}
	}
	return nil
}

func (l *Link) disconnect() {
	if l.port == nil {
		return
	}
	if err := l.port.Close(); err != nil {
		log.WithError(err).Debugf("Error closing serial port %s", l.name)
	}
	l.port = nil
}

// Close releases the port. Further sends fail; calling it again is a no-op.
func (l *Link) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.port == nil {
		return nil
	}

	err := l.port.Close()
	l.port = nil
	if err != nil {
		return errors.Wrapf(err, "failed to close serial port %s", l.name)
	}
	log.Infof("Serial port %s closed", l.name)
	return nil
}
