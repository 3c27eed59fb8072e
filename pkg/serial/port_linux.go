//go:build linux
// +build linux

package serial

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var baudRates = map[int]uint32{
	1200:    unix.B1200,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

func openDevice(path string, baud int) (*os.File, error) {
	rate, ok := baudRates[baud]
	if !ok {
		return nil, errors.Wrapf(ErrUnsupportedBaudRate, "%d", baud)
	}

	// O_NONBLOCK makes the descriptor pollable so write deadlines apply
	f, err := os.OpenFile(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0600)
	if err != nil {
		return nil, err
	}

	if err := control(f, func(fd int) error { return setRawMode(fd, rate) }); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// control runs fn on the descriptor without f.Fd(), which would switch the
// file back to blocking mode.
func control(f *os.File, fn func(fd int) error) error {
	raw, err := f.SyscallConn()
	if err != nil {
		return err
	}

	var fnErr error
	err = raw.Control(func(fd uintptr) {
		fnErr = fn(int(fd))
	})
	if err != nil {
		return err
	}
	return fnErr
}

// setRawMode configures 8N1 without flow control or line processing.
func setRawMode(fd int, rate uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return errors.Wrap(err, "TCGETS")
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | rate
	t.Ispeed = rate
	t.Ospeed = rate
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return errors.Wrap(err, "TCSETS")
	}
	return nil
}

// outputQueued is TIOCOUTQ: bytes written but not yet sent by the driver.
func outputQueued(f *os.File) (int, error) {
	var n int
	err := control(f, func(fd int) error {
		var err error
		n, err = unix.IoctlGetInt(fd, unix.TIOCOUTQ)
		return err
	})
	if err == unix.ENOTTY {
		return 0, nil
	}
	return n, err
}
