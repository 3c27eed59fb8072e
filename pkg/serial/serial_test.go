package serial

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open(Config{Port: filepath.Join(t.TempDir(), "ttyACM9"), BaudRate: 9600})
	assert.Error(t, err)
}

func TestOpenUnsupportedBaudRate(t *testing.T) {
	dev := filepath.Join(t.TempDir(), "ttyACM0")
	require.NoError(t, ioutil.WriteFile(dev, nil, 0600))

	_, err := Open(Config{Port: dev, BaudRate: -1})
	assert.Error(t, err)
}

func TestPortLock(t *testing.T) {
	lockDir := t.TempDir()

	lock, err := acquirePortLock(lockDir, "/dev/ttyACM0")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(lockDir, "LCK..ttyACM0"))

	lock.release()
	lock.release()
	_, err = os.Stat(filepath.Join(lockDir, "LCK..ttyACM0"))
	assert.True(t, os.IsNotExist(err))
}

func TestPortLockBusy(t *testing.T) {
	lockDir := t.TempDir()
	// the test runner is alive and not us
	require.NoError(t, ioutil.WriteFile(filepath.Join(lockDir, "LCK..ttyUSB0"), []byte(strconv.Itoa(os.Getppid())+"\n"), 0644))

	_, err := acquirePortLock(lockDir, "/dev/ttyUSB0")
	assert.Equal(t, ErrPortLocked, errors.Cause(err))
}

func TestPortLockDisabled(t *testing.T) {
	lock, err := acquirePortLock("", "/dev/ttyACM0")
	require.NoError(t, err)
	assert.NotPanics(t, lock.release)

	lock, err = acquirePortLock("relative/dir", "/dev/ttyACM0")
	require.NoError(t, err, "unusable lock dir only disables locking")
	assert.NotPanics(t, lock.release)
}

func TestWaitDrained(t *testing.T) {
	pending := []int{64, 14, 0}
	queued := func() (int, error) {
		n := pending[0]
		pending = pending[1:]
		return n, nil
	}

	assert.NoError(t, waitDrained(queued, time.Second))
	assert.Empty(t, pending)
}

func TestWaitDrainedTimeout(t *testing.T) {
	stuck := func() (int, error) { return 15, nil }

	started := time.Now()
	err := waitDrained(stuck, 50*time.Millisecond)

	assert.Equal(t, ErrDrainTimeout, errors.Cause(err))
	assert.Less(t, int64(time.Since(started)), int64(time.Second))
}

func TestWaitDrainedQueryError(t *testing.T) {
	broken := func() (int, error) { return 0, errors.New("input/output error") }
	assert.Error(t, waitDrained(broken, time.Second))
}

// A display that stays enumerated but stops reading never empties the queue.
func TestLinkSendStalledDevice(t *testing.T) {
	dev, err := os.Create(filepath.Join(t.TempDir(), "ttyACM0"))
	require.NoError(t, err)

	port := &Port{
		f:            dev,
		writeTimeout: 50 * time.Millisecond,
		queued:       func() (int, error) { return 15, nil },
	}
	l := NewLink(dev.Name(), func() (io.WriteCloser, error) { return port, nil })
	require.True(t, l.Connected())

	done := make(chan bool, 1)
	go func() { done <- l.Send("45.0,12.0,N/A") }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("Send blocked on a stalled device")
	}
	assert.False(t, l.Connected())
}
