package hwmon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

func (lvl LogLevel) IsValid() bool {
	switch lvl {
	case LogLevelDebug:
		fallthrough
	case LogLevelInfo:
		fallthrough
	case LogLevelError:
		return true
	default:
		return false
	}
}

func (lvl LogLevel) LogrusLevel() logrus.Level {
	switch lvl {
	case LogLevelDebug:
		return logrus.DebugLevel
	case LogLevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type logrusFileHook struct {
	file      *os.File
	formatter *logrus.TextFormatter
}

func addLogFileHook(file string, flag int, chmod os.FileMode) (*logrusFileHook, error) {
	dir := filepath.Dir(file)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to create the logs dir: '%s'", dir)
	}

	plainFormatter := &logrus.TextFormatter{FullTimestamp: true, DisableColors: true}
	logFile, err := os.OpenFile(file, flag, chmod)
	if err != nil {
		return nil, errors.Wrap(err, "unable to write log file")
	}

	hook := &logrusFileHook{logFile, plainFormatter}

	logrus.AddHook(hook)

	return hook, nil
}

// Fire event
func (hook *logrusFileHook) Fire(entry *logrus.Entry) error {
	plainformat, err := hook.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = hook.file.Write(plainformat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to write file on filehook(entry.String)%v", err)
		return err
	}

	return nil
}

func (hook *logrusFileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook *logrusFileHook) Close() error {
	return hook.file.Close()
}

// Sets Log level and corresponding logrus level
func (hm *Hwmon) SetLogLevel(lvl LogLevel) {
	hm.Config.LogLevel = lvl
	logrus.SetLevel(lvl.LogrusLevel())
}

// configureLogger sets up the process-wide logger once at startup. The file
// and syslog hooks are added on top of the console output.
func (hm *Hwmon) configureLogger() {
	tfmt := logrus.TextFormatter{FullTimestamp: true, DisableColors: true}

	logrus.SetFormatter(&tfmt)

	hm.SetLogLevel(hm.Config.LogLevel)

	if hm.Config.LogFile != "" {
		logrus.Debug("Adding log file hook ", hm.Config.LogFile)
		hook, err := addLogFileHook(hm.Config.LogFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			logrus.Error("Can't write logs to file: ", err.Error())
		} else {
			hm.logFile = hook
		}
	}

	if hm.Config.LogSyslog != "" {
		logrus.Debug("Adding syslog hook ", hm.Config.LogSyslog)
		err := addSyslogHook(hm.Config.LogSyslog)
		if err != nil {
			logrus.Error("Can't set up syslog: ", err.Error())
		}
	}
}
