//go:build !windows
// +build !windows

package main

import (
	"os"
	"os/user"
	"strconv"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cloudradar-monitoring/hwmon"
)

func updateServiceConfig(hm *hwmon.Hwmon, userName string) {
	u, err := user.Lookup(userName)
	if err != nil {
		log.WithFields(log.Fields{
			"user": userName,
		}).WithError(err).Fatalln("Failed to find the user")
	}
	svcConfig.UserName = userName

	// the installer usually runs as root, so the files it created belong to root
	for _, path := range []string{hm.Config.LogFile, hm.ConfigLocation} {
		if path == "" {
			continue
		}
		err = chownFile(path, u)
		if err != nil {
			log.WithFields(log.Fields{
				"user": userName,
				"file": path,
			}).WithError(err).Warnln("Failed to chown file")
		}
	}

	// the serial device is normally owned by the dialout group
	log.Infof("Make sure '%s' may open %s (usually via the dialout group)", userName, hm.Config.SerialPort)
}

func chownFile(filePath string, u *user.User) error {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		err = errors.Wrapf(err, "UID(%s) to int conversion failed", u.Uid)
		return err
	}

	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		err = errors.Wrapf(err, "GID(%s) to int conversion failed", u.Gid)
		return err
	}

	return os.Chown(filePath, uid, gid)
}
