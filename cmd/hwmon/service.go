package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kardianos/service"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/cloudradar-monitoring/hwmon"
)

type serviceWrapper struct {
	Hwmon *hwmon.Hwmon
}

func (sw *serviceWrapper) Start(s service.Service) error {
	go sw.Hwmon.Run()
	return nil
}

func (sw *serviceWrapper) Stop(s service.Service) error {
	log.Info("Finishing the cycle and stop the service...")
	sw.Hwmon.Stop()
	sw.Hwmon.Wait()
	return nil
}

func getServiceFromFlags(hm *hwmon.Hwmon, configPath, userName string) (service.Service, error) {
	prg := &serviceWrapper{Hwmon: hm}

	if configPath != "" {
		if !filepath.IsAbs(configPath) {
			var err error
			configPath, err = filepath.Abs(configPath)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to get absolute path to config at '%s'", configPath)
			}
		}
		svcConfig.Arguments = []string{"-c", configPath}
	}

	if userName != "" {
		svcConfig.UserName = userName
	}

	return service.New(prg, svcConfig)
}

func tryStartService(s service.Service) {
	log.Info("Starting service...")
	err := s.Start()
	if err != nil {
		log.WithError(err).Warningf("hwmon service(%s) startup failed", s.Platform())
	}
}

func tryInstallService(s service.Service) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.Install()
		// Check error case where the service already exists
		if err != nil && strings.Contains(err.Error(), "already exists") {
			if attempt == maxAttempts {
				log.Fatalf("Giving up after %d attempts", maxAttempts)
			}

			var osSpecificNote string
			if runtime.GOOS == "windows" {
				osSpecificNote = " Windows Services Manager application must be closed before proceeding!"
			}

			fmt.Printf("hwmon service(%s) already installed: %s\n", s.Platform(), err.Error())
			if askForConfirmation("Do you want to overwrite it?" + osSpecificNote) {
				log.Info("Trying to override old service unit...")
				err = s.Stop()
				if err != nil {
					log.WithError(err).Warnln("Failed to stop the service")
				}

				// lets try to uninstall despite of this error
				err := s.Uninstall()
				if err != nil {
					log.WithError(err).Fatalln("Failed to uninstall the service")
				}
			}
		} else if err != nil {
			log.WithError(err).Fatalf("hwmon service(%s) installation failed", s.Platform())
		} else {
			log.Infof("hwmon service(%s) has been installed.", s.Platform())
			break
		}
	}
}

func getSystemManagerCommand(manager string, service string, command string) string {
	switch manager {
	case "unix-systemv":
		return "sudo service " + service + " " + command
	case "linux-upstart":
		return "sudo initctl " + command + " " + service
	case "linux-systemd":
		return "sudo systemctl " + command + " " + service + ".service"
	case "darwin-launchd":
		switch command {
		case "stop":
			command = "unload"
		case "start":
			command = "load"
		case "restart":
			return "sudo launchctl unload " + service + " && sudo launchctl load " + service
		}
		return "sudo launchctl " + command + " " + service
	case "windows-service":
		return "sc " + command + " " + service
	default:
		return ""
	}
}
