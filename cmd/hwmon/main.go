package main

import (
	"bufio"
	"fmt"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/kardianos/service"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/cloudradar-monitoring/hwmon"
)

var (
	// set on build:
	// go build -o hwmon -ldflags="-X main.version=$(git describe --always --long --dirty --tag)" github.com/cloudradar-monitoring/hwmon/cmd/hwmon
	version string
)

var svcConfig = &service.Config{
	Name:        "hwmon",
	DisplayName: "Hardware Monitor",
	Description: "Streams CPU and GPU telemetry to a serial display",
}

func askForConfirmation(s string) bool {
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Printf("%s [y/n]: ", s)

		response, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("Failed to read confirmation: %s", err.Error())
		}

		response = strings.ToLower(strings.TrimSpace(response))

		if response == "y" || response == "yes" {
			return true
		} else if response == "n" || response == "no" {
			return false
		}
	}
}

func main() {
	systemManager := service.ChosenSystem()

	var serviceInstallUserPtr *string
	var serviceInstallPtr *bool

	cfgPathPtr := flag.StringP("config", "c", hwmon.DefaultCfgPath, "config file path")
	logLevelPtr := flag.StringP("verbose", "v", "", "log level – overrides the level in config file (values \"error\",\"info\",\"debug\")")
	oneRunOnlyModePtr := flag.BoolP("run-once", "r", false, "one run only – collect a single record, print it and exit")
	outputFilePtr := flag.StringP("output", "o", "-", "file to write the record of a single run to, \"-\" for stdout")
	printConfigPtr := flag.BoolP("print-config", "p", false, "print the active config")
	testLinkPtr := flag.BoolP("test", "t", false, "test the serial link by sending a single record")
	serviceUninstallPtr := flag.BoolP("uninstall", "u", false, fmt.Sprintf("stop and uninstall the system service(%s)", systemManager.String()))
	versionPtr := flag.Bool("version", false, "show the hwmon version")

	// some OS specific flags
	if runtime.GOOS == "windows" {
		serviceInstallPtr = flag.BoolP("install", "s", false, fmt.Sprintf("install and start the system service(%s)", systemManager.String()))
	} else {
		serviceInstallUserPtr = flag.StringP("install", "s", "", fmt.Sprintf("username to install and start the system service(%s)", systemManager.String()))
	}

	flag.Parse()

	// version should be handled first to ensure it will be accessible in case of fatal errors before
	handleFlagVersion(*versionPtr)

	serviceInstall := serviceInstallUserPtr != nil && *serviceInstallUserPtr != "" ||
		serviceInstallPtr != nil && *serviceInstallPtr
	if serviceInstall && *serviceUninstallPtr {
		fmt.Println("Service uninstall(-u) flag can't be used together with service install(-s) flag")
		os.Exit(1)
	}

	cfg, err := hwmon.HandleAllConfigSetup(*cfgPathPtr)
	if err != nil {
		log.Fatalf("Failed to handle hwmon configuration: %s", err.Error())
	}

	handleFlagPrintConfig(*printConfigPtr, cfg)

	hm := hwmon.New(cfg, *cfgPathPtr, version)

	// log level set in flag has a precedence. If specified we need to set it ASAP
	handleFlagLogLevel(hm, *logLevelPtr)

	handleFlagOneRunOnlyMode(hm, *oneRunOnlyModePtr, *outputFilePtr)
	handleFlagTest(*testLinkPtr, hm)

	if !service.Interactive() {
		runUnderOsServiceManager(hm)
	}

	handleFlagServiceUninstall(hm, *serviceUninstallPtr)
	handleFlagServiceInstall(hm, systemManager, serviceInstallUserPtr, serviceInstall, *cfgPathPtr)

	writePidFileIfNeeded(hm)
	defer removePidFileIfNeeded(hm)

	// nothing resulted in os.Exit
	// so lets use the default continuous run mode and wait for interrupt
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM)

	doneChan := make(chan struct{})
	go func() {
		hm.Run()
		close(doneChan)
	}()

	select {
	case sig := <-sigc:
		log.Infof("Got %s signal. Finishing the cycle and exit...", sig.String())
		hm.Stop()
		<-doneChan
	case <-doneChan:
	}

	if err := hm.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close the log file: %s\n", err.Error())
	}
}

func handleFlagVersion(versionFlag bool) {
	if versionFlag {
		fmt.Printf("hwmon v%s released under MIT license. https://github.com/cloudradar-monitoring/hwmon/\n", version)
		os.Exit(0)
	}
}

func handleFlagPrintConfig(printConfig bool, cfg *hwmon.Config) {
	if printConfig {
		fmt.Println(cfg.DumpToml())
		os.Exit(0)
	}
}

func handleFlagLogLevel(hm *hwmon.Hwmon, logLevel string) {
	if hwmon.LogLevel(logLevel).IsValid() {
		hm.SetLogLevel(hwmon.LogLevel(logLevel))
	} else if logLevel != "" {
		log.Warnf("Invalid log level: \"%s\". Set to default: \"%s\"", logLevel, hm.Config.LogLevel)
	}
}

func handleFlagOutput(outputFile string) *os.File {
	// forward output to stdout
	if outputFile == "" || outputFile == "-" {
		return os.Stdout
	}

	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.WithError(err).Fatalf("Failed to create the output file directory: '%s'", dir)
	}

	output, err := os.OpenFile(outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		log.WithError(err).Fatalf("Failed to open the output file: '%s'", outputFile)
	}

	return output
}

func handleFlagOneRunOnlyMode(hm *hwmon.Hwmon, oneRunOnlyMode bool, outputFile string) {
	if !oneRunOnlyMode {
		return
	}

	output := handleFlagOutput(outputFile)
	err := hm.RunOnce(output)
	if output != os.Stdout {
		output.Close()
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	os.Exit(0)
}

func handleFlagTest(testLink bool, hm *hwmon.Hwmon) {
	if !testLink {
		return
	}

	err := hm.TestLink()
	if err != nil {
		fmt.Printf("Serial link test failed: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Printf("Serial link test succeeded, a record was sent to %s\n", hm.Config.SerialPort)
	os.Exit(0)
}

func handleFlagServiceUninstall(hm *hwmon.Hwmon, serviceUninstall bool) {
	if !serviceUninstall {
		return
	}

	systemService, err := getServiceFromFlags(hm, "", "")
	if err != nil {
		log.Fatalf("Failed to get system service: %s", err.Error())
	}

	status, err := systemService.Status()
	if err != nil {
		fmt.Println("Failed to get service status: ", err.Error())
	}

	if status == service.StatusRunning {
		err = systemService.Stop()
		if err != nil {
			// don't exit here, just write a warning and try to uninstall
			fmt.Println("Failed to stop the running service: ", err.Error())
		}
	}

	err = systemService.Uninstall()
	if err != nil {
		fmt.Println("Failed to uninstall the service: ", err.Error())
		os.Exit(1)
	}

	os.Exit(0)
}

func handleFlagServiceInstall(hm *hwmon.Hwmon, systemManager service.System, serviceInstallUserPtr *string, serviceInstall bool, cfgPath string) {
	if !serviceInstall {
		return
	}

	username := ""
	if serviceInstallUserPtr != nil {
		username = *serviceInstallUserPtr
	}

	s, err := getServiceFromFlags(hm, cfgPath, username)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	if username != "" {
		updateServiceConfig(hm, username)
	}

	tryInstallService(s)

	fmt.Printf("hwmon service(%s) installed. Starting...\n", systemManager.String())
	tryStartService(s)

	fmt.Printf("Log file located at: %s\n", hm.Config.LogFile)
	fmt.Printf("Config file located at: %s\n", cfgPath)
	fmt.Printf("Run this command to restart the service: %s\n\n", getSystemManagerCommand(systemManager.String(), svcConfig.Name, "restart"))

	os.Exit(0)
}

func runUnderOsServiceManager(hm *hwmon.Hwmon) {
	systemService, err := getServiceFromFlags(hm, "", "")
	if err != nil {
		log.Fatalf("Failed to get system service: %s", err.Error())
	}

	writePidFileIfNeeded(hm)

	// we are running under OS service manager
	err = systemService.Run()
	removePidFileIfNeeded(hm)
	if err != nil {
		log.Fatalf("Failed to run system service: %s", err.Error())
	}

	_ = hm.Shutdown()
	os.Exit(0)
}

func writePidFileIfNeeded(hm *hwmon.Hwmon) {
	if hm.Config.PidFile != "" && runtime.GOOS != "windows" {
		err := ioutil.WriteFile(hm.Config.PidFile, []byte(strconv.Itoa(os.Getpid())), 0664)
		if err != nil {
			log.Errorf("Failed to write pid file at: %s", hm.Config.PidFile)
		}
	}
}

func removePidFileIfNeeded(hm *hwmon.Hwmon) {
	if hm.Config.PidFile != "" && runtime.GOOS != "windows" {
		err := os.Remove(hm.Config.PidFile)
		if err != nil {
			log.Errorf("Failed to remove pid file at: %s", hm.Config.PidFile)
		}
	}
}
