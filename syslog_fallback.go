//go:build windows || nacl || plan9
// +build windows nacl plan9

package hwmon

import "errors"

func addSyslogHook(syslogURL string) error {
	return errors.New("Syslog not available for windows")
}
