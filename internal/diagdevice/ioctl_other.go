//go:build !linux

package diagdevice

import "fmt"

// switchLoggingMode has no implementation outside Linux: /dev/diag is a
// Linux-kernel character device.
func (d *Device) switchLoggingMode() error {
	return fmt.Errorf("diagdevice: DIAG_IOCTL_SWITCH_LOGGING is only supported on linux")
}

func (d *Device) queryRemoteDev() (bool, error) {
	return false, fmt.Errorf("diagdevice: DIAG_IOCTL_REMOTE_DEV is only supported on linux")
}
