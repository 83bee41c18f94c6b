//go:build linux

package diagdevice

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/rayhunter-go/rayhunter/internal/constants"
)

// switchLoggingMode issues DIAG_IOCTL_SWITCH_LOGGING with the legacy
// single-int MEMORY_DEVICE_MODE argument; if that fails, it retries with
// the 3-int parameter shape [mode, -1, 0] (spec §4.2, §6).
func (d *Device) switchLoggingMode() error {
	fd := d.file.Fd()

	mode := int32(constants.MemoryDeviceMode)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(constants.DiagIoctlSwitchLogging), uintptr(unsafe.Pointer(&mode)))
	if errno == 0 {
		return nil
	}

	params := [3]int32{constants.MemoryDeviceMode, -1, 0}
	_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, uintptr(constants.DiagIoctlSwitchLogging), uintptr(unsafe.Pointer(&params)))
	if errno != 0 {
		return fmt.Errorf("DIAG_IOCTL_SWITCH_LOGGING: %w", errno)
	}
	return nil
}

// queryRemoteDev issues DIAG_IOCTL_REMOTE_DEV to discover whether writes
// must be prefixed with the MDM remote token.
func (d *Device) queryRemoteDev() (bool, error) {
	fd := d.file.Fd()
	var remote int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(constants.DiagIoctlRemoteDev), uintptr(unsafe.Pointer(&remote)))
	if errno != 0 {
		return false, fmt.Errorf("DIAG_IOCTL_REMOTE_DEV: %w", errno)
	}
	return remote != 0, nil
}
