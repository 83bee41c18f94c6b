// Package diagdevice opens the kernel diag character device, performs the
// mode-switch/remote-dev ioctls, and turns its raw buffer stream into typed
// containers (spec §4.2). The shape — a small struct wrapping a raw fd,
// Config carrying Logger/Observer, a retry loop around device-node
// appearance — follows the teacher's internal/ctrl.Controller and
// internal/queue.Runner; the actual I/O is plain blocking read(2)/write(2)
// rather than io_uring, since /dev/diag has no URING_CMD-style interface
// (see DESIGN.md).
package diagdevice

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/logging"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// rwc is the subset of *os.File the device layer needs. It exists so
// ReadContainer/WriteRequest can be exercised in tests against an in-memory
// fake without touching /dev/diag or ioctl(2).
type rwc interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Device wraps the open /dev/diag file descriptor.
type Device struct {
	f        rwc
	file     *os.File // non-nil only when opened via Open; used for ioctl(2)
	mdmToken bool      // true if writes must be prefixed with the MDM remote token
	logger   *logging.Logger

	writeMu sync.Mutex
	readBuf []byte
}

// NewForTesting builds a Device around an arbitrary rwc, bypassing the
// open(2)/ioctl(2) dance in Open. Used by this package's tests.
func NewForTesting(f rwc, mdmToken bool, bufSize int) *Device {
	if bufSize == 0 {
		bufSize = constants.DefaultReadBufferSize
	}
	return &Device{f: f, mdmToken: mdmToken, logger: logging.Default(), readBuf: make([]byte, bufSize)}
}

// Config controls device startup.
type Config struct {
	Path            string // defaults to constants.DiagDevicePath
	Logger          *logging.Logger
	OpenRetryCount  int
	OpenRetryDelay  time.Duration
	ReadBufferBytes int
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = constants.DiagDevicePath
	}
	if c.Logger == nil {
		c.Logger = logging.Default()
	}
	if c.OpenRetryCount == 0 {
		c.OpenRetryCount = constants.DeviceOpenRetryCount
	}
	if c.OpenRetryDelay == 0 {
		c.OpenRetryDelay = constants.DeviceOpenRetryDelay
	}
	if c.ReadBufferBytes == 0 {
		c.ReadBufferBytes = constants.DefaultReadBufferSize
	}
	return c
}

// Open opens the diag character device, switches it into memory-device
// mode, and discovers whether writes need the MDM remote token prefix.
func Open(ctx context.Context, cfg Config) (*Device, error) {
	const op = "diagdevice.Open"
	cfg = cfg.withDefaults()

	var f *os.File
	var err error
	for attempt := 0; attempt < cfg.OpenRetryCount; attempt++ {
		f, err = os.OpenFile(cfg.Path, os.O_RDWR, 0)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return nil, rherr.Wrap(op, rherr.CodeDiagInitError, ctx.Err())
		case <-time.After(cfg.OpenRetryDelay):
		}
	}
	if err != nil {
		return nil, rherr.Wrap(op, rherr.CodeDiagInitError, fmt.Errorf("open %s: %w", cfg.Path, err))
	}

	d := &Device{f: f, file: f, logger: cfg.Logger, readBuf: make([]byte, cfg.ReadBufferBytes)}

	if err := d.switchLoggingMode(); err != nil {
		f.Close()
		return nil, rherr.Wrap(op, rherr.CodeDiagInitError, err)
	}

	remote, err := d.queryRemoteDev()
	if err != nil {
		f.Close()
		return nil, rherr.Wrap(op, rherr.CodeDiagInitError, err)
	}
	d.mdmToken = remote

	cfg.Logger.Info("diag device opened", "path", cfg.Path, "mdm_token", remote)
	return d, nil
}

// Close releases the device.
func (d *Device) Close() error {
	return d.f.Close()
}

// ReadContainer reads one raw buffer from the device and parses it as a
// MessagesContainer, retrying internally on non-UserSpace data types
// (spec §4.2).
func (d *Device) ReadContainer() (diagwire.MessagesContainer, error) {
	const op = "diagdevice.ReadContainer"
	for {
		n, err := d.f.Read(d.readBuf)
		if err != nil {
			return diagwire.MessagesContainer{}, rherr.Wrap(op, rherr.CodeIoError, err)
		}
		container, err := diagwire.DecodeContainer(d.readBuf[:n])
		if err != nil {
			d.logger.Debug("malformed container, continuing", "error", err)
			continue
		}
		if container.DataType != diagwire.DataTypeUserSpace {
			d.logger.Debug("non-userspace container, retrying read", "data_type", container.DataType)
			continue
		}
		return container, nil
	}
}

// WriteRequest prepends the UserSpace tag (and the MDM token, if this
// device requires it) and writes payload to the device (spec §4.2).
func (d *Device) WriteRequest(payload []byte) error {
	const op = "diagdevice.WriteRequest"
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	buf := make([]byte, 0, 8+len(payload))
	buf = appendLE32(buf, uint32(int32(diagwire.DataTypeUserSpace)))
	if d.mdmToken {
		buf = appendLE32(buf, constants.DiagMdmToken)
	}
	buf = append(buf, payload...)

	if _, err := d.f.Write(buf); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return nil
}

// EnableLogging sends the mask-enabling config command for logCodes
// (spec §4.2, §6).
func (d *Device) EnableLogging(logCodes []uint16) error {
	const op = "diagdevice.EnableLogging"
	req := diagwire.BuildLogMaskRequest(logCodes)
	if err := d.WriteRequest(req); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return nil
}

func appendLE32(dst []byte, v uint32) []byte {
	return append(dst, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
