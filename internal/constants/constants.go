// Package constants holds default tunables shared across the capture and
// analysis pipeline.
package constants

import "time"

// Diag device paths and ioctl parameters (spec §4.2, §6).
const (
	DiagDevicePath = "/dev/diag"

	DiagIoctlSwitchLogging = 7
	DiagIoctlRemoteDev     = 32
	MemoryDeviceMode       = 2

	DiagMdmToken = 0xffffffff
)

// Diag container framing (spec §3, §4.2).
const (
	DiagDataTypeUserSpace = int32(32)
)

// QMDL / recording store tunables.
const (
	// DefaultReadBufferSize is the size of the buffer used for each raw
	// read from the diag character device.
	DefaultReadBufferSize = 64 * 1024

	// ManifestFileName is the recording store's persisted index.
	ManifestFileName = "manifest.toml"
)

// Analyzer tunables (spec §4.7, analyzer #2).
const (
	// ImsiAttachWindowPackets bounds the UE-attach false-positive window
	// during which a NAS Identity Request for IMSI is downgraded to Medium.
	ImsiAttachWindowPackets = 150
)

// PCAP-NG synthetic wrapper constants (spec §4.9).
const (
	PcapUDPSrcPort  = 13337
	PcapGSMTAPPort  = 4729
	PcapIPv4TTL     = 64
	PcapSnapLen     = 0xffff
	PcapLoopbackIP4 = "127.0.0.1"
)

// Qualcomm diag log clock (spec §4.5, §9).
const (
	// QualcommClockTicksPerSecond is the tick rate of the 48-bit diag
	// timestamp counter embedded in log items.
	QualcommClockTicksPerSecond = 52428800 // 1 / (1/52,428,800 s)
)

// Diag log codes relevant to the core pipeline (spec §6).
const (
	LogCodeGsmRR          = 0x512f
	LogCodeGprsMac        = 0x5226
	LogCodeLteRrcOta      = 0xb0c0
	LogCodeLteNasEmmOut   = 0xb0e2
	LogCodeLteNasEmmIn    = 0xb0e3
	LogCodeLteNasEsmOut   = 0xb0ec
	LogCodeLteNasEsmIn    = 0xb0ed
	LogCode5gRrcOta       = 0xb821
	LogCodeWcdmaSignaling = 0x412f
	LogCodeUmtsNas        = 0x713a
	LogCodeUpperLayer     = 0x11eb
)

// Concurrency / polling intervals (spec §5).
const (
	DisplayPollInterval      = 1 * time.Second
	NotificationRetryInitial = 2 * time.Second
	NotificationRetryMax     = 256 * time.Second
	BatteryPollInterval      = 15 * time.Second
	ControlChannelCapacity   = 1
	DeviceOpenRetryDelay     = 100 * time.Millisecond
	DeviceOpenRetryCount     = 50
)

// HTTP surface defaults.
const (
	DefaultHTTPPort = 8080
)

// Key-input debounce tunables (spec §8 S3).
const (
	// KeyInputQuietWindow discards any record arriving this soon after the
	// previous one; power-button presses were observed to fire many
	// successive records on some devices.
	KeyInputQuietWindow = 50 * time.Millisecond

	// KeyInputDoubleTapMin and KeyInputDoubleTapMax bound the gap between
	// two KeyUp records that counts as a double-tap.
	KeyInputDoubleTapMin = 100 * time.Millisecond
	KeyInputDoubleTapMax = 800 * time.Millisecond

	// KeyInputRecordSize is the fixed length of one raw input record.
	KeyInputRecordSize = 32
)

// RayhunterVersion is reported in analysis report headers and the
// GET /api/config response (spec §3, §6).
const RayhunterVersion = "0.1.0"
