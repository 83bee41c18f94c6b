package diagwire

import (
	"encoding/binary"

	"github.com/rayhunter-go/rayhunter/internal/hdlc"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Opcode identifies the top-level diag message type (spec §3).
type Opcode byte

const (
	OpcodeLog         Opcode = 0x10
	OpcodeExtendedLog Opcode = 0x98
	OpcodeResponse    Opcode = 0x4b
	OpcodeConfig      Opcode = 0x73
)

// Kind is the decoded diag message variant.
type Kind int

const (
	KindLog Kind = iota
	KindExtendedLog
	KindResponse
	KindConfig
	KindIgnored
)

// Decoded is a typed diag message: one of Log, Extended Log, Response,
// Config, or an ignored opcode we don't interpret further (spec §3).
type Decoded struct {
	Kind    Kind
	LogCode uint16 // valid for KindLog / KindExtendedLog
	Payload []byte // inner, log-code-specific payload
}

// ParseMessage decapsulates the HDLC frame and classifies the inner diag
// message by its leading opcode byte.
func ParseMessage(m Message) (Decoded, error) {
	const op = "diagwire.ParseMessage"

	body, err := hdlc.Decapsulate(m.Data)
	if err != nil {
		return Decoded{}, rherr.Wrap(op, rherr.CodeHdlcError, err)
	}
	if len(body) == 0 {
		return Decoded{}, rherr.New(op, rherr.CodeIoError, "empty diag message body")
	}

	switch Opcode(body[0]) {
	case OpcodeLog:
		return decodeLog(body[1:], KindLog)
	case OpcodeExtendedLog:
		return decodeLog(body[1:], KindExtendedLog)
	case OpcodeResponse:
		return Decoded{Kind: KindResponse, Payload: body[1:]}, nil
	case OpcodeConfig:
		return Decoded{Kind: KindConfig, Payload: body[1:]}, nil
	default:
		return Decoded{Kind: KindIgnored, Payload: body}, nil
	}
}

func decodeLog(rest []byte, kind Kind) (Decoded, error) {
	const op = "diagwire.decodeLog"
	if len(rest) < 2 {
		return Decoded{}, rherr.New(op, rherr.CodeIoError, "log message missing log code")
	}
	logCode := binary.LittleEndian.Uint16(rest[0:2])
	return Decoded{Kind: kind, LogCode: logCode, Payload: rest[2:]}, nil
}

// BuildRequest frames a request payload the way WriteRequest sends it to
// the device: an HDLC-framed message with the opcode and payload the
// caller supplies (spec §4.2 "write_request").
func BuildRequest(opcode Opcode, payload []byte) []byte {
	body := make([]byte, 0, 1+len(payload))
	body = append(body, byte(opcode))
	body = append(body, payload...)
	return hdlc.Encapsulate(body)
}

// BuildLogMaskRequest builds the Config request that enables logging for
// the given set of log codes (spec §4.2 "enable_logging").
func BuildLogMaskRequest(logCodes []uint16) []byte {
	payload := make([]byte, 2+2*len(logCodes))
	binary.LittleEndian.PutUint16(payload[0:2], uint16(len(logCodes)))
	for i, code := range logCodes {
		binary.LittleEndian.PutUint16(payload[2+2*i:4+2*i], code)
	}
	return BuildRequest(OpcodeConfig, payload)
}
