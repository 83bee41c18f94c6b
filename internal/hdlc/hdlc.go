// Package hdlc implements the HDLC-like framing diag uses on the wire
// (spec §4.1): CRC-CCITT-16 trailer, 0x7e escaping, 0x7e terminator.
//
// Binary layout follows the teacher's manual byte-level marshal style
// (internal/uapi/marshal.go in go-ublk) rather than reflection or a codec
// library — there is no dependency in the pack for bit-exact HDLC framing,
// so this is hand-rolled and documented in DESIGN.md.
package hdlc

import "github.com/rayhunter-go/rayhunter/internal/rherr"

const (
	frameEnd     byte = 0x7e
	escape       byte = 0x7d
	escapeXorEnd byte = 0x5e
	escapeXorEsc byte = 0x5d
)

// Encapsulate computes the CRC-CCITT-16 of data, appends it little-endian,
// escapes 0x7e/0x7d bytes, and terminates the frame with 0x7e.
func Encapsulate(data []byte) []byte {
	crc := CRC(data)

	// Worst case every byte (plus the two CRC bytes) needs escaping, plus
	// the terminator.
	out := make([]byte, 0, len(data)*2+2*2+1)
	out = appendEscaped(out, data)
	out = appendEscaped(out, []byte{byte(crc), byte(crc >> 8)})
	out = append(out, frameEnd)
	return out
}

func appendEscaped(dst, src []byte) []byte {
	for _, b := range src {
		switch b {
		case frameEnd:
			dst = append(dst, escape, escapeXorEnd)
		case escape:
			dst = append(dst, escape, escapeXorEsc)
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

// Decapsulate validates the trailing terminator, unescapes the frame body,
// splits off the trailing little-endian CRC-CCITT-16, and verifies it
// against the unescaped payload. Decapsulation never allocates more than
// len(frame) bytes.
func Decapsulate(frame []byte) ([]byte, error) {
	const op = "hdlc.Decapsulate"

	if len(frame) < 3 {
		return nil, rherr.NewHdlc(op, rherr.HdlcTooShort)
	}
	if frame[len(frame)-1] != frameEnd {
		return nil, rherr.NewHdlc(op, rherr.HdlcNoTrailingCharacter)
	}

	body := frame[:len(frame)-1]
	unescaped := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b != escape {
			unescaped = append(unescaped, b)
			continue
		}
		if i+1 >= len(body) {
			return nil, rherr.NewHdlc(op, rherr.HdlcInvalidEscapeSequence)
		}
		i++
		switch body[i] {
		case escapeXorEnd:
			unescaped = append(unescaped, frameEnd)
		case escapeXorEsc:
			unescaped = append(unescaped, escape)
		default:
			return nil, rherr.NewHdlc(op, rherr.HdlcInvalidEscapeSequence)
		}
	}

	if len(unescaped) < 2 {
		return nil, rherr.NewHdlc(op, rherr.HdlcMissingChecksum)
	}

	payload := unescaped[:len(unescaped)-2]
	wantCRC := uint16(unescaped[len(unescaped)-2]) | uint16(unescaped[len(unescaped)-1])<<8
	if CRC(payload) != wantCRC {
		return nil, rherr.NewHdlc(op, rherr.HdlcInvalidChecksum)
	}

	return payload, nil
}
