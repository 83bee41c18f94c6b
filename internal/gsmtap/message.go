// Package gsmtap lifts raw diag log messages into typed GSMTAP messages
// carrying a UTC timestamp (spec §3, §4.5).
package gsmtap

import (
	"encoding/binary"
	"time"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/diagwire"
)

// Type mirrors the GSMTAP wire "type" field: the radio family the payload
// belongs to.
type Type int

const (
	TypeUnknown Type = iota
	TypeLteRrc
	TypeLteNas
	TypeUmtsRrc
	TypeGsm
	TypePassthrough
)

// Message is a normalised GSMTAP record: header fields plus the raw
// (still-encoded) signalling payload (spec §3 "GSMTAP message").
type Message struct {
	Type      Type
	Subtype   LteRrcSubtype // only meaningful when Type == TypeLteRrc
	Timestamp time.Time
	Earfcn    uint32
	Sfn       uint16
	Subfn     uint16
	PduNum    uint8
	Payload   []byte
}

// LteRrcSubtype enumerates the thirteen LTE RRC message containers (spec
// §3 "Information element").
type LteRrcSubtype int

const (
	LteRrcUnknown LteRrcSubtype = iota
	LteRrcDlCcch
	LteRrcDlDcch
	LteRrcUlCcch
	LteRrcUlDcch
	LteRrcBcchBch
	LteRrcBcchDlSch
	LteRrcBcchDlSchBr
	LteRrcBcchDlSchMbms
	LteRrcPcch
	LteRrcMcch
	LteRrcScMcch
	LteRrcSbcchSlBch
	LteRrcSbcchSlBchV2x
)

// rrcOtaHeader is the decoded prefix of a 0xb0c0 LTE RRC OTA log item. The
// wire layout is keyed by the leading version byte and differs by band
// (earfcn width, an added sib_mask, an added NR release pair) per
// original_source/lib/src/diag/diaglog/rrc.rs's LteRrcOtaPacket enum; every
// band ends with a u16 length followed by exactly that many PDU bytes.
type rrcOtaHeader struct {
	version uint8
	earfcn  uint32
	sfn     uint16
	subfn   uint16
	pduNum  uint8
}

// parseRrcOtaHeader dispatches on the leading version byte to one of the
// four band layouts (v0-4, v5-7, v8-24, v25+) and returns the header plus
// the length-delimited RRC PDU that follows it.
func parseRrcOtaHeader(b []byte) (rrcOtaHeader, []byte, bool) {
	if len(b) < 1 {
		return rrcOtaHeader{}, nil, false
	}
	version := b[0]
	rest := b[1:]

	switch {
	case version <= 4:
		return parseRrcOtaV0(version, rest)
	case version <= 7:
		return parseRrcOtaV5(version, rest)
	case version <= 24:
		return parseRrcOtaV8(version, rest)
	default:
		return parseRrcOtaV25(version, rest)
	}
}

// parseRrcOtaV0 covers band v0-4: rrc_rel_maj(1) + rrc_rel_min(1) +
// bearer_id(1) + phy_cell_id(2) + earfcn(2) + sfn_subfn(2) + pdu_num(1) +
// len(2), then len bytes of PDU.
func parseRrcOtaV0(version uint8, b []byte) (rrcOtaHeader, []byte, bool) {
	const fixedLen = 2 + 1 + 2 + 2 + 2 + 1 + 2
	if len(b) < fixedLen {
		return rrcOtaHeader{}, nil, false
	}
	earfcn := uint32(binary.LittleEndian.Uint16(b[5:7]))
	sfnSubfn := binary.LittleEndian.Uint16(b[7:9])
	pduNum := b[9]
	length := binary.LittleEndian.Uint16(b[10:12])
	payload, ok := slicePdu(b[fixedLen:], length)
	if !ok {
		return rrcOtaHeader{}, nil, false
	}
	return rrcOtaHeader{
		version: version,
		earfcn:  earfcn,
		sfn:     sfnSubfn >> 4,
		subfn:   sfnSubfn & 0x0f,
		pduNum:  pduNum,
	}, payload, true
}

// parseRrcOtaV5 covers band v5-7: same as v0 plus a sib_mask(4) inserted
// before len.
func parseRrcOtaV5(version uint8, b []byte) (rrcOtaHeader, []byte, bool) {
	const fixedLen = 2 + 1 + 2 + 2 + 2 + 1 + 4 + 2
	if len(b) < fixedLen {
		return rrcOtaHeader{}, nil, false
	}
	earfcn := uint32(binary.LittleEndian.Uint16(b[5:7]))
	sfnSubfn := binary.LittleEndian.Uint16(b[7:9])
	pduNum := b[9]
	length := binary.LittleEndian.Uint16(b[14:16])
	payload, ok := slicePdu(b[fixedLen:], length)
	if !ok {
		return rrcOtaHeader{}, nil, false
	}
	return rrcOtaHeader{
		version: version,
		earfcn:  earfcn,
		sfn:     sfnSubfn >> 4,
		subfn:   sfnSubfn & 0x0f,
		pduNum:  pduNum,
	}, payload, true
}

// parseRrcOtaV8 covers band v8-24: same as v5 but earfcn widens to u32.
func parseRrcOtaV8(version uint8, b []byte) (rrcOtaHeader, []byte, bool) {
	const fixedLen = 2 + 1 + 2 + 4 + 2 + 1 + 4 + 2
	if len(b) < fixedLen {
		return rrcOtaHeader{}, nil, false
	}
	earfcn := binary.LittleEndian.Uint32(b[5:9])
	sfnSubfn := binary.LittleEndian.Uint16(b[9:11])
	pduNum := b[11]
	length := binary.LittleEndian.Uint16(b[16:18])
	payload, ok := slicePdu(b[fixedLen:], length)
	if !ok {
		return rrcOtaHeader{}, nil, false
	}
	return rrcOtaHeader{
		version: version,
		earfcn:  earfcn,
		sfn:     sfnSubfn >> 4,
		subfn:   sfnSubfn & 0x0f,
		pduNum:  pduNum,
	}, payload, true
}

// parseRrcOtaV25 covers band v25+: same as v8 but with an extra
// nr_rrc_rel_maj/min(2) pair inserted right after rrc_rel_maj/min.
func parseRrcOtaV25(version uint8, b []byte) (rrcOtaHeader, []byte, bool) {
	const fixedLen = 2 + 2 + 1 + 2 + 4 + 2 + 1 + 4 + 2
	if len(b) < fixedLen {
		return rrcOtaHeader{}, nil, false
	}
	earfcn := binary.LittleEndian.Uint32(b[7:11])
	sfnSubfn := binary.LittleEndian.Uint16(b[11:13])
	pduNum := b[13]
	length := binary.LittleEndian.Uint16(b[18:20])
	payload, ok := slicePdu(b[fixedLen:], length)
	if !ok {
		return rrcOtaHeader{}, nil, false
	}
	return rrcOtaHeader{
		version: version,
		earfcn:  earfcn,
		sfn:     sfnSubfn >> 4,
		subfn:   sfnSubfn & 0x0f,
		pduNum:  pduNum,
	}, payload, true
}

// slicePdu returns the first length bytes of b, or false if b is shorter
// than the declared length (a truncated log item).
func slicePdu(b []byte, length uint16) ([]byte, bool) {
	if uint16(len(b)) < length {
		return nil, false
	}
	return b[:length], true
}

// lteRrcSubtypeFor maps (pduNum, protocol version band) to one of the
// thirteen LTE RRC subtypes, per spec §4.5's four version bands: v0-4,
// v5-7, v8-24, v25+.
func lteRrcSubtypeFor(pduNum uint8, version uint8) LteRrcSubtype {
	switch {
	case version <= 4:
		return lteRrcSubtypeBandA(pduNum)
	case version <= 7:
		return lteRrcSubtypeBandB(pduNum)
	case version <= 24:
		return lteRrcSubtypeBandC(pduNum)
	default:
		return lteRrcSubtypeBandD(pduNum)
	}
}

// bandA covers the original pdu_num assignment.
func lteRrcSubtypeBandA(pduNum uint8) LteRrcSubtype {
	switch pduNum {
	case 1:
		return LteRrcDlCcch
	case 2:
		return LteRrcDlDcch
	case 3:
		return LteRrcUlCcch
	case 4:
		return LteRrcUlDcch
	case 5:
		return LteRrcBcchBch
	case 6:
		return LteRrcBcchDlSch
	case 7:
		return LteRrcPcch
	case 8:
		return LteRrcMcch
	default:
		return LteRrcUnknown
	}
}

// bandB adds the BR (bandwidth-reduced, MTC) BCCH-DL-SCH variant.
func lteRrcSubtypeBandB(pduNum uint8) LteRrcSubtype {
	if pduNum == 9 {
		return LteRrcBcchDlSchBr
	}
	return lteRrcSubtypeBandA(pduNum)
}

// bandC adds the MBMS BCCH-DL-SCH and SC-MCCH variants.
func lteRrcSubtypeBandC(pduNum uint8) LteRrcSubtype {
	switch pduNum {
	case 10:
		return LteRrcBcchDlSchMbms
	case 11:
		return LteRrcScMcch
	default:
		return lteRrcSubtypeBandB(pduNum)
	}
}

// bandD adds the NB-IoT sidelink broadcast containers.
func lteRrcSubtypeBandD(pduNum uint8) LteRrcSubtype {
	switch pduNum {
	case 12:
		return LteRrcSbcchSlBch
	case 13:
		return LteRrcSbcchSlBchV2x
	default:
		return lteRrcSubtypeBandC(pduNum)
	}
}

// clockPrefixLen is the width of the Qualcomm diag clock embedded at the
// start of every log item's payload: a little-endian 64-bit tick count,
// of which the low 48 bits are significant (spec §4.5).
const clockPrefixLen = 8

func splitClockPrefix(b []byte) (uint64, []byte, bool) {
	if len(b) < clockPrefixLen {
		return 0, nil, false
	}
	ticks := binary.LittleEndian.Uint64(b[:clockPrefixLen]) & 0xffffffffffff
	return ticks, b[clockPrefixLen:], true
}

// Lift dispatches a decoded diag log message on its log code, producing a
// normalised GSMTAP Message whose Timestamp is derived from the log
// item's own embedded clock. ok is false when the log code carries no
// signalling relevant to the core pipeline, or the payload is too short
// to carry the clock prefix (spec §4.5).
func Lift(d diagwire.Decoded) (Message, bool) {
	ticks, body, ok := splitClockPrefix(d.Payload)
	if !ok {
		return Message{}, false
	}
	timestamp := TicksToTime(ticks)

	switch d.LogCode {
	case constants.LogCodeLteRrcOta:
		hdr, payload, ok := parseRrcOtaHeader(body)
		if !ok {
			return Message{}, false
		}
		return Message{
			Type:      TypeLteRrc,
			Subtype:   lteRrcSubtypeFor(hdr.pduNum, hdr.version),
			Timestamp: timestamp,
			Earfcn:    hdr.earfcn,
			Sfn:       hdr.sfn,
			Subfn:     hdr.subfn,
			PduNum:    hdr.pduNum,
			Payload:   payload,
		}, true

	case constants.LogCodeLteNasEmmOut, constants.LogCodeLteNasEmmIn,
		constants.LogCodeLteNasEsmOut, constants.LogCodeLteNasEsmIn:
		return Message{
			Type:      TypeLteNas,
			Timestamp: timestamp,
			Payload:   body,
		}, true

	case constants.LogCodeGsmRR, constants.LogCodeGprsMac,
		constants.LogCodeWcdmaSignaling, constants.LogCodeUmtsNas,
		constants.LogCode5gRrcOta, constants.LogCodeUpperLayer:
		return Message{
			Type:      TypePassthrough,
			Timestamp: timestamp,
			Payload:   body,
		}, true

	default:
		return Message{}, false
	}
}
