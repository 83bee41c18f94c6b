package gsmtap

import "encoding/binary"

// wireType maps a lifted Message's Type to the GSMTAP header's "type" byte,
// following the GSMTAP v2 wire format Wireshark and QCSuper dissect (spec
// §3 "GSMTAP message", §4.9).
const (
	wireTypeUm      = 0x01
	wireTypeUmtsRRC = 0x0c
	wireTypeLteRRC  = 0x0d
	wireTypeLteNAS  = 0x12
	wireTypeQCDiag  = 0x11
)

func (t Type) wireByte() uint8 {
	switch t {
	case TypeLteRrc:
		return wireTypeLteRRC
	case TypeLteNas:
		return wireTypeLteNAS
	case TypeUmtsRrc:
		return wireTypeUmtsRRC
	case TypeGsm:
		return wireTypeUm
	case TypePassthrough:
		return wireTypeQCDiag
	default:
		return 0
	}
}

// headerLen is the fixed 16-byte GSMTAP v2 header: version, hdr_len,
// type, timeslot, ARFCN, signal_dbm, snr_db, frame_number, sub_type,
// antenna_nr, sub_slot, res.
const headerLen = 16

// Encode renders m as a GSMTAP v2 packet: the 16-byte header followed by
// the raw signalling payload (spec §4.9).
func (m Message) Encode() []byte {
	out := make([]byte, headerLen+len(m.Payload))
	out[0] = 2              // version
	out[1] = headerLen / 4  // hdr_len, in 32-bit words
	out[2] = m.Type.wireByte()
	out[3] = 0 // timeslot
	binary.BigEndian.PutUint16(out[4:6], uint16(m.Earfcn))
	out[6] = 0 // signal_dbm
	out[7] = 0 // snr_db
	binary.BigEndian.PutUint32(out[8:12], uint32(m.Sfn)<<4|uint32(m.Subfn))
	out[12] = uint8(m.Subtype)
	out[13] = 0 // antenna_nr
	out[14] = uint8(m.PduNum)
	out[15] = 0 // res
	copy(out[headerLen:], m.Payload)
	return out
}
