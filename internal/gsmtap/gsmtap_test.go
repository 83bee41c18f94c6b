package gsmtap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/diagwire"
)

func TestTicksToTimeEpoch(t *testing.T) {
	got := TicksToTime(0)
	assert.Equal(t, qualcommEpoch, got)
}

func TestTicksToTimeOneSecond(t *testing.T) {
	got := TicksToTime(constants.QualcommClockTicksPerSecond)
	assert.Equal(t, qualcommEpoch.Add(1*time.Second), got)
}

func withClockPrefix(ticks uint64, body []byte) []byte {
	out := make([]byte, 8+len(body))
	le64(out[:8], ticks)
	copy(out[8:], body)
	return out
}

// buildRrcOtaPayload builds a version-banded 0xb0c0 log item body (minus
// the clock prefix), matching original_source/lib/src/diag/diaglog/rrc.rs's
// LteRrcOtaPacket layouts: a leading version byte selects among four bands
// that differ in earfcn width, an added sib_mask, and (v25+) an added NR
// release pair; every band ends with a u16 PDU length and the PDU itself.
func buildRrcOtaPayload(version, pduNum uint8, earfcn uint32, sfn, subfn uint16, body []byte) []byte {
	sfnSubfn := (sfn << 4) | (subfn & 0x0f)
	var out []byte
	switch {
	case version <= 4:
		out = make([]byte, 1+12)
		le16(out[1+5:1+7], uint16(earfcn))
		le16(out[1+7:1+9], sfnSubfn)
		out[1+9] = pduNum
		le16(out[1+10:1+12], uint16(len(body)))
	case version <= 7:
		out = make([]byte, 1+16)
		le16(out[1+5:1+7], uint16(earfcn))
		le16(out[1+7:1+9], sfnSubfn)
		out[1+9] = pduNum
		le16(out[1+14:1+16], uint16(len(body)))
	case version <= 24:
		out = make([]byte, 1+18)
		le32(out[1+5:1+9], earfcn)
		le16(out[1+9:1+11], sfnSubfn)
		out[1+11] = pduNum
		le16(out[1+16:1+18], uint16(len(body)))
	default:
		out = make([]byte, 1+20)
		le32(out[1+7:1+11], earfcn)
		le16(out[1+11:1+13], sfnSubfn)
		out[1+13] = pduNum
		le16(out[1+18:1+20], uint16(len(body)))
	}
	out[0] = version
	return append(out, body...)
}

func le64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func le32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func le16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func TestLiftLteRrcOtaSelectsSubtype(t *testing.T) {
	rrc := buildRrcOtaPayload(0, 1, 1800, 100, 5, []byte{0xaa, 0xbb})
	d := diagwire.Decoded{Kind: diagwire.KindLog, LogCode: constants.LogCodeLteRrcOta, Payload: withClockPrefix(0, rrc)}

	msg, ok := Lift(d)
	require.True(t, ok)
	assert.Equal(t, TypeLteRrc, msg.Type)
	assert.Equal(t, LteRrcDlCcch, msg.Subtype)
	assert.Equal(t, uint32(1800), msg.Earfcn)
	assert.Equal(t, uint16(100), msg.Sfn)
	assert.Equal(t, uint16(5), msg.Subfn)
	assert.Equal(t, []byte{0xaa, 0xbb}, msg.Payload)
}

func TestLiftLteRrcOtaBandDSidelink(t *testing.T) {
	rrc := buildRrcOtaPayload(30, 12, 0, 0, 0, nil)
	d := diagwire.Decoded{Kind: diagwire.KindLog, LogCode: constants.LogCodeLteRrcOta, Payload: withClockPrefix(0, rrc)}

	msg, ok := Lift(d)
	require.True(t, ok)
	assert.Equal(t, LteRrcSbcchSlBch, msg.Subtype)
}

func TestLiftLteNas(t *testing.T) {
	d := diagwire.Decoded{Kind: diagwire.KindLog, LogCode: constants.LogCodeLteNasEmmOut, Payload: withClockPrefix(0, []byte{1, 2})}
	msg, ok := Lift(d)
	require.True(t, ok)
	assert.Equal(t, TypeLteNas, msg.Type)
}

func TestLiftIrrelevantLogCodeIsSkipped(t *testing.T) {
	d := diagwire.Decoded{Kind: diagwire.KindLog, LogCode: 0x9999, Payload: withClockPrefix(0, []byte{1})}
	_, ok := Lift(d)
	assert.False(t, ok)
}

func TestLiftPassthroughCodes(t *testing.T) {
	for _, code := range []uint16{
		constants.LogCodeGsmRR, constants.LogCodeGprsMac,
		constants.LogCodeWcdmaSignaling, constants.LogCodeUmtsNas,
		constants.LogCode5gRrcOta, constants.LogCodeUpperLayer,
	} {
		d := diagwire.Decoded{Kind: diagwire.KindLog, LogCode: code, Payload: withClockPrefix(0, []byte{9})}
		msg, ok := Lift(d)
		require.True(t, ok, "code %x", code)
		assert.Equal(t, TypePassthrough, msg.Type)
	}
}

func TestLiftTooShortPayloadSkipped(t *testing.T) {
	d := diagwire.Decoded{Kind: diagwire.KindLog, LogCode: constants.LogCodeLteNasEmmOut, Payload: []byte{1, 2}}
	_, ok := Lift(d)
	assert.False(t, ok)
}
