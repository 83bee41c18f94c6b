package analysis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/diagwire"
	"github.com/rayhunter-go/rayhunter/internal/hdlc"
	"github.com/rayhunter-go/rayhunter/internal/ie"
)

func le64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func frameLog(logCode uint16, innerPayload []byte) diagwire.Message {
	body := []byte{byte(diagwire.OpcodeLog), byte(logCode), byte(logCode >> 8)}
	body = append(body, le64(0)...)
	body = append(body, innerPayload...)
	return diagwire.Message{Data: hdlc.Encapsulate(body)}
}

func pagingPayload(imsi string) []byte {
	out := []byte{1, 1 /* IdentityImsi */, byte(len(imsi))}
	return append(out, []byte(imsi)...)
}

// rrcOtaV0Header builds a v0-4 band 0xb0c0 header (rrc_rel_maj/min,
// bearer_id, phy_cell_id, earfcn, sfn_subfn, pdu_num, len), matching
// original_source/lib/src/diag/diaglog/rrc.rs's LteRrcOtaPacket::V0.
func rrcOtaV0Header(pduNum uint8, pduLen int) []byte {
	h := make([]byte, 12)
	h[9] = pduNum
	h[10] = byte(pduLen)
	h[11] = byte(pduLen >> 8)
	return append([]byte{0 /* version */}, h...)
}

func TestAnalyzeContainerImsiProvided(t *testing.T) {
	h := NewHarness(BuiltinAnalyzers(), nil)
	paging := pagingPayload("123456789")
	rrcHeader := rrcOtaV0Header(7 /* pduNum=PCCH */, len(paging))
	msg := frameLog(constants.LogCodeLteRrcOta, append(rrcHeader, paging...))

	row, err := h.AnalyzeContainer(&Context{}, diagwire.MessagesContainer{Messages: []diagwire.Message{msg}})
	require.NoError(t, err)
	require.Len(t, row, len(BuiltinAnalyzers()))
	assert.NotNil(t, row[0])
	assert.Equal(t, High, row[0].Severity)
}

func TestAnalyzeContainerUnrelatedLogCodeYieldsEmptyRow(t *testing.T) {
	h := NewHarness(BuiltinAnalyzers(), nil)
	msg := frameLog(0x9999, []byte{1, 2, 3})

	row, err := h.AnalyzeContainer(&Context{}, diagwire.MessagesContainer{Messages: []diagwire.Message{msg}})
	require.NoError(t, err)
	for _, e := range row {
		assert.Nil(t, e)
	}
}

func TestAnalyzeContainerDisabledAnalyzerSkipped(t *testing.T) {
	cfg := map[string]bool{"IMSI Provided": false}
	h := NewHarness(BuiltinAnalyzers(), cfg)

	assert.Len(t, h.Descriptors(), len(BuiltinAnalyzers())-1)
}

func TestImsiRequestedSeverityWindow(t *testing.T) {
	a := &imsiRequestedAnalyzer{}
	elem := ie.InformationElement{
		Kind: ie.KindNas,
		Nas:  &ie.NasPayload{MessageType: ie.NasIdentityRequest, RequestedIdentity: ie.IdentityTypeImsi},
	}

	early := a.Analyze(&Context{PacketIndex: 0}, elem)
	require.NotNil(t, early)
	assert.Equal(t, Medium, early.Severity)

	late := a.Analyze(&Context{PacketIndex: constants.ImsiAttachWindowPackets + 1}, elem)
	require.NotNil(t, late)
	assert.Equal(t, High, late.Severity)
}

func TestReportWriterAndReaderRoundTrip(t *testing.T) {
	h := NewHarness(BuiltinAnalyzers(), nil)
	var buf bytes.Buffer

	rw, err := NewReportWriter(&buf, ReportHeader{Analyzers: h.Descriptors()})
	require.NoError(t, err)
	require.NoError(t, rw.WriteRow(make(Row, len(h.Descriptors()))))
	require.Greater(t, rw.BytesWritten(), uint64(0))

	header, rows, err := ReadReport(&buf)
	require.NoError(t, err)
	assert.Equal(t, h.Descriptors(), header.Analyzers)
	require.Len(t, rows, 1)
}

func TestCacheValidDetectsVersionMismatch(t *testing.T) {
	h := NewHarness(BuiltinAnalyzers(), nil)
	existing := ReportHeader{Analyzers: h.Descriptors()}
	assert.True(t, h.CacheValid(existing))

	existing.Analyzers[0].Version++
	assert.False(t, h.CacheValid(existing))
}

func TestCacheValidDetectsSetChange(t *testing.T) {
	h := NewHarness(BuiltinAnalyzers(), nil)
	existing := ReportHeader{Analyzers: h.Descriptors()[:len(h.Descriptors())-1]}
	assert.False(t, h.CacheValid(existing))
}
