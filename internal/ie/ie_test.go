package ie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/gsmtap"
)

func TestDecodePagingWithImsi(t *testing.T) {
	payload := []byte{1, byte(IdentityImsi), 3, '1', '2', '3'}
	msg := gsmtap.Message{Type: gsmtap.TypeLteRrc, Subtype: gsmtap.LteRrcPcch, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	require.NotNil(t, out.Lte.Paging)
	require.Len(t, out.Lte.Paging.Records, 1)
	assert.Equal(t, IdentityImsi, out.Lte.Paging.Records[0].Identity)
	assert.Equal(t, "123", out.Lte.Paging.Records[0].Imsi)
}

func TestDecodeConnectionReleaseGeran(t *testing.T) {
	payload := []byte{byte(RedirectGeran), 0x10, 0x00}
	msg := gsmtap.Message{Type: gsmtap.TypeLteRrc, Subtype: gsmtap.LteRrcDlDcch, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	require.NotNil(t, out.Lte.ConnRelease)
	assert.Equal(t, RedirectGeran, out.Lte.ConnRelease.Redirected.Kind)
	assert.Equal(t, uint16(0x10), out.Lte.ConnRelease.Redirected.Arfcn)
}

func TestDecodeSib1Count(t *testing.T) {
	payload := []byte{1, 0}
	msg := gsmtap.Message{Type: gsmtap.TypeLteRrc, Subtype: gsmtap.LteRrcBcchDlSch, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	require.NotNil(t, out.Lte.Sib1)
	assert.Equal(t, 1, out.Lte.Sib1.SchedulingInfoCount)
}

func TestDecodeSib67CarrierPriorities(t *testing.T) {
	payload := []byte{2, 2, 0x10, 0x00, 0, 0x20, 0x00, 5}
	msg := gsmtap.Message{Type: gsmtap.TypeLteRrc, Subtype: gsmtap.LteRrcBcchDlSch, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	require.NotNil(t, out.Lte.Sib67)
	require.Len(t, out.Lte.Sib67.Carriers, 2)
	assert.Equal(t, uint8(0), out.Lte.Sib67.Carriers[0].CellReselectionPriority)
	assert.Equal(t, uint8(5), out.Lte.Sib67.Carriers[1].CellReselectionPriority)
}

func TestDecodeNasIdentityRequest(t *testing.T) {
	payload := []byte{byte(NasIdentityRequest), byte(IdentityTypeImsi)}
	msg := gsmtap.Message{Type: gsmtap.TypeLteNas, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, NasIdentityRequest, out.Nas.MessageType)
	assert.Equal(t, IdentityTypeImsi, out.Nas.RequestedIdentity)
}

func TestDecodeNasSecurityModeCommandNullCipher(t *testing.T) {
	payload := []byte{byte(NasSecurityModeCommand), byte(CipherEEA0)}
	msg := gsmtap.Message{Type: gsmtap.TypeLteNas, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, CipherEEA0, out.Nas.SelectedCipher)
}

func TestDecodeNasRejectImsiExposingCause(t *testing.T) {
	payload := []byte{byte(NasEmmReject), 11}
	msg := gsmtap.Message{Type: gsmtap.TypeLteNas, Payload: payload}

	out, err := Decode(msg)
	require.NoError(t, err)
	assert.True(t, out.Nas.IsImsiExposingCause())
}

func TestDecodePassthroughYieldsKindOther(t *testing.T) {
	msg := gsmtap.Message{Type: gsmtap.TypePassthrough, Payload: []byte{1, 2, 3}}
	out, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, KindOther, out.Kind)
}

func TestDecodeTruncatedPagingErrors(t *testing.T) {
	msg := gsmtap.Message{Type: gsmtap.TypeLteRrc, Subtype: gsmtap.LteRrcPcch, Payload: []byte{5}}
	_, err := Decode(msg)
	assert.Error(t, err)
}
