package hdlc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// TestGoldenVector pins the spec's literal S1 vector.
func TestGoldenVector(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x91, 0x39, 0x7e}

	got := Encapsulate(in)
	assert.Equal(t, want, got)

	back, err := Decapsulate(got)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestRoundTripWithEscapedBytes(t *testing.T) {
	cases := [][]byte{
		{0x7e},
		{0x7d},
		{0x7e, 0x7d, 0x7e},
		{0x00, 0x01, 0x7e, 0xff, 0x7d, 0x7d, 0x7e},
		bytes.Repeat([]byte{0x7e, 0x7d}, 64),
	}
	for _, c := range cases {
		frame := Encapsulate(c)
		assert.NotContains(t, frame[:len(frame)-1], byte(0x7e), "only the terminator may be an unescaped 0x7e")

		back, err := Decapsulate(frame)
		require.NoError(t, err)
		assert.Equal(t, c, back)
		assert.NotContains(t, back, byte(0x7d), "decapsulated output must never contain a bare escape byte")
	}
}

func TestDecapsulateTooShort(t *testing.T) {
	_, err := Decapsulate([]byte{0x01, 0x7e})
	require.Error(t, err)
	assert.True(t, rherr.IsHdlc(err, rherr.HdlcTooShort))
}

func TestDecapsulateMissingTerminator(t *testing.T) {
	_, err := Decapsulate([]byte{0x01, 0x02, 0x03, 0x04})
	require.Error(t, err)
	assert.True(t, rherr.IsHdlc(err, rherr.HdlcNoTrailingCharacter))
}

func TestDecapsulateInvalidEscape(t *testing.T) {
	_, err := Decapsulate([]byte{0x01, 0x7d, 0x00, 0x00, 0x00, 0x7e})
	require.Error(t, err)
	assert.True(t, rherr.IsHdlc(err, rherr.HdlcInvalidEscapeSequence))
}

func TestDecapsulateInvalidChecksum(t *testing.T) {
	frame := Encapsulate([]byte{0x01, 0x02, 0x03, 0x04})
	frame[len(frame)-2] ^= 0xff // corrupt the high CRC byte
	_, err := Decapsulate(frame)
	require.Error(t, err)
	assert.True(t, rherr.IsHdlc(err, rherr.HdlcInvalidChecksum))
}
