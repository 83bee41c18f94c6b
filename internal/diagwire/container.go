// Package diagwire implements the typed encode/decode of diag containers
// and diag messages (spec §3, §4.2): the envelope the kernel diag character
// device delivers buffers in, and the per-message variant dispatch within
// it. Binary layout is marshaled by hand, byte range by byte range, in the
// same style as the teacher's internal/uapi/marshal.go.
package diagwire

import (
	"encoding/binary"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// DataType tags a MessagesContainer. Only UserSpace is ever processed;
// others are retried/logged by the device layer (spec §4.2).
type DataType int32

const (
	DataTypeUserSpace DataType = 32
)

// MessagesContainer is one raw buffer delivered by /dev/diag: an i32
// DataType, a u32 message count, then that many (u32 length, bytes) records.
type MessagesContainer struct {
	DataType DataType
	Messages []Message
}

// Message is a single diag message as it appears inside a container or on
// disk in a QMDL file: HDLC-framed bytes, CRC and terminator included.
type Message struct {
	Data []byte
}

const containerHeaderLen = 4 + 4 // DataType + message count

// DecodeContainer parses one raw buffer as delivered by the diag device.
func DecodeContainer(buf []byte) (MessagesContainer, error) {
	const op = "diagwire.DecodeContainer"
	if len(buf) < containerHeaderLen {
		return MessagesContainer{}, rherr.New(op, rherr.CodeIoError, "buffer shorter than container header")
	}

	dt := DataType(int32(binary.LittleEndian.Uint32(buf[0:4])))
	count := binary.LittleEndian.Uint32(buf[4:8])

	c := MessagesContainer{DataType: dt, Messages: make([]Message, 0, count)}
	off := containerHeaderLen
	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return MessagesContainer{}, rherr.New(op, rherr.CodeIoError, "truncated message length prefix")
		}
		mlen := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		if off+int(mlen) > len(buf) {
			return MessagesContainer{}, rherr.New(op, rherr.CodeIoError, "truncated message body")
		}
		data := make([]byte, mlen)
		copy(data, buf[off:off+int(mlen)])
		off += int(mlen)
		c.Messages = append(c.Messages, Message{Data: data})
	}
	return c, nil
}

// EncodeContainer is the inverse of DecodeContainer, used by tests and by
// fake device backends that exercise the read path end to end.
func EncodeContainer(c MessagesContainer) []byte {
	size := containerHeaderLen
	for _, m := range c.Messages {
		size += 4 + len(m.Data)
	}
	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(c.DataType)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(c.Messages)))
	off := containerHeaderLen
	for _, m := range c.Messages {
		binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(m.Data)))
		off += 4
		copy(buf[off:], m.Data)
		off += len(m.Data)
	}
	return buf
}
