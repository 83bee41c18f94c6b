// Package pcapng streams GSMTAP messages into a PCAP-NG capture file as
// synthetic IPv4/UDP packets, the format QCSuper/Wireshark read GSMTAP
// traffic from (spec §4.9).
package pcapng

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/gsmtap"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

const (
	blockTypeSectionHeader = 0x0a0d0d0a
	blockTypeInterfaceDesc = 0x00000001
	blockTypeEnhancedPkt   = 0x00000006

	byteOrderMagic = 0x1a2b3c4d

	linkTypeIPv4 = 228 // LINKTYPE_IPV4
)

// Writer streams PCAP-NG blocks to an underlying io.Writer.
type Writer struct {
	w      io.Writer
	ipID   uint16
	closed bool
}

// NewWriter writes the section header and interface description blocks
// immediately and returns a Writer ready for WriteMessage calls (spec
// §4.9).
func NewWriter(w io.Writer) (*Writer, error) {
	const op = "pcapng.NewWriter"
	pw := &Writer{w: w}

	if err := pw.writeSectionHeaderBlock(); err != nil {
		return nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	if err := pw.writeInterfaceDescriptionBlock(); err != nil {
		return nil, rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return pw, nil
}

func alignedOption(code uint16, value []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, code)
	binary.Write(&buf, binary.LittleEndian, uint16(len(value)))
	buf.Write(value)
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func (pw *Writer) writeSectionHeaderBlock() error {
	var opts bytes.Buffer
	opts.Write(alignedOption(3, []byte(runtime.GOOS))) // shb_os
	opts.Write(alignedOption(4, []byte("rayhunter-go"))) // shb_userappl
	opts.Write(alignedOption(0, nil))                    // opt_endofopt

	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, uint32(byteOrderMagic))
	binary.Write(&body, binary.LittleEndian, uint16(1)) // major
	binary.Write(&body, binary.LittleEndian, uint16(0)) // minor
	binary.Write(&body, binary.LittleEndian, int64(-1)) // section length unknown
	body.Write(opts.Bytes())

	return pw.writeBlock(blockTypeSectionHeader, body.Bytes())
}

func (pw *Writer) writeInterfaceDescriptionBlock() error {
	var opts bytes.Buffer
	opts.Write(alignedOption(0, nil))

	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, uint16(linkTypeIPv4))
	binary.Write(&body, binary.LittleEndian, uint16(0)) // reserved
	binary.Write(&body, binary.LittleEndian, uint32(constants.PcapSnapLen))
	body.Write(opts.Bytes())

	return pw.writeBlock(blockTypeInterfaceDesc, body.Bytes())
}

// WriteMessage wraps one GSMTAP message in a synthetic IPv4/UDP packet and
// appends it as an enhanced packet block (spec §4.9).
func (pw *Writer) WriteMessage(msg gsmtap.Message, payload []byte) error {
	const op = "pcapng.WriteMessage"
	packet := pw.wrapPacket(payload)

	var body bytes.Buffer
	binary.Write(&body, binary.LittleEndian, uint32(0)) // interface id

	// Timestamp written in microseconds, but — matching the bug-workaround
	// the upstream pcap library needs — the 64-bit value is split as if it
	// were nanoseconds: high/low halves of micros-since-epoch.
	micros := uint64(msg.Timestamp.UnixMicro())
	binary.Write(&body, binary.LittleEndian, uint32(micros>>32))
	binary.Write(&body, binary.LittleEndian, uint32(micros))

	binary.Write(&body, binary.LittleEndian, uint32(len(packet)))
	binary.Write(&body, binary.LittleEndian, uint32(len(packet)))
	body.Write(packet)
	for body.Len()%4 != 0 {
		body.WriteByte(0)
	}
	body.Write(alignedOption(0, nil))

	if err := pw.writeBlock(blockTypeEnhancedPkt, body.Bytes()); err != nil {
		return rherr.Wrap(op, rherr.CodeIoError, err)
	}
	return nil
}

func (pw *Writer) wrapPacket(gsmtapBytes []byte) []byte {
	udpLen := 8 + len(gsmtapBytes)
	var udp bytes.Buffer
	binary.Write(&udp, binary.BigEndian, uint16(constants.PcapUDPSrcPort))
	binary.Write(&udp, binary.BigEndian, uint16(constants.PcapGSMTAPPort))
	binary.Write(&udp, binary.BigEndian, uint16(udpLen))
	binary.Write(&udp, binary.BigEndian, uint16(0xffff)) // checksum unverified
	udp.Write(gsmtapBytes)

	totalLen := 20 + udp.Len()
	ipID := pw.ipID
	pw.ipID++ // wraps naturally at uint16 overflow

	var ip bytes.Buffer
	ip.WriteByte(0x45) // version 4, IHL 5
	ip.WriteByte(0)    // DSCP/ECN
	binary.Write(&ip, binary.BigEndian, uint16(totalLen))
	binary.Write(&ip, binary.BigEndian, ipID)
	binary.Write(&ip, binary.BigEndian, uint16(0)) // flags/fragment offset
	ip.WriteByte(constants.PcapIPv4TTL)
	ip.WriteByte(17) // UDP
	binary.Write(&ip, binary.BigEndian, uint16(0xffff)) // checksum unverified
	ip.Write(loopbackIPv4Bytes())
	ip.Write(loopbackIPv4Bytes())

	out := make([]byte, 0, ip.Len()+udp.Len())
	out = append(out, ip.Bytes()...)
	out = append(out, udp.Bytes()...)
	return out
}

func loopbackIPv4Bytes() []byte {
	return []byte{127, 0, 0, 1}
}

func (pw *Writer) writeBlock(blockType uint32, body []byte) error {
	totalLen := uint32(12 + len(body)) // type(4) + len(4) + body + len(4)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, blockType)
	binary.Write(&buf, binary.LittleEndian, totalLen)
	buf.Write(body)
	binary.Write(&buf, binary.LittleEndian, totalLen)

	_, err := pw.w.Write(buf.Bytes())
	return err
}
