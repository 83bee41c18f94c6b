package ie

import (
	"github.com/rayhunter-go/rayhunter/internal/gsmtap"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// UeIdentityKind is the UE identity kind carried by a paging record.
type UeIdentityKind int

const (
	IdentityUnknown UeIdentityKind = iota
	IdentityImsi
	IdentityTmsi
	IdentitySTmsi
)

// PagingRecord is one UE identity entry inside a PCCH Paging message
// (spec §4.7, analyzer #1).
type PagingRecord struct {
	Identity UeIdentityKind
	Imsi     string // populated only when Identity == IdentityImsi
}

// Paging is the decode of an LTE PCCH Paging message.
type Paging struct {
	Records []PagingRecord
}

// RedirectKind is the RRCConnectionRelease redirectedCarrierInfo choice
// (spec §4.7, analyzer #4).
type RedirectKind int

const (
	RedirectNone RedirectKind = iota
	RedirectGeran
	RedirectUtra
)

// RedirectedCarrierInfo is the decode of RRCConnectionRelease's optional
// redirection target.
type RedirectedCarrierInfo struct {
	Kind  RedirectKind
	Arfcn uint16
}

// ConnectionRelease is the decode of an RRCConnectionRelease message.
type ConnectionRelease struct {
	Redirected RedirectedCarrierInfo
}

// CarrierPriority is one neighbour-carrier entry inside SIB6/SIB7 (spec
// §4.7, analyzer #5).
type CarrierPriority struct {
	CarrierFreq             uint16
	CellReselectionPriority uint8
}

// SystemInfoBlock67 is the decode of SIB6 (UTRA) or SIB7 (GERAN).
type SystemInfoBlock67 struct {
	Carriers []CarrierPriority
}

// SystemInfoBlock1 is the decode of SIB1, reduced to the field the
// "Incomplete SIB1" analyzer inspects (spec §4.7, analyzer #6).
type SystemInfoBlock1 struct {
	SchedulingInfoCount int
}

// LteRrcPayload is the decode of one LTE RRC message container. At most
// one of its sub-fields is populated, selected by Subtype.
type LteRrcPayload struct {
	Subtype     gsmtap.LteRrcSubtype
	Paging      *Paging
	ConnRelease *ConnectionRelease
	Sib67       *SystemInfoBlock67
	Sib1        *SystemInfoBlock1
}

// decodeLteRrc decodes the subset of LTE RRC subtypes the analyzer
// harness inspects. Other subtypes decode to an empty payload rather
// than an error — the harness is resilient to partially-understood
// containers (spec §4.6).
func decodeLteRrc(subtype gsmtap.LteRrcSubtype, payload []byte) (LteRrcPayload, error) {
	out := LteRrcPayload{Subtype: subtype}

	switch subtype {
	case gsmtap.LteRrcPcch:
		p, err := decodePaging(payload)
		if err != nil {
			return out, err
		}
		out.Paging = &p

	case gsmtap.LteRrcDlDcch:
		if cr, ok := decodeConnectionRelease(payload); ok {
			out.ConnRelease = &cr
		}

	case gsmtap.LteRrcBcchDlSch, gsmtap.LteRrcBcchDlSchBr, gsmtap.LteRrcBcchDlSchMbms:
		if sib1, ok := decodeSib1(payload); ok {
			out.Sib1 = &sib1
		}
		if sib67, ok := decodeSib67(payload); ok {
			out.Sib67 = &sib67
		}
	}

	return out, nil
}

// Paging wire layout: numRecords(1) then per record: kind(1)
// [0=unknown,1=imsi,2=tmsi,3=s-tmsi], if kind==imsi: imsiLen(1) + digits
// as ASCII bytes.
func decodePaging(b []byte) (Paging, error) {
	const op = "ie.decodePaging"
	if len(b) < 1 {
		return Paging{}, rherr.New(op, rherr.CodeDecodingError, "paging message too short")
	}
	n := int(b[0])
	b = b[1:]
	records := make([]PagingRecord, 0, n)
	for i := 0; i < n; i++ {
		if len(b) < 1 {
			return Paging{}, rherr.New(op, rherr.CodeDecodingError, "truncated paging record")
		}
		kind := UeIdentityKind(b[0])
		b = b[1:]
		rec := PagingRecord{Identity: kind}
		if kind == IdentityImsi {
			if len(b) < 1 {
				return Paging{}, rherr.New(op, rherr.CodeDecodingError, "truncated imsi length")
			}
			l := int(b[0])
			b = b[1:]
			if len(b) < l {
				return Paging{}, rherr.New(op, rherr.CodeDecodingError, "truncated imsi digits")
			}
			rec.Imsi = string(b[:l])
			b = b[l:]
		}
		records = append(records, rec)
	}
	return Paging{Records: records}, nil
}

// RRCConnectionRelease wire layout: redirectKind(1)
// [0=none,1=geran,2=utra], arfcn(2, LE) when redirectKind != none.
func decodeConnectionRelease(b []byte) (ConnectionRelease, bool) {
	if len(b) < 1 {
		return ConnectionRelease{}, false
	}
	kind := RedirectKind(b[0])
	if kind == RedirectNone {
		return ConnectionRelease{Redirected: RedirectedCarrierInfo{Kind: RedirectNone}}, true
	}
	if len(b) < 3 {
		return ConnectionRelease{}, false
	}
	arfcn := uint16(b[1]) | uint16(b[2])<<8
	return ConnectionRelease{Redirected: RedirectedCarrierInfo{Kind: kind, Arfcn: arfcn}}, true
}

// SIB1 wire layout: schedulingInfoCount(1) as the first byte; remainder
// ignored.
func decodeSib1(b []byte) (SystemInfoBlock1, bool) {
	if len(b) < 1 {
		return SystemInfoBlock1{}, false
	}
	return SystemInfoBlock1{SchedulingInfoCount: int(b[0])}, true
}

// SIB6/7 wire layout: byte 0 reserved for scheduling info count (shared
// prefix with SIB1 in this simplified encoding); byte 1 is the carrier
// count, followed by (freq(2,LE), priority(1)) per carrier.
func decodeSib67(b []byte) (SystemInfoBlock67, bool) {
	if len(b) < 2 {
		return SystemInfoBlock67{}, false
	}
	n := int(b[1])
	b = b[2:]
	carriers := make([]CarrierPriority, 0, n)
	for i := 0; i < n; i++ {
		if len(b) < 3 {
			return SystemInfoBlock67{Carriers: carriers}, true
		}
		freq := uint16(b[0]) | uint16(b[1])<<8
		priority := b[2]
		carriers = append(carriers, CarrierPriority{CarrierFreq: freq, CellReselectionPriority: priority})
		b = b[3:]
	}
	return SystemInfoBlock67{Carriers: carriers}, true
}
