// Package ie decodes GSMTAP payloads into tagged information elements:
// LTE RRC message containers and NAS EMM/ESM messages (spec §3 "IE", §4.6).
//
// The wire layouts decoded here are Rayhunter's own simplified encoding of
// the fields the analyzer harness actually inspects, not a general ASN.1
// UPER engine — there is no ASN.1/UPER library in the reference pack, so
// this follows the teacher's manual, reflection-free byte marshalling
// style (internal/uapi) rather than pull in a generic codec for a handful
// of fields.
package ie

import (
	"github.com/rayhunter-go/rayhunter/internal/gsmtap"
	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// Kind tags which radio family an InformationElement carries.
type Kind int

const (
	KindLte Kind = iota
	KindNas
	KindOther
)

// InformationElement is the tagged decode result handed to analyzers
// (spec §3 "Information element").
type InformationElement struct {
	Kind Kind
	Lte  *LteRrcPayload
	Nas  *NasPayload
}

// Decode dispatches on msg.Type/Subtype to the LTE RRC or NAS decoder.
// Passthrough (2G/3G) messages decode to KindOther with no further
// structure, matching spec §4.5's "accepted but only passed through to
// PCAP".
func Decode(msg gsmtap.Message) (InformationElement, error) {
	const op = "ie.Decode"

	switch msg.Type {
	case gsmtap.TypeLteRrc:
		payload, err := decodeLteRrc(msg.Subtype, msg.Payload)
		if err != nil {
			return InformationElement{}, rherr.Wrap(op, rherr.CodeDecodingError, err)
		}
		return InformationElement{Kind: KindLte, Lte: &payload}, nil

	case gsmtap.TypeLteNas:
		payload, err := decodeNas(msg.Payload)
		if err != nil {
			return InformationElement{}, rherr.Wrap(op, rherr.CodeDecodingError, err)
		}
		return InformationElement{Kind: KindNas, Nas: &payload}, nil

	case gsmtap.TypePassthrough:
		return InformationElement{Kind: KindOther}, nil

	default:
		return InformationElement{}, rherr.New(op, rherr.CodeDecodingError, "unsupported gsmtap type")
	}
}
