package ie

import "github.com/rayhunter-go/rayhunter/internal/rherr"

// NasMessageType tags the handful of NAS EMM/ESM message types the
// analyzer harness inspects (spec §4.7, analyzers #2/#3/#7).
type NasMessageType int

const (
	NasOther NasMessageType = iota
	NasIdentityRequest
	NasSecurityModeCommand
	NasEmmReject
	NasAttachReject
	NasTrackingAreaUpdateReject
	NasDetachRequest
)

// IdentityType is the requested identity kind in a NAS Identity Request
// (spec §4.7, analyzer #2).
type IdentityType int

const (
	IdentityTypeUnknown IdentityType = iota
	IdentityTypeImsi
	IdentityTypeImei
	IdentityTypeImeisv
	IdentityTypeTmsi
)

// CipherAlgorithm is the selected NAS ciphering algorithm in a Security
// Mode Command (spec §4.7, analyzer #3).
type CipherAlgorithm int

const (
	CipherEEA0 CipherAlgorithm = iota
	CipherEEA1
	CipherEEA2
	CipherEEA3
)

// imsiExposingCauseCodes are the EMM/ESM reject and detach cause codes
// known to let a passive observer infer a target's IMSI was rejected
// (spec §4.7, analyzer #7; 3GPP TS 24.301 Annex A, the set examined by
// the Marlin et al. "IMSI exposure" study this analyzer is named after).
var imsiExposingCauseCodes = map[uint8]string{
	3:  "illegal UE",
	6:  "illegal ME",
	8:  "EPS services and non-EPS services not allowed",
	9:  "UE identity cannot be derived by the network",
	10: "implicitly detached",
	11: "PLMN not allowed",
	12: "tracking area not allowed",
	13: "roaming not allowed in this tracking area",
	15: "no suitable cells in tracking area",
	25: "not authorized for this CSG",
}

// NasPayload is the decode of one NAS EMM/ESM message. The sub-field
// that applies depends on MessageType.
type NasPayload struct {
	MessageType       NasMessageType
	RequestedIdentity IdentityType
	SelectedCipher    CipherAlgorithm
	CauseCode         uint8
	CauseDescription  string // set only when CauseCode is IMSI-exposing
}

// IsImsiExposingCause reports whether p's cause code is one of the
// reject/detach causes known to leak IMSI presence.
func (p NasPayload) IsImsiExposingCause() bool {
	_, ok := imsiExposingCauseCodes[p.CauseCode]
	return ok
}

// decodeNas decodes the simplified NAS wire layout: messageType(1),
// followed by a message-specific parameter byte.
func decodeNas(b []byte) (NasPayload, error) {
	const op = "ie.decodeNas"
	if len(b) < 1 {
		return NasPayload{}, rherr.New(op, rherr.CodeDecodingError, "nas message too short")
	}

	msgType := NasMessageType(b[0])
	out := NasPayload{MessageType: msgType}
	rest := b[1:]

	switch msgType {
	case NasIdentityRequest:
		if len(rest) < 1 {
			return out, rherr.New(op, rherr.CodeDecodingError, "identity request missing identity type")
		}
		out.RequestedIdentity = IdentityType(rest[0])

	case NasSecurityModeCommand:
		if len(rest) < 1 {
			return out, rherr.New(op, rherr.CodeDecodingError, "security mode command missing cipher")
		}
		out.SelectedCipher = CipherAlgorithm(rest[0])

	case NasEmmReject, NasAttachReject, NasTrackingAreaUpdateReject, NasDetachRequest:
		if len(rest) < 1 {
			return out, rherr.New(op, rherr.CodeDecodingError, "reject/detach message missing cause code")
		}
		out.CauseCode = rest[0]
		if desc, ok := imsiExposingCauseCodes[out.CauseCode]; ok {
			out.CauseDescription = desc
		}
	}

	return out, nil
}
