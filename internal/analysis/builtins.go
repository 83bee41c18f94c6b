package analysis

import (
	"fmt"

	"github.com/rayhunter-go/rayhunter/internal/constants"
	"github.com/rayhunter-go/rayhunter/internal/ie"
)

// BuiltinAnalyzers returns the eight analyzers Rayhunter ships with, in
// the registration order their NDJSON rows are emitted in (spec §4.7).
func BuiltinAnalyzers() []Analyzer {
	return []Analyzer{
		&imsiProvidedAnalyzer{},
		&imsiRequestedAnalyzer{},
		&nasNullCipherAnalyzer{},
		&connectionRelease2gDowngradeAnalyzer{},
		&sibPriority2g3gDowngradeAnalyzer{},
		&incompleteSib1Analyzer{},
		&imsiExposingNasAnalyzer{},
		&testAnalyzer{},
	}
}

// --- 1. IMSI Provided (LTE PCCH Paging) ---

type imsiProvidedAnalyzer struct{}

func (a *imsiProvidedAnalyzer) Name() string        { return "IMSI Provided" }
func (a *imsiProvidedAnalyzer) Description() string { return "Checks for paging messages that use a UE's IMSI rather than its temporary identity" }
func (a *imsiProvidedAnalyzer) Version() uint32      { return 1 }

func (a *imsiProvidedAnalyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Lte == nil || elem.Lte.Paging == nil {
		return nil
	}
	for _, rec := range elem.Lte.Paging.Records {
		if rec.Identity == ie.IdentityImsi {
			return &Event{Severity: High, Message: "A cell tower provided the IMSI of a phone in a paging message"}
		}
	}
	return nil
}

// --- 2. IMSI Requested (NAS) ---

type imsiRequestedAnalyzer struct{}

func (a *imsiRequestedAnalyzer) Name() string        { return "IMSI Requested" }
func (a *imsiRequestedAnalyzer) Description() string { return "Checks for network identity requests that ask for a UE's IMSI" }
func (a *imsiRequestedAnalyzer) Version() uint32      { return 1 }

func (a *imsiRequestedAnalyzer) Analyze(ctx *Context, elem ie.InformationElement) *Event {
	if elem.Nas == nil || elem.Nas.MessageType != ie.NasIdentityRequest {
		return nil
	}
	if elem.Nas.RequestedIdentity != ie.IdentityTypeImsi {
		return nil
	}
	severity := High
	if ctx.PacketIndex < constants.ImsiAttachWindowPackets {
		severity = Medium
	}
	return &Event{Severity: severity, Message: "Cell network asked UE for its IMSI"}
}

// --- 3. NAS Null Cipher ---

type nasNullCipherAnalyzer struct{}

func (a *nasNullCipherAnalyzer) Name() string        { return "NAS Null Cipher" }
func (a *nasNullCipherAnalyzer) Description() string { return "Checks for a NAS Security Mode Command selecting the null ciphering algorithm (EEA0)" }
func (a *nasNullCipherAnalyzer) Version() uint32      { return 1 }

func (a *nasNullCipherAnalyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Nas == nil || elem.Nas.MessageType != ie.NasSecurityModeCommand {
		return nil
	}
	if elem.Nas.SelectedCipher != ie.CipherEEA0 {
		return nil
	}
	return &Event{Severity: High, Message: "Cell network selected a null NAS ciphering algorithm (EEA0)"}
}

// --- 4. Connection Release 2G Downgrade ---

type connectionRelease2gDowngradeAnalyzer struct{}

func (a *connectionRelease2gDowngradeAnalyzer) Name() string { return "Connection Release 2G Downgrade" }
func (a *connectionRelease2gDowngradeAnalyzer) Description() string {
	return "Checks for an RRCConnectionRelease that redirects the UE to a 2G or 3G carrier"
}
func (a *connectionRelease2gDowngradeAnalyzer) Version() uint32 { return 1 }

func (a *connectionRelease2gDowngradeAnalyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Lte == nil || elem.Lte.ConnRelease == nil {
		return nil
	}
	switch elem.Lte.ConnRelease.Redirected.Kind {
	case ie.RedirectGeran:
		return &Event{Severity: High, Message: "Detected 2G downgrade"}
	case ie.RedirectUtra:
		return &Event{Severity: Informational, Message: "Detected 3G downgrade"}
	default:
		return nil
	}
}

// --- 5. LTE SIB6/7 Priority 2G/3G Downgrade ---

type sibPriority2g3gDowngradeAnalyzer struct{}

func (a *sibPriority2g3gDowngradeAnalyzer) Name() string { return "LTE SIB6/7 Downgrade" }
func (a *sibPriority2g3gDowngradeAnalyzer) Description() string {
	return "Checks SIB6/SIB7 for an advertised UTRA/GERAN carrier with cell reselection priority zero"
}
func (a *sibPriority2g3gDowngradeAnalyzer) Version() uint32 { return 1 }

func (a *sibPriority2g3gDowngradeAnalyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Lte == nil || elem.Lte.Sib67 == nil {
		return nil
	}
	for _, c := range elem.Lte.Sib67.Carriers {
		if c.CellReselectionPriority == 0 {
			return &Event{
				Severity: High,
				Message:  fmt.Sprintf("Carrier %d advertised with cell reselection priority 0", c.CarrierFreq),
			}
		}
	}
	return nil
}

// --- 6. Incomplete SIB1 ---

type incompleteSib1Analyzer struct{}

func (a *incompleteSib1Analyzer) Name() string        { return "Incomplete SIB1" }
func (a *incompleteSib1Analyzer) Description() string { return "Checks SIB1 for a suspiciously short schedulingInfoList" }
func (a *incompleteSib1Analyzer) Version() uint32      { return 1 }

const minSchedulingInfoEntries = 2

func (a *incompleteSib1Analyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Lte == nil || elem.Lte.Sib1 == nil {
		return nil
	}
	if elem.Lte.Sib1.SchedulingInfoCount < minSchedulingInfoEntries {
		return &Event{Severity: Medium, Message: "SIB1 schedulingInfoList has fewer than 2 entries"}
	}
	return nil
}

// --- 7. IMSI-Exposing NAS Messages ---

type imsiExposingNasAnalyzer struct{}

func (a *imsiExposingNasAnalyzer) Name() string        { return "IMSI-Exposing NAS Messages" }
func (a *imsiExposingNasAnalyzer) Description() string { return "Enumerates NAS reject/detach cause codes known to leak IMSI presence" }
func (a *imsiExposingNasAnalyzer) Version() uint32      { return 1 }

func (a *imsiExposingNasAnalyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Nas == nil {
		return nil
	}
	switch elem.Nas.MessageType {
	case ie.NasEmmReject, ie.NasAttachReject, ie.NasTrackingAreaUpdateReject, ie.NasDetachRequest:
	default:
		return nil
	}
	if !elem.Nas.IsImsiExposingCause() {
		return nil
	}
	return &Event{
		Severity: Informational,
		Message:  fmt.Sprintf("NAS reject/detach cause %d (%s) can expose IMSI presence", elem.Nas.CauseCode, elem.Nas.CauseDescription),
	}
}

// --- 8. Test Analyzer ---

type testAnalyzer struct{}

func (a *testAnalyzer) Name() string        { return "Test Analyzer" }
func (a *testAnalyzer) Description() string { return "Emits a Low event on every SIB1, used to validate the pipeline" }
func (a *testAnalyzer) Version() uint32      { return 1 }

func (a *testAnalyzer) Analyze(_ *Context, elem ie.InformationElement) *Event {
	if elem.Lte == nil || elem.Lte.Sib1 == nil {
		return nil
	}
	return &Event{Severity: Low, Message: "Test analyzer fired on SIB1"}
}
