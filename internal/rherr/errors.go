// Package rherr defines rayhunter-go's structured error taxonomy (spec §7).
// The shape — a single struct carrying an operation tag, a high-level code,
// an optional wrapped error, and errors.Is/As support — follows the
// teacher's top-level errors.go.
package rherr

import (
	"errors"
	"fmt"
)

// Code is a high-level error category from spec §7.
type Code string

const (
	CodeConfigError    Code = "config error"
	CodeDiagInitError  Code = "diag init error"
	CodeHdlcError      Code = "hdlc error"
	CodeDecodingError  Code = "decoding error"
	CodeStoreError     Code = "store error"
	CodeIoError        Code = "io error"
)

// HdlcKind enumerates the HdlcError sub-kinds spec §4.1/§7 distinguishes.
type HdlcKind string

const (
	HdlcTooShort              HdlcKind = "too short"
	HdlcNoTrailingCharacter   HdlcKind = "missing trailing 0x7e"
	HdlcInvalidEscapeSequence HdlcKind = "invalid escape sequence"
	HdlcMissingChecksum       HdlcKind = "missing checksum"
	HdlcInvalidChecksum       HdlcKind = "invalid checksum"
)

// Error is rayhunter-go's structured error type.
type Error struct {
	Op    string // operation that failed, e.g. "diagdevice.ReadContainer"
	Code  Code
	Hdlc  HdlcKind // set only when Code == CodeHdlcError
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Hdlc != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Hdlc)
	}
	if e.Op != "" {
		return fmt.Sprintf("rayhunter: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("rayhunter: %s", msg)
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	if te.Code != "" && te.Code != e.Code {
		return false
	}
	if te.Hdlc != "" && te.Hdlc != e.Hdlc {
		return false
	}
	return true
}

// New constructs a plain Error.
func New(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewHdlc constructs an HdlcError of the given sub-kind.
func NewHdlc(op string, kind HdlcKind) *Error {
	return &Error{Op: op, Code: CodeHdlcError, Hdlc: kind, Msg: string(kind)}
}

// Wrap attaches op/code context to an existing error. If err is already an
// *Error, its Code, Hdlc and Msg are kept and code is ignored.
func Wrap(op string, code Code, err error) *Error {
	if err == nil {
		return nil
	}
	if re, ok := err.(*Error); ok {
		return &Error{Op: op, Code: re.Code, Hdlc: re.Hdlc, Msg: re.Msg, Inner: re}
	}
	return &Error{Op: op, Code: code, Msg: err.Error(), Inner: err}
}

// IsCode reports whether err (or something it wraps) carries code.
func IsCode(err error, code Code) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsHdlc reports whether err (or something it wraps) is the given HDLC
// sub-kind.
func IsHdlc(err error, kind HdlcKind) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == CodeHdlcError && re.Hdlc == kind
	}
	return false
}

// Sentinel StoreError reasons used by the recording store (spec §4.4, §7).
var (
	ErrStoreNameCollision   = New("store", CodeStoreError, "entry name already exists")
	ErrStoreNoCurrentEntry  = New("store", CodeStoreError, "no current entry")
	ErrStoreCurrentEntry    = New("store", CodeStoreError, "cannot delete the current entry")
	ErrStoreEntryNotFound   = New("store", CodeStoreError, "entry not found")
	ErrStoreSizeWentBack    = New("store", CodeStoreError, "size update would decrease a monotonic counter")
	ErrStoreManifestCorrupt = New("store", CodeStoreError, "manifest is corrupt")
)
