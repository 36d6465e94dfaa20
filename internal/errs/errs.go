// Package errs gives every layer of the storage engine one typed-error
// vocabulary to branch on, instead of the bare fmt.Errorf("...: %w", err)
// chains the donor codebase sprinkles through disk and buffer pool code.
package errs

import (
	"errors"
	"fmt"
)

// Kind names one of the error categories the storage engine's callers need
// to distinguish between.
type Kind int

const (
	Unknown Kind = iota
	FileIO
	BadFormat
	OutOfFrames
	NotResident
	StillPinned
	DuplicateKey
	NotFound
	SchemaMismatch
	OutOfRange
)

func (k Kind) String() string {
	switch k {
	case FileIO:
		return "FileIO"
	case BadFormat:
		return "BadFormat"
	case OutOfFrames:
		return "OutOfFrames"
	case NotResident:
		return "NotResident"
	case StillPinned:
		return "StillPinned"
	case DuplicateKey:
		return "DuplicateKey"
	case NotFound:
		return "NotFound"
	case SchemaMismatch:
		return "SchemaMismatch"
	case OutOfRange:
		return "OutOfRange"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with context and an optional cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error carrying no cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an *Error around an existing cause.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, Cause: cause}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Sentinels for use with errors.Is against a specific, fixed occurrence.
var (
	ErrFileIO        = New(FileIO, "file i/o failed")
	ErrBadFormat     = New(BadFormat, "bad format")
	ErrOutOfFrames   = New(OutOfFrames, "no free frame available")
	ErrNotResident   = New(NotResident, "page not resident in buffer pool")
	ErrStillPinned   = New(StillPinned, "page still pinned")
	ErrDuplicateKey  = New(DuplicateKey, "duplicate key")
	ErrNotFound      = New(NotFound, "not found")
	ErrSchemaMismatch = New(SchemaMismatch, "schema mismatch")
	ErrOutOfRange    = New(OutOfRange, "value out of range")
)
