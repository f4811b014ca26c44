// Package qerr defines the structured error kinds used across the parser,
// classifier, sample locator and codecs (spec §7).
package qerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind tags the category of a pipeline failure.
type Kind int

const (
	// KindIO is a file open/read failure.
	KindIO Kind = iota
	// KindUnexpectedEOF means the parser ran past the buffer.
	KindUnexpectedEOF
	// KindMalformedAtom means an atom's size header was < 8 or extended
	// past its parent.
	KindMalformedAtom
	// KindUnsupportedCodec means no decoder exists for a data_format.
	KindUnsupportedCodec
	// KindUnsupportedQTVR means the file is QTVR v2 or later.
	KindUnsupportedQTVR
	// KindNotQTVR means ctyp is missing or unrecognized.
	KindNotQTVR
	// KindDecode means a framing mismatch occurred inside a codec.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "Io"
	case KindUnexpectedEOF:
		return "UnexpectedEof"
	case KindMalformedAtom:
		return "MalformedAtom"
	case KindUnsupportedCodec:
		return "UnsupportedCodec"
	case KindUnsupportedQTVR:
		return "UnsupportedQtvr"
	case KindNotQTVR:
		return "NotQtvr"
	case KindDecode:
		return "DecodeError"
	default:
		return "Unknown"
	}
}

// Error is the structured error type threaded through the pipeline. It
// carries enough context (offset, atom/codec kind) to print a single
// human-readable diagnostic without losing the underlying Kind for
// programmatic discrimination via errors.As.
type Error struct {
	Kind   Kind
	FourCC string // atom type or codec fourcc, when applicable
	Offset int64  // byte offset, when applicable (-1 if n/a)
	Reason string
	cause  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnsupportedCodec:
		return fmt.Sprintf("unsupported codec %q", e.FourCC)
	case KindUnsupportedQTVR:
		return fmt.Sprintf("unsupported QTVR version (controller %q)", e.FourCC)
	case KindNotQTVR:
		return "not a QTVR 1 movie"
	case KindDecode:
		return fmt.Sprintf("decode error in %s at offset %d: %s", e.FourCC, e.Offset, e.Reason)
	case KindMalformedAtom:
		return fmt.Sprintf("malformed atom %q at offset %d: %s", e.FourCC, e.Offset, e.Reason)
	case KindUnexpectedEOF:
		return fmt.Sprintf("unexpected EOF at offset %d: %s", e.Offset, e.Reason)
	case KindIO:
		return fmt.Sprintf("io error: %s", e.Reason)
	default:
		return e.Reason
	}
}

func (e *Error) Unwrap() error { return e.cause }

// Wrap attaches offset/FourCC context to an error of the given kind. cause
// is stamped with a stack trace via pkg/errors.WithStack before being
// stored, so a top-level %+v print of the returned Error (via Unwrap)
// shows where the underlying failure originated, not just where it was
// reported.
func Wrap(kind Kind, fourcc string, offset int64, reason string, cause error) *Error {
	return &Error{Kind: kind, FourCC: fourcc, Offset: offset, Reason: reason, cause: errors.WithStack(cause)}
}

// New constructs a new Error without an underlying cause.
func New(kind Kind, fourcc string, offset int64, reason string) *Error {
	return &Error{Kind: kind, FourCC: fourcc, Offset: offset, Reason: reason}
}

// As reports whether err (or something it wraps) is a *Error, writing it
// into target when so.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}
