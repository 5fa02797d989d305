// Package errs defines the error values shared by all fragbox packages.
//
// Most failures are reported through sentinel errors that callers match with
// errors.Is. The two failures that belong to the container contract,
// InvalidFragment and WrongFragmentType, are additionally carried as *Error
// values so callers can switch on a machine-readable Kind.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a structured container error.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindInvalidFragment reports an arena whose layout does not match what the operation expects.
	KindInvalidFragment
	// KindWrongFragmentType reports a record whose type conflicts with the container's bound type.
	KindWrongFragmentType
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInvalidFragment:
		return "InvalidFragment"
	case KindWrongFragmentType:
		return "WrongFragmentType"
	default:
		return "Unknown"
	}
}

var (
	ErrInvalidFragment    = errors.New("invalid fragment")
	ErrWrongFragmentType  = errors.New("wrong fragment type")
	ErrNilFragment        = errors.New("nil fragment")
	ErrIndexOutOfRange    = errors.New("fragment index out of range")
	ErrCorruptIndex       = errors.New("container index does not match packed fragments")
	ErrNotContainer       = errors.New("fragment is not a container")
	ErrBadMagic           = errors.New("container magic marker missing")
	ErrUnsupportedVersion = errors.New("unsupported container version")

	ErrInvalidHeaderSize    = errors.New("invalid fragment header size")
	ErrInvalidHeaderVersion = errors.New("invalid fragment header version")
	ErrInvalidWordCount     = errors.New("fragment word count does not match data")
	ErrInvalidMetadataSize  = errors.New("invalid metadata size")
	ErrInvalidMetadata      = errors.New("invalid container metadata")
	ErrMetadataNotSet       = errors.New("fragment has no metadata")
	ErrInvalidFragmentType  = errors.New("fragment type out of range")
	ErrSequenceIDOverflow   = errors.New("sequence id exceeds 48 bits")
	ErrBlockCountOverflow   = errors.New("block count exceeds 55 bits")
	ErrFragmentTooLarge     = errors.New("fragment exceeds maximum word count")
	ErrInvalidGrowthFactor  = errors.New("growth factor must be finite and at least 1.0")

	ErrInvalidFrame             = errors.New("invalid fragment frame")
	ErrChecksumMismatch         = errors.New("fragment frame checksum mismatch")
	ErrUnsupportedCompression   = errors.New("unsupported compression type")
	ErrDecompressedSizeMismatch = errors.New("decompressed size does not match frame header")
)

// Error is a structured error carrying a Kind, the operation that failed and a
// human-readable message.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

// New creates a structured error of the given kind.
func New(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Error formats the error as "kind: op: msg".
func (e *Error) Error() string {
	if e.Op == "" {
		return e.Kind.String() + ": " + e.Msg
	}

	return e.Kind.String() + ": " + e.Op + ": " + e.Msg
}

// Is matches the sentinel error that corresponds to the error's Kind, so that
// errors.Is(err, ErrWrongFragmentType) holds for a KindWrongFragmentType error.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidFragment:
		return target == ErrInvalidFragment
	case KindWrongFragmentType:
		return target == ErrWrongFragmentType
	default:
		return false
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
