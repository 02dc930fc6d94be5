package ihex

import (
	"errors"
	"fmt"
)

// Kind classifies a ParseError.
type Kind int

const (
	// KindMalformedLine indicates a non-blank line without the ':' start code.
	KindMalformedLine Kind = iota + 1

	// KindMalformedEncoding indicates an odd number of hex digits or a non-hex character.
	KindMalformedEncoding

	// KindInvalidLength indicates the byte count disagrees with the line
	// length or with the fixed payload size of the record type.
	KindInvalidLength

	// KindChecksumMismatch indicates the encoded checksum is wrong.
	KindChecksumMismatch

	// KindUnsupportedRecordType indicates a record type outside 0x00-0x05.
	KindUnsupportedRecordType

	// KindTrailingData indicates non-blank lines after the End Of File record.
	KindTrailingData

	// KindUnexpectedEndOfStream indicates the input ended before an End Of File record.
	KindUnexpectedEndOfStream
)

// Sentinel errors, one per Kind. Use errors.Is to test for a kind and
// errors.As to get the *ParseError with line information.
var (
	ErrMalformedLine         = errors.New("malformed line")
	ErrMalformedEncoding     = errors.New("malformed encoding")
	ErrInvalidLength         = errors.New("invalid length")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
	ErrUnsupportedRecordType = errors.New("unsupported record type")
	ErrTrailingData          = errors.New("trailing data after end of file record")
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")
)

func (k Kind) sentinel() error {
	switch k {
	case KindMalformedLine:
		return ErrMalformedLine
	case KindMalformedEncoding:
		return ErrMalformedEncoding
	case KindInvalidLength:
		return ErrInvalidLength
	case KindChecksumMismatch:
		return ErrChecksumMismatch
	case KindUnsupportedRecordType:
		return ErrUnsupportedRecordType
	case KindTrailingData:
		return ErrTrailingData
	case KindUnexpectedEndOfStream:
		return ErrUnexpectedEndOfStream
	default:
		return nil
	}
}

func (k Kind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("unknown error kind %d", int(k))
}

// ParseError describes why an Intel HEX input was rejected.
type ParseError struct {
	// Kind classifies the failure
	Kind Kind

	// Line is the 1-based line number, or the last line read for
	// KindUnexpectedEndOfStream
	Line int

	// Text is the raw line content (trailing whitespace removed), empty
	// when the line was too long to buffer
	Text string

	// Expected and Found carry the checksum values for KindChecksumMismatch
	// and the record type in Found for KindUnsupportedRecordType
	Expected byte
	Found    byte

	// Detail is an optional human-readable explanation
	Detail string
}

func (e *ParseError) Error() string {
	var msg string
	switch e.Kind {
	case KindChecksumMismatch:
		msg = fmt.Sprintf("checksum mismatch: expected 0x%02X, found 0x%02X", e.Expected, e.Found)
	case KindUnsupportedRecordType:
		msg = fmt.Sprintf("unsupported record type 0x%02X", e.Found)
	default:
		msg = e.Kind.String()
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
	}

	if e.Kind == KindUnexpectedEndOfStream || e.Text == "" {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return fmt.Sprintf("line %d: %s (%q)", e.Line, msg, e.Text)
}

// Is reports whether target is the sentinel for e's Kind.
func (e *ParseError) Is(target error) bool {
	return target != nil && e.Kind.sentinel() == target
}

// IsParseError returns true if err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
