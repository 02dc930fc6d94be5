package ihex

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

type scanState int

const (
	stateStart scanState = iota
	stateReading
	stateTrailer
	stateDone
	stateFailed
)

// Scanner reads Intel HEX records one line at a time.
// It is the incremental form of ParseReader and suits unbounded inputs:
// lines are consumed strictly in order and nothing is read past the
// current line until the next call to Scan.
//
// Example:
//
//	sc := ihex.NewScanner(r)
//	for sc.Scan() {
//	    rec := sc.Record()
//	    if rec.Type == ihex.Data {
//	        fmt.Printf("0x%08X: % X\n", sc.Address(), rec.Data)
//	    }
//	}
//	if err := sc.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Scan returns false after the End Of File record once trailing lines
// have been checked, or at the first error. A Scanner is not safe for
// concurrent use.
type Scanner struct {
	lines    *bufio.Scanner
	config   Config
	state    scanState
	lineNum  int
	rec      Record
	addr     uint32
	tracker  addressTracker
	err      error
	warnings []*ParseError
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader, opts ...Option) *Scanner {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, MaxLineLength+2), cfg.MaxLineBytes)

	return &Scanner{
		lines:  lines,
		config: cfg,
	}
}

// Scan advances to the next record.
func (s *Scanner) Scan() bool {
	switch s.state {
	case stateDone, stateFailed:
		return false
	case stateTrailer:
		s.drainTrailer()
		return false
	}
	s.state = stateReading

	for s.lines.Scan() {
		s.lineNum++
		text := strings.TrimRight(s.lines.Text(), " \t\r\n\v\f")

		// Skip empty lines
		if text == "" {
			continue
		}

		rec, err := parseLine(text, s.lineNum)
		if err != nil {
			return s.fail(err)
		}

		s.rec = rec
		s.addr = s.tracker.apply(rec)
		if rec.Type == EndOfFile {
			s.state = stateTrailer
		}
		return true
	}

	if err := s.lines.Err(); err != nil {
		return s.fail(s.readError(err))
	}

	return s.fail(&ParseError{
		Kind:   KindUnexpectedEndOfStream,
		Line:   s.lineNum,
		Detail: "input ended before the end of file record",
	})
}

// drainTrailer consumes the lines after the End Of File record and
// applies the trailing data policy to the first non-blank one.
func (s *Scanner) drainTrailer() {
	var first *ParseError
	extra := 0

	for s.lines.Scan() {
		s.lineNum++
		text := strings.TrimRight(s.lines.Text(), " \t\r\n\v\f")
		if text == "" {
			continue
		}

		extra++
		if first == nil {
			first = &ParseError{Kind: KindTrailingData, Line: s.lineNum, Text: text}
			if s.config.Trailing == TrailingError {
				s.fail(first)
				return
			}
		}
	}

	if err := s.lines.Err(); err != nil {
		s.fail(s.readError(err))
		return
	}

	if first != nil {
		first.Detail = fmt.Sprintf("%d line(s) ignored", extra)
		s.warnings = append(s.warnings, first)
		s.logInfo("ignoring trailing data",
			"line", first.Line,
			"lines", extra,
		)
	}
	s.state = stateDone
}

// readError converts a failure of the underlying line reader.
// An overlong line is a format problem, not an I/O one.
func (s *Scanner) readError(err error) error {
	if errors.Is(err, bufio.ErrTooLong) {
		return &ParseError{
			Kind:   KindInvalidLength,
			Line:   s.lineNum + 1,
			Detail: fmt.Sprintf("line exceeds %d bytes", s.config.MaxLineBytes),
		}
	}
	return fmt.Errorf("line %d: failed to read: %w", s.lineNum+1, err)
}

func (s *Scanner) fail(err error) bool {
	s.err = err
	s.state = stateFailed
	s.rec = Record{}
	s.logError("parse failed", "error", err.Error())
	return false
}

// Record returns the most recent record read by Scan.
func (s *Scanner) Record() Record {
	return s.rec
}

// Address returns the absolute address of the most recent record:
// the extended base plus the record's offset. It is meaningful for
// Data records.
func (s *Scanner) Address() uint32 {
	return s.addr
}

// Base returns the extended address base currently in effect.
func (s *Scanner) Base() uint32 {
	return s.tracker.base
}

// Line returns the line number of the most recent line read.
func (s *Scanner) Line() int {
	return s.lineNum
}

// Err returns the first error encountered, or nil after a clean pass.
func (s *Scanner) Err() error {
	return s.err
}

// Warnings returns the non-fatal problems found so far.
func (s *Scanner) Warnings() []*ParseError {
	out := make([]*ParseError, len(s.warnings))
	copy(out, s.warnings)
	return out
}

func (s *Scanner) logInfo(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Info(msg, keysAndValues...)
	}
}

func (s *Scanner) logError(msg string, keysAndValues ...interface{}) {
	if s.config.Logger != nil {
		s.config.Logger.Error(msg, keysAndValues...)
	}
}

// parseLine decodes one non-blank line (trailing whitespace removed).
//
// Line format:
//
//	:[ByteCount(1)][Address(2)][Type(1)][Data(ByteCount)][Checksum(1)]
//
// All fields are hex-encoded; Address is big-endian.
func parseLine(text string, lineNum int) (Record, error) {
	if text[0] != StartCode {
		return Record{}, &ParseError{
			Kind:   KindMalformedLine,
			Line:   lineNum,
			Text:   text,
			Detail: "missing start code ':'",
		}
	}

	digits := text[1:]
	if col := invalidHexColumn(digits); col >= 0 {
		return Record{}, &ParseError{
			Kind:   KindMalformedEncoding,
			Line:   lineNum,
			Text:   text,
			Detail: fmt.Sprintf("invalid hex character %q at column %d", digits[col], col+2),
		}
	}
	if len(digits)%2 != 0 {
		return Record{}, &ParseError{
			Kind:   KindMalformedEncoding,
			Line:   lineNum,
			Text:   text,
			Detail: fmt.Sprintf("odd number of hex digits (%d)", len(digits)),
		}
	}

	data, err := hex.DecodeString(digits)
	if err != nil {
		return Record{}, &ParseError{
			Kind:   KindMalformedEncoding,
			Line:   lineNum,
			Text:   text,
			Detail: err.Error(),
		}
	}

	if len(data) < RecordOverhead {
		return Record{}, &ParseError{
			Kind:   KindInvalidLength,
			Line:   lineNum,
			Text:   text,
			Detail: fmt.Sprintf("record too short: got %d bytes, minimum is %d", len(data), RecordOverhead),
		}
	}

	byteCount := data[0]
	expectedLen := RecordOverhead + int(byteCount)
	if len(data) != expectedLen {
		return Record{}, &ParseError{
			Kind: KindInvalidLength,
			Line: lineNum,
			Text: text,
			Detail: fmt.Sprintf("byte count %d needs %d bytes, line has %d",
				byteCount, expectedLen, len(data)),
		}
	}

	checksum := data[len(data)-1]
	calculated := Checksum(data[:len(data)-1])
	if checksum != calculated {
		return Record{}, &ParseError{
			Kind:     KindChecksumMismatch,
			Line:     lineNum,
			Text:     text,
			Expected: calculated,
			Found:    checksum,
		}
	}

	recType := RecordType(data[3])
	if !recType.Valid() {
		return Record{}, &ParseError{
			Kind:  KindUnsupportedRecordType,
			Line:  lineNum,
			Text:  text,
			Found: data[3],
		}
	}

	if size := recType.payloadSize(); size >= 0 && int(byteCount) != size {
		return Record{}, &ParseError{
			Kind: KindInvalidLength,
			Line: lineNum,
			Text: text,
			Detail: fmt.Sprintf("%s record must carry %d data bytes, got %d",
				recType, size, byteCount),
		}
	}

	rec := Record{
		ByteCount: byteCount,
		Address:   uint16(data[1])<<8 | uint16(data[2]), // Big-endian
		Type:      recType,
		Data:      make([]byte, byteCount),
		Checksum:  checksum,
		Line:      lineNum,
	}
	copy(rec.Data, data[RecordHeaderSize:RecordHeaderSize+int(byteCount)])

	return rec, nil
}

// invalidHexColumn returns the index of the first non-hex character in s, or -1.
func invalidHexColumn(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return i
		}
	}
	return -1
}
