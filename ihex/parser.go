package ihex

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// xzMagic is the header of an .xz container.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Parse parses an Intel HEX file from the given file path.
// Files compressed with xz are decompressed transparently.
// Returns the complete record sequence or an error if parsing fails.
//
// Example:
//
//	seq, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Records: %d\n", seq.Len())
func Parse(path string, opts ...Option) (*Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f, opts...)
}

// ParseString parses Intel HEX text held in memory.
func ParseString(s string, opts ...Option) (*Sequence, error) {
	return ParseReader(strings.NewReader(s), opts...)
}

// ParseReader parses Intel HEX text from any io.Reader.
// The reader is consumed up to its end so that trailing data can be
// checked; it is not closed.
//
// On failure no partial sequence is returned. The error is a *ParseError
// for format problems, or a wrapped read error.
//
// Example:
//
//	seq, err := ihex.ParseReader(strings.NewReader(":00000001FF\n"))
func ParseReader(r io.Reader, opts ...Option) (*Sequence, error) {
	src, err := NewReader(r)
	if err != nil {
		return nil, err
	}

	sc := NewScanner(src, opts...)
	seq := &Sequence{records: make([]Record, 0, DefaultRecordCapacity)}
	for sc.Scan() {
		seq.records = append(seq.records, sc.Record())
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	seq.warnings = sc.Warnings()
	if sc.config.Logger != nil {
		sc.config.Logger.Debug("parsed intel hex",
			"records", len(seq.records),
			"lines", sc.Line(),
			"warnings", len(seq.warnings),
		)
	}

	return seq, nil
}

// NewReader returns a reader yielding plain Intel HEX text, unwrapping an
// xz container when the input starts with the xz magic. Use it in front of
// NewScanner to accept the same inputs as ParseReader.
//
// Example:
//
//	src, err := ihex.NewReader(f)
//	if err != nil {
//	    return err
//	}
//	sc := ihex.NewScanner(src)
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	if !bytes.Equal(head, xzMagic) {
		return br, nil
	}

	xr, err := xz.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to open xz stream: %w", err)
	}
	return xr, nil
}
