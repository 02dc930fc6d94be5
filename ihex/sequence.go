package ihex

import (
	"bufio"
	"bytes"
	"io"
	"iter"
)

// Sequence is an ordered, read-only collection of records in line order,
// ending with the End Of File record. A Sequence is produced by a single
// parse pass and never changes afterwards; accessors return copies.
type Sequence struct {
	records  []Record
	warnings []*ParseError
}

// NewSequence builds a Sequence from constructed records. The records are
// copied. It does not validate ordering; use it for encoding, not for
// accepting untrusted input.
func NewSequence(records ...Record) *Sequence {
	seq := &Sequence{records: make([]Record, len(records))}
	for i, r := range records {
		seq.records[i] = r.clone()
	}
	return seq
}

// Len returns the number of records.
func (s *Sequence) Len() int {
	return len(s.records)
}

// At returns a copy of the i-th record.
func (s *Sequence) At(i int) Record {
	return s.records[i].clone()
}

// Records returns a copy of all records.
func (s *Sequence) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.clone()
	}
	return out
}

// All iterates over copies of the records with their index.
func (s *Sequence) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range s.records {
			if !yield(i, r.clone()) {
				return
			}
		}
	}
}

// Warnings returns non-fatal problems found while parsing, such as
// trailing data accepted under TrailingWarn.
func (s *Sequence) Warnings() []*ParseError {
	out := make([]*ParseError, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Blocks returns every Data record resolved to its absolute address,
// in sequence order. Extended address records before each Data record
// determine its base.
func (s *Sequence) Blocks() []Block {
	var tracker addressTracker
	blocks := make([]Block, 0, len(s.records))
	for _, r := range s.records {
		addr := tracker.apply(r)
		if r.Type != Data {
			continue
		}
		data := make([]byte, len(r.Data))
		copy(data, r.Data)
		blocks = append(blocks, Block{Address: addr, Data: data, Line: r.Line})
	}
	return blocks
}

// StartAddress returns the entry point carried by the last Start Segment
// Address or Start Linear Address record. Segment entry points are
// converted to the physical address CS*16 + IP.
func (s *Sequence) StartAddress() (uint32, bool) {
	var tracker addressTracker
	for _, r := range s.records {
		tracker.apply(r)
	}
	return tracker.start, tracker.entry
}

// DataSize returns the total number of payload bytes in Data records.
func (s *Sequence) DataSize() int {
	n := 0
	for _, r := range s.records {
		if r.Type == Data {
			n += len(r.Data)
		}
	}
	return n
}

// WriteTo writes the sequence as Intel HEX text, one record per line.
// Parsing the output yields an equal sequence.
func (s *Sequence) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, r := range s.records {
		m, err := bw.WriteString(r.Encode() + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Equal reports whether both sequences hold the same records.
// Source line numbers are not compared.
func (s *Sequence) Equal(other *Sequence) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.records) != len(other.records) {
		return false
	}
	for i, r := range s.records {
		o := other.records[i]
		if r.ByteCount != o.ByteCount || r.Address != o.Address ||
			r.Type != o.Type || r.Checksum != o.Checksum ||
			!bytes.Equal(r.Data, o.Data) {
			return false
		}
	}
	return true
}
