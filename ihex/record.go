package ihex

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// RecordType is the Intel HEX record type field.
type RecordType byte

// Record types defined by the Intel HEX format.
const (
	// Data carries payload bytes loaded at base + Address
	Data RecordType = 0x00

	// EndOfFile terminates the image
	EndOfFile RecordType = 0x01

	// ExtendedSegmentAddress sets the base to value*16
	ExtendedSegmentAddress RecordType = 0x02

	// StartSegmentAddress carries the CS:IP entry point
	StartSegmentAddress RecordType = 0x03

	// ExtendedLinearAddress sets the upper 16 bits of the base
	ExtendedLinearAddress RecordType = 0x04

	// StartLinearAddress carries the 32-bit entry point (EIP)
	StartLinearAddress RecordType = 0x05
)

func (t RecordType) String() string {
	switch t {
	case Data:
		return "Data"
	case EndOfFile:
		return "EndOfFile"
	case ExtendedSegmentAddress:
		return "ExtendedSegmentAddress"
	case StartSegmentAddress:
		return "StartSegmentAddress"
	case ExtendedLinearAddress:
		return "ExtendedLinearAddress"
	case StartLinearAddress:
		return "StartLinearAddress"
	default:
		return fmt.Sprintf("RecordType(0x%02X)", byte(t))
	}
}

// Valid reports whether t is one of the six defined record types.
func (t RecordType) Valid() bool {
	return t <= StartLinearAddress
}

// payloadSize returns the fixed payload size for t, or -1 if any size is allowed.
func (t RecordType) payloadSize() int {
	switch t {
	case EndOfFile:
		return 0
	case ExtendedSegmentAddress, ExtendedLinearAddress:
		return 2
	case StartSegmentAddress, StartLinearAddress:
		return 4
	default:
		return -1
	}
}

// Record is one decoded line of an Intel HEX file.
// Records returned by this package are never modified after creation.
type Record struct {
	// ByteCount is the declared payload length
	ByteCount byte

	// Address is the 16-bit load offset (big-endian in the file)
	Address uint16

	// Type is the record type
	Type RecordType

	// Data is the payload, len(Data) == ByteCount
	Data []byte

	// Checksum is the two's complement of the sum of all preceding bytes
	Checksum byte

	// Line is the 1-based source line, zero for constructed records
	Line int
}

// Bytes returns the binary form of the record, checksum included.
func (r Record) Bytes() []byte {
	b := make([]byte, 0, RecordOverhead+len(r.Data))
	b = append(b, r.ByteCount, byte(r.Address>>8), byte(r.Address), byte(r.Type))
	b = append(b, r.Data...)
	return append(b, r.Checksum)
}

// Encode returns the record as an Intel HEX line without line terminator.
//
// Example:
//
//	ihex.NewEndOfFileRecord().Encode() // ":00000001FF"
func (r Record) Encode() string {
	return ":" + strings.ToUpper(hex.EncodeToString(r.Bytes()))
}

func (r Record) String() string {
	return r.Encode()
}

// Value returns the address value carried by an address record:
// the segment for ExtendedSegmentAddress, the upper 16 bits for
// ExtendedLinearAddress, CS<<16|IP for StartSegmentAddress and EIP
// for StartLinearAddress. It returns false for other types.
func (r Record) Value() (uint32, bool) {
	switch r.Type {
	case ExtendedSegmentAddress, ExtendedLinearAddress:
		if len(r.Data) != 2 {
			return 0, false
		}
		return uint32(r.Data[0])<<8 | uint32(r.Data[1]), true
	case StartSegmentAddress, StartLinearAddress:
		if len(r.Data) != 4 {
			return 0, false
		}
		return uint32(r.Data[0])<<24 | uint32(r.Data[1])<<16 |
			uint32(r.Data[2])<<8 | uint32(r.Data[3]), true
	default:
		return 0, false
	}
}

func (r Record) clone() Record {
	c := r
	c.Data = make([]byte, len(r.Data))
	copy(c.Data, r.Data)
	return c
}

// newRecord builds a record and computes its checksum.
func newRecord(t RecordType, address uint16, data []byte) Record {
	r := Record{
		ByteCount: byte(len(data)),
		Address:   address,
		Type:      t,
		Data:      make([]byte, len(data)),
	}
	copy(r.Data, data)
	b := r.Bytes()
	r.Checksum = Checksum(b[:len(b)-1])
	return r
}

// NewDataRecord builds a Data record. data must not exceed MaxDataLength bytes.
func NewDataRecord(address uint16, data []byte) (Record, error) {
	if len(data) > MaxDataLength {
		return Record{}, fmt.Errorf("data length %d exceeds maximum %d bytes", len(data), MaxDataLength)
	}
	return newRecord(Data, address, data), nil
}

// NewEndOfFileRecord builds the End Of File record ":00000001FF".
func NewEndOfFileRecord() Record {
	return newRecord(EndOfFile, 0, nil)
}

// NewExtendedSegmentAddressRecord builds a record setting the base to segment*16.
func NewExtendedSegmentAddressRecord(segment uint16) Record {
	return newRecord(ExtendedSegmentAddress, 0, []byte{byte(segment >> 8), byte(segment)})
}

// NewExtendedLinearAddressRecord builds a record setting the upper 16 address bits.
func NewExtendedLinearAddressRecord(upper uint16) Record {
	return newRecord(ExtendedLinearAddress, 0, []byte{byte(upper >> 8), byte(upper)})
}

// NewStartSegmentAddressRecord builds a CS:IP entry point record.
func NewStartSegmentAddressRecord(cs, ip uint16) Record {
	return newRecord(StartSegmentAddress, 0, []byte{byte(cs >> 8), byte(cs), byte(ip >> 8), byte(ip)})
}

// NewStartLinearAddressRecord builds a 32-bit entry point record.
func NewStartLinearAddressRecord(eip uint32) Record {
	return newRecord(StartLinearAddress, 0, []byte{byte(eip >> 24), byte(eip >> 16), byte(eip >> 8), byte(eip)})
}
