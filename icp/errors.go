package icp

import (
	"fmt"
)

// AddressOutOfRangeError indicates that a data block lies outside the
// memory range accepted by the programmer.
type AddressOutOfRangeError struct {
	Address uint32
	Size    int
	Line    int
	Min     uint32
	Max     uint32
}

func (e *AddressOutOfRangeError) Error() string {
	return fmt.Sprintf("block at 0x%08X (%d bytes, line %d) is out of range: valid range is 0x%08X-0x%08X",
		e.Address, e.Size, e.Line, e.Min, e.Max)
}

// VerificationError indicates that memory read back after a write differs
// from the data written.
type VerificationError struct {
	Address  uint32
	Expected byte
	Actual   byte
	Reason   string
}

func (e *VerificationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("verification failed at 0x%08X: %s", e.Address, e.Reason)
	}
	return fmt.Sprintf("verification failed at 0x%08X: expected 0x%02X, got 0x%02X",
		e.Address, e.Expected, e.Actual)
}
