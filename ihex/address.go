package ihex

// Block is a Data record resolved to its absolute target address.
type Block struct {
	// Address is the extended base plus the record's 16-bit offset
	Address uint32

	// Data is the record payload
	Data []byte

	// Line is the source line of the Data record
	Line int
}

// End returns the address one past the last byte of the block.
// It is 64-bit so a block ending at 0xFFFFFFFF does not wrap to zero.
func (b Block) End() uint64 {
	return uint64(b.Address) + uint64(len(b.Data))
}

// addressTracker follows the extended address records of one pass.
// It lives only as long as the pass that owns it.
type addressTracker struct {
	base  uint32
	start uint32
	entry bool
}

// apply updates the tracker for r and returns the absolute address of r's
// data, which is only meaningful for Data records.
func (a *addressTracker) apply(r Record) uint32 {
	switch r.Type {
	case ExtendedSegmentAddress:
		// Data crossing the end of the 64 KiB segment continues linearly
		// past base+0xFFFF instead of wrapping to the segment start.
		v, _ := r.Value()
		a.base = v << 4
	case ExtendedLinearAddress:
		v, _ := r.Value()
		a.base = v << 16
	case StartSegmentAddress:
		v, _ := r.Value()
		// CS:IP to physical address
		a.start = (v>>16)<<4 + v&0xFFFF
		a.entry = true
	case StartLinearAddress:
		a.start, _ = r.Value()
		a.entry = true
	}
	return a.base + uint32(r.Address)
}
