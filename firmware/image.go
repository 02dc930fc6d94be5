package firmware

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/marcinbor85/gohex"
	"github.com/zeebo/blake3"

	"github.com/moffa90/go-ihex/ihex"
)

// DefaultLineLength is the number of data bytes per record when writing Intel HEX.
const DefaultLineLength = 16

// Segment is a contiguous run of bytes in the image.
type Segment struct {
	// Address is the absolute address of the first byte
	Address uint32

	// Data holds the segment bytes
	Data []byte
}

// End returns the address one past the last byte of the segment.
func (s Segment) End() uint32 {
	return s.Address + uint32(len(s.Data))
}

// Image is the device memory described by a record sequence: every Data
// record placed at its absolute address, plus the entry point if any.
//
// An Image is also an in-memory programming target for icp.Programmer.
// It is not safe for concurrent use.
type Image struct {
	mem *gohex.Memory
}

// New returns an empty image.
func New() *Image {
	return &Image{mem: gohex.NewMemory()}
}

// FromSequence builds the image described by seq.
// Data records that overlap earlier ones are rejected with *OverlapError.
//
// Example:
//
//	seq, _ := ihex.Parse("firmware.hex")
//	img, err := firmware.FromSequence(seq)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes in %d segments\n", img.Size(), len(img.Segments()))
func FromSequence(seq *ihex.Sequence) (*Image, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequence cannot be nil")
	}

	img := New()
	for _, b := range seq.Blocks() {
		if err := img.add(b.Address, b.Data); err != nil {
			return nil, fmt.Errorf("line %d: %w", b.Line, err)
		}
	}

	if start, ok := seq.StartAddress(); ok {
		img.mem.SetStartAddress(start)
	}

	return img, nil
}

// add places data at address, refusing to overwrite existing bytes.
func (img *Image) add(address uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	end := uint64(address) + uint64(len(data))
	for _, s := range img.Segments() {
		segEnd := uint64(s.Address) + uint64(len(s.Data))
		if uint64(address) < segEnd && uint64(s.Address) < end {
			return &OverlapError{
				Address:  address,
				Size:     len(data),
				Existing: s.Address,
			}
		}
	}
	if err := img.mem.AddBinary(address, data); err != nil {
		return fmt.Errorf("add 0x%08X: %w", address, err)
	}
	return nil
}

// Segments returns the contiguous regions of the image sorted by address.
func (img *Image) Segments() []Segment {
	raw := img.mem.GetDataSegments()
	segs := make([]Segment, 0, len(raw))
	for _, s := range raw {
		data := make([]byte, len(s.Data))
		copy(data, s.Data)
		segs = append(segs, Segment{Address: s.Address, Data: data})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].Address < segs[j].Address })
	return segs
}

// Size returns the number of bytes held by the image.
func (img *Image) Size() int {
	n := 0
	for _, s := range img.mem.GetDataSegments() {
		n += len(s.Data)
	}
	return n
}

// Bounds returns the lowest address and the address one past the highest
// byte. ok is false for an empty image.
func (img *Image) Bounds() (low, high uint32, ok bool) {
	segs := img.Segments()
	if len(segs) == 0 {
		return 0, 0, false
	}
	low, high = segs[0].Address, segs[0].End()
	for _, s := range segs[1:] {
		if s.End() > high {
			high = s.End()
		}
	}
	return low, high, true
}

// StartAddress returns the entry point, if the image has one.
func (img *Image) StartAddress() (uint32, bool) {
	return img.mem.GetStartAddress()
}

// Bytes returns size bytes starting at address; gaps are filled with pad.
func (img *Image) Bytes(address uint32, size uint32, pad byte) []byte {
	return img.mem.ToBinary(address, size, pad)
}

// Binary returns the flat image from the lowest to the highest address,
// gaps filled with pad. An empty image yields nil.
func (img *Image) Binary(pad byte) []byte {
	low, high, ok := img.Bounds()
	if !ok {
		return nil
	}
	return img.Bytes(low, high-low, pad)
}

// WriteHex writes the image as Intel HEX with lineLength data bytes per record.
func (img *Image) WriteHex(w io.Writer, lineLength byte) error {
	if lineLength == 0 {
		lineLength = DefaultLineLength
	}
	if err := img.mem.DumpIntelHex(w, lineLength); err != nil {
		return fmt.Errorf("failed to write intel hex: %w", err)
	}
	return nil
}

// Digest returns the hex-encoded BLAKE3-256 hash of the flat image padded
// with pad, prefixed by its base address so that relocated images differ.
func (img *Image) Digest(pad byte) string {
	h := blake3.New()
	if low, _, ok := img.Bounds(); ok {
		_, _ = h.Write([]byte{byte(low >> 24), byte(low >> 16), byte(low >> 8), byte(low)})
	}
	_, _ = h.Write(img.Binary(pad))
	return hex.EncodeToString(h.Sum(nil))
}

// WriteMemory stores data at address, replacing existing bytes.
// It lets an Image stand in for a device during programming.
func (img *Image) WriteMemory(ctx context.Context, address uint32, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img.mem.SetBinary(address, data)
	return nil
}

// ReadMemory returns size bytes at address; unwritten bytes read as 0xFF,
// the erased state of flash.
func (img *Image) ReadMemory(ctx context.Context, address uint32, size int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img.mem.ToBinary(address, uint32(size), 0xFF), nil
}

// SetEntryPoint records the start address.
func (img *Image) SetEntryPoint(ctx context.Context, address uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	img.mem.SetStartAddress(address)
	return nil
}
