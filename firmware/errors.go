package firmware

import "fmt"

// OverlapError indicates that a data block would overwrite bytes already in the image.
type OverlapError struct {
	Address  uint32
	Size     int
	Existing uint32
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlapping data: %d bytes at 0x%08X collide with segment at 0x%08X",
		e.Size, e.Address, e.Existing)
}
