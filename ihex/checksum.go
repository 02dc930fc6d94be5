package ihex

// Constants for Intel HEX record layout.
const (
	// StartCode begins every record line
	StartCode = ':'

	// RecordHeaderSize is the size of byteCount + address + type
	RecordHeaderSize = 4

	// RecordChecksumSize is the size of the trailing checksum field
	RecordChecksumSize = 1

	// RecordOverhead is the number of non-payload bytes in a record
	RecordOverhead = RecordHeaderSize + RecordChecksumSize

	// MinimumLineLength is the shortest valid line: ':' plus 5 bytes in hex
	MinimumLineLength = 1 + 2*RecordOverhead

	// MaxDataLength is the largest payload a record can declare
	MaxDataLength = 255

	// MaxLineLength is the longest valid line
	MaxLineLength = 1 + 2*(RecordOverhead+MaxDataLength)

	// DefaultRecordCapacity is the initial capacity of a parsed sequence
	DefaultRecordCapacity = 256
)

// Checksum computes the Intel HEX checksum of b: the two's complement
// of the 8-bit sum of all bytes.
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	// 2's complement
	return ^sum + 1
}
