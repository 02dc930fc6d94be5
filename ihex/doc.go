// Package ihex provides parsing and encoding of Intel HEX firmware images
// for in-circuit programming.
//
// # Intel HEX Format
//
// An Intel HEX file is line oriented. Every record line starts with ':'
// followed by hex-encoded bytes:
//
//	:[ByteCount(1)][Address(2)][Type(1)][Data(ByteCount)][Checksum(1)]
//
// Example data record:
//
//	:10010000214601360121470136007EFE09D2190140
//	  10 = Byte Count (16)
//	  0100 = Address (big-endian)
//	  00 = Record Type (Data)
//	  214601...0190 = Data (16 bytes)
//	  40 = Checksum (2's complement of the sum of all preceding bytes)
//
// Record types:
//
//	00 Data
//	01 End Of File (always ":00000001FF")
//	02 Extended Segment Address (base = value * 16)
//	03 Start Segment Address (CS:IP)
//	04 Extended Linear Address (base = value << 16)
//	05 Start Linear Address (EIP)
//
// # Usage
//
// Parse a file from disk:
//
//	seq, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, b := range seq.Blocks() {
//	    fmt.Printf("0x%08X: %d bytes\n", b.Address, len(b.Data))
//	}
//
// Parse incrementally from a stream:
//
//	sc := ihex.NewScanner(conn)
//	for sc.Scan() {
//	    apply(sc.Address(), sc.Record())
//	}
//	if err := sc.Err(); err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Parsing stops at the first problem and returns a *ParseError carrying
// the line number and raw line text. No partial result is returned.
// Test for a category with errors.Is:
//
//	if errors.Is(err, ihex.ErrChecksumMismatch) {
//	    // corrupted image, abort the update
//	}
//
// An input that ends without an End Of File record is rejected with
// ErrUnexpectedEndOfStream. Lines after the End Of File record are
// rejected with ErrTrailingData unless WithTrailingData(TrailingWarn)
// is given, in which case they are reported by Sequence.Warnings.
package ihex
