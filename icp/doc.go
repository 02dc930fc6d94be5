// Package icp applies parsed Intel HEX images to device memory for
// in-circuit programming.
//
// # Overview
//
// A Programmer walks an ihex.Sequence in record order:
//   - Resolving each Data record to its absolute address
//   - Rejecting images that fall outside the device's address range
//   - Writing data in chunks, with optional read-back verification
//   - Passing the start address to the target
//
// # Basic Usage
//
//	seq, err := ihex.Parse("firmware.hex")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	prog := icp.New(device)
//	report, err := prog.Apply(context.Background(), seq)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("wrote %d bytes\n", report.BytesWritten)
//
// # Hardware Independence
//
// This package does NOT implement hardware communication. Users provide a
// Target for their device; it may also implement Reader for verification
// and EntryPointSetter for the start address. firmware.Image implements
// all three and serves as an in-memory device.
//
// # Error Handling
//
// The package provides structured error types:
//   - AddressOutOfRangeError: a block lies outside WithAddressRange
//   - VerificationError: read-back data differs from the written data
//
// Target errors are wrapped with the block's line and address.
package icp
