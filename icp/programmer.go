package icp

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/moffa90/go-ihex/ihex"
)

// Target is device memory that data blocks are written to.
type Target interface {
	WriteMemory(ctx context.Context, address uint32, data []byte) error
}

// Reader is implemented by targets that can read memory back for verification.
type Reader interface {
	ReadMemory(ctx context.Context, address uint32, size int) ([]byte, error)
}

// EntryPointSetter is implemented by targets that accept the start address
// carried by Start Segment/Linear Address records.
type EntryPointSetter interface {
	SetEntryPoint(ctx context.Context, address uint32) error
}

// Report summarizes a successful Apply.
type Report struct {
	SessionID    string
	Blocks       int
	BytesWritten int
	StartAddress uint32
	HasStart     bool
	Elapsed      time.Duration
}

// Programmer applies a parsed Intel HEX sequence to a Target, in record order.
//
// Programmer is safe for concurrent use after initialization as long as the
// Target is.
type Programmer struct {
	target Target
	config Config
}

// New creates a new Programmer with the given target and options.
//
// Example:
//
//	img := firmware.New()
//	prog := icp.New(img,
//	    icp.WithProgressCallback(progressFunc),
//	    icp.WithChunkSize(64),
//	)
func New(target Target, opts ...Option) *Programmer {
	if target == nil {
		panic("target cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		target: target,
		config: cfg,
	}
}

// Apply performs the complete programming sequence:
//  1. Resolve every Data record to its absolute address
//  2. Validate all blocks are inside the configured address range
//  3. Write all blocks in order, chunked, with optional read-back verification
//  4. Set the entry point, if the sequence has one and the target accepts it
//
// Nothing is written if step 2 fails. The operation can be cancelled via
// context; cancellation is checked before each chunk.
func (p *Programmer) Apply(ctx context.Context, seq *ihex.Sequence) (*Report, error) {
	if seq == nil {
		return nil, fmt.Errorf("sequence cannot be nil")
	}

	startTime := time.Now()
	session := uuid.New().String()

	// Phase 1: Resolve addresses
	blocks := seq.Blocks()
	p.reportProgress(Progress{
		SessionID:   session,
		Phase:       PhasePreparing,
		TotalBlocks: len(blocks),
	})

	// Phase 2: Validate address range
	for _, b := range blocks {
		if len(b.Data) == 0 {
			continue
		}
		last := uint64(b.Address) + uint64(len(b.Data)) - 1
		if b.Address < p.config.MinAddress || last > uint64(p.config.MaxAddress) {
			return nil, &AddressOutOfRangeError{
				Address: b.Address,
				Size:    len(b.Data),
				Line:    b.Line,
				Min:     p.config.MinAddress,
				Max:     p.config.MaxAddress,
			}
		}
	}

	p.logDebug("applying sequence",
		"session", session,
		"records", seq.Len(),
		"blocks", len(blocks),
		"bytes", seq.DataSize(),
	)

	// Phase 3: Write blocks
	bytesWritten := 0
	for i, b := range blocks {
		if err := p.writeBlock(ctx, b); err != nil {
			return nil, fmt.Errorf("write block %d (line %d, address 0x%08X): %w",
				i, b.Line, b.Address, err)
		}

		bytesWritten += len(b.Data)

		// Report progress (0% to 95%)
		p.reportProgress(Progress{
			SessionID:    session,
			Phase:        PhaseWriting,
			CurrentBlock: i + 1,
			TotalBlocks:  len(blocks),
			Percentage:   float64(i+1) / float64(len(blocks)) * 95,
			BytesWritten: bytesWritten,
			ElapsedTime:  time.Since(startTime),
		})
	}

	report := &Report{
		SessionID:    session,
		Blocks:       len(blocks),
		BytesWritten: bytesWritten,
	}

	// Phase 4: Entry point
	if start, ok := seq.StartAddress(); ok {
		report.StartAddress, report.HasStart = start, true

		if setter, ok := p.target.(EntryPointSetter); ok {
			p.reportProgress(Progress{
				SessionID:    session,
				Phase:        PhaseStarting,
				CurrentBlock: len(blocks),
				TotalBlocks:  len(blocks),
				Percentage:   97,
				BytesWritten: bytesWritten,
				ElapsedTime:  time.Since(startTime),
			})

			if err := setter.SetEntryPoint(ctx, start); err != nil {
				return nil, fmt.Errorf("set entry point 0x%08X: %w", start, err)
			}
		} else {
			p.logDebug("target has no entry point support", "start", fmt.Sprintf("0x%08X", start))
		}
	}

	report.Elapsed = time.Since(startTime)

	// Complete
	p.reportProgress(Progress{
		SessionID:    session,
		Phase:        PhaseComplete,
		CurrentBlock: len(blocks),
		TotalBlocks:  len(blocks),
		Percentage:   100,
		BytesWritten: bytesWritten,
		ElapsedTime:  report.Elapsed,
	})

	p.logInfo("programming complete",
		"session", session,
		"blocks", len(blocks),
		"bytes", bytesWritten,
		"elapsed", report.Elapsed.String(),
	)

	return report, nil
}

// writeBlock writes a single block, splitting it into chunks if necessary.
func (p *Programmer) writeBlock(ctx context.Context, b ihex.Block) error {
	data := b.Data
	address := b.Address

	for len(data) > 0 {
		n := p.config.ChunkSize
		if n > len(data) {
			n = len(data)
		}
		chunk := data[:n]

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if err := p.writeChunk(ctx, address, chunk); err != nil {
			return err
		}

		if p.config.VerifyAfterWrite {
			if err := p.verifyChunk(ctx, address, chunk); err != nil {
				return err
			}
		}

		data = data[n:]
		address += uint32(n)
	}

	return nil
}

// writeChunk writes one chunk, retrying up to Config.Retries times.
func (p *Programmer) writeChunk(ctx context.Context, address uint32, chunk []byte) error {
	var err error
	for attempt := 0; attempt <= p.config.Retries; attempt++ {
		if err = p.target.WriteMemory(ctx, address, chunk); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		p.logError("write failed",
			"address", fmt.Sprintf("0x%08X", address),
			"attempt", attempt+1,
			"error", err.Error(),
		)
	}
	return fmt.Errorf("write memory: %w", err)
}

// verifyChunk reads a chunk back and compares it with what was written.
func (p *Programmer) verifyChunk(ctx context.Context, address uint32, chunk []byte) error {
	reader, ok := p.target.(Reader)
	if !ok {
		return nil
	}

	got, err := reader.ReadMemory(ctx, address, len(chunk))
	if err != nil {
		return fmt.Errorf("read memory: %w", err)
	}

	if len(got) != len(chunk) {
		return &VerificationError{
			Address: address,
			Reason:  fmt.Sprintf("read %d bytes, expected %d", len(got), len(chunk)),
		}
	}

	if bytes.Equal(got, chunk) {
		return nil
	}
	for i := range chunk {
		if got[i] != chunk[i] {
			return &VerificationError{
				Address:  address + uint32(i),
				Expected: chunk[i],
				Actual:   got[i],
			}
		}
	}
	return nil
}

// reportProgress calls the progress callback if configured.
func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (p *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
