package icp

import (
	"time"

	"github.com/moffa90/go-ihex/ihex"
)

// Phases reported through Progress.Phase.
const (
	PhasePreparing = "preparing"
	PhaseWriting   = "writing"
	PhaseStarting  = "starting"
	PhaseComplete  = "complete"
)

// Progress contains information about the programming progress.
// Passed to ProgressCallback during Apply.
type Progress struct {
	// SessionID identifies the Apply call
	SessionID string

	// Phase describes the current operation phase:
	//   "preparing" - Resolving addresses and checking ranges
	//   "writing"   - Writing data blocks
	//   "starting"  - Setting the entry point
	//   "complete"  - Operation completed successfully
	Phase string

	// CurrentBlock is the number of blocks written so far
	CurrentBlock int

	// TotalBlocks is the total number of data blocks to write
	TotalBlocks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the total number of bytes written so far
	BytesWritten int

	// ElapsedTime is the time elapsed since Apply started
	ElapsedTime time.Duration
}

// ProgressCallback is called periodically during programming to report progress.
// Implementations should return quickly to avoid blocking the programming operation.
type ProgressCallback func(Progress)

// Logger is the logging interface shared with package ihex.
type Logger = ihex.Logger
