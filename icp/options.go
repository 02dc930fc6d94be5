package icp

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during programming to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ChunkSize is the maximum number of bytes per WriteMemory call
	ChunkSize int

	// Retries is the number of extra attempts for a failed WriteMemory call
	Retries int

	// VerifyAfterWrite reads each chunk back and compares it, if the
	// target implements Reader
	VerifyAfterWrite bool

	// MinAddress and MaxAddress bound the accepted addresses (inclusive).
	// Checked before anything is written.
	MinAddress uint32
	MaxAddress uint32
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ChunkSize:        256,
		Retries:          0,
		VerifyAfterWrite: true,
		MinAddress:       0,
		MaxAddress:       0xFFFFFFFF,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track programming progress.
//
// Example:
//
//	prog := icp.New(target,
//	    icp.WithProgressCallback(func(p icp.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithChunkSize sets the maximum data size per WriteMemory call.
// Sizes outside 1-65536 are ignored.
func WithChunkSize(size int) Option {
	return func(c *Config) {
		if size > 0 && size <= 65536 {
			c.ChunkSize = size
		}
	}
}

// WithRetries sets the number of retry attempts for failed writes.
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithVerifyAfterWrite enables or disables read-back verification.
// Default is true.
func WithVerifyAfterWrite(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterWrite = verify
	}
}

// WithAddressRange restricts writes to [low, high]. A sequence with any
// byte outside the range is rejected before the first write.
//
// Example:
//
//	// 256 KiB of flash at 0x08000000
//	prog := icp.New(target, icp.WithAddressRange(0x08000000, 0x0803FFFF))
func WithAddressRange(low, high uint32) Option {
	return func(c *Config) {
		if low <= high {
			c.MinAddress = low
			c.MaxAddress = high
		}
	}
}
