package ihex

// TrailingPolicy selects how non-blank lines after the End Of File record are handled.
type TrailingPolicy int

const (
	// TrailingError rejects the input with a KindTrailingData error
	TrailingError TrailingPolicy = iota

	// TrailingWarn accepts the input, records a warning on the Sequence and logs it
	TrailingWarn
)

func (p TrailingPolicy) String() string {
	switch p {
	case TrailingError:
		return "error"
	case TrailingWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// Logger is an optional logging interface that can be provided to the parser.
// This allows integration with any logging framework.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// Config holds the parser configuration.
type Config struct {
	// Trailing selects the trailing data policy. Default is TrailingError.
	Trailing TrailingPolicy

	// Logger is used for diagnostics (optional)
	Logger Logger

	// MaxLineBytes bounds the length of a single input line, trailing
	// whitespace included
	MaxLineBytes int
}

func defaultConfig() Config {
	return Config{
		Trailing:     TrailingError,
		MaxLineBytes: 64 * 1024,
	}
}

// Option is a functional option for configuring the parser.
type Option func(*Config)

// WithTrailingData sets the trailing data policy.
//
// Example:
//
//	seq, err := ihex.ParseReader(r, ihex.WithTrailingData(ihex.TrailingWarn))
func WithTrailingData(policy TrailingPolicy) Option {
	return func(c *Config) {
		c.Trailing = policy
	}
}

// WithLogger sets a logger for parser diagnostics.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMaxLineBytes sets the maximum accepted line length.
// Values shorter than MaxLineLength are ignored.
func WithMaxLineBytes(n int) Option {
	return func(c *Config) {
		if n >= MaxLineLength {
			c.MaxLineBytes = n
		}
	}
}
