// Package main provides the ihex command line tool for inspecting,
// validating and converting Intel HEX firmware images.
//
// Usage:
//
//	ihex records <file>
//	ihex verify <file>...
//	ihex info <file>
//	ihex bin <file> -o <output>
//	ihex normalize <file> [-o <output>]
//	ihex apply <file> [--min ADDR --max ADDR]
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/moffa90/go-ihex/ihex"
	"github.com/moffa90/go-ihex/internal/logging"
)

// CLI defines the command-line interface using Kong
type CLI struct {
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" env:"IHEX_LOG_LEVEL" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" env:"IHEX_LOG_FORMAT" help:"Log format (text, json)"`
	Trailing  string `name:"trailing" default:"error" enum:"error,warn" env:"IHEX_TRAILING" help:"Handling of lines after the end of file record (error, warn)"`

	// Subcommands
	Records   RecordsCmd   `cmd:"" help:"List the records of an image"`
	Verify    VerifyCmd    `cmd:"" help:"Validate images without writing anything"`
	Info      InfoCmd      `cmd:"" help:"Summarize the memory described by an image"`
	Bin       BinCmd       `cmd:"" help:"Convert an image to a flat binary"`
	Normalize NormalizeCmd `cmd:"" help:"Rewrite an image with uniform record sizes"`
	Apply     ApplyCmd     `cmd:"" help:"Program an image into a simulated device and report"`
}

// App carries the state shared by all commands.
type App struct {
	Out    io.Writer
	Err    io.Writer
	Logger logging.Adapter
	Parse  []ihex.Option
}

func newApp(cli *CLI, stdout, stderr io.Writer) (*App, error) {
	level, err := logging.ParseLevel(cli.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cli.LogFormat)
	if err != nil {
		return nil, err
	}

	logger := logging.Adapter{Logger: logging.New(stderr, level, format)}

	policy := ihex.TrailingError
	if cli.Trailing == "warn" {
		policy = ihex.TrailingWarn
	}

	return &App{
		Out:    stdout,
		Err:    stderr,
		Logger: logger,
		Parse:  []ihex.Option{ihex.WithTrailingData(policy), ihex.WithLogger(logger)},
	}, nil
}

// run parses args and executes the selected command.
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("ihex"),
		kong.Description("Inspect, validate and convert Intel HEX firmware images."),
		kong.Writers(stdout, stderr),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	app, err := newApp(&cli, stdout, stderr)
	if err != nil {
		return err
	}

	return ctx.Run(app)
}

// parseUint32 accepts decimal or 0x-prefixed hex.
func parseUint32(name, s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	return uint32(v), nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ihex: %v\n", err)
		os.Exit(1)
	}
}
