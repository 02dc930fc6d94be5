package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/moffa90/go-ihex/firmware"
	"github.com/moffa90/go-ihex/icp"
	"github.com/moffa90/go-ihex/ihex"
)

// RecordsCmd lists every record with its resolved address.
type RecordsCmd struct {
	File string `arg:"" type:"existingfile" help:"Intel HEX file"`
}

func (c *RecordsCmd) Run(app *App) error {
	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := ihex.NewReader(f)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.Out, formatRow("LINE", "TYPE", "ADDRESS", "LEN", "DATA"))

	sc := ihex.NewScanner(src, app.Parse...)
	for sc.Scan() {
		rec := sc.Record()
		addr := "-"
		if rec.Type == ihex.Data {
			addr = fmt.Sprintf("0x%08X", sc.Address())
		}
		fmt.Fprintln(app.Out, formatRow(
			fmt.Sprint(rec.Line),
			rec.Type.String(),
			addr,
			fmt.Sprint(rec.ByteCount),
			fmt.Sprintf("% X", rec.Data),
		))
	}
	if err := sc.Err(); err != nil {
		return err
	}

	for _, w := range sc.Warnings() {
		fmt.Fprintf(app.Out, "warning: %v\n", w)
	}
	return nil
}

func formatRow(line, typ, addr, n, data string) string {
	return strings.TrimRight(fmt.Sprintf("%4s  %-22s  %-10s  %3s  %s", line, typ, addr, n, data), " ")
}

// VerifyCmd parses each file and checks that its data does not overlap.
type VerifyCmd struct {
	Files []string `arg:"" help:"Intel HEX files"`
}

func (c *VerifyCmd) Run(app *App) error {
	failed := 0
	for _, path := range c.Files {
		seq, img, err := load(app, path)
		if err != nil {
			failed++
			fmt.Fprintf(app.Out, "%s: FAIL: %v\n", path, err)
			continue
		}
		fmt.Fprintf(app.Out, "%s: ok (%d records, %s)\n",
			path, seq.Len(), humanize.Bytes(uint64(img.Size())))
		for _, w := range seq.Warnings() {
			fmt.Fprintf(app.Out, "%s: warning: %v\n", path, w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed verification", failed, len(c.Files))
	}
	return nil
}

// InfoCmd summarizes an image.
type InfoCmd struct {
	File string `arg:"" type:"existingfile" help:"Intel HEX file"`
	Pad  string `name:"pad" default:"0xFF" help:"Fill byte for gaps when computing the digest"`
}

func (c *InfoCmd) Run(app *App) error {
	pad, err := parsePad(c.Pad)
	if err != nil {
		return err
	}

	seq, img, err := load(app, c.File)
	if err != nil {
		return err
	}
	app.warn(c.File, seq)

	w := app.Out
	fmt.Fprintf(w, "file:      %s\n", c.File)
	fmt.Fprintf(w, "records:   %d\n", seq.Len())
	fmt.Fprintf(w, "data:      %s (%d bytes)\n", humanize.Bytes(uint64(img.Size())), img.Size())

	segs := img.Segments()
	fmt.Fprintf(w, "segments:  %d\n", len(segs))
	for _, s := range segs {
		fmt.Fprintf(w, "  0x%08X-0x%08X  %s\n", s.Address, s.End()-1, humanize.Bytes(uint64(len(s.Data))))
	}

	if start, ok := img.StartAddress(); ok {
		fmt.Fprintf(w, "start:     0x%08X\n", start)
	}
	if low, high, ok := img.Bounds(); ok {
		fmt.Fprintf(w, "span:      %s\n", humanize.Bytes(uint64(high-low)))
	}
	fmt.Fprintf(w, "blake3:    %s\n", img.Digest(pad))
	return nil
}

// BinCmd writes the flat binary of an image.
type BinCmd struct {
	File   string `arg:"" type:"existingfile" help:"Intel HEX file"`
	Output string `name:"output" short:"o" required:"" help:"Output binary file"`
	Pad    string `name:"pad" default:"0xFF" help:"Fill byte for gaps"`
}

func (c *BinCmd) Run(app *App) error {
	pad, err := parsePad(c.Pad)
	if err != nil {
		return err
	}

	seq, img, err := load(app, c.File)
	if err != nil {
		return err
	}
	app.warn(c.File, seq)

	low, high, ok := img.Bounds()
	if !ok {
		return fmt.Errorf("%s: image holds no data", c.File)
	}

	bin := img.Binary(pad)
	if err := os.WriteFile(c.Output, bin, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Fprintf(app.Out, "wrote %s (0x%08X-0x%08X) to %s\n",
		humanize.Bytes(uint64(len(bin))), low, high-1, c.Output)
	return nil
}

// NormalizeCmd rewrites an image.
type NormalizeCmd struct {
	File       string `arg:"" type:"existingfile" help:"Intel HEX file"`
	Output     string `name:"output" short:"o" help:"Output file (default: stdout)"`
	LineLength uint8  `name:"line-length" default:"16" help:"Data bytes per record"`
}

func (c *NormalizeCmd) Run(app *App) error {
	seq, img, err := load(app, c.File)
	if err != nil {
		return err
	}
	app.warn(c.File, seq)

	if c.Output == "" {
		return img.WriteHex(app.Out, c.LineLength)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := img.WriteHex(f, c.LineLength); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ApplyCmd programs an image into an in-memory device.
type ApplyCmd struct {
	File     string `arg:"" type:"existingfile" help:"Intel HEX file"`
	Min      string `name:"min" default:"0" help:"Lowest writable address"`
	Max      string `name:"max" default:"0xFFFFFFFF" help:"Highest writable address"`
	Chunk    int    `name:"chunk" default:"256" help:"Bytes per write"`
	NoVerify bool   `name:"no-verify" help:"Skip read-back verification"`
}

func (c *ApplyCmd) Run(app *App) error {
	lo, err := parseUint32("min", c.Min)
	if err != nil {
		return err
	}
	hi, err := parseUint32("max", c.Max)
	if err != nil {
		return err
	}

	seq, err := ihex.Parse(c.File, app.Parse...)
	if err != nil {
		return err
	}
	app.warn(c.File, seq)

	device := firmware.New()
	prog := icp.New(device,
		icp.WithLogger(app.Logger),
		icp.WithAddressRange(lo, hi),
		icp.WithChunkSize(c.Chunk),
		icp.WithVerifyAfterWrite(!c.NoVerify),
		icp.WithProgressCallback(func(p icp.Progress) {
			app.Logger.Debug("progress",
				"session", p.SessionID,
				"phase", p.Phase,
				"block", p.CurrentBlock,
				"percent", fmt.Sprintf("%.1f", p.Percentage),
			)
		}),
	)

	report, err := prog.Apply(context.Background(), seq)
	if err != nil {
		return err
	}

	w := app.Out
	fmt.Fprintf(w, "session:   %s\n", report.SessionID)
	fmt.Fprintf(w, "blocks:    %d\n", report.Blocks)
	fmt.Fprintf(w, "written:   %s\n", humanize.Bytes(uint64(report.BytesWritten)))
	if report.HasStart {
		fmt.Fprintf(w, "start:     0x%08X\n", report.StartAddress)
	}
	fmt.Fprintf(w, "blake3:    %s\n", device.Digest(0xFF))
	return nil
}

// parsePad accepts a fill byte in decimal or 0x-prefixed hex.
func parsePad(s string) (byte, error) {
	pad, err := parseUint32("pad", s)
	if err != nil {
		return 0, err
	}
	if pad > 0xFF {
		return 0, fmt.Errorf("invalid pad %q: must be at most 0xFF", s)
	}
	return byte(pad), nil
}

// warn reports accepted parse problems on stderr, keeping stdout clean
// for commands that write image data there.
func (app *App) warn(path string, seq *ihex.Sequence) {
	for _, w := range seq.Warnings() {
		fmt.Fprintf(app.Err, "%s: warning: %v\n", path, w)
	}
}

// load parses path and builds its memory image.
func load(app *App, path string) (*ihex.Sequence, *firmware.Image, error) {
	seq, err := ihex.Parse(path, app.Parse...)
	if err != nil {
		return nil, nil, err
	}
	img, err := firmware.FromSequence(seq)
	if err != nil {
		return nil, nil, err
	}
	return seq, img, nil
}
