package icp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-ihex/firmware"
	"github.com/moffa90/go-ihex/ihex"
)

const linearHex = ":020000040800F2\n" +
	":0400000001020304F2\n" +
	":04001000AABBCCDDDE\n" +
	":0400000512345678E3\n" +
	":00000001FF\n"

// write is one WriteMemory call seen by MockTarget.
type write struct {
	address uint32
	data    []byte
}

// MockTarget records writes and can inject failures.
type MockTarget struct {
	writes    []write
	failFirst int
	writeErr  error
}

func (m *MockTarget) WriteMemory(ctx context.Context, address uint32, data []byte) error {
	if m.failFirst > 0 {
		m.failFirst--
		return m.writeErr
	}
	if m.writeErr != nil && m.failFirst < 0 {
		return m.writeErr
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.writes = append(m.writes, write{address: address, data: buf})
	return nil
}

// corruptingTarget reads back every byte inverted.
type corruptingTarget struct {
	MockTarget
}

func (c *corruptingTarget) ReadMemory(ctx context.Context, address uint32, size int) ([]byte, error) {
	for _, w := range c.writes {
		if w.address == address && len(w.data) == size {
			out := make([]byte, size)
			for i, b := range w.data {
				out[i] = ^b
			}
			return out, nil
		}
	}
	return nil, errors.New("not written")
}

// MockLogger records messages for testing.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

func mustParse(t *testing.T, s string) *ihex.Sequence {
	t.Helper()
	seq, err := ihex.ParseString(s)
	require.NoError(t, err)
	return seq
}

func TestNew(t *testing.T) {
	target := &MockTarget{}

	prog := New(target,
		WithProgressCallback(func(p Progress) {}),
		WithLogger(&MockLogger{}),
		WithChunkSize(64),
		WithRetries(2),
		WithVerifyAfterWrite(false),
		WithAddressRange(0x1000, 0x2000),
	)
	require.NotNil(t, prog)
	assert.Equal(t, 64, prog.config.ChunkSize)
	assert.Equal(t, 2, prog.config.Retries)
	assert.False(t, prog.config.VerifyAfterWrite)
	assert.Equal(t, uint32(0x1000), prog.config.MinAddress)
	assert.Equal(t, uint32(0x2000), prog.config.MaxAddress)

	assert.Panics(t, func() { New(nil) })
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	prog := New(&MockTarget{},
		WithChunkSize(0),
		WithRetries(-1),
		WithAddressRange(0x2000, 0x1000),
	)
	def := defaultConfig()
	assert.Equal(t, def.ChunkSize, prog.config.ChunkSize)
	assert.Equal(t, def.Retries, prog.config.Retries)
	assert.Equal(t, def.MinAddress, prog.config.MinAddress)
	assert.Equal(t, def.MaxAddress, prog.config.MaxAddress)
}

func TestApply(t *testing.T) {
	target := &MockTarget{}
	logger := &MockLogger{}
	var phases []string

	prog := New(target,
		WithLogger(logger),
		WithProgressCallback(func(p Progress) {
			phases = append(phases, p.Phase)
		}),
	)

	report, err := prog.Apply(context.Background(), mustParse(t, linearHex))
	require.NoError(t, err)

	assert.Equal(t, []write{
		{address: 0x08000000, data: []byte{0x01, 0x02, 0x03, 0x04}},
		{address: 0x08000010, data: []byte{0xAA, 0xBB, 0xCC, 0xDD}},
	}, target.writes)

	assert.Equal(t, 2, report.Blocks)
	assert.Equal(t, 8, report.BytesWritten)
	assert.True(t, report.HasStart)
	assert.Equal(t, uint32(0x12345678), report.StartAddress)
	assert.Len(t, report.SessionID, 36)

	// MockTarget has no SetEntryPoint, so no starting phase
	assert.Equal(t, []string{PhasePreparing, PhaseWriting, PhaseWriting, PhaseComplete}, phases)
	assert.Contains(t, logger.infoMsgs, "programming complete")
}

func TestApplyToImage(t *testing.T) {
	seq := mustParse(t, linearHex)
	img := firmware.New()

	var last Progress
	prog := New(img, WithChunkSize(3), WithProgressCallback(func(p Progress) { last = p }))
	_, err := prog.Apply(context.Background(), seq)
	require.NoError(t, err)

	want, err := firmware.FromSequence(seq)
	require.NoError(t, err)
	assert.Equal(t, want.Binary(0xFF), img.Binary(0xFF))

	start, ok := img.StartAddress()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x12345678), start)

	assert.Equal(t, PhaseComplete, last.Phase)
	assert.Equal(t, 100.0, last.Percentage)
	assert.Equal(t, 8, last.BytesWritten)
}

func TestApplyChunking(t *testing.T) {
	target := &MockTarget{}
	prog := New(target, WithChunkSize(3))

	_, err := prog.Apply(context.Background(), mustParse(t, ":0400000001020304F2\n:00000001FF\n"))
	require.NoError(t, err)

	assert.Equal(t, []write{
		{address: 0, data: []byte{0x01, 0x02, 0x03}},
		{address: 3, data: []byte{0x04}},
	}, target.writes)
}

func TestApplyAddressOutOfRange(t *testing.T) {
	target := &MockTarget{}
	prog := New(target, WithAddressRange(0x08000000, 0x0800000F))

	_, err := prog.Apply(context.Background(), mustParse(t, linearHex))
	require.Error(t, err)

	var re *AddressOutOfRangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, uint32(0x08000010), re.Address)
	assert.Equal(t, 3, re.Line)
	assert.Empty(t, target.writes, "nothing written when the range check fails")
}

func TestApplyVerificationFailure(t *testing.T) {
	target := &corruptingTarget{}
	prog := New(target)

	_, err := prog.Apply(context.Background(), mustParse(t, linearHex))
	require.Error(t, err)

	var ve *VerificationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, uint32(0x08000000), ve.Address)
	assert.Equal(t, byte(0x01), ve.Expected)
	assert.Equal(t, byte(0xFE), ve.Actual)

	// Verification disabled
	target = &corruptingTarget{}
	prog = New(target, WithVerifyAfterWrite(false))
	_, err = prog.Apply(context.Background(), mustParse(t, linearHex))
	assert.NoError(t, err)
}

func TestApplyRetries(t *testing.T) {
	writeErr := errors.New("bus busy")

	t.Run("recovers", func(t *testing.T) {
		target := &MockTarget{failFirst: 2, writeErr: writeErr}
		logger := &MockLogger{}
		prog := New(target, WithRetries(2), WithLogger(logger))

		_, err := prog.Apply(context.Background(), mustParse(t, linearHex))
		require.NoError(t, err)
		assert.Len(t, target.writes, 2)
		assert.Len(t, logger.errorMsgs, 2)
	})

	t.Run("gives up", func(t *testing.T) {
		target := &MockTarget{failFirst: -1, writeErr: writeErr}
		prog := New(target, WithRetries(1))

		_, err := prog.Apply(context.Background(), mustParse(t, linearHex))
		require.Error(t, err)
		assert.ErrorIs(t, err, writeErr)
		assert.Contains(t, err.Error(), "line 2")
	})
}

func TestApplyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := &MockTarget{}
	_, err := New(target).Apply(ctx, mustParse(t, linearHex))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, target.writes)
}

func TestApplyNilSequence(t *testing.T) {
	_, err := New(&MockTarget{}).Apply(context.Background(), nil)
	assert.Error(t, err)
}

func TestErrorMessages(t *testing.T) {
	re := &AddressOutOfRangeError{Address: 0x100, Size: 4, Line: 7, Min: 0, Max: 0xFF}
	assert.Contains(t, re.Error(), "out of range")
	assert.Contains(t, re.Error(), "line 7")
	assert.Contains(t, re.Error(), "0x00000000-0x000000FF")

	ve := &VerificationError{Address: 0x10, Expected: 0xAB, Actual: 0xCD}
	assert.Contains(t, ve.Error(), "expected 0xAB, got 0xCD")

	ve = &VerificationError{Address: 0x10, Reason: "short read"}
	assert.Contains(t, ve.Error(), "short read")
}
