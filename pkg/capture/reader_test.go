package capture

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func pcmBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func TestReaderSourceFrames(t *testing.T) {
	ctx := context.Background()

	samples := make([]int16, 8)
	for i := range samples {
		samples[i] = int16(i * 100)
	}
	src := NewReaderSource(bytes.NewReader(pcmBytes(samples)), 4)

	f0, err := src.ReadFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(0), f0.Seq)
	require.Equal(t, []int16{0, 100, 200, 300}, f0.Samples)

	f1, err := src.ReadFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), f1.Seq)
	require.Equal(t, []int16{400, 500, 600, 700}, f1.Samples)

	_, err = src.ReadFrame(ctx)
	require.Equal(t, io.EOF, err)
}

func TestReaderSourcePadsShortTail(t *testing.T) {
	ctx := context.Background()

	src := NewReaderSource(bytes.NewReader(pcmBytes([]int16{1, 2, 3, 4, 5})), 4)

	_, err := src.ReadFrame(ctx)
	require.NoError(t, err)

	tail, err := src.ReadFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, []int16{5, 0, 0, 0}, tail.Samples)

	_, err = src.ReadFrame(ctx)
	require.Equal(t, io.EOF, err)
}

func TestReaderSourceObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewReaderSource(bytes.NewReader(pcmBytes(make([]int16, 16))), 4)
	_, err := src.ReadFrame(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
