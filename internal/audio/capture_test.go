package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkSizeIsTwentyMilliseconds(t *testing.T) {
	require.Equal(t, 640, ChunkSize)
}

func TestCaptureWriteChunksAndStopFlushesRemainder(t *testing.T) {
	c := newCapture(Device{ID: "mic"})

	input := make([]byte, ChunkSize*2+37)
	for i := range input {
		input[i] = byte(i % 251)
	}

	n, err := c.write(input)
	require.NoError(t, err)
	require.Equal(t, len(input), n)
	require.Equal(t, int64(len(input)), c.BytesCaptured())

	first := <-c.Chunks()
	second := <-c.Chunks()
	require.Equal(t, input[:ChunkSize], first)
	require.Equal(t, input[ChunkSize:2*ChunkSize], second)

	require.NoError(t, c.Stop())
	rest, ok := <-c.Chunks()
	require.True(t, ok)
	require.Equal(t, input[2*ChunkSize:], rest)

	_, ok = <-c.Chunks()
	require.False(t, ok)
}

func TestCaptureWriteAfterStopReturnsEOF(t *testing.T) {
	c := newCapture(Device{ID: "mic"})
	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	n, err := c.write([]byte{1, 2, 3})
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)
	require.Zero(t, c.BytesCaptured())
	require.Equal(t, "mic", c.Device().ID)
}

func TestWriterFuncDelegatesWrite(t *testing.T) {
	var got []byte
	w := writerFunc(func(b []byte) (int, error) {
		got = append(got, b...)
		return len(b), nil
	})

	n, err := w.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, got)
}
