package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// Frame kinds. Every frame starts with one kind byte.
const (
	frameRaw byte = 0
	frameLZ4 byte = 1
)

// ErrCorruptFrame is returned when a frame cannot be decoded.
var ErrCorruptFrame = errors.New("corrupt compression frame")

// NoCompressor stores values in a raw frame.
type NoCompressor struct{}

func (c *NoCompressor) Name() string {
	return None
}

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	return rawFrame(data), nil
}

func (c *NoCompressor) Decompress(frame []byte) ([]byte, error) {
	return decodeFrame(frame)
}

// LZ4Compressor stores values as LZ4 blocks prefixed with their
// uncompressed length. Incompressible values fall back to a raw frame.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string {
	return LZ4
}

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return rawFrame(data), nil
	}

	header := make([]byte, 1+binary.MaxVarintLen64)
	header[0] = frameLZ4
	n := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	out := make([]byte, n+lz4.CompressBlockBound(len(data)))
	copy(out, header[:n])

	size, err := lz4.CompressBlock(data, out[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	// A zero size means the block did not shrink
	if size == 0 || n+size >= 1+len(data) {
		return rawFrame(data), nil
	}
	return out[:n+size], nil
}

func (c *LZ4Compressor) Decompress(frame []byte) ([]byte, error) {
	return decodeFrame(frame)
}

func rawFrame(data []byte) []byte {
	out := make([]byte, 1+len(data))
	out[0] = frameRaw
	copy(out[1:], data)
	return out
}

// decodeFrame accepts frames written by any registered compressor so the
// configured codec can change without rewriting stored values.
func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, ErrCorruptFrame
	}

	switch frame[0] {
	case frameRaw:
		return append([]byte(nil), frame[1:]...), nil
	case frameLZ4:
		size, n := binary.Uvarint(frame[1:])
		if n <= 0 || size > 1<<30 {
			return nil, ErrCorruptFrame
		}
		out := make([]byte, size)
		written, err := lz4.UncompressBlock(frame[1+n:], out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFrame, err)
		}
		if uint64(written) != size {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptFrame, size, written)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrCorruptFrame, frame[0])
	}
}
