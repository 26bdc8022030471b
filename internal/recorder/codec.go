package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// ErrCorruptColumn is returned when a column cannot be decoded.
var ErrCorruptColumn = errors.New("recorder: corrupt column")

// column is one packed uint32 slice. Blocks that LZ4 cannot shrink are kept raw.
type column struct {
	data []byte
	n    int
	raw  bool
}

func (c column) size() int {
	return len(c.data)
}

// packColumn serializes values little-endian and compresses them with LZ4.
func packColumn(values []uint32) column {
	buf := make([]byte, len(values)*uint32ByteSize)
	for idx, v := range values {
		binary.LittleEndian.PutUint32(buf[idx*uint32ByteSize:], v)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(buf)))

	written, err := lz4.CompressBlock(buf, compressed, nil)
	if err != nil || written == 0 || written >= len(buf) {
		return column{data: buf, n: len(values), raw: true}
	}

	return column{data: compressed[:written], n: len(values)}
}

// unpackColumn restores the values of a packed column.
func unpackColumn(c column) ([]uint32, error) {
	buf := c.data

	if !c.raw {
		buf = make([]byte, c.n*uint32ByteSize)

		read, err := lz4.UncompressBlock(c.data, buf)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptColumn, err)
		}

		buf = buf[:read]
	}

	if len(buf) != c.n*uint32ByteSize {
		return nil, fmt.Errorf("%w: %d bytes for %d values", ErrCorruptColumn, len(buf), c.n)
	}

	values := make([]uint32, c.n)
	for idx := range values {
		values[idx] = binary.LittleEndian.Uint32(buf[idx*uint32ByteSize:])
	}

	return values, nil
}

// deltaEncode replaces each element with the difference from its predecessor,
// in place. Sorted sequences become small repetitive values. Wrap-around keeps
// the transform lossless for unsorted input too.
func deltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// deltaDecode is the prefix sum undoing deltaEncode.
func deltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
