package recorder //nolint:testpackage // exercises unexported column helpers.

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackColumnRoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]uint32, 1000)
	for idx := range data {
		data[idx] = 7
	}

	col := packColumn(data)
	assert.False(t, col.raw)
	assert.Less(t, col.size(), len(data)*uint32ByteSize)

	got, err := unpackColumn(col)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPackColumnKeepsIncompressibleRaw(t *testing.T) {
	t.Parallel()

	data := []uint32{0xdeadbeef}

	col := packColumn(data)
	assert.True(t, col.raw)

	got, err := unpackColumn(col)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUnpackColumnRejectsTruncated(t *testing.T) {
	t.Parallel()

	col := column{data: []byte{1, 2, 3}, n: 1, raw: true}

	_, err := unpackColumn(col)
	require.ErrorIs(t, err, ErrCorruptColumn)
}

func TestDeltaRoundTrip(t *testing.T) {
	t.Parallel()

	original := []uint32{3, 9, 9, 27, 1}
	data := append([]uint32(nil), original...)

	deltaEncode(data)
	assert.Equal(t, []uint32{3, 6, 0, 18, ^uint32(25)}, data)

	deltaDecode(data)
	assert.Equal(t, original, data)
}
