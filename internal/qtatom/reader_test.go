package qtatom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFixed(t *testing.T) {
	assert.InDelta(t, 1.0, DecodeFixed(1<<16), 1e-9)
	assert.InDelta(t, 0.5, DecodeFixed(1<<15), 1e-9)
	assert.InDelta(t, -1.0, DecodeFixed(-(1 << 16)), 1e-9)
	assert.InDelta(t, 0.0, DecodeFixed(0), 1e-9)
}

func TestReaderPrimitives(t *testing.T) {
	buf := []byte{0x01, 0xFF, 0x00, 0x02, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00}
	r := NewReader(buf)

	u8, err := r.U8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x01), u8)

	i8, err := r.I8()
	require.NoError(t, err)
	assert.Equal(t, int8(-1), i8)

	u16, err := r.U16BE()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0002), u16)

	u24, err := r.U24BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x000001), u24)

	fixed, err := r.Fixed16_16()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, fixed, 1e-9)
}

func TestReaderOutOfBoundsIsUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, err := r.U32BE()
	require.Error(t, err)
}

func TestReaderSeek(t *testing.T) {
	r := NewReader(make([]byte, 16))
	require.NoError(t, r.Seek(8))
	assert.Equal(t, int64(8), r.Tell())
	assert.Error(t, r.Seek(17))
	assert.Error(t, r.Seek(-1))
}
