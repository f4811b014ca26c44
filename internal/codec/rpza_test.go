package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpzaHeader(opcodeStream []byte) []byte {
	body := make([]byte, 4)
	body[0] = 0xE1
	total := uint32(4 + len(opcodeStream))
	body[1] = byte(total >> 16)
	body[2] = byte(total >> 8)
	body[3] = byte(total)
	return append(body, opcodeStream...)
}

func TestRPZA_OneColorOpcode(t *testing.T) {
	// 0xA0 with num_blocks=1, colorA = pure red (RGB555 0x7C00).
	stream := []byte{0xA0, 0x7C, 0x00}
	data := rpzaHeader(stream)

	img, err := RPZA{}.Decode(data, 4, 4, 0)
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(248<<8|248), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestRPZA_SkipOpcodeLeavesBlockUntouched(t *testing.T) {
	stream := []byte{0x80} // SKIP, num_blocks=1
	data := rpzaHeader(stream)

	img, err := RPZA{}.Decode(data, 4, 4, 0)
	require.NoError(t, err)

	r, g, b, a := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
	assert.Equal(t, uint32(0), a)
}

func TestRPZA_FourColorOpcode(t *testing.T) {
	// colorA = red (table[3]), colorB = black (table[0]).
	colorA := []byte{0x7C, 0x00}
	colorB := []byte{0x00, 0x00}
	indexBytes := []byte{0xC0, 0x00, 0x00, 0x00} // pixel (0,0) -> index 3 (red); rest -> index 0 (black)

	stream := append([]byte{0xC0}, colorA...)
	stream = append(stream, colorB...)
	stream = append(stream, indexBytes...)
	data := rpzaHeader(stream)

	img, err := RPZA{}.Decode(data, 4, 4, 0)
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(248<<8|248), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)

	r, g, b, _ = img.At(1, 0).RGBA()
	assert.Equal(t, uint32(0), r)
	assert.Equal(t, uint32(0), g)
	assert.Equal(t, uint32(0), b)
}

func TestExpandRGB555(t *testing.T) {
	r, g, b := expandRGB555(0x7FFF)
	assert.Equal(t, uint8(0xF8), r)
	assert.Equal(t, uint8(0xF8), g)
	assert.Equal(t, uint8(0xF8), b)
}
