package codec

import (
	"image"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// RPZA decodes Apple Video ("Road Pizza") samples: a 4x4-block run-length
// stream over RGB555, framed by a fixed 4-byte header (spec §4.H).
type RPZA struct{}

// rpzaCursor walks the block grid in raster order, 4x4 at a time (spec
// §4.H: "Block cursor starts at (0,0). After each processed block the
// cursor advances +4 in x; when x would equal the width, wrap x to 0 and
// +4 in y.").
type rpzaCursor struct {
	x, y, width, height int
	blocksDone, total   int
}

func newRPZACursor(width, height int) *rpzaCursor {
	return &rpzaCursor{width: width, height: height, total: (width / 4) * (height / 4)}
}

func (c *rpzaCursor) pos() (int, int) { return c.x, c.y }

func (c *rpzaCursor) advance() {
	if c.blocksDone >= c.total {
		return
	}
	c.x += 4
	if c.x >= c.width {
		c.x = 0
		c.y += 4
	}
	c.blocksDone++
}

type byteCursor struct {
	data []byte
	pos  int
}

func (b *byteCursor) readByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, qerr.New(qerr.KindUnexpectedEOF, "rpza", int64(b.pos), "ran out of bytes")
	}
	v := b.data[b.pos]
	b.pos++
	return v, nil
}

func (b *byteCursor) peekByte() (byte, error) {
	if b.pos >= len(b.data) {
		return 0, qerr.New(qerr.KindUnexpectedEOF, "rpza", int64(b.pos), "ran out of bytes while peeking")
	}
	return b.data[b.pos], nil
}

func (b *byteCursor) readU16BE() (uint16, error) {
	hi, err := b.readByte()
	if err != nil {
		return 0, err
	}
	lo, err := b.readByte()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// expandRGB555 expands a 15-bit RGB555 value to 24-bit RGB (spec §4.H:
// "mask with 0x7FFF; R = ((c >> 10) & 0x1F) << 3 ...").
func expandRGB555(c uint16) (r, g, b uint8) {
	c &= 0x7FFF
	r = uint8((c>>10)&0x1F) << 3
	g = uint8((c>>5)&0x1F) << 3
	b = uint8(c&0x1F) << 3
	return
}

func interpolate5bit(a, b uint32) uint32 { return (11*a + 21*b) >> 5 }
func interpolate5bitMirror(a, b uint32) uint32 { return (21*a + 11*b) >> 5 }

// fourColorTable builds the 4-entry color table from colorA/colorB per
// spec §4.H's 0xC0/0x20 opcode.
func fourColorTable(colorA, colorB uint16) [4]uint16 {
	var table [4]uint16
	table[0] = colorB & 0x7FFF
	table[3] = colorA & 0x7FFF

	ta := uint32(colorA>>10) & 0x1F
	tb := uint32(colorB>>10) & 0x1F
	table[1] |= uint16(interpolate5bit(ta, tb)) << 10
	table[2] |= uint16(interpolate5bitMirror(ta, tb)) << 10

	ta = uint32(colorA>>5) & 0x1F
	tb = uint32(colorB>>5) & 0x1F
	table[1] |= uint16(interpolate5bit(ta, tb)) << 5
	table[2] |= uint16(interpolate5bitMirror(ta, tb)) << 5

	ta = uint32(colorA) & 0x1F
	tb = uint32(colorB) & 0x1F
	table[1] |= uint16(interpolate5bit(ta, tb))
	table[2] |= uint16(interpolate5bitMirror(ta, tb))

	return table
}

func setPixel(img *image.RGBA, x, y int, r, g, b uint8) {
	i := img.PixOffset(x, y)
	img.Pix[i] = r
	img.Pix[i+1] = g
	img.Pix[i+2] = b
	img.Pix[i+3] = 0xFF
}

func fillBlock(img *image.RGBA, x, y int, r, g, b uint8) {
	for yy := y; yy < y+4; yy++ {
		for xx := x; xx < x+4; xx++ {
			setPixel(img, xx, yy, r, g, b)
		}
	}
}

// Decode implements Decoder (spec §4.H).
func (RPZA) Decode(data []byte, width, height int, _ uint16) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	cur := &byteCursor{data: data}
	marker, err := cur.readByte()
	if err != nil {
		return nil, err
	}
	if marker != 0xE1 {
		return nil, qerr.New(qerr.KindDecode, "rpza", 0, "first byte was not 0xE1")
	}
	b0, err := cur.readByte()
	if err != nil {
		return nil, err
	}
	b1, err := cur.readByte()
	if err != nil {
		return nil, err
	}
	b2, err := cur.readByte()
	if err != nil {
		return nil, err
	}
	chunkLen := uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2)
	if int(chunkLen) != len(data) {
		return nil, qerr.New(qerr.KindDecode, "rpza", 0, "chunk length does not match sample size")
	}

	blocks := newRPZACursor(width, height)

	for cur.pos < len(data) {
		B, err := cur.readByte()
		if err != nil {
			return nil, err
		}
		numBlocks := int(B&0x1F) + 1
		opcode := B & 0xE0
		var colorA uint16
		haveColorA := false

		if B&0x80 == 0 {
			lo, err := cur.readByte()
			if err != nil {
				return nil, err
			}
			colorA = uint16(B)<<8 | uint16(lo)
			haveColorA = true
			opcode = 0x00
			peek, err := cur.peekByte()
			if err != nil {
				return nil, err
			}
			if peek&0x80 != 0 {
				opcode = 0x20
				numBlocks = 1
			}
		}

		switch opcode {
		case 0x80: // SKIP
			for i := 0; i < numBlocks; i++ {
				blocks.advance()
			}

		case 0xA0: // ONE color
			c, err := cur.readU16BE()
			if err != nil {
				return nil, err
			}
			r, g, bch := expandRGB555(c)
			for i := 0; i < numBlocks; i++ {
				x, y := blocks.pos()
				fillBlock(img, x, y, r, g, bch)
				blocks.advance()
			}

		case 0xC0, 0x20: // FOUR colors
			if !haveColorA {
				colorA, err = cur.readU16BE()
				if err != nil {
					return nil, err
				}
			}
			colorB, err := cur.readU16BE()
			if err != nil {
				return nil, err
			}
			table := fourColorTable(colorA, colorB)
			var expanded [4][3]uint8
			for i, c := range table {
				r, g, bch := expandRGB555(c)
				expanded[i] = [3]uint8{r, g, bch}
			}
			for i := 0; i < numBlocks; i++ {
				x, y := blocks.pos()
				var ids [16]int
				for bi := 0; bi < 4; bi++ {
					flags, err := cur.readByte()
					if err != nil {
						return nil, err
					}
					ids[bi*4+0] = int(flags>>6) & 0x03
					ids[bi*4+1] = int(flags>>4) & 0x03
					ids[bi*4+2] = int(flags>>2) & 0x03
					ids[bi*4+3] = int(flags>>0) & 0x03
				}
				for idx, id := range ids {
					px := x + idx%4
					py := y + idx/4
					c := expanded[id]
					setPixel(img, px, py, c[0], c[1], c[2])
				}
				blocks.advance()
			}

		case 0x00: // SIXTEEN colors
			colors := [16]uint16{colorA}
			for i := 1; i < 16; i++ {
				c, err := cur.readU16BE()
				if err != nil {
					return nil, err
				}
				colors[i] = c
			}
			x, y := blocks.pos()
			for idx, c := range colors {
				r, g, bch := expandRGB555(c)
				px := x + idx%4
				py := y + idx/4
				setPixel(img, px, py, r, g, bch)
			}
			blocks.advance()

		default:
			return nil, qerr.New(qerr.KindDecode, "rpza", int64(cur.pos), "unrecognized opcode")
		}
	}

	return img, nil
}
