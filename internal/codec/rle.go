package codec

import (
	"image"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// RLE decodes the QuickTime Animation codec's 24-bit path: one byte of
// skip count followed by a stream of signed run codes per scanline
// (spec §4.I). Only the partial-update header (0x0008) is supported; the
// full-frame variant is out of scope.
type RLE struct{}

func (RLE) Decode(data []byte, width, height int, _ uint16) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	cur := &byteCursor{data: data}
	if _, err := cur.readByte(); err != nil { // flags, ignored
		return nil, err
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
	chunkSize := uint32(b0)<<16 | uint32(b1)<<8 | uint32(b2)
	if int(chunkSize) != len(data) {
		return nil, qerr.New(qerr.KindDecode, "rle ", 0, "chunk size does not match sample size")
	}
	header, err := cur.readU16BE()
	if err != nil {
		return nil, err
	}
	if header != 0x0008 {
		return nil, qerr.New(qerr.KindDecode, "rle ", int64(cur.pos), "only the 0x0008 partial-update header is supported")
	}

	startLine, err := cur.readU16BE()
	if err != nil {
		return nil, err
	}
	if _, err := cur.readByte(); err != nil { // reserved
		return nil, err
	}
	if _, err := cur.readByte(); err != nil {
		return nil, err
	}
	numLines, err := cur.readU16BE()
	if err != nil {
		return nil, err
	}
	if _, err := cur.readByte(); err != nil { // reserved
		return nil, err
	}
	if _, err := cur.readByte(); err != nil {
		return nil, err
	}

	for line := 0; line < int(numLines); line++ {
		y := int(startLine) + line
		x := 0

		skipCount, err := cur.readByte()
		if err != nil {
			return nil, err
		}
		x += int(skipCount) - 1

		for {
			rleCodeByte, err := cur.readByte()
			if err != nil {
				return nil, err
			}
			rleCode := int8(rleCodeByte)

			switch {
			case rleCode == -1:
				goto nextLine

			case rleCode == 0:
				skip, err := cur.readByte()
				if err != nil {
					return nil, err
				}
				x += int(skip) - 1

			case rleCode > 0:
				for i := 0; i < int(rleCode); i++ {
					r, g, b, err := readRGBTriple(cur)
					if err != nil {
						return nil, err
					}
					if x >= 0 && x < width && y >= 0 && y < height {
						setPixel(img, x, y, r, g, b)
					}
					x++
				}

			default: // rleCode < -1
				r, g, b, err := readRGBTriple(cur)
				if err != nil {
					return nil, err
				}
				repeat := int(-rleCode)
				for i := 0; i < repeat; i++ {
					if x >= 0 && x < width && y >= 0 && y < height {
						setPixel(img, x, y, r, g, b)
					}
					x++
				}
			}
		}
	nextLine:
	}

	return img, nil
}

func readRGBTriple(cur *byteCursor) (r, g, b uint8, err error) {
	rb, err := cur.readByte()
	if err != nil {
		return 0, 0, 0, err
	}
	gb, err := cur.readByte()
	if err != nil {
		return 0, 0, 0, err
	}
	bb, err := cur.readByte()
	if err != nil {
		return 0, 0, 0, err
	}
	return rb, gb, bb, nil
}
