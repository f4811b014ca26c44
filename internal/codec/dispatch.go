// Package codec decodes one sample buffer into an RGB tile, dispatching
// on the track's data_format FourCC (spec §4.G).
package codec

import (
	"image"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// Decoder decodes a single sample's compressed bytes into an RGB tile.
// width/height/depth come from the track's tkhd/stsd.
type Decoder interface {
	Decode(data []byte, width, height int, depth uint16) (*image.RGBA, error)
}

// Dispatch maps a data_format FourCC to its decoder (spec §4.G: "'rpza' ->
// RPZA, 'rle ' -> RLE24, 'cvid' -> Cinepak (external), 'smc ' -> SMC8
// (external + palette attach)").
func Dispatch(fourcc string) (Decoder, error) {
	switch fourcc {
	case "rpza":
		return RPZA{}, nil
	case "rle ":
		return RLE{}, nil
	case "cvid":
		return External{Codec: "cvid"}, nil
	case "smc ":
		return External{Codec: "smc ", Palette: DefaultPalette()}, nil
	default:
		return nil, qerr.New(qerr.KindUnsupportedCodec, fourcc, -1, "no decoder registered for this data_format")
	}
}
