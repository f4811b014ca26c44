package codec

import "image/color"

// DefaultPalette reconstructs the QuickTime default 256-color CLUT used by
// codecs (SMC in particular) that carry no color table of their own and
// rely on the standard system palette instead (spec §4.J: "the palette
// provider supplies the QuickTime default palette because the standalone
// codec has no container context to infer one").
//
// The table is the conventional 6x6x6 RGB cube (component levels 0xFF,
// 0xCC, 0x99, 0x66, 0x33, 0x00, ordered red-major/blue-minor, descending)
// used by the classic Macintosh system palette, followed by a 40-entry
// gray ramp filling the remaining indices.
func DefaultPalette() color.Palette {
	levels := [6]uint8{0xFF, 0xCC, 0x99, 0x66, 0x33, 0x00}
	pal := make(color.Palette, 0, 256)
	for _, r := range levels {
		for _, g := range levels {
			for _, b := range levels {
				pal = append(pal, color.RGBA{R: r, G: g, B: b, A: 0xFF})
			}
		}
	}
	for i := 0; i < 40; i++ {
		v := uint8(255 - (255*i)/39)
		pal = append(pal, color.RGBA{R: v, G: v, B: v, A: 0xFF})
	}
	return pal
}
