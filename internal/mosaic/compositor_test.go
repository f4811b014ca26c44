package mosaic

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
)

func writeAtom(buf []byte, typ string, payload []byte) []byte {
	size := uint32(8 + len(payload))
	header := make([]byte, 8)
	binary.BigEndian.PutUint32(header[0:4], size)
	copy(header[4:8], typ)
	buf = append(buf, header...)
	return append(buf, payload...)
}

func u32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func fixed16_16(v int32) []byte { return u32(uint32(v)) }

func fullBoxHeader() []byte { return []byte{0, 0, 0, 0} }

// buildRPZASample assembles a one-color RPZA sample filling its whole 4x4
// block with a single RGB555 color (mirrors internal/codec's own fixture
// technique for the ONE-color opcode).
func buildRPZASample(colorHi, colorLo byte) []byte {
	body := []byte{0xA0, colorHi, colorLo}
	header := make([]byte, 4)
	header[0] = 0xE1
	total := uint32(4 + len(body))
	header[1] = byte(total >> 16)
	header[2] = byte(total >> 8)
	header[3] = byte(total)
	return append(header, body...)
}

func buildStsdRPZAEntry() []byte {
	body := make([]byte, 76)
	copy(body[0x18:0x1A], []byte{0, 4}) // width 4
	copy(body[0x1A:0x1C], []byte{0, 4}) // height 4
	entry := append(u32(uint32(8+len(body))), []byte("rpza")...)
	entry = append(entry, body...)

	payload := append([]byte{}, fullBoxHeader()...)
	payload = append(payload, u32(1)...) // count
	payload = append(payload, entry...)
	return payload
}

func buildStco(offset uint32) []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(1)...)
	body = append(body, u32(offset)...)
	return body
}

func buildStsc() []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(1)...)
	body = append(body, u32(1)...) // first_chunk
	body = append(body, u32(5)...) // samples_per_chunk
	body = append(body, u32(1)...) // sample_description_id
	return body
}

func buildStszFixed(size, count uint32) []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(size)...)
	body = append(body, u32(count)...) // number_of_entries, authoritative per spec §4.F step 2
	return body
}

func buildMoov(stcoOffset uint32) []byte {
	stbl := writeAtom(nil, "stco", buildStco(stcoOffset))
	stbl = writeAtom(stbl, "stsc", buildStsc())
	stbl = writeAtom(stbl, "stsz", buildStszFixed(7, 5))
	stbl = writeAtom(stbl, "stsd", buildStsdRPZAEntry())

	minf := writeAtom(nil, "stbl", stbl)
	mdia := writeAtom(nil, "minf", minf)

	tkhd := make([]byte, 0x4c)
	tkhd = append(tkhd, fixed16_16(4<<16)...) // track_width = 4.0
	tkhd = append(tkhd, fixed16_16(4<<16)...) // track_height = 4.0

	trak := writeAtom(nil, "tkhd", tkhd)
	trak = writeAtom(trak, "mdia", mdia)

	moov := writeAtom(nil, "trak", trak)
	return writeAtom(nil, "moov", moov)
}

// buildFixture assembles a full synthetic file (moov + mdat) holding 5
// one-color RPZA samples of a 4x4 track, and returns the file bytes plus
// the parsed trak atom.
func buildFixture(t *testing.T) ([]byte, *qtatom.Atom) {
	t.Helper()

	red := buildRPZASample(0x7C, 0x00)
	green := buildRPZASample(0x03, 0xE0)
	blue := buildRPZASample(0x00, 0x1F)
	white := buildRPZASample(0x7F, 0xFF)
	leftover := buildRPZASample(0x7C, 0x00)

	samples := bytes.Join([][]byte{red, green, blue, white, leftover}, nil)

	moovPlaceholder := buildMoov(0)
	stcoOffset := uint32(len(moovPlaceholder) + 8)
	moov := buildMoov(stcoOffset)
	require.Equal(t, len(moovPlaceholder), len(moov))

	file := append([]byte{}, moov...)
	file = writeAtom(file, "mdat", samples)

	root, err := qtatom.ParseRoot(file, qtatom.NewUnknownFourCCs())
	require.NoError(t, err)
	trak := qtatom.FindOne(root, "trak")
	require.NotNil(t, trak)

	return file, trak
}

func TestRun_PastesTilesInPlacementOrderAndDropsTrailingPartialPage(t *testing.T) {
	file, trak := buildFixture(t)
	outDir := t.TempDir()

	written, err := Run(file, trak, Grid{Cols: 2, Rows: 2, Rotation: 0, BaseName: "obj"}, outDir)
	require.NoError(t, err)
	require.Len(t, written, 1) // the 5th sample doesn't fill a second page

	assert.Equal(t, filepath.Join(outDir, "0-obj.png"), written[0])

	f, err := os.Open(written[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	b := img.Bounds()
	require.Equal(t, 8, b.Dx()) // 2 cols * 4px
	require.Equal(t, 8, b.Dy()) // 2 rows * 4px

	// placement law: col = s' mod cols, row = s' div cols.
	r, g, bl, _ := img.At(0, 0).RGBA() // sample 0 (red) -> col 0, row 0
	assert.Greater(t, r, g)
	assert.Greater(t, r, bl)

	r, g, bl, _ = img.At(4, 0).RGBA() // sample 1 (green) -> col 1, row 0
	assert.Greater(t, g, r)
	assert.Greater(t, g, bl)

	r, g, bl, _ = img.At(0, 4).RGBA() // sample 2 (blue) -> col 0, row 1
	assert.Greater(t, bl, r)
	assert.Greater(t, bl, g)

	r, g, bl, _ = img.At(4, 4).RGBA() // sample 3 (white) -> col 1, row 1
	assert.Greater(t, r, uint32(0))
	assert.Greater(t, g, uint32(0))
	assert.Greater(t, bl, uint32(0))
}

func TestRun_RejectsNonPositiveGrid(t *testing.T) {
	file, trak := buildFixture(t)
	_, err := Run(file, trak, Grid{Cols: 0, Rows: 2, BaseName: "obj"}, t.TempDir())
	require.Error(t, err)
}
