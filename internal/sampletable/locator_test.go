package sampletable

import (
	"encoding/binary"
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

func fullBoxHeader() []byte { return []byte{0, 0, 0, 0} }

func stscPayload(entries [][3]uint32) []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(uint32(len(entries)))...)
	for _, e := range entries {
		body = append(body, u32(e[0])...)
		body = append(body, u32(e[1])...)
		body = append(body, u32(e[2])...)
	}
	return body
}

func stcoPayload(offsets []uint32) []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(uint32(len(offsets)))...)
	for _, o := range offsets {
		body = append(body, u32(o)...)
	}
	return body
}

func stszVariablePayload(sizes []uint32) []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(0)...) // sample_size == 0 => table follows
	body = append(body, u32(uint32(len(sizes)))...)
	for _, s := range sizes {
		body = append(body, u32(s)...)
	}
	return body
}

func stszFixedPayload(size, count uint32) []byte {
	body := append([]byte{}, fullBoxHeader()...)
	body = append(body, u32(size)...)
	body = append(body, u32(count)...) // number_of_entries, authoritative per spec §4.F step 2
	return body
}

// buildTrak assembles a minimal moov > trak > tkhd, mdia > mdhd, hdlr,
// minf > stbl(stco, stsc, stsz) subtree and parses it through
// qtatom.ParseRoot, mirroring the teacher's synthetic-fixture technique.
func buildTrak(t *testing.T, stco, stsc, stsz []byte) *qtatom.Atom {
	t.Helper()

	var stbl []byte
	stbl = writeAtom(stbl, "stco", stco)
	stbl = writeAtom(stbl, "stsc", stsc)
	stbl = writeAtom(stbl, "stsz", stsz)

	var minf []byte
	minf = writeAtom(minf, "stbl", stbl)

	var mdia []byte
	mdia = writeAtom(mdia, "minf", minf)

	tkhd := append([]byte{}, make([]byte, 0x4c)...)
	tkhd = append(tkhd, u32(0)...) // width placeholder (unused by Locate)
	tkhd = append(tkhd, u32(0)...)

	var trak []byte
	trak = writeAtom(trak, "tkhd", tkhd)
	trak = writeAtom(trak, "mdia", mdia)

	var moov []byte
	moov = writeAtom(moov, "trak", trak)

	var file []byte
	file = writeAtom(file, "moov", moov)

	root, err := qtatom.ParseRoot(file, qtatom.NewUnknownFourCCs())
	require.NoError(t, err)
	return qtatom.FindOne(root, "trak")
}

func TestLocate_VariableSampleSizesAcrossTwoChunks(t *testing.T) {
	trak := buildTrak(t,
		stcoPayload([]uint32{1000, 2000}),
		stscPayload([][3]uint32{{1, 2, 1}}),
		stszVariablePayload([]uint32{10, 20, 30, 40}),
	)

	samples, err := Locate(trak)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, Sample{ID: 0, Offset: 1000, Size: 10}, samples[0])
	assert.Equal(t, Sample{ID: 1, Offset: 1010, Size: 20}, samples[1])
	assert.Equal(t, Sample{ID: 2, Offset: 2000, Size: 30}, samples[2])
	assert.Equal(t, Sample{ID: 3, Offset: 2030, Size: 40}, samples[3])
}

func TestLocate_FixedSampleSizeUsesStszCount(t *testing.T) {
	trak := buildTrak(t,
		stcoPayload([]uint32{5000, 6000}),
		stscPayload([][3]uint32{{1, 3, 1}, {2, 1, 1}}),
		stszFixedPayload(50, 4), // 3 samples in chunk 1, 1 in chunk 2
	)

	samples, err := Locate(trak)
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, Sample{ID: 0, Offset: 5000, Size: 50}, samples[0])
	assert.Equal(t, Sample{ID: 1, Offset: 5050, Size: 50}, samples[1])
	assert.Equal(t, Sample{ID: 2, Offset: 5100, Size: 50}, samples[2])
	assert.Equal(t, Sample{ID: 3, Offset: 6000, Size: 50}, samples[3])
}

func TestLocate_FixedSampleSizeCountMismatchErrors(t *testing.T) {
	// stsz declares 5 samples, but stsc's expansion covers only 4 — must be
	// rejected rather than silently trusting the stsc-derived total.
	trak := buildTrak(t,
		stcoPayload([]uint32{5000, 6000}),
		stscPayload([][3]uint32{{1, 3, 1}, {2, 1, 1}}),
		stszFixedPayload(50, 5),
	)

	_, err := Locate(trak)
	require.Error(t, err)
}

func TestLocate_SingleEntryTilesEveryChunk(t *testing.T) {
	// Edge case from spec §4.F: a single-entry stsc with samples_per_chunk
	// = N tiles every chunk with N samples, regardless of chunk count.
	trak := buildTrak(t,
		stcoPayload([]uint32{100, 200, 300}),
		stscPayload([][3]uint32{{1, 2, 1}}),
		stszVariablePayload([]uint32{1, 1, 1, 1, 1, 1}),
	)

	samples, err := Locate(trak)
	require.NoError(t, err)
	require.Len(t, samples, 6)
	assert.Equal(t, int64(100), samples[0].Offset)
	assert.Equal(t, int64(200), samples[2].Offset)
	assert.Equal(t, int64(300), samples[4].Offset)
}
