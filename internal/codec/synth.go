package codec

import (
	"bytes"
	"encoding/binary"
)

// buildSyntheticContainer wraps a single raw sample back into a minimal
// one-track, one-sample, never-persisted QuickTime container so an
// external decoder that only understands container-framed video (ffmpeg)
// can identify the sample's codec from its stsd entry (SPEC_FULL.md §4.G).
//
// The layout is the minimum skeleton a real mov demuxer accepts:
// ftyp + moov(mvhd, trak(tkhd, mdia(mdhd, hdlr, minf(vmhd, dinf, stbl(
// stsd, stsc, stco, stsz))))) + mdat.
func buildSyntheticContainer(sample []byte, width, height int, depth uint16, fourcc string) []byte {
	ftyp := atomBox("ftyp", joinBytes(
		[]byte("qt  "), u32be(0), []byte("qt  "),
	))

	stsd := atomBox("stsd", joinBytes(fullBoxHeader(), u32be(1), sampleDescriptionEntry(fourcc, width, height, depth)))
	stsc := atomBox("stsc", joinBytes(fullBoxHeader(), u32be(1), u32be(1), u32be(1), u32be(1)))
	stsz := atomBox("stsz", joinBytes(fullBoxHeader(), u32be(uint32(len(sample))), u32be(1)))

	placeholder := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	stco := atomBox("stco", joinBytes(fullBoxHeader(), u32be(1), placeholder))

	stbl := atomBox("stbl", joinBytes(stsd, stsc, stco, stsz))
	dinf := atomBox("dinf", atomBox("dref", joinBytes(fullBoxHeader(), u32be(0))))
	vmhd := atomBox("vmhd", joinBytes(fullBoxHeader(), u16be(0), u16be(0), u16be(0), u16be(0)))
	minf := atomBox("minf", joinBytes(vmhd, dinf, stbl))
	hdlr := atomBox("hdlr", joinBytes(fullBoxHeader(), []byte("mhlr"), []byte("vide"), u32be(0), u32be(0), u32be(0), []byte{0}))
	mdhd := atomBox("mdhd", joinBytes(fullBoxHeader(), u32be(0), u32be(0), u32be(600), u32be(0), u16be(0), u16be(0)))
	mdia := atomBox("mdia", joinBytes(mdhd, hdlr, minf))
	tkhd := atomBox("tkhd", joinBytes(fullBoxHeader(), u32be(0), u32be(0), u32be(1), u32be(0), u32be(0),
		make([]byte, 8), u16be(0), u16be(0), u16be(0), u16be(0), make([]byte, 36),
		fixed16_16(width), fixed16_16(height)))
	trak := atomBox("trak", joinBytes(tkhd, mdia))
	mvhd := atomBox("mvhd", joinBytes(fullBoxHeader(), u32be(0), u32be(0), u32be(600), u32be(0),
		fixed16_16(1), u16be(1), make([]byte, 10), make([]byte, 36), u32be(0), u32be(0), u32be(2)))

	moovBody := joinBytes(mvhd, trak)
	idx := bytes.Index(moovBody, placeholder)
	moov := atomBox("moov", moovBody)

	mdat := atomBox("mdat", sample)

	mdatHeaderLen := 8
	mdatOffset := uint32(len(ftyp) + len(moov) + mdatHeaderLen)
	if idx >= 0 {
		binary.BigEndian.PutUint32(moov[8+idx:8+idx+4], mdatOffset)
	}

	return joinBytes(ftyp, moov, mdat)
}

func sampleDescriptionEntry(fourcc string, width, height int, depth uint16) []byte {
	body := joinBytes(
		make([]byte, 6), u16be(1), // reserved(6) + data_reference_index
		u16be(0), u16be(0), []byte("appl"), u32be(0), u32be(0), // version, revision, vendor, temporal/spatial quality
		u16be(uint16(width)), u16be(uint16(height)),
		u32be(0x00480000), u32be(0x00480000), // h/v resolution, 72 dpi fixed
		u32be(0), u16be(1), make([]byte, 32), // data size, frame count, compressor name
		u16be(depth), u16be(0xFFFF), // depth, color table id
	)
	size := uint32(8 + len(fourcc) + len(body))
	return joinBytes(u32be(size), []byte(fourcc), body)
}

func atomBox(fourcc string, payload []byte) []byte {
	size := uint32(8 + len(payload))
	out := make([]byte, 0, size)
	out = append(out, u32be(size)...)
	out = append(out, []byte(fourcc)...)
	out = append(out, payload...)
	return out
}

func fullBoxHeader() []byte { return []byte{0, 0, 0, 0} }

func u32be(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func u16be(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func fixed16_16(v int) []byte { return u32be(uint32(v) << 16) }

func joinBytes(parts ...[]byte) []byte {
	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
