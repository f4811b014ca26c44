package qtatom

import (
	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// Leaf field structs. Field names mirror the teacher/original naming
// where practical; offsets follow the QTFF 2007-09-04 reference (spec §6).

// FullBoxHeader is the (version, flags) pair prefixing most leaf atoms.
type FullBoxHeader struct {
	Version uint8
	Flags   uint32 // 24-bit, stored widened
}

func readFullBoxHeader(r *Reader) (FullBoxHeader, error) {
	v, err := r.U8()
	if err != nil {
		return FullBoxHeader{}, err
	}
	flags, err := r.U24BE()
	if err != nil {
		return FullBoxHeader{}, err
	}
	return FullBoxHeader{Version: v, Flags: flags}, nil
}

// Tkhd is the track header leaf (spec §6: track_width, track_height).
type Tkhd struct {
	FullBoxHeader
	TrackID      uint32
	Duration     uint32
	TrackWidth   float64
	TrackHeight  float64
}

func decodeTkhd(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Bytes(8); err != nil { // creation_time, modification_time
		return nil, err
	}
	trackID, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	if _, err := r.Bytes(4); err != nil { // reserved
		return nil, err
	}
	duration, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	if err := r.Seek(0x4c); err != nil {
		return nil, err
	}
	width, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	height, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	return &Tkhd{FullBoxHeader: hdr, TrackID: trackID, Duration: duration, TrackWidth: width, TrackHeight: height}, nil
}

// Mvhd is the movie header leaf (timescale/duration; supplementary per
// SPEC_FULL §3.1, unused by the mosaic pipeline).
type Mvhd struct {
	FullBoxHeader
	TimeScale uint32
	Duration  uint32
}

func decodeMvhd(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Bytes(8); err != nil {
		return nil, err
	}
	ts, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	dur, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	return &Mvhd{FullBoxHeader: hdr, TimeScale: ts, Duration: dur}, nil
}

// Hdlr is the handler-reference leaf; only the component subtype
// ("vide"/"soun"/etc.) is load-bearing downstream.
type Hdlr struct {
	FullBoxHeader
	ComponentSubtype string
}

func decodeHdlr(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	if _, err := r.Bytes(4); err != nil { // component_type
		return nil, err
	}
	subtype, err := r.Bytes(4)
	if err != nil {
		return nil, err
	}
	return &Hdlr{FullBoxHeader: hdr, ComponentSubtype: string(subtype)}, nil
}

// SampleDescriptionEntry is one entry of an stsd table: a size+format
// "chunk" (the classic ImageDescription layout) whose codec-specific tail
// starts right after data_reference_index.
type SampleDescriptionEntry struct {
	DataFormat string
	Width      uint16
	Height     uint16
	Depth      uint16
	Payload    []byte // full entry payload (after the 8-byte size+format header), for second-stage decode (e.g. pano)
}

// Stsd is the sample description leaf (spec §6: count + table of
// SampleDescription).
type Stsd struct {
	FullBoxHeader
	Entries []SampleDescriptionEntry
}

func decodeStsd(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	entries := make([]SampleDescriptionEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		entrySize, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		if entrySize < 8 {
			return nil, qerr.New(qerr.KindMalformedAtom, "stsd", r.Tell(), "sample description entry smaller than its own header")
		}
		format, err := r.Bytes(4)
		if err != nil {
			return nil, err
		}
		body, err := r.Bytes(entrySize - 8)
		if err != nil {
			return nil, err
		}
		entry := SampleDescriptionEntry{DataFormat: string(format), Payload: body}
		if len(body) >= 0x4C {
			entry.Width = be16(body[0x18:0x1A])
			entry.Height = be16(body[0x1A:0x1C])
			entry.Depth = be16(body[0x4A:0x4C])
		}
		entries = append(entries, entry)
	}
	return &Stsd{FullBoxHeader: hdr, Entries: entries}, nil
}

func be16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

// StscEntry is one run of the sample-to-chunk schedule.
type StscEntry struct {
	FirstChunk      uint32
	SamplesPerChunk uint32
	SampleDescID    uint32
}

// Stsc is the sample-to-chunk leaf.
type Stsc struct {
	FullBoxHeader
	Entries []StscEntry
}

func decodeStsc(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	entries := make([]StscEntry, count)
	for i := range entries {
		fc, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		spc, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		sdid, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		entries[i] = StscEntry{FirstChunk: fc, SamplesPerChunk: spc, SampleDescID: sdid}
	}
	return &Stsc{FullBoxHeader: hdr, Entries: entries}, nil
}

// Stco is the chunk-offset leaf.
type Stco struct {
	FullBoxHeader
	ChunkOffsets []uint32
}

func decodeStco(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	offsets := make([]uint32, count)
	for i := range offsets {
		v, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		offsets[i] = v
	}
	return &Stco{FullBoxHeader: hdr, ChunkOffsets: offsets}, nil
}

// Stsz is the sample-size leaf.
type Stsz struct {
	FullBoxHeader
	SampleSize  uint32 // nonzero means every sample is this size
	Count       uint32 // number_of_entries, authoritative sample count (spec §4.F step 2)
	SampleSizes []uint32
}

func decodeStsz(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	sampleSize, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	count, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	if sampleSize != 0 {
		return &Stsz{FullBoxHeader: hdr, SampleSize: sampleSize, Count: count}, nil
	}
	sizes := make([]uint32, count)
	for i := range sizes {
		v, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		sizes[i] = v
	}
	return &Stsz{FullBoxHeader: hdr, Count: count, SampleSizes: sizes}, nil
}

// Stts is the time-to-sample leaf; not consulted by mosaic generation
// (no timing is required to dice samples into a grid) but kept for
// completeness and exposed via probe dumps.
type Stts struct {
	FullBoxHeader
	Entries []struct{ Count, Duration uint32 }
}

func decodeStts(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	entries := make([]struct{ Count, Duration uint32 }, count)
	for i := range entries {
		c, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		d, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		entries[i] = struct{ Count, Duration uint32 }{c, d}
	}
	return &Stts{FullBoxHeader: hdr, Entries: entries}, nil
}

// Stss is the sync-sample (keyframe) leaf.
type Stss struct {
	FullBoxHeader
	SampleNumbers []uint32
}

func decodeStss(payload []byte) (any, error) {
	r := NewReader(payload)
	hdr, err := readFullBoxHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	nums := make([]uint32, count)
	for i := range nums {
		v, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		nums[i] = v
	}
	return &Stss{FullBoxHeader: hdr, SampleNumbers: nums}, nil
}

// Ctyp is the controller-type leaf used to classify OBJECT/PANORAMA/V2.
type Ctyp struct {
	ID string
}

func decodeCtyp(payload []byte) (any, error) {
	if len(payload) < 4 {
		return nil, qerr.New(qerr.KindMalformedAtom, "ctyp", 0, "payload shorter than 4 bytes")
	}
	return &Ctyp{ID: string(payload[0:4])}, nil
}

// WLOC is the window-location leaf (cosmetic; unused by mosaic generation).
type WLOC struct {
	X, Y uint16
}

func decodeWLOC(payload []byte) (any, error) {
	r := NewReader(payload)
	x, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	y, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	return &WLOC{X: x, Y: y}, nil
}

// NAVG is the object-movie grid descriptor (spec §3: only Columns, Rows
// are load-bearing for the core; the rest is kept for completeness).
type NAVG struct {
	Version       uint16
	Columns       uint16
	Rows          uint16
	LoopSize      uint16
	FrameDuration uint16
	MovieType     uint16
	LoopTicks     uint16
	FieldOfView   float64
	StartHPan     float64
	EndHPan       float64
	EndVPan       float64
	StartVPan     float64
	InitialHPan   float64
	InitialVPan   float64
}

func decodeNAVG(payload []byte) (any, error) {
	r := NewReader(payload)
	version, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	cols, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	rows, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	if _, err := r.U16BE(); err != nil { // reserved
		return nil, err
	}
	loopSize, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	frameDur, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	movieType, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	loopTicks, err := r.U16BE()
	if err != nil {
		return nil, err
	}
	fov, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	startH, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	endH, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	endV, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	startV, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	initH, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	initV, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	return &NAVG{
		Version: version, Columns: cols, Rows: rows, LoopSize: loopSize,
		FrameDuration: frameDur, MovieType: movieType, LoopTicks: loopTicks,
		FieldOfView: fov, StartHPan: startH, EndHPan: endH, EndVPan: endV,
		StartVPan: startV, InitialHPan: initH, InitialVPan: initV,
	}, nil
}

// schemas shared across the root and nested container maps.

var leafRawOnly = ChildSchema{Container: false, Decode: nil}

// stblSchema is the sample-table container's children (spec §3).
var stblSchema = ChildMap{
	"stco": {Decode: decodeStco},
	"stsc": {Decode: decodeStsc},
	"stsd": {Decode: decodeStsd},
	"stsz": {Decode: decodeStsz},
	"stts": {Decode: decodeStts},
	"stss": {Decode: decodeStss},
}

// pInfSchema holds the panorama media-info leaf.
var pInfSchema = ChildMap{
	"pInf": leafRawOnly,
}

var stpnSchema = ChildMap{
	"pInf": leafRawOnly,
}

var gmhdSchema = ChildMap{
	"gmin": leafRawOnly,
	"STpn": {Container: true, Children: stpnSchema},
}

var dinfSchema = ChildMap{
	"dref": leafRawOnly,
}

var minfSchema = ChildMap{
	"hdlr": {Decode: decodeHdlr},
	"dinf": {Container: true, Children: dinfSchema},
	"stbl": {Container: true, Children: stblSchema},
	"smhd": leafRawOnly,
	"vmhd": leafRawOnly,
	"gmhd": {Container: true, Children: gmhdSchema},
}

var elstSchema = ChildMap{
	"elst": leafRawOnly,
}

var mdiaSchema = ChildMap{
	"mdhd": leafRawOnly,
	"hdlr": {Decode: decodeHdlr},
	"minf": {Container: true, Children: minfSchema},
}

var trakSchema = ChildMap{
	"tkhd": {Decode: decodeTkhd},
	"edts": {Container: true, Children: elstSchema},
	"mdia": {Container: true, Children: mdiaSchema},
}

var udtaSchema = ChildMap{
	"ctyp": {Decode: decodeCtyp},
	"WLOC": {Decode: decodeWLOC},
	"NAVG": {Decode: decodeNAVG},
}

var moovSchema = ChildMap{
	"mvhd": {Decode: decodeMvhd},
	"trak": {Container: true, Children: trakSchema},
	"udta": {Container: true, Children: udtaSchema},
}

var rootSchema = ChildMap{
	"moov": {Container: true, Children: moovSchema},
	"mdat": leafRawOnly,
	"free": leafRawOnly,
}
