package qtvr

import (
	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
)

// PanoSampleDescription carries the scene/lo-res/hot-spot track IDs and
// dicing that select which trak atoms feed the compositor and with what
// grid shape (spec §3). The panorama "pano" entry's fields start at offset
// 0x08 of the entry payload, after two reserved 32-bit words that occupy
// the place a video description uses for reserved(6)+data_reference_index(2).
type PanoSampleDescription struct {
	MajorVersion      int16
	MinorVersion      int16
	SceneTrackID      int32
	LoResSceneTrackID int32
	HotSpotTrackID    int32

	HPanStart, HPanEnd     float64
	VPanTop, VPanBottom    float64
	MinimumZoom, MaximumZoom float64

	SceneSizeX, SceneSizeY uint32
	SceneNumFramesX        int16
	SceneNumFramesY        int16
	SceneColorDepth        int16

	HotSpotSizeX, HotSpotSizeY int32
	HotSpotNumFramesX          int16
	HotSpotNumFramesY          int16
	HotSpotColorDepth          int16
}

// DecodePanoSampleDescription decodes entry.Payload as a
// PanoSampleDescription (spec §6: "pano (sample desc) ... scene/lo-res/
// hotspot track IDs, scene & hotspot dicing, pan extents").
func DecodePanoSampleDescription(entry qtatom.SampleDescriptionEntry) (*PanoSampleDescription, error) {
	if entry.DataFormat != "pano" {
		return nil, qerr.New(qerr.KindMalformedAtom, entry.DataFormat, -1, "not a pano sample description entry")
	}
	r := qtatom.NewReader(entry.Payload)
	if err := r.Seek(0x08); err != nil {
		return nil, err
	}
	majorVersion, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	minorVersion, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	sceneTrackID, err := r.I32BE()
	if err != nil {
		return nil, err
	}
	loResTrackID, err := r.I32BE()
	if err != nil {
		return nil, err
	}
	if err := r.Seek(0x2c); err != nil {
		return nil, err
	}
	hotSpotTrackID, err := r.I32BE()
	if err != nil {
		return nil, err
	}
	if err := r.Seek(0x54); err != nil {
		return nil, err
	}
	hPanStart, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	hPanEnd, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	vPanTop, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	vPanBottom, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	minZoom, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	maxZoom, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	sceneSizeX, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	sceneSizeY, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	if _, err := r.U32BE(); err != nil { // numFrames
		return nil, err
	}
	if _, err := r.I16BE(); err != nil { // reserved5
		return nil, err
	}
	sceneNumFramesX, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	sceneNumFramesY, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	sceneColorDepth, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	hotSpotSizeX, err := r.I32BE()
	if err != nil {
		return nil, err
	}
	hotSpotSizeY, err := r.I32BE()
	if err != nil {
		return nil, err
	}
	if _, err := r.I16BE(); err != nil { // reserved6
		return nil, err
	}
	hotSpotNumFramesX, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	hotSpotNumFramesY, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	hotSpotColorDepth, err := r.I16BE()
	if err != nil {
		return nil, err
	}

	return &PanoSampleDescription{
		MajorVersion: majorVersion, MinorVersion: minorVersion,
		SceneTrackID: sceneTrackID, LoResSceneTrackID: loResTrackID, HotSpotTrackID: hotSpotTrackID,
		HPanStart: hPanStart, HPanEnd: hPanEnd, VPanTop: vPanTop, VPanBottom: vPanBottom,
		MinimumZoom: minZoom, MaximumZoom: maxZoom,
		SceneSizeX: sceneSizeX, SceneSizeY: sceneSizeY,
		SceneNumFramesX: sceneNumFramesX, SceneNumFramesY: sceneNumFramesY, SceneColorDepth: sceneColorDepth,
		HotSpotSizeX: hotSpotSizeX, HotSpotSizeY: hotSpotSizeY,
		HotSpotNumFramesX: hotSpotNumFramesX, HotSpotNumFramesY: hotSpotNumFramesY, HotSpotColorDepth: hotSpotColorDepth,
	}, nil
}

// FindPanoSampleDescription locates the stsd entry with data_format
// "pano" on a panoramic track and decodes it.
func FindPanoSampleDescription(panoramicTrack *qtatom.Atom) (*PanoSampleDescription, error) {
	stsdAtom := qtatom.FindOne(panoramicTrack, "stsd")
	if stsdAtom == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "stsd", -1, "panoramic track missing stsd")
	}
	stsd, ok := stsdAtom.Leaf.(*qtatom.Stsd)
	if !ok || len(stsd.Entries) == 0 {
		return nil, qerr.New(qerr.KindMalformedAtom, "stsd", -1, "panoramic track stsd has no entries")
	}
	// spec §9 Open Question: multiple sample description entries are
	// permitted by the container format but all code paths use index 0.
	return DecodePanoSampleDescription(stsd.Entries[0])
}

// PanoSampleHeader is the pHdr leaf of a panorama sample payload.
type PanoSampleHeader struct {
	NodeID uint32
	DefHPan, DefVPan, DefZoom float64
}

// HotSpot is one entry of a pHot hot-spot table.
type HotSpot struct {
	HotSpotID uint16
	Type      uint32
	TypeData  uint32
	ViewHPan, ViewVPan, ViewZoom float64
}

// HotSpotTable is the decoded pHot leaf.
type HotSpotTable struct {
	HotSpots []HotSpot
}

// PanoramaSamplePayload is the decoded content of one panorama-track
// sample: a bare sequence of sibling atoms (pHdr, pHot, strT, pLnk, pNav),
// with no enclosing box of its own (spec §3).
type PanoramaSamplePayload struct {
	Header   *PanoSampleHeader
	HotSpots *HotSpotTable
	Strings  []byte // raw strT payload, diagnostic dump only (spec §3.1)
	Links    []byte // raw pLnk payload, diagnostic dump only (spec §3.1)
	Unknown  *qtatom.UnknownFourCCs
}

var panoSampleSchema = qtatom.ChildMap{
	"pHdr": {Decode: decodePHdr},
	"pHot": {Decode: decodePHot},
	"strT": {Decode: func(payload []byte) (any, error) { return payload, nil }},
	"pLnk": {Decode: func(payload []byte) (any, error) { return payload, nil }},
	// pNav is intentionally unregistered: SPEC_FULL §3.1 keeps it a
	// Gobble since no operation in this repository consults it.
}

func decodePHdr(payload []byte) (any, error) {
	r := qtatom.NewReader(payload)
	nodeID, err := r.U32BE()
	if err != nil {
		return nil, err
	}
	hpan, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	vpan, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	zoom, err := r.Fixed16_16()
	if err != nil {
		return nil, err
	}
	return &PanoSampleHeader{NodeID: nodeID, DefHPan: hpan, DefVPan: vpan, DefZoom: zoom}, nil
}

func decodePHot(payload []byte) (any, error) {
	r := qtatom.NewReader(payload)
	if _, err := r.Bytes(2); err != nil { // pad
		return nil, err
	}
	n, err := r.I16BE()
	if err != nil {
		return nil, err
	}
	table := &HotSpotTable{}
	for i := int16(0); i < n; i++ {
		id, err := r.U16BE()
		if err != nil {
			return nil, err
		}
		if _, err := r.Bytes(2); err != nil { // reserved1
			return nil, err
		}
		typ, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		typeData, err := r.U32BE()
		if err != nil {
			return nil, err
		}
		hpan, err := r.Fixed16_16()
		if err != nil {
			return nil, err
		}
		vpan, err := r.Fixed16_16()
		if err != nil {
			return nil, err
		}
		zoom, err := r.Fixed16_16()
		if err != nil {
			return nil, err
		}
		if _, err := r.Bytes(8 + 4*6); err != nil { // rect + 3 cursor ids + reserved2 + name/comment offsets
			return nil, err
		}
		table.HotSpots = append(table.HotSpots, HotSpot{
			HotSpotID: id, Type: typ, TypeData: typeData,
			ViewHPan: hpan, ViewVPan: vpan, ViewZoom: zoom,
		})
	}
	return table, nil
}

// DecodePanoramaSample parses one panorama-track sample buffer as a bare
// sequence of sibling atoms.
func DecodePanoramaSample(data []byte) (*PanoramaSamplePayload, error) {
	unknown := qtatom.NewUnknownFourCCs()
	children, err := qtatom.ParseChildren(data, 0, "pano-sample", panoSampleSchema, unknown)
	if err != nil {
		return nil, err
	}
	payload := &PanoramaSamplePayload{Unknown: unknown}
	for _, c := range children {
		switch c.Type {
		case "pHdr":
			if h, ok := c.Leaf.(*PanoSampleHeader); ok {
				payload.Header = h
			}
		case "pHot":
			if h, ok := c.Leaf.(*HotSpotTable); ok {
				payload.HotSpots = h
			}
		case "strT":
			if b, ok := c.Leaf.([]byte); ok {
				payload.Strings = b
			}
		case "pLnk":
			if b, ok := c.Leaf.([]byte); ok {
				payload.Links = b
			}
		}
	}
	return payload, nil
}
