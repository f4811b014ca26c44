// Package qtvr classifies a parsed atom tree as an OBJECT, PANORAMA or V2
// QTVR movie (spec §3, §4.E) and decodes the panorama-specific sample
// description and sample payload atoms original_source/qtvr/mr_panorama.py
// models.
package qtvr

import (
	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
)

// Type is the QTVR movie flavor.
type Type int

const (
	// NotQTVR means no recognizable ctyp was found.
	NotQTVR Type = iota
	// Object is a rectangular grid of views of one physical object.
	Object
	// Panorama is a cylindrical strip diced into tiles.
	Panorama
	// V2 is a QTVR 2+ movie, explicitly unsupported (spec Non-goals).
	V2
)

func (t Type) String() string {
	switch t {
	case Object:
		return "OBJECT"
	case Panorama:
		return "PANORAMA"
	case V2:
		return "V2"
	default:
		return "NotQTVR"
	}
}

// Classify inspects the root atom's ctyp (spec §3: "OBJECT iff ctyp.id ==
// 'stna' and exactly one NAVG exists. PANORAMA iff ctyp.id == 'stpn' |
// 'STpn'. V2 iff ctyp.id == 'qtvr' (reject). Otherwise not QTVR.").
func Classify(root *qtatom.Atom) (Type, error) {
	ctypAtom, err := qtatom.FindOneStrict(root, "ctyp")
	if err != nil {
		return NotQTVR, qerr.New(qerr.KindNotQTVR, "ctyp", -1, err.Error())
	}
	if ctypAtom == nil {
		return NotQTVR, nil
	}
	ctyp, ok := ctypAtom.Leaf.(*qtatom.Ctyp)
	if !ok {
		return NotQTVR, nil
	}

	switch ctyp.ID {
	case "stna":
		navg, err := qtatom.FindOneStrict(root, "NAVG")
		if err != nil || navg == nil {
			return NotQTVR, qerr.New(qerr.KindNotQTVR, ctyp.ID, -1, "object controller but not exactly one NAVG atom")
		}
		return Object, nil
	case "stpn", "STpn":
		return Panorama, nil
	case "qtvr":
		return V2, qerr.New(qerr.KindUnsupportedQTVR, ctyp.ID, -1, "QTVR 2+ is not supported")
	default:
		return NotQTVR, nil
	}
}

// FindNAVG returns the movie's NAVG atom (object movies only).
func FindNAVG(root *qtatom.Atom) *qtatom.NAVG {
	a := qtatom.FindOne(root, "NAVG")
	if a == nil {
		return nil
	}
	navg, _ := a.Leaf.(*qtatom.NAVG)
	return navg
}

// movieTracks returns root's trak atoms — always direct children of moov,
// so Children(moov, "trak") is used rather than a recursive FindAll.
func movieTracks(root *qtatom.Atom) []*qtatom.Atom {
	moov := qtatom.FindOne(root, "moov")
	return qtatom.Children(moov, "trak")
}

// FindPanoramicTrack returns the trak subtree carrying a gmhd atom — the
// "panoramic track" (spec §4.E: "Panorama additionally requires the
// presence of a trak containing a gmhd atom").
func FindPanoramicTrack(root *qtatom.Atom) *qtatom.Atom {
	for _, trak := range movieTracks(root) {
		if qtatom.FindOne(trak, "gmhd") != nil {
			return trak
		}
	}
	return nil
}

// TrackByID indexes every trak atom in the tree by its tkhd track_id.
func TrackByID(root *qtatom.Atom) map[uint32]*qtatom.Atom {
	out := map[uint32]*qtatom.Atom{}
	for _, trak := range movieTracks(root) {
		tkhdAtom := qtatom.FindOne(trak, "tkhd")
		if tkhdAtom == nil {
			continue
		}
		tkhd, ok := tkhdAtom.Leaf.(*qtatom.Tkhd)
		if !ok {
			continue
		}
		out[tkhd.TrackID] = trak
	}
	return out
}
