package mosaic

import (
	"fmt"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtvr"
)

// GenerateObject composites an OBJECT movie's single track into one
// mosaic at (NAVG.Columns, NAVG.Rows) with no rotation (spec §4.J "Object
// wiring").
func GenerateObject(fileData []byte, root *qtatom.Atom, baseName, outputDir string) ([]string, error) {
	navg := qtvr.FindNAVG(root)
	if navg == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "NAVG", -1, "object movie missing NAVG atom")
	}
	traks := qtatom.FindAll(root, "trak")
	if len(traks) == 0 {
		return nil, qerr.New(qerr.KindMalformedAtom, "trak", -1, "object movie has no track")
	}
	grid := Grid{Cols: int(navg.Columns), Rows: int(navg.Rows), Rotation: 0, BaseName: fmt.Sprintf("mosaic-%s", baseName)}
	return Run(fileData, traks[0], grid, outputDir)
}

// GeneratePanorama composites a PANORAMA movie's scene, lo-res scene and
// hot-spot tracks (spec §4.J "Panorama wiring"). The lo-res grid shape
// follows original_source/qtvr/mosaic.py's actual parameter order
// (low_res_rows = max(sceneNumFramesX/2, 1) passed as the grid's column
// count, sceneNumFramesY/2 passed as its row count) rather than a
// literal reading of spec.md's prose, which names the two values in the
// opposite order from its own (cols, rows) convention used one sentence
// earlier.
func GeneratePanorama(fileData []byte, root *qtatom.Atom, baseName, outputDir string) ([]string, error) {
	panoramicTrack := qtvr.FindPanoramicTrack(root)
	if panoramicTrack == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "gmhd", -1, "panorama movie has no panoramic track")
	}
	desc, err := qtvr.FindPanoSampleDescription(panoramicTrack)
	if err != nil {
		return nil, err
	}
	tracksByID := qtvr.TrackByID(root)

	var written []string

	sceneTrack, ok := tracksByID[uint32(desc.SceneTrackID)]
	if !ok {
		return nil, qerr.New(qerr.KindMalformedAtom, "pano", -1, "sceneTrackID does not resolve to a track")
	}
	sceneGrid := Grid{
		Cols: int(desc.SceneNumFramesX), Rows: int(desc.SceneNumFramesY),
		Rotation: -90, BaseName: fmt.Sprintf("%s-sceneTrack", baseName),
	}
	paths, err := Run(fileData, sceneTrack, sceneGrid, outputDir)
	if err != nil {
		return nil, err
	}
	written = append(written, paths...)

	if desc.LoResSceneTrackID != 0 {
		loResTrack, ok := tracksByID[uint32(desc.LoResSceneTrackID)]
		if !ok {
			return nil, qerr.New(qerr.KindMalformedAtom, "pano", -1, "loResSceneTrackID does not resolve to a track")
		}
		loResCols := int(desc.SceneNumFramesX) / 2
		if loResCols < 1 {
			loResCols = 1
		}
		loResGrid := Grid{
			Cols: loResCols, Rows: int(desc.SceneNumFramesY) / 2,
			Rotation: -90, BaseName: fmt.Sprintf("%s-loressceneTrack", baseName),
		}
		paths, err := Run(fileData, loResTrack, loResGrid, outputDir)
		if err != nil {
			return nil, err
		}
		written = append(written, paths...)
	}

	if desc.HotSpotTrackID != 0 {
		hotSpotTrack, ok := tracksByID[uint32(desc.HotSpotTrackID)]
		if !ok {
			return nil, qerr.New(qerr.KindMalformedAtom, "pano", -1, "hotSpotTrackID does not resolve to a track")
		}
		hotSpotGrid := Grid{
			Cols: int(desc.HotSpotNumFramesX), Rows: int(desc.HotSpotNumFramesY),
			Rotation: -90, BaseName: fmt.Sprintf("%s-hotspotTrack", baseName),
		}
		paths, err := Run(fileData, hotSpotTrack, hotSpotGrid, outputDir)
		if err != nil {
			return nil, err
		}
		written = append(written, paths...)
	}

	return written, nil
}
