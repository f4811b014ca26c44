// Package mosaic pastes decoded samples from a track into a grid and
// writes one PNG per full page (spec §4.J).
package mosaic

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rvanlaar/qtvr-mosaic/internal/codec"
	"github.com/rvanlaar/qtvr-mosaic/internal/mlog"
	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
	"github.com/rvanlaar/qtvr-mosaic/internal/sampletable"
)

// Grid is the dicing shape and orientation of one mosaic pass over a
// track (spec §4.J: "Inputs: a trak subtree, a grid (cols, rows), an
// optional rotation, and an output base name").
type Grid struct {
	Cols, Rows int
	Rotation   int // degrees: one of 0, 90, -90, 180
	BaseName   string
}

// Run composites every page of trak's samples under grid and writes the
// resulting PNGs into outputDir, returning the paths written.
func Run(fileData []byte, trak *qtatom.Atom, grid Grid, outputDir string) ([]string, error) {
	if grid.Cols <= 0 || grid.Rows <= 0 {
		return nil, qerr.New(qerr.KindMalformedAtom, "trak", -1, "grid must have positive cols and rows")
	}

	tkhdAtom := qtatom.FindOne(trak, "tkhd")
	if tkhdAtom == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "tkhd", -1, "track missing tkhd")
	}
	tkhd, ok := tkhdAtom.Leaf.(*qtatom.Tkhd)
	if !ok {
		return nil, qerr.New(qerr.KindMalformedAtom, "tkhd", -1, "tkhd leaf decode missing")
	}
	width := int(tkhd.TrackWidth)
	height := int(tkhd.TrackHeight)
	if width <= 0 || height <= 0 {
		return nil, qerr.New(qerr.KindMalformedAtom, "tkhd", -1, "track_width/track_height must be positive")
	}

	stsdAtom := qtatom.FindOne(trak, "stsd")
	if stsdAtom == nil {
		return nil, qerr.New(qerr.KindMalformedAtom, "stsd", -1, "track missing stsd")
	}
	stsd, ok := stsdAtom.Leaf.(*qtatom.Stsd)
	if !ok || len(stsd.Entries) == 0 {
		return nil, qerr.New(qerr.KindMalformedAtom, "stsd", -1, "stsd has no sample description entries")
	}
	// spec §9 Open Question: only sample description index 0 is exercised.
	entry := stsd.Entries[0]

	decoder, err := codec.Dispatch(entry.DataFormat)
	if err != nil {
		return nil, err
	}

	samples, err := sampletable.Locate(trak)
	if err != nil {
		return nil, err
	}

	perPage := grid.Cols * grid.Rows
	var written []string
	page := 0

	for pageStart := 0; pageStart < len(samples); pageStart += perPage {
		pageEnd := pageStart + perPage
		if pageEnd > len(samples) {
			mlog.Logger.Warn().
				Int("leftover", len(samples)-pageStart).
				Str("track", entry.DataFormat).
				Msg("trailing samples do not fill a complete mosaic page; not writing a partial page")
			break
		}
		pageSamples := samples[pageStart:pageEnd]

		tiles, err := decodePage(fileData, pageSamples, decoder, width, height, entry.Depth)
		if err != nil {
			return nil, err
		}

		canvas := image.NewRGBA(image.Rect(0, 0, grid.Cols*width, grid.Rows*height))
		for i, tile := range tiles {
			sPrime := i % perPage
			col := sPrime % grid.Cols
			row := sPrime / grid.Cols
			dstRect := image.Rect(col*width, row*height, col*width+width, row*height+height)
			draw.Draw(canvas, dstRect, tile, image.Point{}, draw.Src)
		}

		out := rotate(canvas, grid.Rotation)

		path := filepath.Join(outputDir, fmt.Sprintf("%d-%s.png", page, grid.BaseName))
		if err := savePNG(path, out); err != nil {
			return nil, err
		}
		written = append(written, path)
		page++
	}

	return written, nil
}

// decodePage decodes one page's samples concurrently (spec §5's "MAY add
// parallelism" allowance; SPEC_FULL.md §4.J realizes it with an
// errgroup bounded by GOMAXPROCS, merging results in sample-id order
// before the caller pastes them).
func decodePage(fileData []byte, pageSamples []sampletable.Sample, decoder codec.Decoder, width, height int, depth uint16) ([]*image.RGBA, error) {
	tiles := make([]*image.RGBA, len(pageSamples))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, s := range pageSamples {
		i, s := i, s
		g.Go(func() error {
			if s.Offset < 0 || s.Offset+s.Size > int64(len(fileData)) {
				return qerr.New(qerr.KindUnexpectedEOF, "", s.Offset, "sample extends past end of file")
			}
			data := fileData[s.Offset : s.Offset+s.Size]
			tile, err := decoder.Decode(data, width, height, depth)
			if err != nil {
				return err
			}
			tiles[i] = tile
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tiles, nil
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return qerr.Wrap(qerr.KindIO, "", -1, "creating output PNG", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return qerr.Wrap(qerr.KindIO, "", -1, "encoding output PNG", err)
	}
	return nil
}

func rotate(src *image.RGBA, degrees int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	switch degrees {
	case 90:
		dst := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(h-1-y, x, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	case -90, 270:
		dst := image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(y, w-1-x, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	case 180:
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				dst.Set(w-1-x, h-1-y, src.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		return dst
	default:
		return src
	}
}
