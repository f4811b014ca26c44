package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// External delegates Cinepak ("cvid") and SMC ("smc ") pixel
// reconstruction to an ffmpeg subprocess, following the same
// exec.CommandContext pattern shishobooks-shisho's plugin ffmpeg bridge
// uses (SPEC_FULL.md §4.G). The sample has no container around it, so it
// is first re-wrapped in a throwaway single-sample QuickTime container
// ffmpeg can identify the codec from.
//
// SMC only ever appears in 8-bit palettized hot-spot tracks
// (original_source/qtvr/mosaic.py's create_image special-cases exactly
// this: it asks the decoder for the raw index plane and applies the
// QuickTime default palette itself, rather than trusting the decoder to
// guess one). This bridge does the same: when Palette is set, ffmpeg is
// asked for the raw gray8 index plane and the palette is applied here.
type External struct {
	Codec   string
	Palette color.Palette
	Timeout time.Duration
}

const externalDecodeTimeout = 10 * time.Second

func (e External) Decode(data []byte, width, height int, depth uint16) (*image.RGBA, error) {
	timeout := e.Timeout
	if timeout == 0 {
		timeout = externalDecodeTimeout
	}

	container := buildSyntheticContainer(data, width, height, depth, e.Codec)

	tmpDir, err := os.MkdirTemp("", "qtvr-ext-")
	if err != nil {
		return nil, qerr.Wrap(qerr.KindIO, e.Codec, -1, "creating scratch directory for external decode", err)
	}
	defer os.RemoveAll(tmpDir)

	inPath := filepath.Join(tmpDir, uuid.NewString()+".mov")
	if err := os.WriteFile(inPath, container, 0o600); err != nil {
		return nil, qerr.Wrap(qerr.KindIO, e.Codec, -1, "writing synthetic container scratch file", err)
	}

	pixFmt := "rgb24"
	if e.Palette != nil {
		pixFmt = "gray8"
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-i", inPath,
		"-f", "rawvideo", "-pix_fmt", pixFmt,
		"-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, qerr.Wrap(qerr.KindDecode, e.Codec, -1, "ffmpeg exited with an error: "+stderr.String(), err)
	}

	raw := stdout.Bytes()
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	if e.Palette != nil {
		want := width * height
		if len(raw) != want {
			return nil, qerr.New(qerr.KindDecode, e.Codec, -1, "ffmpeg gray8 output size did not match width*height")
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				idx := raw[y*width+x]
				r, g, b, _ := e.Palette[int(idx)%len(e.Palette)].RGBA()
				setPixel(img, x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8))
			}
		}
		return img, nil
	}

	want := width * height * 3
	if len(raw) != want {
		return nil, qerr.New(qerr.KindDecode, e.Codec, -1, "ffmpeg rawvideo output size did not match width*height*3")
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			setPixel(img, x, y, raw[i], raw[i+1], raw[i+2])
		}
	}
	return img, nil
}
