// Command qtvr decodes QTVR v1 object and panorama movies into paged
// mosaic PNGs (spec §1, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/rvanlaar/qtvr-mosaic/internal/config"
	"github.com/rvanlaar/qtvr-mosaic/internal/mlog"
	"github.com/rvanlaar/qtvr-mosaic/internal/mosaic"
	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtatom"
	"github.com/rvanlaar/qtvr-mosaic/internal/qtvr"
	"github.com/rvanlaar/qtvr-mosaic/internal/sampletable"
)

func main() {
	ctx := context.Background()

	app := &cli.Command{
		Name:  "qtvr",
		Usage: "generate mosaic PNGs from QTVR v1 object and panorama movies",
		Commands: []*cli.Command{
			mosaicCommand(),
			probeCommand(),
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func mosaicCommand() *cli.Command {
	return &cli.Command{
		Name:      "mosaic",
		Usage:     "decode every sample of a QTVR v1 movie into paged mosaic PNGs",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Value:   ".",
				Usage:   "directory to write mosaic PNGs into",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging, including every unknown FourCC seen",
			},
		},
		Action: runMosaic,
	}
}

func runMosaic(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return cli.Exit(fmt.Sprintf("expected exactly one FILE argument, got %d", cmd.NArg()), 1)
	}

	cfg, err := config.New(cmd.Args().First(), cmd.String("output-dir"), cmd.Bool("verbose"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid configuration: %v", err), 1)
	}

	mlog.Setup(os.Stderr, cfg.Verbose)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return cli.Exit(fmt.Sprintf("creating output directory: %v", err), 1)
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %v", cfg.File, err), 1)
	}
	mlog.Logger.Debug().Str("file", cfg.File).Str("size", humanize.Bytes(uint64(len(data)))).Msg("read input file")

	unknown := qtatom.NewUnknownFourCCs()
	root, err := qtatom.ParseRoot(data, unknown)
	if err != nil {
		return cli.Exit(fmt.Sprintf("parsing atom tree: %v", err), 1)
	}
	for _, fourcc := range unknown.List() {
		mlog.Logger.Debug().Str("fourcc", fourcc).Msg("unrecognized atom type (gobbled)")
	}

	kind, err := qtvr.Classify(root)
	if err != nil {
		var qe *qerr.Error
		if qerr.As(err, &qe) && qe.Kind == qerr.KindUnsupportedQTVR {
			mlog.Logger.Info().Msg("QTVR 2+ movies are not supported")
			return nil
		}
		mlog.Logger.Info().Err(err).Msg("not a QTVR 1 movie")
		return nil
	}

	baseName := strings.TrimSuffix(filepath.Base(cfg.File), filepath.Ext(cfg.File))

	var written []string
	switch kind {
	case qtvr.Object:
		written, err = mosaic.GenerateObject(data, root, baseName, cfg.OutputDir)
	case qtvr.Panorama:
		written, err = mosaic.GeneratePanorama(data, root, baseName, cfg.OutputDir)
	default:
		mlog.Logger.Info().Msg("not a QTVR 1 movie")
		return nil
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("generating mosaic: %v", err), 1)
	}

	names := lo.Map(written, func(p string, _ int) string { return filepath.Base(p) })
	for _, name := range names {
		mlog.Logger.Info().Str("page", name).Msg("wrote mosaic page")
	}
	fmt.Println(color.GreenString("wrote %d mosaic page(s) to %s", len(written), cfg.OutputDir))

	return nil
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     "dump a panorama movie's pHdr/pHot/strT/pLnk sample data and the unknown-FourCC ledger",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: runProbe,
	}
}

// runProbe dumps a panorama movie's first-sample pHdr/pHot/strT/pLnk
// panorama sub-atoms plus the run-wide unknown-FourCC ledger (spec
// §3.1, §3.2). It never writes mosaic PNGs — it exists purely for
// inspecting what a movie's scene track actually carries.
func runProbe(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return cli.Exit(fmt.Sprintf("expected exactly one FILE argument, got %d", cmd.NArg()), 1)
	}

	mlog.Setup(os.Stderr, cmd.Bool("verbose"))

	path := cmd.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("reading %s: %v", path, err), 1)
	}
	mlog.Logger.Debug().Str("file", path).Str("size", humanize.Bytes(uint64(len(data)))).Msg("read input file")

	unknown := qtatom.NewUnknownFourCCs()
	root, err := qtatom.ParseRoot(data, unknown)
	if err != nil {
		return cli.Exit(fmt.Sprintf("parsing atom tree: %v", err), 1)
	}

	kind, err := qtvr.Classify(root)
	if err != nil || kind != qtvr.Panorama {
		fmt.Println(color.YellowString("not a panorama movie, nothing to probe"))
		dumpUnknownFourCCs(unknown)
		return nil
	}

	panoramicTrack := qtvr.FindPanoramicTrack(root)
	if panoramicTrack == nil {
		return cli.Exit("panorama movie has no panoramic track", 1)
	}
	desc, err := qtvr.FindPanoSampleDescription(panoramicTrack)
	if err != nil {
		return cli.Exit(fmt.Sprintf("decoding pano sample description: %v", err), 1)
	}
	fmt.Printf("scene %dx%d frames, hPan [%.2f, %.2f], vPan [%.2f, %.2f], zoom [%.2f, %.2f]\n",
		desc.SceneNumFramesX, desc.SceneNumFramesY,
		desc.HPanStart, desc.HPanEnd, desc.VPanTop, desc.VPanBottom, desc.MinimumZoom, desc.MaximumZoom)

	sceneTrack, ok := qtvr.TrackByID(root)[uint32(desc.SceneTrackID)]
	if !ok {
		return cli.Exit("sceneTrackID does not resolve to a track", 1)
	}
	samples, err := sampletable.Locate(sceneTrack)
	if err != nil {
		return cli.Exit(fmt.Sprintf("locating scene track samples: %v", err), 1)
	}
	if len(samples) == 0 {
		fmt.Println(color.YellowString("scene track has no samples"))
		dumpUnknownFourCCs(unknown)
		return nil
	}

	first := samples[0]
	sampleData := data[first.Offset : first.Offset+first.Size]
	payload, err := qtvr.DecodePanoramaSample(sampleData)
	if err != nil {
		return cli.Exit(fmt.Sprintf("decoding panorama sample 0: %v", err), 1)
	}

	if payload.Header != nil {
		fmt.Printf("pHdr: node=%d defHPan=%.2f defVPan=%.2f defZoom=%.2f\n",
			payload.Header.NodeID, payload.Header.DefHPan, payload.Header.DefVPan, payload.Header.DefZoom)
	}
	if payload.HotSpots != nil {
		fmt.Printf("pHot: %d hot spot(s)\n", len(payload.HotSpots.HotSpots))
		for _, h := range payload.HotSpots.HotSpots {
			fmt.Printf("  id=%d type=%d hPan=%.2f vPan=%.2f zoom=%.2f\n", h.HotSpotID, h.Type, h.ViewHPan, h.ViewVPan, h.ViewZoom)
		}
	}
	if payload.Strings != nil {
		fmt.Printf("strT: %s\n", humanize.Bytes(uint64(len(payload.Strings))))
	}
	if payload.Links != nil {
		fmt.Printf("pLnk: %s\n", humanize.Bytes(uint64(len(payload.Links))))
	}
	for _, fourcc := range payload.Unknown.List() {
		mlog.Logger.Debug().Str("fourcc", fourcc).Msg("unrecognized panorama sample sub-atom (gobbled)")
	}

	dumpUnknownFourCCs(unknown)
	return nil
}

func dumpUnknownFourCCs(unknown *qtatom.UnknownFourCCs) {
	list := unknown.List()
	if len(list) == 0 {
		fmt.Println(color.GreenString("no unrecognized atom types seen"))
		return
	}
	fmt.Println(color.YellowString("unrecognized atom types seen: %s", strings.Join(list, ", ")))
}
