package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/achilleasa/prism/asset"
	"github.com/achilleasa/prism/renderer"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	opts := rendererOptions(ctx)
	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	// Create renderer
	r, err := renderer.NewDefault(sc, opts.Scheduler(), opts)
	if err != nil {
		return err
	}
	defer r.Close()

	// Abort rendering on SIGINT/SIGTERM
	renderCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Noticef("rendering %dx%d frame", opts.FrameW, opts.FrameH)
	err = r.Render(renderCtx)
	if err != nil {
		return err
	}

	// Display stats
	displayFrameStats(r.Stats())

	imgFile := ctx.String("out")
	start := time.Now()
	var buf bytes.Buffer
	err = r.Frame().Encode(&buf, imgFile)
	if err != nil {
		return err
	}
	err = asset.Store(imgFile, buf.Bytes())
	if err != nil {
		return err
	}
	logger.Noticef("wrote frame to %s in %d ms", imgFile, time.Since(start).Nanoseconds()/1e6)

	if thumbW := ctx.Int("thumb-width"); thumbW > 0 {
		thumbFile := thumbnailPath(imgFile)
		buf.Reset()
		err = renderer.EncodeImage(&buf, r.Frame().Thumbnail(uint(thumbW)), thumbFile)
		if err != nil {
			return err
		}
		err = asset.Store(thumbFile, buf.Bytes())
		if err != nil {
			return err
		}
		logger.Noticef("wrote %d px wide thumbnail to %s", thumbW, thumbFile)
	}

	return nil
}

// Generate the thumbnail filename for an output image: frame.png => frame-thumb.png
func thumbnailPath(imgFile string) string {
	ext := filepath.Ext(imgFile)
	return strings.TrimSuffix(imgFile, ext) + "-thumb" + ext
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Worker", "Blocks", "% of frame", "Primary", "Reflected", "Refracted", "TIR", "Escaped", "Render time"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%d", stat.Blocks),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			fmt.Sprintf("%d", stat.Rays.Primary),
			fmt.Sprintf("%d", stat.Rays.Reflected),
			fmt.Sprintf("%d", stat.Rays.Refracted),
			fmt.Sprintf("%d", stat.Rays.TIR),
			fmt.Sprintf("%d", stat.Rays.Escaped),
			fmt.Sprintf("%s", stat.RenderTime),
		})
	}
	table.SetFooter([]string{
		cpuModel(),
		fmt.Sprintf("%d", stats.Blocks),
		"",
		fmt.Sprintf("%d", stats.Rays.Primary),
		fmt.Sprintf("%d", stats.Rays.Reflected),
		fmt.Sprintf("%d", stats.Rays.Refracted),
		fmt.Sprintf("%d", stats.Rays.TIR),
		fmt.Sprintf("%d", stats.Rays.Escaped),
		fmt.Sprintf("%s", stats.RenderTime),
	})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}

// Get the model name of the host cpu.
func cpuModel() string {
	info, err := cpu.Info()
	if err != nil || len(info) == 0 || info[0].ModelName == "" {
		return "TOTAL"
	}
	return info[0].ModelName
}
