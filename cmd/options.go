package cmd

import (
	"errors"

	"github.com/achilleasa/prism/renderer"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/scene/kdtree"
	"github.com/achilleasa/prism/scene/reader"
	"github.com/achilleasa/prism/tracer"
	"github.com/urfave/cli"
)

func treeOptions(ctx *cli.Context) kdtree.Options {
	return kdtree.Options{
		MaxDepth:    ctx.Int("tree-depth"),
		MaxLeafSize: ctx.Int("leaf-size"),
	}
}

func tracerOptions(ctx *cli.Context) tracer.Options {
	return tracer.Options{
		MaxDepth:  ctx.Int("depth"),
		Samples:   ctx.Int("samples"),
		Threshold: ctx.Float64("threshold"),
	}
}

func rendererOptions(ctx *cli.Context) renderer.Options {
	return renderer.Options{
		FrameW:    ctx.Int("width"),
		FrameH:    ctx.Int("height"),
		Threads:   ctx.Int("threads"),
		BlockSize: ctx.Int("block-size"),
		Tiles:     ctx.Bool("tiles"),
		Tracer:    tracerOptions(ctx),
	}
}

// Load the scene passed as the single command argument.
func loadScene(ctx *cli.Context) (*scene.Scene, error) {
	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument")
	}

	return reader.ReadScene(ctx.Args().First(), treeOptions(ctx))
}
