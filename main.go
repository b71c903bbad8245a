package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/prism/cmd"
	"github.com/urfave/cli"
)

// Flags controlling kd-tree construction.
var treeFlags = []cli.Flag{
	cli.IntFlag{
		Name:   "tree-depth",
		Value:  20,
		Usage:  "max kd-tree depth",
		EnvVar: "PRISM_TREE_DEPTH",
	},
	cli.IntFlag{
		Name:   "leaf-size",
		Value:  4,
		Usage:  "max primitives per kd-tree leaf",
		EnvVar: "PRISM_LEAF_SIZE",
	},
}

// Flags controlling ray propagation.
var tracerFlags = []cli.Flag{
	cli.IntFlag{
		Name:   "depth",
		Value:  5,
		Usage:  "max number of reflection/refraction bounces",
		EnvVar: "PRISM_DEPTH",
	},
	cli.IntFlag{
		Name:   "samples",
		Value:  1,
		Usage:  "supersampling grid size; each pixel is sampled samples x samples times",
		EnvVar: "PRISM_SAMPLES",
	},
	cli.Float64Flag{
		Name:   "threshold",
		Value:  0,
		Usage:  "skip reflected/refracted rays whose weight does not exceed this value",
		EnvVar: "PRISM_THRESHOLD",
	},
}

// Frame dimension flags.
var frameFlags = []cli.Flag{
	cli.IntFlag{
		Name:   "width",
		Value:  512,
		Usage:  "frame width",
		EnvVar: "PRISM_WIDTH",
	},
	cli.IntFlag{
		Name:   "height",
		Value:  512,
		Usage:  "frame height",
		EnvVar: "PRISM_HEIGHT",
	},
}

func concatFlags(flagLists ...[]cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0)
	for _, list := range flagLists {
		out = append(out, list...)
	}
	return out
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "prism"
	app.Usage = "render scenes using kd-tree accelerated ray tracing"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "env",
			Value: ".env",
			Usage: "load environment overrides from this file",
		},
	}
	app.Before = cmd.LoadEnv
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render single frame",
			Description: `
Parse a scene definition from a wavefront obj file, build a kd-tree to optimize
ray intersection tests and render a still frame using all available CPUs.

The output format is selected by the file extension. Output files may also be
uploaded to s3 by specifying an s3://bucket/key destination.`,
			ArgsUsage: "scene_file.obj",
			Flags: concatFlags(
				frameFlags,
				tracerFlags,
				treeFlags,
				[]cli.Flag{
					cli.IntFlag{
						Name:   "threads",
						Value:  0,
						Usage:  "number of render workers; 0 uses one worker per logical cpu",
						EnvVar: "PRISM_THREADS",
					},
					cli.IntFlag{
						Name:   "block-size",
						Value:  16,
						Usage:  "height of each row block or side of each tile",
						EnvVar: "PRISM_BLOCK_SIZE",
					},
					cli.BoolFlag{
						Name:   "tiles",
						Usage:  "schedule square tiles instead of row blocks",
						EnvVar: "PRISM_TILES",
					},
					cli.StringFlag{
						Name:   "out, o",
						Value:  "frame.png",
						Usage:  "image filename for the rendered frame",
						EnvVar: "PRISM_OUT",
					},
					cli.IntFlag{
						Name:  "thumb-width",
						Value: 0,
						Usage: "also write a thumbnail with this width next to the frame",
					},
				},
			),
			Action: cmd.RenderFrame,
		},
		{
			Name:  "debug",
			Usage: "trace a single pixel and display all generated rays",
			Description: `
Trace the primary ray for a single pixel while recording every scene
intersection query, including shadow rays. Pixel (0, 0) is the bottom-left
corner of the frame.`,
			ArgsUsage: "scene_file.obj",
			Flags: concatFlags(
				frameFlags,
				tracerFlags,
				treeFlags,
				[]cli.Flag{
					cli.IntFlag{
						Name:  "x",
						Usage: "pixel x coordinate",
					},
					cli.IntFlag{
						Name:  "y",
						Usage: "pixel y coordinate",
					},
				},
			),
			Action: cmd.Debug,
		},
		{
			Name:      "info",
			Usage:     "display scene and kd-tree statistics",
			ArgsUsage: "scene_file.obj",
			Flags:     treeFlags,
			Action:    cmd.ShowSceneInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
