package renderer

import (
	"runtime"

	"github.com/achilleasa/prism/tracer"
	"github.com/shirou/gopsutil/cpu"
)

type Options struct {
	// Frame dims.
	FrameW int
	FrameH int

	// Number of tracer workers. A value <= 0 selects one worker per logical
	// cpu.
	Threads int

	// Block height (row scheduling) or tile side length (tile scheduling).
	BlockSize int

	// Use square tiles instead of horizontal strips.
	Tiles bool

	// Ray propagation options shared by all workers.
	Tracer tracer.Options
}

// Resolve the number of tracer workers.
func (opts Options) WorkerCount() int {
	if opts.Threads > 0 {
		return opts.Threads
	}

	if count, err := cpu.Counts(true); err == nil && count > 0 {
		return count
	}
	return runtime.NumCPU()
}

// Create the block scheduler selected by the options.
func (opts Options) Scheduler() tracer.BlockScheduler {
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = 16
	}
	if opts.Tiles {
		return tracer.NewTileScheduler(blockSize)
	}
	return tracer.NewRowScheduler(blockSize)
}
