package renderer

import (
	"time"

	"github.com/achilleasa/prism/tracer"
)

type TracerStat struct {
	// The tracer id.
	Id string

	// Rendered blocks and the percentage of total frame area they represent.
	Blocks       int
	Pixels       int
	FramePercent float64

	// Render time for assigned blocks
	RenderTime time.Duration

	Rays tracer.RayStats
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Totals over all tracers.
	Blocks int
	Rays   tracer.RayStats

	// Total render time for entire frame.
	RenderTime time.Duration
}
