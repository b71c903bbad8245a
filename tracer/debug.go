package tracer

import (
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/types"
)

// A ray traced by the propagator while debugging a pixel.
type DebugRay struct {
	Ray   scene.Ray
	Depth int

	// Path length before the ray was spawned.
	Dist float64

	Hit   scene.Hit
	Found bool
}

// The result of tracing a single pixel in debug mode.
type DebugResult struct {
	X, Y  int
	Color types.Vec3

	// Propagated rays in the order they were traced.
	Rays []DebugRay

	// All scene queries including shadow rays.
	Queries []scene.CachedIntersection
}

// Trace a single pixel of a frameW x frameH frame and record every ray and
// scene query. The scene intersection cache is cleared before tracing and
// left enabled afterwards. The frame dims configured by Setup are not
// modified. DebugTrace must not run concurrently with other tracers sharing
// the same scene and fails with ErrWorkerRunning if the block worker of this
// tracer has been started.
func (tr *Tracer) DebugTrace(x, y, frameW, frameH int) (DebugResult, error) {
	tr.Lock()
	defer tr.Unlock()

	if tr.closeChan != nil {
		return DebugResult{}, ErrWorkerRunning
	}

	tr.scene.EnableIntersectCache(true)
	tr.scene.ClearIntersectCache()

	tr.debugging = true
	tr.debugRays = nil
	color := tr.tracePixel(x, y, frameW, frameH)
	tr.debugging = false

	res := DebugResult{
		X:       x,
		Y:       y,
		Color:   color,
		Rays:    tr.debugRays,
		Queries: tr.scene.CachedIntersections(),
	}
	tr.debugRays = nil
	return res, nil
}
