package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/tracer"
)

type Renderer interface {
	// Render frame. Cancelling ctx stops the renderer from handing out new
	// blocks; blocks already being traced are allowed to complete.
	Render(ctx context.Context) error

	// Get the rendered frame.
	Frame() *FrameBuffer

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics.
	Stats() FrameStats
}

// A renderer that distributes frame blocks to a fixed pool of cpu tracers.
type defaultRenderer struct {
	logger log.Logger

	scene     *scene.Scene
	scheduler tracer.BlockScheduler
	options   Options

	tracers []*tracer.Tracer
	frame   *FrameBuffer
	stats   FrameStats
}

// Create a new renderer for the given scene. The scene and its spatial index
// must not be modified until the renderer is closed.
func NewDefault(sc *scene.Scene, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if sc.Camera == nil {
		return nil, ErrCameraNotDefined
	}
	if opts.FrameW <= 0 || opts.FrameH <= 0 {
		return nil, ErrInvalidFrameDims
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		scene:     sc,
		scheduler: scheduler,
		options:   opts,
		frame:     NewFrameBuffer(opts.FrameW, opts.FrameH),
	}

	workers := opts.WorkerCount()
	if sc.IntersectCacheEnabled() && workers > 1 {
		r.logger.Warningf("intersection cache enabled; using a single worker instead of %d", workers)
		workers = 1
	}

	sc.Camera.SetupProjection(float64(opts.FrameW) / float64(opts.FrameH))

	for i := 0; i < workers; i++ {
		tr := tracer.New(fmt.Sprintf("cpu-%d", i), sc, opts.Tracer)
		if err := tr.Setup(opts.FrameW, opts.FrameH, r.frame.Pix); err != nil {
			r.Close()
			return nil, err
		}
		r.tracers = append(r.tracers, tr)
	}

	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	r.logger.Infof("using %d tracer(s) for %dx%d frame", len(r.tracers), opts.FrameW, opts.FrameH)
	return r, nil
}

// Shutdown renderer and any attached tracer.
func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

func (r *defaultRenderer) Frame() *FrameBuffer {
	return r.frame
}

func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Render frame. Blocks are handed out to idle tracers in scheduler order and
// the context is checked before each block is dispatched.
func (r *defaultRenderer) Render(ctx context.Context) error {
	if len(r.tracers) == 0 {
		return ErrNoTracers
	}

	start := time.Now()
	blocks := r.scheduler.Schedule(r.options.FrameW, r.options.FrameH)
	doneChan := make(chan tracer.BlockResult, len(r.tracers))

	for _, tr := range r.tracers {
		tr.ResetStats()
	}

	var err error
	nextBlock, pending := 0, 0
	dispatch := func(tr *tracer.Tracer) {
		if err != nil || nextBlock >= len(blocks) {
			return
		}
		if ctx.Err() != nil {
			err = ErrInterrupted
			return
		}
		if enqErr := tr.Enqueue(tracer.BlockRequest{Block: blocks[nextBlock], DoneChan: doneChan}); enqErr != nil {
			err = enqErr
			return
		}
		nextBlock++
		pending++
	}

	for _, tr := range r.tracers {
		dispatch(tr)
	}

	// Wait for all dispatched blocks to complete
	for pending > 0 {
		res := <-doneChan
		pending--
		r.logger.Debugf("%s completed block %+v (%d/%d)", res.Tracer.Id(), res.Block, nextBlock-pending, len(blocks))
		dispatch(res.Tracer)
	}

	r.updateStats(time.Since(start))
	if err != nil {
		r.logger.Noticef("render aborted after %d of %d blocks", nextBlock, len(blocks))
		return err
	}
	return nil
}

func (r *defaultRenderer) updateStats(renderTime time.Duration) {
	frameArea := float64(r.options.FrameW * r.options.FrameH)
	r.stats = FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
	}

	for idx, tr := range r.tracers {
		trStats := tr.Stats()
		r.stats.Tracers[idx] = TracerStat{
			Id:           tr.Id(),
			Blocks:       trStats.Blocks,
			Pixels:       trStats.Pixels,
			FramePercent: 100.0 * float64(trStats.Pixels) / frameArea,
			RenderTime:   trStats.RenderTime,
			Rays:         trStats.Rays,
		}
		r.stats.Blocks += trStats.Blocks
		r.stats.Rays.Add(trStats.Rays)
	}
}
