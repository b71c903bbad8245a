package tracer

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/types"
)

// Ray propagation parameters. Options are captured once per render and never
// modified while tracing.
type Options struct {
	// Maximum recursion depth. Depth 0 renders a black frame; depth 1 renders
	// directly visible surfaces without reflection or refraction.
	MaxDepth int

	// Supersampling grid size per pixel axis. Each pixel is sampled
	// Samples * Samples times.
	Samples int

	// Reflected and refracted rays whose accumulated weight does not exceed
	// this value on any channel are not traced.
	Threshold float64
}

// Default tracer options.
func DefaultOptions() Options {
	return Options{MaxDepth: 5, Samples: 1}
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	Block Block

	// A channel to signal on block completion.
	DoneChan chan<- BlockResult
}

// Reported by a tracer after rendering a block.
type BlockResult struct {
	Tracer *Tracer
	Block  Block
}

// Ray counters.
type RayStats struct {
	Primary   uint64
	Reflected uint64
	Refracted uint64

	// Refracted rays suppressed by total internal reflection.
	TIR uint64

	// Rays that left the scene.
	Escaped uint64
}

// Add the counters from other.
func (s *RayStats) Add(other RayStats) {
	s.Primary += other.Primary
	s.Reflected += other.Reflected
	s.Refracted += other.Refracted
	s.TIR += other.TIR
	s.Escaped += other.Escaped
}

// Tracer statistics.
type Stats struct {
	Blocks int
	Pixels int

	// Accumulated time spent rendering blocks.
	RenderTime time.Duration

	Rays RayStats
}

// Tracer implements a recursive ray propagator. Each tracer renders blocks of
// the frame on its own go-routine; scene data is shared and read-only.
type Tracer struct {
	sync.Mutex

	logger log.Logger
	id     string

	scene *scene.Scene
	opts  Options

	// frame dims and the RGB output buffer
	frameW, frameH int
	frameBuffer    []uint8

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	wg    sync.WaitGroup
	stats Stats

	// Set while running a debug trace.
	debugRays []DebugRay
	debugging bool
}

// Used for primitives without a material.
var defaultMaterial = scene.NewMaterial("default")

// Create a new tracer for the given scene.
func New(id string, sc *scene.Scene, opts Options) *Tracer {
	if opts.Samples < 1 {
		opts.Samples = 1
	}

	return &Tracer{
		logger:       log.New(id),
		id:           id,
		scene:        sc,
		opts:         opts,
		blockReqChan: make(chan BlockRequest, 1),
	}
}

// Get tracer id.
func (tr *Tracer) Id() string {
	return tr.id
}

// Get tracer options.
func (tr *Tracer) Options() Options {
	return tr.opts
}

// Setup the tracer output buffer and start the block worker. The frame buffer
// holds frameW * frameH RGB triplets with row 0 at the bottom of the image.
func (tr *Tracer) Setup(frameW, frameH int, frameBuffer []uint8) error {
	if frameW <= 0 || frameH <= 0 {
		return fmt.Errorf("tracer %s: invalid frame dims %dx%d", tr.id, frameW, frameH)
	}
	if len(frameBuffer) < 3*frameW*frameH {
		return fmt.Errorf("tracer %s: frame buffer too small; expected %d bytes, got %d", tr.id, 3*frameW*frameH, len(frameBuffer))
	}

	tr.Lock()
	defer tr.Unlock()

	tr.frameW, tr.frameH = frameW, frameH
	tr.frameBuffer = frameBuffer

	if tr.closeChan == nil {
		tr.startWorker()
	}
	return nil
}

// Shutdown the block worker.
func (tr *Tracer) Close() {
	tr.Lock()
	defer tr.Unlock()

	// If the worker is running shut it down
	if tr.closeChan != nil {
		tr.closeChan <- struct{}{}

		// wait for worker to ack close and shutdown channel
		<-tr.closeChan
		close(tr.closeChan)
		tr.closeChan = nil
	}
	tr.wg.Wait()
}

// Enqueue block request. Each tracer processes at most one pending request.
func (tr *Tracer) Enqueue(blockReq BlockRequest) error {
	select {
	case tr.blockReqChan <- blockReq:
		return nil
	default:
		// drop the request if worker is busy
		tr.logger.Error("request processor did not receive block request")
		return ErrBusy
	}
}

// Retrieve tracer statistics. Must not be called while the tracer has pending
// block requests.
func (tr *Tracer) Stats() Stats {
	return tr.stats
}

// Reset tracer statistics.
func (tr *Tracer) ResetStats() {
	tr.stats = Stats{}
}

// Spawn a go-routine to process block render requests.
func (tr *Tracer) startWorker() {
	tr.closeChan = make(chan struct{})
	readyChan := make(chan struct{})

	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-tr.blockReqChan:
				startTime := time.Now()
				tr.RenderBlock(blockReq.Block)
				tr.stats.RenderTime += time.Since(startTime)
				tr.stats.Blocks++

				blockReq.DoneChan <- BlockResult{Tracer: tr, Block: blockReq.Block}
			case <-tr.closeChan:
				// Ack close
				tr.closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
	tr.logger.Debugf("started block worker for %dx%d frame", tr.frameW, tr.frameH)
}

// Render the pixels of a block into the frame buffer.
func (tr *Tracer) RenderBlock(block Block) {
	block = block.Clip(tr.frameW, tr.frameH)
	for y := block.Y; y < block.Y+block.H; y++ {
		for x := block.X; x < block.X+block.W; x++ {
			rgb := Quantize(tr.TracePixel(x, y))
			offset := 3 * (y*tr.frameW + x)
			copy(tr.frameBuffer[offset:offset+3], rgb[:])
		}
	}
	tr.stats.Pixels += block.W * block.H
}

// Trace pixel (x, y) using the configured supersampling grid. The result is
// clamped to [0, 1].
func (tr *Tracer) TracePixel(x, y int) types.Vec3 {
	return tr.tracePixel(x, y, tr.frameW, tr.frameH)
}

func (tr *Tracer) tracePixel(x, y, frameW, frameH int) types.Vec3 {
	return Supersample(x, y, frameW, frameH, tr.opts.Samples, func(u, v float64) types.Vec3 {
		tr.stats.Rays.Primary++
		return tr.Trace(tr.scene.Camera.RayThrough(u, v), tr.opts.MaxDepth, 0)
	})
}

// Trace r through the scene and return its color contribution. The dist
// argument holds the path length travelled before r was spawned.
func (tr *Tracer) Trace(r scene.Ray, depth int, dist float64) types.Vec3 {
	if depth <= 0 {
		return types.Vec3{}
	}

	var hit scene.Hit
	found := tr.scene.Intersect(r, &hit)
	if tr.debugging {
		tr.debugRays = append(tr.debugRays, DebugRay{Ray: r, Depth: depth, Dist: dist, Hit: hit, Found: found})
	}
	if !found {
		tr.stats.Rays.Escaped++
		if tr.scene.Environment != nil {
			return tr.scene.Environment.Color(r.Dir)
		}
		return types.Vec3{}
	}

	mat := hit.Material
	if mat == nil {
		mat = defaultMaterial
	}

	color := mat.Shade(tr.scene, r, &hit)
	p := r.At(hit.T)
	dist += hit.T * r.Dir.Len()

	if kr := mat.Kr.At(&hit); !kr.IsZero() && r.Weight.MulVec(kr).MaxComponent() > tr.opts.Threshold {
		tr.stats.Rays.Reflected++
		reflRay := r.Derive(p, Reflect(r.Dir.Normalize(), hit.N), kr, scene.ReflectionRay)
		color = color.Add(kr.MulVec(tr.Trace(reflRay, depth-1, dist)))
	}

	if kt := mat.Kt.At(&hit); kt.AllGreater(0) && r.Weight.MulVec(kt).MaxComponent() > tr.opts.Threshold {
		refrDir, ok := Refract(r.Dir, hit.N, mat.Index)
		if !ok {
			tr.stats.Rays.TIR++
			return color
		}

		tr.stats.Rays.Refracted++
		refrRay := r.Derive(p, refrDir, kt, scene.RefractionRay)
		color = color.Add(kt.MulVec(tr.Trace(refrRay, depth-1, dist)))
	}

	return color
}

// Sample pixel (x, y) of a w x h frame on a regular samples x samples grid and
// return the unweighted average of the clamped sample colors. The callback
// receives normalized window coordinates with (0, 0) at the bottom-left
// corner.
func Supersample(x, y, w, h, samples int, fn func(u, v float64) types.Vec3) types.Vec3 {
	if samples < 1 {
		samples = 1
	}

	var sum types.Vec3
	step := 1.0 / float64(samples)
	for sy := 0; sy < samples; sy++ {
		v := (float64(y) + (float64(sy)+0.5)*step) / float64(h)
		for sx := 0; sx < samples; sx++ {
			u := (float64(x) + (float64(sx)+0.5)*step) / float64(w)
			sum = sum.Add(fn(u, v).Clamp(0, 1))
		}
	}

	return sum.Mul(1.0 / float64(samples*samples))
}

// Convert a color to 8-bit RGB. Channels are clamped to [0, 1] and rounded to
// the nearest 1/255 step.
func Quantize(c types.Vec3) [3]uint8 {
	c = c.Clamp(0, 1)
	return [3]uint8{
		uint8(math.Round(255 * c[0])),
		uint8(math.Round(255 * c[1])),
		uint8(math.Round(255 * c[2])),
	}
}
