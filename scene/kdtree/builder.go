package kdtree

import (
	"time"

	"github.com/achilleasa/prism/log"
	"github.com/achilleasa/prism/scene"
)

// Tree construction parameters.
type Options struct {
	// Maximum number of interior levels. A value <= 0 produces a single leaf.
	MaxDepth int

	// Nodes with at most this many primitives become leaves. A value <= 0
	// produces a single leaf.
	MaxLeafSize int
}

// Default build options.
func DefaultOptions() Options {
	return Options{MaxDepth: 20, MaxLeafSize: 4}
}

// Statistics collected while building a tree.
type BuildStats struct {
	Primitives int

	// Sum of primitive references over all leaves. Primitives straddling
	// split planes are counted once per leaf.
	References int

	Nodes     int
	Leaves    int
	MaxDepth  int
	MaxLeaf   int
	EmptyLeaf int

	// Leaf counts per creation reason.
	LeafReasons [3]int

	BuildTime time.Duration
}

type treeBuilder struct {
	logger log.Logger
	opts   Options
	stats  BuildStats
}

// Build a kd-tree for the given primitive set.
func Build(prims []scene.Primitive, opts Options) *Tree {
	b := &treeBuilder{
		logger: log.New("kdtree"),
		opts:   opts,
		stats: BuildStats{
			Primitives: len(prims),
		},
	}

	bounds := scene.EmptyBoundingBox()
	for _, prim := range prims {
		bounds = bounds.Union(prim.BBox())
	}

	start := time.Now()
	root := b.partition(prims, bounds, opts.MaxDepth, 0)
	b.stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"kd-tree build time: %d ms, primitives: %d, refs: %d, nodes: %d, leaves: %d, maxDepth: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.Primitives, b.stats.References, b.stats.Nodes, b.stats.Leaves, b.stats.MaxDepth,
	)

	return &Tree{
		Root:   root,
		Bounds: bounds,
		Stats:  b.stats,
	}
}

// Partition the primitive set. The depth argument holds the remaining depth
// budget while level tracks the distance from the root.
func (b *treeBuilder) partition(prims []scene.Primitive, bounds scene.BoundingBox, depth, level int) Node {
	b.stats.Nodes++
	if level > b.stats.MaxDepth {
		b.stats.MaxDepth = level
	}

	if len(prims) <= b.opts.MaxLeafSize || b.opts.MaxLeafSize <= 0 {
		return b.createLeaf(prims, LeafSize)
	}
	if depth <= 0 {
		return b.createLeaf(prims, DepthLimit)
	}

	split, ok := SelectSplit(prims, bounds)
	if !ok {
		return b.createLeaf(prims, NoGain)
	}

	left, right := classify(prims, split.Axis, split.Pos)

	// Stop if the split does not separate anything.
	if len(left) == len(prims) || len(right) == len(prims) {
		return b.createLeaf(prims, NoGain)
	}

	return &Interior{
		Axis:     split.Axis,
		Pos:      split.Pos,
		LeftBox:  split.LeftBox,
		RightBox: split.RightBox,
		Left:     b.partition(left, split.LeftBox, depth-1, level+1),
		Right:    b.partition(right, split.RightBox, depth-1, level+1),
	}
}

// Split prims into the sets overlapping each side of the plane.
func classify(prims []scene.Primitive, axis int, pos float64) (left, right []scene.Primitive) {
	left = make([]scene.Primitive, 0, len(prims))
	right = make([]scene.Primitive, 0, len(prims))

	for _, prim := range prims {
		box := prim.BBox()
		if box.Min[axis] == pos && box.Max[axis] == pos {
			if scene.PlaneNormal(prim)[axis] < 0 {
				left = append(left, prim)
			} else {
				right = append(right, prim)
			}
			continue
		}

		if box.Min[axis] < pos {
			left = append(left, prim)
		}
		if box.Max[axis] > pos {
			right = append(right, prim)
		}
	}

	return left, right
}

func (b *treeBuilder) createLeaf(prims []scene.Primitive, reason LeafReason) Node {
	b.stats.Leaves++
	b.stats.References += len(prims)
	b.stats.LeafReasons[reason]++
	if len(prims) > b.stats.MaxLeaf {
		b.stats.MaxLeaf = len(prims)
	}
	if len(prims) == 0 {
		b.stats.EmptyLeaf++
	}

	return &Leaf{
		Primitives: prims,
		Reason:     reason,
	}
}
