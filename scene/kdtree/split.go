package kdtree

import (
	"math"
	"sort"

	"github.com/achilleasa/prism/scene"
)

// A split plane selected by the surface area heuristic.
type SplitCandidate struct {
	Axis int
	Pos  float64

	LeftCount  int
	RightCount int

	LeftBox  scene.BoundingBox
	RightBox scene.BoundingBox

	Cost float64
}

type splitEvent struct {
	pos   float64
	enter bool

	// Set for primitives with zero thickness along the axis; holds the sign
	// of the plane normal component.
	flat       bool
	flatToLeft bool
}

// Events sharing the same position. Counts for a candidate are only
// evaluated once per group so the event order within a group does not affect
// the cost.
type splitGroup struct {
	pos           float64
	enters, exits int
	flatL, flatR  int
	left, right   int
}

// Select the split plane that minimizes
//
//	cost = leftCount * area(leftBox) + rightCount * area(rightBox)
//
// across all three axes. Only planes strictly inside bounds are considered.
// If no candidate plane exists the returned candidate has an infinite cost
// and ok is false.
//
// A primitive is counted on the left side if its min bound is strictly less
// than the plane position and on the right side if its max bound is strictly
// greater. Primitives lying exactly on the plane are routed by the sign of
// their normal along the split axis.
func SelectSplit(prims []scene.Primitive, bounds scene.BoundingBox) (best SplitCandidate, ok bool) {
	best.Cost = math.Inf(1)
	if len(prims) == 0 || bounds.IsEmpty() {
		return best, false
	}

	boxes := make([]scene.BoundingBox, len(prims))
	normals := make([]float64, 3*len(prims))
	for i, prim := range prims {
		boxes[i] = prim.BBox()
		n := scene.PlaneNormal(prim)
		copy(normals[3*i:], n[:])
	}

	// Sweep each axis in parallel
	resChan := make(chan SplitCandidate, 3)
	for axis := 0; axis < 3; axis++ {
		go func(axis int) {
			resChan <- sweepAxis(axis, boxes, normals, bounds)
		}(axis)
	}

	var perAxis [3]SplitCandidate
	for pending := 3; pending > 0; pending-- {
		c := <-resChan
		perAxis[c.Axis] = c
	}

	// Ties are resolved in favor of the lowest axis
	for _, c := range perAxis {
		if c.Cost < best.Cost {
			best = c
			ok = true
		}
	}
	return best, ok
}

func sweepAxis(axis int, boxes []scene.BoundingBox, normals []float64, bounds scene.BoundingBox) SplitCandidate {
	best := SplitCandidate{Axis: axis, Cost: math.Inf(1)}
	if bounds.Min[axis] >= bounds.Max[axis] {
		return best
	}

	events := make([]splitEvent, 0, 2*len(boxes))
	for i, box := range boxes {
		flat := box.Min[axis] == box.Max[axis]
		toLeft := normals[3*i+axis] < 0
		events = append(events,
			splitEvent{pos: box.Min[axis], enter: true, flat: flat, flatToLeft: toLeft},
			splitEvent{pos: box.Max[axis], enter: false, flat: flat, flatToLeft: toLeft},
		)
	}

	// At equal positions exit events sort before enter events
	sort.Slice(events, func(i, j int) bool {
		if events[i].pos != events[j].pos {
			return events[i].pos < events[j].pos
		}
		return !events[i].enter && events[j].enter
	})

	groups := make([]splitGroup, 0, len(events))
	for _, ev := range events {
		if len(groups) == 0 || groups[len(groups)-1].pos != ev.pos {
			groups = append(groups, splitGroup{pos: ev.pos})
		}
		g := &groups[len(groups)-1]
		switch {
		case ev.enter:
			g.enters++
			if ev.flat {
				if ev.flatToLeft {
					g.flatL++
				} else {
					g.flatR++
				}
			}
		default:
			g.exits++
		}
	}

	// Left to right: primitives whose max bound is at or before the plane
	// leave the right side.
	n := len(boxes)
	rightCount := n
	for i := range groups {
		rightCount -= groups[i].exits
		groups[i].right = rightCount + groups[i].flatR
	}

	// Right to left: primitives whose min bound is at or after the plane
	// leave the left side.
	leftCount := n
	for i := len(groups) - 1; i >= 0; i-- {
		leftCount -= groups[i].enters
		groups[i].left = leftCount + groups[i].flatL
	}

	for _, g := range groups {
		if g.pos <= bounds.Min[axis] || g.pos >= bounds.Max[axis] {
			continue
		}
		// A plane leaving every primitive on one side only cuts empty space.
		if g.left == n || g.right == n {
			continue
		}

		leftBox, rightBox := bounds.Split(axis, g.pos)
		cost := float64(g.left)*leftBox.SurfaceArea() + float64(g.right)*rightBox.SurfaceArea()
		if cost < best.Cost {
			best = SplitCandidate{
				Axis:       axis,
				Pos:        g.pos,
				LeftCount:  g.left,
				RightCount: g.right,
				LeftBox:    leftBox,
				RightBox:   rightBox,
				Cost:       cost,
			}
		}
	}

	return best
}
