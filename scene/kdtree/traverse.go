package kdtree

import (
	"math"

	"github.com/achilleasa/prism/scene"
)

// A kd-tree over a fixed primitive set. Trees are read-only after Build and
// safe for concurrent queries.
type Tree struct {
	Root   Node
	Bounds scene.BoundingBox
	Stats  BuildStats
}

// Find the nearest hit along r with t in [tmin, tmax]. The hit is left
// untouched if nothing is found.
func (tr *Tree) Intersect(r scene.Ray, hit *scene.Hit, tmin, tmax float64) bool {
	if tr == nil || tr.Root == nil || tmin > tmax {
		return false
	}

	t0, t1, ok := tr.Bounds.IntersectInterval(r, tmin, tmax)
	if !ok {
		return false
	}

	q := query{ray: r, tmin: tmin, tmax: tmax}
	q.visit(tr.Root, t0, t1)
	if !q.found {
		return false
	}
	*hit = q.best
	return true
}

type query struct {
	ray        scene.Ray
	tmin, tmax float64

	best  scene.Hit
	found bool
}

// The upper bound for accepting new hits.
func (q *query) limit() float64 {
	if q.found && q.best.T < q.tmax {
		return q.best.T
	}
	return q.tmax
}

// Visit the subtree rooted at node whose volume the ray occupies over [t0, t1].
func (q *query) visit(node Node, t0, t1 float64) bool {
	switch n := node.(type) {
	case *Leaf:
		return q.visitLeaf(n)
	case *Interior:
		return q.visitInterior(n, t0, t1)
	}
	return false
}

func (q *query) visitLeaf(leaf *Leaf) bool {
	found := false
	for _, prim := range leaf.Primitives {
		var cur scene.Hit
		if !prim.Intersect(q.ray, &cur, q.tmin) || cur.T > q.limit() {
			continue
		}
		if !q.found || cur.T < q.best.T {
			q.best = cur
			q.found = true
			found = true
		}
	}
	return found
}

func (q *query) visitInterior(n *Interior, t0, t1 float64) bool {
	upper := math.Min(t1, q.limit())

	lEnter, lExit, lHit := n.LeftBox.IntersectInterval(q.ray, t0, upper)
	rEnter, rExit, rHit := n.RightBox.IntersectInterval(q.ray, t0, upper)

	switch {
	case !lHit && !rHit:
		return false
	case !rHit:
		return q.visit(n.Left, lEnter, lExit)
	case !lHit:
		return q.visit(n.Right, rEnter, rExit)
	}

	// Visit the child on the ray origin side of the plane first.
	leftFirst := true
	switch dir := q.ray.Dir[n.Axis]; {
	case dir < 0:
		leftFirst = false
	case dir == 0:
		leftFirst = q.ray.Origin[n.Axis] < n.Pos
	}

	near, far := n.Left, n.Right
	nearEnter, nearExit, farEnter, farExit := lEnter, lExit, rEnter, rExit
	if !leftFirst {
		near, far = far, near
		nearEnter, nearExit, farEnter, farExit = rEnter, rExit, lEnter, lExit
	}

	found := q.visit(near, nearEnter, nearExit)

	// Hits found on the near side that are not behind the far child's entry
	// point cannot be beaten by the far side.
	if q.found && q.best.T <= farEnter {
		return found
	}

	farExit = math.Min(farExit, q.limit())
	if farEnter > farExit {
		return found
	}
	if q.visit(far, farEnter, farExit) {
		found = true
	}
	return found
}
