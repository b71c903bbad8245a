package kdtree

import "github.com/achilleasa/prism/scene"

// Node is either a *Leaf or an *Interior.
type Node interface {
	isNode()
}

// The reason a leaf was created.
type LeafReason uint8

const (
	// The primitive count fell to the leaf size threshold.
	LeafSize LeafReason = iota

	// The depth budget was exhausted.
	DepthLimit

	// No split could separate the primitive set.
	NoGain
)

func (r LeafReason) String() string {
	switch r {
	case DepthLimit:
		return "depth limit"
	case NoGain:
		return "no gain"
	default:
		return "leaf size"
	}
}

// A terminal node referencing the primitives overlapping its volume. The
// primitives are owned by the scene.
type Leaf struct {
	Primitives []scene.Primitive
	Reason     LeafReason
}

// A node partitioned by an axis-aligned plane. Primitives straddling the
// plane are referenced by both subtrees.
type Interior struct {
	Axis int
	Pos  float64

	LeftBox  scene.BoundingBox
	RightBox scene.BoundingBox

	Left  Node
	Right Node
}

func (*Leaf) isNode()     {}
func (*Interior) isNode() {}
