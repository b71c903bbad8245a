package tracer

// A rectangular frame region. Y grows upwards with row 0 at the bottom of the
// frame.
type Block struct {
	X, Y int
	W, H int
}

// Clip the block to a frameW x frameH frame.
func (b Block) Clip(frameW, frameH int) Block {
	if b.X < 0 {
		b.W += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.H += b.Y
		b.Y = 0
	}
	if b.X+b.W > frameW {
		b.W = frameW - b.X
	}
	if b.Y+b.H > frameH {
		b.H = frameH - b.Y
	}
	if b.W < 0 {
		b.W = 0
	}
	if b.H < 0 {
		b.H = 0
	}
	return b
}

// Block area in pixels.
func (b Block) Area() int {
	return b.W * b.H
}

// The BlockScheduler interface is implemented by all block scheduling algorithms.
type BlockScheduler interface {
	// Split a frame into a list of non-overlapping blocks that cover it. The
	// blocks are handed out to tracers in list order.
	Schedule(frameW, frameH int) []Block
}

// The row scheduler splits the frame into horizontal strips.
type rowScheduler struct {
	rows int
}

// Create a scheduler that emits strips of the given height. The last strip
// may be shorter.
func NewRowScheduler(rows int) BlockScheduler {
	if rows < 1 {
		rows = 1
	}
	return &rowScheduler{rows: rows}
}

func (sch *rowScheduler) Schedule(frameW, frameH int) []Block {
	if frameW <= 0 || frameH <= 0 {
		return nil
	}

	blocks := make([]Block, 0, (frameH+sch.rows-1)/sch.rows)
	for y := 0; y < frameH; y += sch.rows {
		blocks = append(blocks, Block{X: 0, Y: y, W: frameW, H: sch.rows}.Clip(frameW, frameH))
	}
	return blocks
}

// The tile scheduler splits the frame into square tiles.
type tileScheduler struct {
	size int
}

// Create a scheduler that emits size x size tiles in row-major order. Tiles on
// the top and right edges may be smaller.
func NewTileScheduler(size int) BlockScheduler {
	if size < 1 {
		size = 1
	}
	return &tileScheduler{size: size}
}

func (sch *tileScheduler) Schedule(frameW, frameH int) []Block {
	if frameW <= 0 || frameH <= 0 {
		return nil
	}

	tilesX := (frameW + sch.size - 1) / sch.size
	tilesY := (frameH + sch.size - 1) / sch.size
	blocks := make([]Block, 0, tilesX*tilesY)
	for y := 0; y < frameH; y += sch.size {
		for x := 0; x < frameW; x += sch.size {
			blocks = append(blocks, Block{X: x, Y: y, W: sch.size, H: sch.size}.Clip(frameW, frameH))
		}
	}
	return blocks
}
