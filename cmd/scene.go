package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/scene/kdtree"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display scene and kd-tree info.
func ShowSceneInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	displaySceneInfo(sc)
	if tree, ok := sc.Index().(*kdtree.Tree); ok {
		displayTreeStats(tree.Stats)
	}
	return nil
}

func displaySceneInfo(sc *scene.Scene) {
	bounds := sc.Bounds()

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})
	table.AppendBulk([][]string{
		{"Primitives", fmt.Sprintf("%d", len(sc.Primitives))},
		{"Materials", fmt.Sprintf("%d", len(sc.Materials))},
		{"Lights", fmt.Sprintf("%d", len(sc.Lights))},
		{"Ambient", fmtVec3(sc.Ambient)},
		{"Environment map", fmt.Sprintf("%t", sc.Environment != nil)},
		{"Bounds min", fmtVec3(bounds.Min)},
		{"Bounds max", fmtVec3(bounds.Max)},
		{"Camera", sc.Camera.String()},
	})

	table.Render()
	logger.Noticef("scene information\n%s", buf.String())
}

func displayTreeStats(stats kdtree.BuildStats) {
	avgLeaf := 0.0
	if stats.Leaves > 0 {
		avgLeaf = float64(stats.References) / float64(stats.Leaves)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Property", "Value"})
	table.AppendBulk([][]string{
		{"Primitives", fmt.Sprintf("%d", stats.Primitives)},
		{"References", fmt.Sprintf("%d", stats.References)},
		{"Nodes", fmt.Sprintf("%d", stats.Nodes)},
		{"Leaves", fmt.Sprintf("%d", stats.Leaves)},
		{"Empty leaves", fmt.Sprintf("%d", stats.EmptyLeaf)},
		{"Max depth", fmt.Sprintf("%d", stats.MaxDepth)},
		{"Max leaf size", fmt.Sprintf("%d", stats.MaxLeaf)},
		{"Avg leaf size", fmt.Sprintf("%.2f", avgLeaf)},
	})
	for reason := kdtree.LeafSize; reason <= kdtree.NoGain; reason++ {
		table.Append([]string{fmt.Sprintf("Leaves (%s)", reason), fmt.Sprintf("%d", stats.LeafReasons[reason])})
	}
	table.Append([]string{"Build time", stats.BuildTime.String()})

	table.Render()
	logger.Noticef("kd-tree statistics\n%s", buf.String())
}
