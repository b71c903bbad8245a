package cmd

import (
	"bytes"
	"fmt"

	"github.com/achilleasa/prism/scene"
	"github.com/achilleasa/prism/tracer"
	"github.com/achilleasa/prism/types"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Trace a single pixel and display every ray and scene query it generates.
func Debug(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	frameW, frameH := ctx.Int("width"), ctx.Int("height")
	x, y := ctx.Int("x"), ctx.Int("y")
	if frameW <= 0 || frameH <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", frameW, frameH)
	}
	if x < 0 || x >= frameW || y < 0 || y >= frameH {
		return fmt.Errorf("pixel (%d, %d) is outside the %dx%d frame", x, y, frameW, frameH)
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}
	sc.Camera.SetupProjection(float64(frameW) / float64(frameH))

	tr := tracer.New("debug", sc, tracerOptions(ctx))
	defer tr.Close()

	res, err := tr.DebugTrace(x, y, frameW, frameH)
	if err != nil {
		return err
	}
	displayDebugRays(res)
	displayDebugQueries(res)

	c := tracer.Quantize(res.Color)
	logger.Noticef("pixel (%d, %d) color: %s => (%d, %d, %d)", x, y, fmtVec3(res.Color), c[0], c[1], c[2])
	return nil
}

func displayDebugRays(res tracer.DebugResult) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Depth", "Kind", "Origin", "Direction", "Weight", "Distance", "Hit t", "Normal", "Material"})
	for _, ray := range res.Rays {
		hitT, normal, material := "-", "-", "-"
		if ray.Found {
			hitT = fmt.Sprintf("%.4f", ray.Hit.T)
			normal = fmtVec3(ray.Hit.N)
			material = materialName(ray.Hit.Material)
		}
		table.Append([]string{
			fmt.Sprintf("%d", ray.Depth),
			ray.Ray.Kind.String(),
			fmtVec3(ray.Ray.Origin),
			fmtVec3(ray.Ray.Dir),
			fmtVec3(ray.Ray.Weight),
			fmt.Sprintf("%.4f", ray.Dist),
			hitT,
			normal,
			material,
		})
	}

	table.Render()
	logger.Noticef("traced %d ray(s)\n%s", len(res.Rays), buf.String())
}

func displayDebugQueries(res tracer.DebugResult) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Kind", "Origin", "Direction", "Hit t", "Normal", "Primitive"})
	for idx, q := range res.Queries {
		hitT, normal, prim := "-", "-", "-"
		if q.Found {
			hitT = fmt.Sprintf("%.4f", q.Hit.T)
			normal = fmtVec3(q.Hit.N)
			prim = fmt.Sprintf("%T", q.Hit.Primitive)
		}
		table.Append([]string{
			fmt.Sprintf("%d", idx),
			q.Ray.Kind.String(),
			fmtVec3(q.Ray.Origin),
			fmtVec3(q.Ray.Dir),
			hitT,
			normal,
			prim,
		})
	}

	table.Render()
	logger.Noticef("recorded %d scene queries\n%s", len(res.Queries), buf.String())
}

func materialName(mat *scene.Material) string {
	if mat == nil {
		return "default"
	}
	if mat.Name == "" {
		return `""`
	}
	return mat.Name
}

func fmtVec3(v types.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
