package graph

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/factgraph/pkg/common"
	"github.com/OFFIS-RIT/factgraph/pkg/logger"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	nodeRadius = 18.0
	margin     = 80.0
	arrowSize  = 10.0
)

// RenderAll writes one image per relation into folder and returns the paths
// that were written. A failing view is logged and skipped.
func (g *GraphClient) RenderAll(ctx context.Context, folder string) []string {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		logger.Error("[Graph][RenderAll] Failed to create folder", "folder", folder, "err", err)
		return nil
	}

	written := make([]string, 0, len(common.Relations))
	for _, rel := range common.Relations {
		path := filepath.Join(folder, rel.FileName)
		if err := g.Render(ctx, rel, path); err != nil {
			logger.Error("[Graph][RenderAll] Failed to render view", "relation", rel.Type, "err", err)
			continue
		}
		written = append(written, path)
	}

	logger.Info("[Graph][RenderAll] Graph views rendered", "folder", folder, "views", len(written))
	return written
}

// Render draws one relation to a PNG at path. An empty relation yields a
// blank image.
func (g *GraphClient) Render(ctx context.Context, rel common.Relation, path string) error {
	pairs, err := g.store.Pairs(ctx, rel)
	if err != nil {
		return fmt.Errorf("failed to query %s pairs: %w", rel.Type, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rg := buildRelationGraph(pairs)
	pos := rg.positions(g.layoutUpdates)
	sweeps := avoidOverlap(pos, g.overlapThreshold, g.overlapStep, g.maxSweeps)
	if sweeps == g.maxSweeps {
		logger.Warn("[Graph][Render] Overlap pass hit its sweep limit", "relation", rel.Type, "nodes", len(pos))
	}

	dc := g.draw(rg, pos, targetColors(pairs), rel.Type)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	logger.Debug("[Graph][Render] View saved", "relation", rel.Type, "nodes", len(pos), "edges", len(rg.edges), "path", path)
	return nil
}

func (g *GraphClient) draw(rg *relationGraph, pos []r2.Vec, colors map[string]string, label string) *gg.Context {
	dc := gg.NewContext(g.width, g.height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	if len(pos) == 0 {
		return dc
	}

	// the overlap pass can push nodes out of the unit square
	fit := make([]r2.Vec, len(pos))
	copy(fit, pos)
	normalize(fit)

	w := float64(g.width) - 2*margin
	h := float64(g.height) - 2*margin
	px := make([]r2.Vec, len(fit))
	for i, p := range fit {
		px[i] = r2.Vec{X: margin + p.X*w, Y: margin + p.Y*h}
	}

	for _, e := range rg.edges {
		from, to := px[e[0]], px[e[1]]
		color := nodeColor(colors, rg.names[e[1]])
		drawArrow(dc, from, to, color)

		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored(label, (from.X+to.X)/2, (from.Y+to.Y)/2, 0.5, 0.5)
	}

	for id, p := range px {
		dc.DrawCircle(p.X, p.Y, nodeRadius)
		dc.SetHexColor(nodeColor(colors, rg.names[id]))
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	lineHeight := dc.FontHeight() * 1.2
	for id, p := range px {
		lines := strings.Split(splitLabel(rg.names[id], g.labelWidth), "\n")
		top := p.Y + nodeRadius + lineHeight/2
		for i, line := range lines {
			dc.DrawStringAnchored(line, p.X, top+float64(i)*lineHeight, 0.5, 0.5)
		}
	}

	return dc
}

// drawArrow draws a line from the border of the source node to the border of
// the target node with a filled arrow head.
func drawArrow(dc *gg.Context, from, to r2.Vec, color string) {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length <= 2*nodeRadius {
		return
	}
	ux, uy := dx/length, dy/length

	start := r2.Vec{X: from.X + ux*nodeRadius, Y: from.Y + uy*nodeRadius}
	tip := r2.Vec{X: to.X - ux*nodeRadius, Y: to.Y - uy*nodeRadius}

	dc.SetHexColor(color)
	dc.SetLineWidth(1.5)
	dc.DrawLine(start.X, start.Y, tip.X, tip.Y)
	dc.Stroke()

	baseX, baseY := tip.X-ux*arrowSize, tip.Y-uy*arrowSize
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(baseX-uy*arrowSize/2, baseY+ux*arrowSize/2)
	dc.LineTo(baseX+uy*arrowSize/2, baseY-ux*arrowSize/2)
	dc.ClosePath()
	dc.Fill()
}
