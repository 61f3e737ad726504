// Package minimap renders a top-down diagnostic view of the match as PNG.
// It exists for the inspector: when an agent beelines into a wall or a
// remote pose rubber-bands, one frame usually tells you why.
package minimap

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/fogleman/gg"

	"city-chase/internal/config"
	"city-chase/internal/geom"
	"city-chase/internal/sim"
)

const (
	defaultScale = 3.0 // pixels per world unit
	margin       = 20.0
)

// personalityColors indexes by personality name for stable agent tints.
var personalityColors = map[string][3]float64{
	"chaser":   {0.90, 0.22, 0.21},
	"ambusher": {0.94, 0.55, 0.20},
	"pincer":   {0.61, 0.35, 0.85},
	"erratic":  {0.26, 0.70, 0.85},
}

// Renderer draws match state onto a fixed-size canvas.
type Renderer struct {
	world config.WorldConfig
	scale float64
}

// NewRenderer creates a renderer for the given world footprint.
func NewRenderer(world config.WorldConfig) *Renderer {
	return &Renderer{world: world, scale: defaultScale}
}

// Size returns the canvas dimensions in pixels.
func (r *Renderer) Size() (int, int) {
	w := int(r.world.Width*r.scale + 2*margin)
	h := int(r.world.Depth*r.scale + 2*margin)
	return w, h
}

// toCanvas maps a world position onto the canvas. World Z grows north,
// canvas Y grows down, so Z flips.
func (r *Renderer) toCanvas(p geom.Vec3) (float64, float64) {
	x := margin + p.X*r.scale
	y := margin + (r.world.Depth-p.Z)*r.scale
	return x, y
}

// RenderPNG draws the current match state and returns the encoded PNG.
func (r *Renderer) RenderPNG(stats sim.Stats, players []sim.PlayerView, agents []sim.AgentView) ([]byte, error) {
	w, h := r.Size()
	dc := gg.NewContext(w, h)

	// Background and world border
	dc.SetRGB(0.10, 0.11, 0.13)
	dc.Clear()
	dc.SetRGB(0.25, 0.27, 0.30)
	dc.SetLineWidth(2)
	x0, y0 := r.toCanvas(geom.Vec3{X: 0, Z: r.world.Depth})
	dc.DrawRectangle(x0, y0, r.world.Width*r.scale, r.world.Depth*r.scale)
	dc.Stroke()

	// Scatter corners
	m := r.world.CornerMargin
	corners := []geom.Vec3{
		{X: r.world.Width - m, Z: r.world.Depth - m},
		{X: m, Z: r.world.Depth - m},
		{X: r.world.Width - m, Z: m},
		{X: m, Z: m},
	}
	dc.SetRGB(0.35, 0.38, 0.42)
	for _, c := range corners {
		cx, cy := r.toCanvas(c)
		dc.DrawCircle(cx, cy, 4)
		dc.Stroke()
	}

	// Agent target lines first so markers draw on top
	dc.SetLineWidth(1)
	for _, a := range agents {
		col, ok := personalityColors[a.Personality]
		if !ok {
			col = [3]float64{0.6, 0.6, 0.6}
		}
		ax, ay := r.toCanvas(a.Position)
		tx, ty := r.toCanvas(a.Target)
		dc.SetRGBA(col[0], col[1], col[2], 0.35)
		dc.DrawLine(ax, ay, tx, ty)
		dc.Stroke()
	}

	// Agents
	for _, a := range agents {
		col, ok := personalityColors[a.Personality]
		if !ok {
			col = [3]float64{0.6, 0.6, 0.6}
		}
		ax, ay := r.toCanvas(a.Position)
		dc.SetRGB(col[0], col[1], col[2])
		dc.DrawCircle(ax, ay, 6)
		dc.Fill()
		if a.CaptureEligible {
			dc.SetRGBA(col[0], col[1], col[2], 0.5)
			dc.DrawCircle(ax, ay, 9)
			dc.Stroke()
		}
	}

	// Players: green when active, gray when down, hollow when stale
	for _, p := range players {
		px, py := r.toCanvas(p.Position)
		if p.Status == sim.StatusIncapacitated {
			dc.SetRGB(0.5, 0.5, 0.5)
		} else {
			dc.SetRGB(0.30, 0.82, 0.40)
		}
		if p.Stale {
			dc.DrawCircle(px, py, 6)
			dc.Stroke()
		} else {
			dc.DrawCircle(px, py, 6)
			dc.Fill()
		}
		dc.DrawString(p.ID, px+8, py-8)
	}

	// Header line
	dc.SetRGB(0.85, 0.87, 0.90)
	header := fmt.Sprintf("step %d  phase %s  tier %s  smell %.1f  agents %d  players %d",
		stats.StepNum, stats.Phase, stats.Tier, stats.Smell, stats.AgentCount, stats.PlayerCount)
	dc.DrawString(header, margin, 14)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encode minimap: %w", err)
	}
	return buf.Bytes(), nil
}
