package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func (a *App) CustomGrid(slices int, spacing float32) {
	halfSize := float32(slices) * spacing / 2
	rl.BeginMode3D(a.Camera)
	for i := -slices / 2; i <= slices/2; i++ {
		pos := float32(i) * spacing
		rl.DrawLine3D(rl.NewVector3(pos, -halfSize, 0), rl.NewVector3(pos, halfSize, 0), ColGrid)
		rl.DrawLine3D(rl.NewVector3(-halfSize, pos, 0), rl.NewVector3(halfSize, pos, 0), ColGrid)
	}
	rl.DrawLine3D(rl.NewVector3(0, 0, 0), rl.NewVector3(2, 0, 0), rl.Red)
	rl.DrawLine3D(rl.NewVector3(0, 0, 0), rl.NewVector3(0, 2, 0), rl.Green)
	rl.DrawLine3D(rl.NewVector3(0, 0, 0), rl.NewVector3(0, 0, 2), rl.Blue)
	rl.EndMode3D()
}

// RenderParticles draws at most maxDrawn particles, striding through larger
// populations.
func (a *App) RenderParticles() {
	stride := max(1, len(a.Pop)/maxDrawn)
	radius := float32(0.25)
	if len(a.Pop) > 100 {
		radius = 0.1
	}
	for i := 0; i < len(a.Pop); i += stride {
		p := &a.Pop[i]
		if !p.IsFinite() {
			continue
		}
		col, ok := speciesColor[p.Sort]
		if !ok {
			col = rl.White
		}
		rl.DrawSphere(a.world(p.Position()), radius, col)
	}
}

func (a *App) RenderTrails() {
	if len(a.History) < 2 {
		return
	}
	for i := range a.History[0] {
		col, ok := speciesColor[a.Pop[i].Sort]
		if !ok {
			col = rl.Gray
		}
		for k := 1; k < len(a.History); k++ {
			alpha := float32(k) / float32(len(a.History))
			rl.DrawLine3D(a.world(a.History[k-1][i]), a.world(a.History[k][i]), rl.ColorAlpha(col, alpha*0.6))
		}
	}
}

func (a *App) DrawTelemetry() {
	if len(a.Telemetry) < 2 {
		return
	}

	rectX, rectY := 30, 600
	width, height := 400, 60

	minVal, maxVal := a.Telemetry[0], a.Telemetry[0]
	for _, v := range a.Telemetry {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	points := make([]rl.Vector2, len(a.Telemetry))
	for i, val := range a.Telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.Telemetry)))*float32(width)
		norm := (val - minVal) / (maxVal - minVal)
		py := float32(rectY+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText(fmt.Sprintf("KE: %.6e", a.Telemetry[len(a.Telemetry)-1]), rectX+width+10, rectY+height-10, 14, ColText)
}
