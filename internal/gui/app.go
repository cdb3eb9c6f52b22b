// Package gui is a raylib window that pushes a population live and draws it
// in 3D with trails and an energy trace.
package gui

import (
	"context"
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/LyesMestiri/atom/internal/experiment"
	"github.com/LyesMestiri/atom/internal/particle"
	"github.com/LyesMestiri/atom/internal/sim"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColGrid    = rl.NewColor(30, 30, 30, 255)
)

var speciesColor = map[particle.Species]rl.Color{
	particle.Electron: rl.NewColor(0, 191, 255, 255),
	particle.Positron: rl.NewColor(255, 79, 139, 255),
	particle.Ion:      rl.NewColor(255, 176, 0, 255),
	particle.Proton:   rl.NewColor(255, 106, 0, 255),
	particle.Neutral:  rl.NewColor(158, 158, 158, 255),
}

const (
	worldSize    = 20.0
	maxDrawn     = 2000
	trailCount   = 32
	maxHistory   = 120
	maxTelemetry = 300
)

type App struct {
	Sim      *sim.Simulator
	Pop      []particle.Particle
	Initial  []particle.Particle
	Name     string
	Time     float64
	Dt       float64
	Duration float64

	StepsPerFrame int
	Running       bool
	Err           error

	Camera       rl.Camera3D
	CamPosTarget rl.Vector3
	CamTgtTarget rl.Vector3

	// largest coordinate magnitude seen so far; world units per sim unit is
	// worldSize/extent
	extent float64

	History   [][]particle.Vector3
	Telemetry []float64
	Font      rl.Font
}

func initWindow() {
	rl.InitWindow(1280, 720, "atom")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

func NewApp(exp *experiment.Experiment) *App {
	cfg := exp.Config()
	a := &App{
		Sim:           exp.GetSimulator(),
		Pop:           exp.Population(),
		Name:          cfg.Name,
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		StepsPerFrame: 4,
		Running:       true,
	}
	a.Initial = make([]particle.Particle, len(a.Pop))
	copy(a.Initial, a.Pop)
	a.reset()
	return a
}

// Run opens a window for exp and blocks until it is closed.
func Run(exp *experiment.Experiment) {
	initWindow()
	defer rl.CloseWindow()
	app := NewApp(exp)
	app.Font = rl.GetFontDefault()
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if rl.IsKeyPressed(rl.KeyQ) {
			return
		}
		a.Update()
		a.Draw()
	}
}

func (a *App) reset() {
	copy(a.Pop, a.Initial)
	a.Time = 0
	a.Err = nil
	a.History = a.History[:0]
	a.Telemetry = a.Telemetry[:0]
	a.extent = 1
	a.observeExtent()

	a.CamPosTarget = rl.NewVector3(0, 0, 50)
	a.CamTgtTarget = rl.NewVector3(0, 0, 0)
	a.Camera = rl.NewCamera3D(a.CamPosTarget, a.CamTgtTarget, rl.NewVector3(0, 1, 0), 45.0, rl.CameraPerspective)
	a.record()
}

func (a *App) advance() {
	for range a.StepsPerFrame {
		if a.Time >= a.Duration {
			a.Running = false
			return
		}
		if err := a.Sim.Step(context.Background(), a.Pop, a.Time, a.Dt); err != nil {
			a.Err = err
			a.Running = false
			return
		}
		a.Time += a.Dt
	}
	a.observeExtent()
	a.record()
}

func (a *App) record() {
	n := min(trailCount, len(a.Pop))
	snap := make([]particle.Vector3, n)
	for i := range n {
		snap[i] = a.Pop[i].Position()
	}
	a.History = append(a.History, snap)
	if len(a.History) > maxHistory {
		a.History = a.History[1:]
	}

	a.Telemetry = append(a.Telemetry, sim.TotalKineticEnergy(a.Pop))
	if len(a.Telemetry) > maxTelemetry {
		a.Telemetry = a.Telemetry[1:]
	}
}

func (a *App) observeExtent() {
	for i := range a.Pop {
		p := &a.Pop[i]
		m := max(math.Abs(p.X), math.Abs(p.Y), math.Abs(p.Z))
		if !math.IsNaN(m) && !math.IsInf(m, 0) {
			a.extent = max(a.extent, m)
		}
	}
}

// world maps a simulation position into the window's coordinates.
func (a *App) world(v particle.Vector3) rl.Vector3 {
	s := worldSize / a.extent
	return rl.NewVector3(float32(v.X*s), float32(v.Y*s), float32(v.Z*s))
}

func (a *App) Update() {
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Running = !a.Running && a.Err == nil && a.Time < a.Duration
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.reset()
		a.Running = true
	}
	if rl.IsKeyPressed(rl.KeyUp) {
		a.StepsPerFrame = min(a.StepsPerFrame*2, 1024)
	}
	if rl.IsKeyPressed(rl.KeyDown) {
		a.StepsPerFrame = max(a.StepsPerFrame/2, 1)
	}

	if rl.IsKeyDown(rl.KeyW) {
		a.CamPosTarget.Y += 0.5
	}
	if rl.IsKeyDown(rl.KeyS) {
		a.CamPosTarget.Y -= 0.5
	}
	if rl.IsKeyDown(rl.KeyA) {
		a.CamPosTarget.X -= 0.5
	}
	if rl.IsKeyDown(rl.KeyD) {
		a.CamPosTarget.X += 0.5
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		a.CamPosTarget.X -= delta.X * 0.2
		a.CamPosTarget.Y += delta.Y * 0.2
	}

	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		zoom := float32(wheel) * 3.0
		diff := rl.Vector3Subtract(a.CamTgtTarget, a.CamPosTarget)
		if rl.Vector3Length(diff) > 5.0 || zoom < 0 {
			dir := rl.Vector3Normalize(diff)
			a.CamPosTarget = rl.Vector3Add(a.CamPosTarget, rl.Vector3Scale(dir, zoom))
		}
	}

	lerp := min(float32(5.0*rl.GetFrameTime()), 1.0)
	a.Camera.Position = rl.Vector3Lerp(a.Camera.Position, a.CamPosTarget, lerp)
	a.Camera.Target = rl.Vector3Lerp(a.Camera.Target, a.CamTgtTarget, lerp)

	if a.Running {
		a.advance()
	}
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	a.CustomGrid(40, 1.0)
	rl.BeginMode3D(a.Camera)
	a.RenderTrails()
	a.RenderParticles()
	rl.EndMode3D()

	a.DrawHUD()
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("atom", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.Name), 100, 34, 16, ColText)
	a.drawText(fmt.Sprintf("t = %.3f / %.3f   n = %d   x%d steps/frame   scale 1:%.3g",
		a.Time, a.Duration, len(a.Pop), a.StepsPerFrame, a.extent/worldSize), 30, 60, 14, ColText)

	a.DrawTelemetry()

	status, col := "RUNNING", ColSelect
	switch {
	case a.Err != nil:
		status, col = "HALTED", rl.Red
		a.drawText(a.Err.Error(), 30, 620, 14, rl.Red)
	case !a.Running:
		status, col = "PAUSED", ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	a.drawText("[SPACE] PAUSE  [R] RESET  [UP/DOWN] SPEED  [WASD] PAN  [Q] QUIT", 640, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}
