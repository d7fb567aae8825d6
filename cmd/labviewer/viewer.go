package main

import (
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/internal/watch"
	"github.com/gonewx/chemlab/pkg/interp"
	"github.com/gonewx/chemlab/pkg/player"
	"github.com/gonewx/chemlab/pkg/timeline"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	screenWidth  = 1024
	screenHeight = 768

	// 每个场景单位对应的像素数
	pxPerUnit = 40.0

	// 缩放为 1 时器材的基础尺寸（像素）
	baseWidth  = 36.0
	baseHeight = 48.0

	atomSize = 6.0
)

var (
	backgroundColor = color.RGBA{R: 24, G: 26, B: 32, A: 255}
	benchColor      = color.RGBA{R: 60, G: 64, B: 72, A: 255}
	outlineColor    = color.RGBA{R: 200, G: 200, B: 210, A: 255}
	defaultFill     = color.RGBA{R: 120, G: 160, B: 200, A: 255}
	liquidColor     = color.RGBA{R: 80, G: 140, B: 255, A: 200}
	gasColor        = color.RGBA{R: 230, G: 230, B: 230, A: 255}
	atomColor       = color.RGBA{R: 255, G: 210, B: 80, A: 255}
)

// Viewer 反应文档查看器，实现 ebiten.Game
type Viewer struct {
	player  *player.Player
	watcher *watch.Watcher // 可能为 nil
	frame   *timeline.Frame
	status  string
}

// NewViewer 创建驱动 p 的查看器
func NewViewer(p *player.Player, w *watch.Watcher) *Viewer {
	return &Viewer{player: p, watcher: w, frame: p.Frame()}
}

// Update 推进一帧播放
func (v *Viewer) Update() error {
	v.pollReload()

	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	v.handleKeys()

	v.frame = v.player.Update(1 / float64(ebiten.TPS()))
	return nil
}

func (v *Viewer) handleKeys() {
	p := v.player
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		p.Toggle()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		p.SeekSmooth(p.Progress() - 0.05)
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		p.SeekSmooth(p.Progress() + 0.05)
	case inpututil.IsKeyJustPressed(ebiten.KeyN):
		p.NextStep()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		p.PrevStep()
	case inpututil.IsKeyJustPressed(ebiten.KeyL):
		p.SetLoop(!p.Loop())
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		p.Seek(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual):
		p.SetSpeed(p.Speed() * 1.25)
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus):
		p.SetSpeed(p.Speed() / 1.25)
	}
}

// pollReload 替换为重新加载的文档，保持播放位置
func (v *Viewer) pollReload() {
	if v.watcher == nil {
		return
	}
	select {
	case r := <-v.watcher.Updates():
		if r.Err != nil {
			v.status = fmt.Sprintf("reload failed: %v", r.Err)
			log.Printf("[labviewer] Reload failed: %v", r.Err)
			return
		}
		r.Doc.NormalizeIDs()
		progress, playing := v.player.Progress(), v.player.Playing()
		v.player.Load(r.Doc)
		v.player.Seek(progress)
		if playing {
			v.player.Play()
		}
		v.status = fmt.Sprintf("reloaded (%d issues)", len(r.Doc.Validate()))
	default:
	}
}

// Draw 渲染当前帧
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)

	cx, cy := float32(screenWidth/2), float32(screenHeight*2/3)
	vector.DrawFilledRect(screen, 0, cy, screenWidth, 4, benchColor, false)

	if v.frame != nil {
		for _, obj := range v.frame.Objects {
			merged, _ := v.frame.Merged(obj.ID)
			if !merged.Visible {
				continue
			}
			drawApparatus(screen, merged, cx, cy)
		}
	}

	for _, g := range v.player.Atoms() {
		for _, pos := range g.System.Positions() {
			x, y := project(pos, cx, cy)
			vector.DrawFilledRect(screen, x-atomSize/2, y-atomSize/2, atomSize, atomSize, atomColor, true)
		}
	}

	v.drawHUD(screen)
}

// project 将场景 X/Y 映射到屏幕坐标（正视图，Y 向上）
func project(pos reaction.Vec3, cx, cy float32) (float32, float32) {
	return cx + float32(pos[0]*pxPerUnit), cy - float32(pos[1]*pxPerUnit)
}

func drawApparatus(screen *ebiten.Image, a reaction.Apparatus, cx, cy float32) {
	w := float32(baseWidth * math.Abs(a.Scale[0]))
	h := float32(baseHeight * math.Abs(a.Scale[1]))
	x, y := project(a.Position, cx, cy)
	left, top := x-w/2, y-h

	fill := defaultFill
	if v, ok := a.Extra[timeline.KeyColor]; ok {
		if s, ok := v.AsString(); ok {
			fill = toRGBA(s, fill)
		}
	}
	vector.DrawFilledRect(screen, left, top, w, h, fill, true)

	if v, ok := a.Extra[timeline.KeyLiquidLevelOverride]; ok {
		if level, ok := v.AsNumber(); ok {
			lh := h * float32(interp.Clamp01(level))
			vector.DrawFilledRect(screen, left+2, top+h-lh, w-4, lh, liquidColor, true)
		}
	}

	if v, ok := a.Extra[timeline.KeyGasOpacityMultiplier]; ok {
		if opacity, ok := v.AsNumber(); ok && opacity > 0 {
			gas := gasColor
			gas.A = uint8(255 * interp.Clamp01(opacity) * 0.6)
			vector.DrawFilledRect(screen, left, top-h/3, w, h/3, gas, true)
		}
	}

	vector.StrokeLine(screen, left, top, left+w, top, 1, outlineColor, true)
	vector.StrokeLine(screen, left, top+h, left+w, top+h, 1, outlineColor, true)
	vector.StrokeLine(screen, left, top, left, top+h, 1, outlineColor, true)
	vector.StrokeLine(screen, left+w, top, left+w, top+h, 1, outlineColor, true)

	label := a.Model
	if a.Rotation[0] != 0 {
		label += fmt.Sprintf(" %.0f°", a.Rotation[0]*180/math.Pi)
	}
	ebitenutil.DebugPrintAt(screen, label, int(left), int(top+h)+6)
}

// toRGBA 转换十六进制颜色，非法时使用 fallback
func toRGBA(hex string, fallback color.RGBA) color.RGBA {
	c, ok := interp.ParseHex(hex)
	if !ok {
		return fallback
	}
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	p := v.player
	doc := p.Document()

	state := "paused"
	if p.Playing() {
		state = "playing"
	}
	loop := ""
	if p.Loop() {
		loop = "  loop"
	}

	step := "no steps"
	if v.frame != nil && v.frame.Position.Found {
		pos := v.frame.Position
		step = fmt.Sprintf("step %d/%d  %3.0f%%", pos.StepIndex+1, doc.Timeline.Len(), pos.StepProgress*100)
		if s, ok := doc.Timeline.Step(pos.StepIndex); ok && s.Description != "" {
			step += "  " + s.Description
		}
	}

	hud := fmt.Sprintf("%s\n%s\nprogress %5.1f%%  %s  %.2fx%s\n%s",
		doc.Title, step, p.Progress()*100, state, p.Speed(), loop, v.status)
	ebitenutil.DebugPrintAt(screen, hud, 10, 10)

	// 进度条
	barW := float32(screenWidth - 20)
	vector.DrawFilledRect(screen, 10, screenHeight-20, barW, 6, benchColor, false)
	vector.DrawFilledRect(screen, 10, screenHeight-20, barW*float32(p.Progress()), 6, atomColor, false)
	for _, b := range p.Bounds() {
		x := 10 + barW*float32(b.StartProgress)
		vector.StrokeLine(screen, x, screenHeight-24, x, screenHeight-10, 1, outlineColor, false)
	}

	ebitenutil.DebugPrintAt(screen, "space play  ←/→ seek  n/p step  +/- speed  l loop  r restart  q quit", 10, screenHeight-40)
}

// Layout 返回固定的逻辑屏幕尺寸
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}
