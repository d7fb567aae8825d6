// Package player 驱动反应时间轴的播放
//
// Player 持有全局进度，每帧按 dt * speed / totalDuration 推进，
// 调用 timeline.Engine 求值，并推进每个原子组的粒子积分器。
// Player 不是并发安全的，应由渲染循环单独持有。
package player

import (
	"log"
	"math"
	"math/rand"

	"github.com/charmbracelet/harmonica"
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/config"
	"github.com/gonewx/chemlab/pkg/interp"
	"github.com/gonewx/chemlab/pkg/particles"
	"github.com/gonewx/chemlab/pkg/timeline"
)

// 平滑拖动结束阈值
const (
	settleDistance = 1e-4
	settleVelocity = 1e-3
)

// 步骤跳转时判断"已在步骤起点"的容差
const stepEpsilon = 1e-6

// AtomGroup 一个原子组及其粒子系统
type AtomGroup struct {
	ID     string
	Label  string
	System *particles.System
}

// Player 时间轴播放器
type Player struct {
	engine *timeline.Engine
	doc    *reaction.Document
	cfg    config.PlaybackConfig

	progress float64
	playing  bool
	speed    float64
	loop     bool

	// 平滑拖动状态
	spring      harmonica.Spring
	scrubbing   bool
	scrubTarget float64
	scrubVel    float64

	atoms []AtomGroup
	frame *timeline.Frame
}

// New 创建播放器
//
// 参数：
//   - engine: 时间轴求值引擎，为 nil 时按 cfg.Engine 创建
//   - doc: 要播放的文档，可为 nil
//   - cfg: 播放配置，为 nil 时使用默认配置
//
// 返回：
//   - *Player: 处于暂停状态、进度为 0 的播放器
func New(engine *timeline.Engine, doc *reaction.Document, cfg *config.PlaybackConfig) *Player {
	if cfg == nil {
		cfg = config.DefaultPlaybackConfig()
	}
	if engine == nil {
		engine = timeline.NewEngine(cfg.Engine)
	}

	tickRate := cfg.Playback.TickRate
	if tickRate <= 0 {
		tickRate = 60
	}

	p := &Player{
		engine: engine,
		cfg:    *cfg,
		speed:  config.ClampSpeed(cfg.Playback.Speed),
		loop:   cfg.Playback.Loop,
		spring: harmonica.NewSpring(harmonica.FPS(tickRate), cfg.Scrub.Frequency, cfg.Scrub.Damping),
	}
	p.Load(doc)
	return p
}

// Load 替换当前文档，重置进度、粒子与播放状态
//
// 播放器持有文档的深拷贝，调用方之后对 doc 的修改不会影响播放。
func (p *Player) Load(doc *reaction.Document) {
	if doc == nil {
		doc = &reaction.Document{}
	}
	if c, err := doc.Clone(); err != nil {
		log.Printf("[Player] Warning: failed to copy document, sharing it: %v", err)
	} else {
		doc = c
	}
	p.doc = doc
	p.progress = 0
	p.playing = false
	p.stopScrub()
	p.buildAtoms()
	p.frame = nil

	log.Printf("[Player] Loaded %q: %d apparatus, %d steps, %d atom groups",
		doc.Title, len(doc.Apparatus), doc.Timeline.Len(), len(p.atoms))
}

// buildAtoms 为每个原子组创建粒子系统
func (p *Player) buildAtoms() {
	base := particles.FromConfig(p.cfg.Particles)
	p.atoms = make([]AtomGroup, 0, len(p.doc.Atoms))
	for i, g := range p.doc.Atoms {
		rng := rand.New(rand.NewSource(p.cfg.Particles.Seed + int64(i)))
		p.atoms = append(p.atoms, AtomGroup{
			ID:     g.ID,
			Label:  g.Label,
			System: particles.NewSystem(g.Starts, g.Ends, base.WithOverrides(g.Forces), rng),
		})
	}
}

// Update 推进一帧并返回求值结果
//
// 参数：
//   - dt: 距上一帧的真实时间（秒），负数或 NaN 按 0 处理
//
// 返回：
//   - *timeline.Frame: 当前进度的帧
//
// 平滑拖动期间弹簧按固定帧率积分，忽略 dt 与播放状态。
func (p *Player) Update(dt float64) *timeline.Frame {
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}

	switch {
	case p.scrubbing:
		p.progress, p.scrubVel = p.spring.Update(p.progress, p.scrubVel, p.scrubTarget)
		if math.Abs(p.progress-p.scrubTarget) < settleDistance && math.Abs(p.scrubVel) < settleVelocity {
			p.progress = p.scrubTarget
			p.stopScrub()
		}
		p.progress = interp.Clamp01(p.progress)

	case p.playing:
		p.advance(dt)
	}

	for _, g := range p.atoms {
		g.System.Step(dt, p.progress)
	}

	p.frame = p.engine.Evaluate(p.doc, p.progress)
	return p.frame
}

// advance 按倍速推进进度，处理循环与结束
func (p *Player) advance(dt float64) {
	total := timeline.TotalDuration(p.doc.Timeline, p.engine.FallbackDuration)
	p.progress += dt * p.speed / total
	if p.progress < 1 {
		return
	}

	if p.loop {
		p.progress = 0
		p.resetAtoms()
		return
	}

	p.progress = 1
	p.playing = false
	log.Printf("[Player] Reached end of timeline")
}

func (p *Player) resetAtoms() {
	for _, g := range p.atoms {
		g.System.Reset()
	}
}

func (p *Player) stopScrub() {
	p.scrubbing = false
	p.scrubVel = 0
}

// Frame 返回最近一帧，尚未 Update 时立即求值
func (p *Player) Frame() *timeline.Frame {
	if p.frame == nil {
		p.frame = p.engine.Evaluate(p.doc, p.progress)
	}
	return p.frame
}

// Play 开始播放；已在末尾且不循环时从头开始
func (p *Player) Play() {
	if p.progress >= 1 && !p.loop {
		p.progress = 0
		p.resetAtoms()
	}
	p.playing = true
}

// Pause 暂停播放
func (p *Player) Pause() {
	p.playing = false
}

// Toggle 切换播放/暂停
func (p *Player) Toggle() {
	if p.playing {
		p.Pause()
	} else {
		p.Play()
	}
}

// Seek 立即跳转到指定进度，取消进行中的平滑拖动
func (p *Player) Seek(progress float64) {
	p.stopScrub()
	p.progress = interp.Clamp01(progress)
	if p.progress == 0 {
		p.resetAtoms()
	}
	p.frame = nil
}

// SeekSmooth 以弹簧动画拖动到指定进度
func (p *Player) SeekSmooth(progress float64) {
	p.scrubTarget = interp.Clamp01(progress)
	p.scrubbing = true
}

// NextStep 平滑跳转到下一个步骤的起点；没有下一步时跳到末尾
func (p *Player) NextStep() {
	from := p.progress
	if p.scrubbing {
		from = p.scrubTarget
	}
	for _, b := range p.Bounds() {
		if b.StartProgress > from+stepEpsilon {
			p.SeekSmooth(b.StartProgress)
			return
		}
	}
	p.SeekSmooth(1)
}

// PrevStep 平滑跳转到当前步骤的起点；已在起点时跳到上一步
func (p *Player) PrevStep() {
	from := p.progress
	if p.scrubbing {
		from = p.scrubTarget
	}
	bounds := p.Bounds()
	for i := len(bounds) - 1; i >= 0; i-- {
		if bounds[i].StartProgress < from-stepEpsilon {
			p.SeekSmooth(bounds[i].StartProgress)
			return
		}
	}
	p.SeekSmooth(0)
}

// SetSpeed 设置倍速，限制在 [config.MinSpeed, config.MaxSpeed]
func (p *Player) SetSpeed(speed float64) {
	p.speed = config.ClampSpeed(speed)
}

// SetLoop 设置循环开关
func (p *Player) SetLoop(loop bool) {
	p.loop = loop
}

// Progress 返回当前全局进度
func (p *Player) Progress() float64 { return p.progress }

// Playing 返回是否正在播放
func (p *Player) Playing() bool { return p.playing }

// Scrubbing 返回是否处于平滑拖动中
func (p *Player) Scrubbing() bool { return p.scrubbing }

// Speed 返回当前倍速
func (p *Player) Speed() float64 { return p.speed }

// Loop 返回是否循环
func (p *Player) Loop() bool { return p.loop }

// Document 返回正在播放的文档
func (p *Player) Document() *reaction.Document { return p.doc }

// Atoms 返回原子组（调用方不应修改）
func (p *Player) Atoms() []AtomGroup { return p.atoms }

// Bounds 返回各启用步骤的进度区间
func (p *Player) Bounds() []timeline.StepBound {
	return timeline.Bounds(p.doc.Timeline, p.engine.FallbackDuration)
}

// Settings 返回当前播放参数，用于持久化
func (p *Player) Settings() config.PlaybackSettings {
	s := p.cfg.Playback
	s.Speed = p.speed
	s.Loop = p.loop
	return s
}
