package timeline

import (
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/config"
	"github.com/gonewx/chemlab/pkg/interp"
)

// Engine 反应文档求值器
// 只持有配置，可在多处共享；每次 Evaluate 都从原始文档开始计算。
type Engine struct {
	// FallbackDuration 时间轴总时长为 0 时的替代值
	FallbackDuration float64
}

// NewEngine 根据配置创建求值器
func NewEngine(cfg config.EngineConfig) *Engine {
	return &Engine{FallbackDuration: fallbackOrDefault(cfg.FallbackDuration)}
}

// Frame 文档在某一播放进度下的求值结果
type Frame struct {
	// Progress 截断后的全局进度
	Progress float64

	Position Position

	// Objects 应用变换与动画后的器材列表
	Objects []reaction.Apparatus

	// Render 按器材 ID 索引的效果覆盖
	Render RenderState

	// Effects 所有激活效果，包括仅供渲染器使用的类型
	Effects []ActiveEffect
}

// Evaluate 计算 doc 在 progress 处的帧
//
// 参数：
//   - doc: 反应文档，nil 视为空文档；不会被修改
//   - progress: 全局进度，截断到 [0, 1]
//
// 返回：
//   - *Frame: 求值结果
func (e *Engine) Evaluate(doc *reaction.Document, progress float64) *Frame {
	if doc == nil {
		doc = &reaction.Document{}
	}

	pos := Resolve(doc.Timeline, progress, e.FallbackDuration)
	scene := NewScene(doc.Apparatus)
	frame := &Frame{
		Progress: interp.Clamp01(progress),
		Position: pos,
		Render:   make(RenderState),
	}

	if pos.Found {
		scene.ApplyTransformations(doc.Timeline, pos.StepIndex)
		if step, ok := doc.Timeline.Step(pos.StepIndex); ok {
			scene.ApplyAnimations(step, pos.StepProgress)
		}
		frame.Effects = ActiveEffects(doc.Timeline, pos.StepIndex, pos.StepProgress)
		frame.Render = FrameState(frame.Effects)
	}

	frame.Objects = scene.Objects()
	return frame
}

// Object 返回指定 ID 的器材求值结果
func (f *Frame) Object(id string) (reaction.Apparatus, bool) {
	for _, a := range f.Objects {
		if a.ID == id {
			return a, true
		}
	}
	return reaction.Apparatus{}, false
}

// Merged 返回合并了渲染覆盖的器材
// 覆盖写入 Extra 的私有副本
func (f *Frame) Merged(id string) (reaction.Apparatus, bool) {
	a, ok := f.Object(id)
	if !ok {
		return a, false
	}
	overlay := f.Render[id]
	if len(overlay) == 0 {
		return a, true
	}
	a.Extra = cloneExtra(a.Extra)
	for key, value := range overlay {
		setExtra(&a, key, value.Clone())
	}
	return a, true
}
