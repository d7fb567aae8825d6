package timeline

import (
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/interp"
)

// FrameState 写入的常用覆盖属性键
const (
	KeyColor                = "color"
	KeyLiquidLevelOverride  = "liquidLevelOverride"
	KeyGasOpacityMultiplier = "gasOpacityMultiplier"
	KeyMorphProgress        = "morphProgress"
)

// ActiveEffect 表示窗口覆盖当前步骤的效果
type ActiveEffect struct {
	Effect reaction.Effect

	// Progress 效果整个窗口已经过的比例
	Progress float64

	// OriginStep 声明该效果的步骤索引
	OriginStep int
}

// ActiveEffects 返回当前步骤处于激活窗口内的效果
//
// 扫描 current 及之前所有启用的步骤，窗口 [origin, origin+durationSteps-1]
// 包含 current 的启用效果按声明顺序返回。
//
// 参数：
//   - tl: 时间轴
//   - current: 当前步骤索引
//   - stepProgress: 当前步骤进度
//
// 返回：
//   - 激活效果列表；Progress 在起始步骤开始时为 0，窗口最后一步结束时为 1
func ActiveEffects(tl reaction.Timeline, current int, stepProgress float64) []ActiveEffect {
	sp := interp.Clamp01(stepProgress)
	var active []ActiveEffect
	for _, step := range tl.Steps {
		if step.Index > current || step.Disabled {
			continue
		}
		for _, e := range step.Effects {
			if e.Disabled {
				continue
			}
			window := e.Window()
			if current-step.Index >= window {
				continue
			}
			active = append(active, ActiveEffect{
				Effect:     e,
				Progress:   interp.Clamp01((float64(current-step.Index) + sp) / float64(window)),
				OriginStep: step.Index,
			})
		}
	}
	return active
}

// Overlay 单个器材被覆盖的属性
type Overlay map[string]reaction.Value

// RenderState 器材 ID 到覆盖属性的映射，渲染器将其叠加在器材字段之上
type RenderState map[string]Overlay

// Set 写入一个覆盖属性，空 ID 忽略
func (r RenderState) Set(id, key string, v reaction.Value) {
	if id == "" {
		return
	}
	o, ok := r[id]
	if !ok {
		o = make(Overlay)
		r[id] = o
	}
	o[key] = v
}

// Get 读取一个覆盖属性
func (r RenderState) Get(id, key string) (reaction.Value, bool) {
	v, ok := r[id][key]
	return v, ok
}

// Number 读取数值型覆盖属性
func (r RenderState) Number(id, key string) (float64, bool) {
	v, ok := r.Get(id, key)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// FrameState 根据激活效果构建渲染状态
//
// 所有插值效果都使用自身窗口进度，跨多个步骤的效果在整个窗口内只插值一次。
// 多个效果写入同一对象的同一属性时，列表中靠后的生效。
func FrameState(active []ActiveEffect) RenderState {
	state := make(RenderState)
	for _, ae := range active {
		e := ae.Effect
		t := ae.Progress
		switch e.Type {
		case reaction.EffectColorLerp:
			start, ok := e.StartValue.AsString()
			if !ok {
				continue
			}
			end, _ := e.EndValue.AsString()
			color, _ := interp.LerpColor(start, end, t)
			state.Set(e.Target, propertyOr(e.Property, KeyColor), reaction.String(color))

		case reaction.EffectNumberLerp:
			if e.Property == "" {
				continue
			}
			if v, ok := lerpValues(e.StartValue, e.EndValue, t); ok {
				state.Set(e.Target, e.Property, reaction.Number(v))
			}

		case reaction.EffectMorph:
			start, end := e.StartValue, e.EndValue
			if start.IsZero() && end.IsZero() {
				start, end = reaction.Number(0), reaction.Number(1)
			}
			if v, ok := lerpValues(start, end, t); ok {
				state.Set(e.Target, propertyOr(e.Property, KeyMorphProgress), reaction.Number(v))
			}

		case reaction.EffectGasDisplacement:
			applyChannel(state, e.Source, KeyLiquidLevelOverride, e.SourceLevel, t)
			applyChannel(state, e.Target, KeyLiquidLevelOverride, e.TargetLevel, t)
			applyChannel(state, e.Target, KeyGasOpacityMultiplier, e.GasOpacity, t)
			applyChannel(state, e.AuxTarget, KeyLiquidLevelOverride, e.AuxLevel, t)
		}
	}
	return state
}

// lerpValues 数值插值
// 终点非法时回退到起点；起点非法时不产生结果
func lerpValues(start, end reaction.Value, t float64) (float64, bool) {
	from, ok := start.AsNumber()
	if !ok {
		return 0, false
	}
	to, ok := end.AsNumber()
	if !ok {
		return from, true
	}
	return interp.Lerp(from, to, t), true
}

func applyChannel(state RenderState, id, key string, ch *reaction.Channel, t float64) {
	if id == "" {
		return
	}
	start, end, ok := ch.Endpoints()
	if !ok {
		return
	}
	state.Set(id, key, reaction.Number(interp.Lerp(start, end, t)))
}

func propertyOr(property, fallback string) string {
	if property == "" {
		return fallback
	}
	return property
}
