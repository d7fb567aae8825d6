package timeline

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonewx/chemlab/internal/reaction"
)

// TestActiveEffects_Window 测试多步窗口内效果持续激活且进度递增
func TestActiveEffects_Window(t *testing.T) {
	tl := reaction.Timeline{Steps: []reaction.Step{
		{Index: 0, Duration: 1, Effects: []reaction.Effect{{Type: "smoke", DurationSteps: 3}}},
		{Index: 1, Duration: 1},
		{Index: 2, Duration: 1},
		{Index: 3, Duration: 1},
	}}

	prev := -1.0
	for current := 0; current <= 2; current++ {
		for _, sp := range []float64{0.1, 0.5, 0.9} {
			active := ActiveEffects(tl, current, sp)
			require.Len(t, active, 1, "step %d progress %v", current, sp)
			assert.Equal(t, 0, active[0].OriginStep)
			assert.Greater(t, active[0].Progress, prev, "window progress must increase")
			prev = active[0].Progress
		}
	}
	assert.Equal(t, 0.0, ActiveEffects(tl, 0, 0)[0].Progress, "window starts at 0")
	assert.Equal(t, 1.0, ActiveEffects(tl, 2, 1)[0].Progress, "window ends at 1")
	assert.Empty(t, ActiveEffects(tl, 3, 0), "inactive after window")
}

// TestActiveEffects_Filtering 测试禁用效果、禁用步骤与单步窗口的过滤
func TestActiveEffects_Filtering(t *testing.T) {
	tl := reaction.Timeline{Steps: []reaction.Step{
		{Index: 0, Duration: 1, Effects: []reaction.Effect{
			{Type: "flash"},
			{Type: "gas", Disabled: true, DurationSteps: 5},
		}},
		{Index: 1, Duration: 1, Disabled: true, Effects: []reaction.Effect{{Type: "smoke", DurationSteps: 5}}},
		{Index: 2, Duration: 1, Effects: []reaction.Effect{{Type: "flame_interaction", DurationSteps: 0}}},
		{Index: 3, Duration: 1, Effects: []reaction.Effect{{Type: "future"}}},
	}}

	at0 := ActiveEffects(tl, 0, 0.5)
	require.Len(t, at0, 1)
	assert.Equal(t, "flash", at0[0].Effect.Type)
	assert.Equal(t, 0.5, at0[0].Progress)

	assert.Empty(t, ActiveEffects(tl, 1, 0.5), "one-step window closed, disabled step skipped")

	at2 := ActiveEffects(tl, 2, 0.25)
	require.Len(t, at2, 1)
	assert.Equal(t, "flame_interaction", at2[0].Effect.Type, "durationSteps 0 reads as 1")
	assert.Equal(t, 0.25, at2[0].Progress)
}

// TestActiveEffects_HugeWindow 测试极大 durationSteps 不会溢出导致效果丢失
func TestActiveEffects_HugeWindow(t *testing.T) {
	tl := reaction.Timeline{Steps: []reaction.Step{
		{Index: 0, Duration: 1},
		{Index: 1, Duration: 1},
		{Index: 2, Duration: 1, Effects: []reaction.Effect{{Type: "smoke", DurationSteps: math.MaxInt}}},
		{Index: 3, Duration: 1},
	}}

	for _, current := range []int{2, 3} {
		active := ActiveEffects(tl, current, 0.5)
		require.Len(t, active, 1, "step %d", current)
		assert.Equal(t, 2, active[0].OriginStep)
		assert.GreaterOrEqual(t, active[0].Progress, 0.0)
		assert.Less(t, active[0].Progress, 1e-9)
	}
	assert.Empty(t, ActiveEffects(tl, 1, 0.5), "not active before its step")
}

// TestFrameState_ColorLerpUsesWindowProgress 测试颜色插值使用效果窗口进度
func TestFrameState_ColorLerpUsesWindowProgress(t *testing.T) {
	effect := reaction.Effect{
		Type:          reaction.EffectColorLerp,
		Target:        "beaker",
		DurationSteps: 2,
		StartValue:    reaction.String("#000000"),
		EndValue:      reaction.String("#ffffff"),
	}
	tl := reaction.Timeline{Steps: []reaction.Step{
		{Index: 0, Duration: 1, Effects: []reaction.Effect{effect}},
		{Index: 1, Duration: 1},
	}}

	// 步骤 0 结束处是两步窗口的中点
	state := FrameState(ActiveEffects(tl, 0, 1))
	color, ok := state.Get("beaker", KeyColor)
	require.True(t, ok)
	assert.Equal(t, "#808080", color.Str)

	state = FrameState(ActiveEffects(tl, 1, 1))
	color, _ = state.Get("beaker", KeyColor)
	assert.Equal(t, "#ffffff", color.Str)
}

// TestFrameState_ColorLerpMalformed 测试非法颜色回退到起始颜色
func TestFrameState_ColorLerpMalformed(t *testing.T) {
	active := []ActiveEffect{{
		Effect: reaction.Effect{
			Type:       reaction.EffectColorLerp,
			Target:     "beaker",
			Property:   "liquidColor",
			StartValue: reaction.String("#ff0000"),
			EndValue:   reaction.String("not-a-color"),
		},
		Progress: 0.5,
	}}

	state := FrameState(active)
	color, ok := state.Get("beaker", "liquidColor")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", color.Str, "falls back to start")
}

// TestFrameState_NumberLerpAndMorph 测试数值插值与 MORPH 默认属性
func TestFrameState_NumberLerpAndMorph(t *testing.T) {
	active := []ActiveEffect{
		{Effect: reaction.Effect{Type: reaction.EffectNumberLerp, Target: "flask", Property: "temperature", StartValue: reaction.Number(20), EndValue: reaction.Number(100)}, Progress: 0.25},
		{Effect: reaction.Effect{Type: reaction.EffectNumberLerp, Target: "flask", StartValue: reaction.Number(1), EndValue: reaction.Number(2)}, Progress: 0.5},
		{Effect: reaction.Effect{Type: reaction.EffectNumberLerp, Target: "flask", Property: "pressure", StartValue: reaction.Number(3), EndValue: reaction.String("oops")}, Progress: 0.5},
		{Effect: reaction.Effect{Type: reaction.EffectMorph, Target: "ribbon"}, Progress: 0.4},
		{Effect: reaction.Effect{Type: reaction.EffectMorph, Target: "ribbon", Property: "curl", StartValue: reaction.Number(10), EndValue: reaction.Number(0)}, Progress: 0.4},
	}

	state := FrameState(active)

	temp, ok := state.Number("flask", "temperature")
	require.True(t, ok)
	assert.Equal(t, 40.0, temp)

	pressure, _ := state.Number("flask", "pressure")
	assert.Equal(t, 3.0, pressure, "malformed end falls back to start")
	assert.Len(t, state["flask"], 2, "effect without property writes nothing")

	morph, _ := state.Number("ribbon", KeyMorphProgress)
	assert.InDelta(t, 0.4, morph, 1e-12)
	curl, _ := state.Number("ribbon", "curl")
	assert.InDelta(t, 6.0, curl, 1e-12)
}

// TestFrameState_GasDisplacement 测试气体置换的多通道输出
func TestFrameState_GasDisplacement(t *testing.T) {
	ch := func(start, end float64) *reaction.Channel {
		return &reaction.Channel{Start: &start, End: &end}
	}
	active := []ActiveEffect{{
		Effect: reaction.Effect{
			Type:        reaction.EffectGasDisplacement,
			Source:      "flask",
			Target:      "jar",
			AuxTarget:   "trough",
			SourceLevel: ch(0.8, 0.2),
			TargetLevel: ch(1, 0),
			GasOpacity:  ch(0, 1),
			AuxLevel:    &reaction.Channel{Start: ptr(0.5)},
		},
		Progress: 0.5,
	}}

	state := FrameState(active)

	src, _ := state.Number("flask", KeyLiquidLevelOverride)
	assert.InDelta(t, 0.5, src, 1e-12)
	dst, _ := state.Number("jar", KeyLiquidLevelOverride)
	assert.InDelta(t, 0.5, dst, 1e-12)
	gas, _ := state.Number("jar", KeyGasOpacityMultiplier)
	assert.InDelta(t, 0.5, gas, 1e-12)
	_, ok := state.Get("trough", KeyLiquidLevelOverride)
	assert.False(t, ok, "channel with one endpoint is skipped")
}

// TestFrameState_LastWriteWins 测试同一属性后写入者生效
func TestFrameState_LastWriteWins(t *testing.T) {
	active := []ActiveEffect{
		{Effect: reaction.Effect{Type: reaction.EffectNumberLerp, Target: "a", Property: "p", StartValue: reaction.Number(0), EndValue: reaction.Number(10)}, Progress: 0.5},
		{Effect: reaction.Effect{Type: reaction.EffectNumberLerp, Target: "a", Property: "p", StartValue: reaction.Number(100), EndValue: reaction.Number(200)}, Progress: 0.5},
		{Effect: reaction.Effect{Type: "smoke", Target: "a"}, Progress: 0.5},
	}

	v, _ := FrameState(active).Number("a", "p")
	assert.Equal(t, 150.0, v)
}
