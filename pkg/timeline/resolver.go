// Package timeline 计算反应文档在某一播放进度下的状态
//
// 求值是 (器材列表, 时间轴, 进度) 的纯函数：
//
//  1. Resolve 将全局进度映射为当前步骤及其内部进度
//  2. 当前步骤及之前所有步骤的变换按步骤顺序永久应用
//  3. 仅当前步骤的动画在其上插值
//  4. 窗口覆盖当前步骤的效果生成按器材 ID 索引的渲染覆盖
//
// 调用之间不缓存任何状态，向后拖动、跳到结尾或重复求值同一进度得到的帧完全相同。
package timeline

import (
	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/interp"
)

// DefaultFallbackDuration 步骤总时长为 0 时使用的默认总时长
const DefaultFallbackDuration = 10.0

// Position 时间轴内解析后的播放位置
type Position struct {
	// StepIndex 当前步骤索引
	StepIndex int

	// StepProgress 当前步骤已经过的比例，范围 [0, 1]
	StepProgress float64

	// TotalDuration 时间轴总时长，为 0 时取回退值
	TotalDuration float64

	// CurrentTime = progress * TotalDuration
	CurrentTime float64

	// Found 时间轴没有启用的步骤时为 false
	Found bool
}

// TotalDuration 累加所有启用步骤的 duration + delay
// 总和为 0 时返回 fallback（fallback <= 0 时使用 DefaultFallbackDuration）
func TotalDuration(tl reaction.Timeline, fallback float64) float64 {
	total := 0.0
	for _, step := range tl.Steps {
		if step.Disabled {
			continue
		}
		total += step.Span()
	}
	if total == 0 {
		return fallbackOrDefault(fallback)
	}
	return total
}

// Resolve 查找全局进度对应的当前步骤
//
// 当前步骤是累计时间区间 [elapsed, elapsed+span] 包含 progress*total 的
// 第一个启用步骤，共享边界归属前一个步骤。时长为 0 的步骤 StepProgress 为 1。
// 进度 1 以及超出总时长的情况解析为最后一个启用步骤，StepProgress 为 1。
//
// 参数：
//   - tl: 时间轴
//   - progress: 全局进度，截断到 [0, 1]
//   - fallback: 总时长为 0 时的替代值
//
// 返回：
//   - Position: 空时间轴或全部禁用时为步骤 0，Found 为 false
func Resolve(tl reaction.Timeline, progress, fallback float64) Position {
	total := TotalDuration(tl, fallback)
	progress = interp.Clamp01(progress)
	pos := Position{
		TotalDuration: total,
		CurrentTime:   progress * total,
	}

	elapsed := 0.0
	last := -1
	for _, step := range tl.Steps {
		if step.Disabled {
			continue
		}
		last = step.Index
		if progress == 1 {
			// 终点总是属于最后一个启用步骤
			continue
		}
		span := step.Span()
		if pos.CurrentTime <= elapsed+span {
			pos.StepIndex = step.Index
			pos.Found = true
			if span == 0 {
				pos.StepProgress = 1
			} else {
				pos.StepProgress = interp.Clamp01((pos.CurrentTime - elapsed) / span)
			}
			return pos
		}
		elapsed += span
	}

	if last >= 0 {
		pos.StepIndex = last
		pos.StepProgress = 1
		pos.Found = true
	}
	return pos
}

// StepBound 单个启用步骤覆盖的全局进度区间
type StepBound struct {
	Index         int
	Description   string
	StartProgress float64
	EndProgress   float64
}

// Bounds 按顺序返回每个启用步骤的进度区间
// 所有时长为 0 时使用回退总时长，所有区间都退化为 0
func Bounds(tl reaction.Timeline, fallback float64) []StepBound {
	total := TotalDuration(tl, fallback)
	bounds := make([]StepBound, 0, len(tl.Steps))
	elapsed := 0.0
	for _, step := range tl.Steps {
		if step.Disabled {
			continue
		}
		span := step.Span()
		bounds = append(bounds, StepBound{
			Index:         step.Index,
			Description:   step.Description,
			StartProgress: interp.Clamp01(elapsed / total),
			EndProgress:   interp.Clamp01((elapsed + span) / total),
		})
		elapsed += span
	}
	return bounds
}

func fallbackOrDefault(fallback float64) float64 {
	if fallback > 0 {
		return fallback
	}
	return DefaultFallbackDuration
}
