package timeline

import (
	"math"

	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/interp"
)

// ApplyAnimations 在 stepProgress 处插值单个步骤的动画
//
// 起始值取对象进入该步骤时的状态（已应用变换、尚未应用本步动画），
// 因此同一进度重复求值结果相同。
// move 与 scale 从起始值插值到目标值；rotate 在起始 X 旋转上叠加 t*π*speed。
// 未知类型或目标会被忽略。
func (s *Scene) ApplyAnimations(step reaction.Step, stepProgress float64) {
	if step.Disabled {
		return
	}
	progress := interp.Clamp01(stepProgress)
	entry := make(map[string]reaction.Apparatus, len(step.Animations))

	for _, anim := range step.Animations {
		start, ok := entry[anim.Target]
		if !ok {
			if start, ok = s.Get(anim.Target); !ok {
				continue
			}
			entry[anim.Target] = start
		}

		t := interp.Easing(anim.Easing)(progress)
		switch anim.Type {
		case reaction.AnimationMove:
			if anim.Position == nil {
				continue
			}
			end := *anim.Position
			s.Mutate(anim.Target, func(a *reaction.Apparatus) {
				a.Position = interp.LerpVec3(start.Position, end, t)
			})
		case reaction.AnimationScale:
			if anim.Scale == nil {
				continue
			}
			end := *anim.Scale
			s.Mutate(anim.Target, func(a *reaction.Apparatus) {
				a.Scale = interp.LerpVec3(start.Scale, end, t)
			})
		case reaction.AnimationRotate:
			speed := anim.RotateSpeed()
			s.Mutate(anim.Target, func(a *reaction.Apparatus) {
				a.Rotation[0] = start.Rotation[0] + t*math.Pi*speed
			})
		}
	}
}

// ApplyAnimations 返回应用了 step 动画的对象列表，不修改 objects
func ApplyAnimations(objects []reaction.Apparatus, step reaction.Step, stepProgress float64) []reaction.Apparatus {
	scene := NewScene(objects)
	scene.ApplyAnimations(step, stepProgress)
	return scene.Objects()
}
