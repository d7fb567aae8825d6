package timeline

import "github.com/gonewx/chemlab/internal/reaction"

// ApplyTransformations 按步骤顺序应用 Index <= upTo 的所有启用步骤的变换
// 步骤内按列表顺序应用，同一目标同一字段后写入者生效；目标不存在的变换跳过。
func (s *Scene) ApplyTransformations(tl reaction.Timeline, upTo int) {
	for _, step := range tl.Steps {
		if step.Index > upTo || step.Disabled {
			continue
		}
		for _, tr := range step.Transformations {
			s.Mutate(tr.Target, func(a *reaction.Apparatus) {
				applyTransformation(a, tr)
			})
		}
	}
}

// ApplyTransformations 返回截至步骤 upTo 的器材列表，不修改 base
func ApplyTransformations(base []reaction.Apparatus, tl reaction.Timeline, upTo int) []reaction.Apparatus {
	scene := NewScene(base)
	scene.ApplyTransformations(tl, upTo)
	return scene.Objects()
}

func applyTransformation(a *reaction.Apparatus, tr reaction.Transformation) {
	if tr.NewModel != nil {
		a.Model = *tr.NewModel
	}
	if tr.Visible != nil {
		a.Visible = *tr.Visible
	}
	if tr.Scale != nil {
		a.Scale = *tr.Scale
	}
	if tr.Position != nil {
		a.Position = *tr.Position
	}
	if tr.Rotation != nil {
		a.Rotation = *tr.Rotation
	}
	if tr.Color != nil {
		setExtra(a, "color", reaction.String(*tr.Color))
	}
	for key, value := range tr.Properties {
		setExtra(a, key, value.Clone())
	}
}

func setExtra(a *reaction.Apparatus, key string, value reaction.Value) {
	if a.Extra == nil {
		a.Extra = make(map[string]reaction.Value)
	}
	a.Extra[key] = value
}
