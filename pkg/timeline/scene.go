package timeline

import "github.com/gonewx/chemlab/internal/reaction"

// Scene 不可变器材列表之上的写时复制视图
//
// 基础列表永远不会被写入。对象第一次被修改时复制到覆盖层（包括 Extra），
// 之后对该对象的读写都作用于副本。每帧构建 Scene 的开销是一个索引表
// 加上时间轴实际修改的对象副本。
type Scene struct {
	base    []reaction.Apparatus
	index   map[string]int
	overlay map[int]*reaction.Apparatus
}

// NewScene 基于 base 创建场景，ID 重复时以第一个对象为准
func NewScene(base []reaction.Apparatus) *Scene {
	index := make(map[string]int, len(base))
	for i := range base {
		if _, dup := index[base[i].ID]; !dup {
			index[base[i].ID] = i
		}
	}
	return &Scene{
		base:    base,
		index:   index,
		overlay: make(map[int]*reaction.Apparatus),
	}
}

// Len 返回场景中的对象数量
func (s *Scene) Len() int {
	return len(s.base)
}

// Get 返回对象的当前状态
func (s *Scene) Get(id string) (reaction.Apparatus, bool) {
	i, ok := s.index[id]
	if !ok {
		return reaction.Apparatus{}, false
	}
	if a, ok := s.overlay[i]; ok {
		return *a, true
	}
	return s.base[i], true
}

// Mutate 在对象的私有副本上执行 fn
// ID 不存在时不调用 fn，返回 false
func (s *Scene) Mutate(id string, fn func(a *reaction.Apparatus)) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	a, ok := s.overlay[i]
	if !ok {
		c := s.base[i]
		c.Extra = cloneExtra(c.Extra)
		a = &c
		s.overlay[i] = a
	}
	fn(a)
	return true
}

// Changed 按基础列表顺序返回被修改对象的 ID
func (s *Scene) Changed() []string {
	ids := make([]string, 0, len(s.overlay))
	for i := range s.base {
		if _, ok := s.overlay[i]; ok {
			ids = append(ids, s.base[i].ID)
		}
	}
	return ids
}

// Objects 将场景物化为新列表
// 未修改的条目是基础对象的浅拷贝，与其共享 Extra，只读使用
func (s *Scene) Objects() []reaction.Apparatus {
	out := make([]reaction.Apparatus, len(s.base))
	for i := range s.base {
		if a, ok := s.overlay[i]; ok {
			out[i] = *a
		} else {
			out[i] = s.base[i]
		}
	}
	return out
}

func cloneExtra(extra map[string]reaction.Value) map[string]reaction.Value {
	if extra == nil {
		return nil
	}
	out := make(map[string]reaction.Value, len(extra))
	for k, v := range extra {
		out[k] = v.Clone()
	}
	return out
}
