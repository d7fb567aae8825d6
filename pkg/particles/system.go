// Package particles 实现原子粒子的力学积分器
//
// 每个粒子在 BaseStart 与 BaseEnd 之间有一个随全局进度移动的目标点，
// 粒子受目标牵引力、相互排斥力和热扰动驱动，使用半隐式欧拉积分。
//
// 排斥力是 O(n²) 的两两计算，只适合几十个粒子的规模。
package particles

import (
	"math"
	"math/rand"

	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/gonewx/chemlab/pkg/config"
	"github.com/gonewx/chemlab/pkg/interp"
)

// DefaultMaxStep 单次积分允许的最大 dt（秒），防止掉帧时数值发散
const DefaultMaxStep = 0.05

// Params 积分器参数
type Params struct {
	Attraction        float64 // 目标牵引系数
	Repulsion         float64 // 排斥系数
	RepulsionDistance float64 // 排斥作用半径，超出此距离无排斥
	Temperature       float64 // 热扰动强度（每轴均匀分布 [-T, T]）
	Damping           float64 // 每次积分后的速度保留系数
	MaxStep           float64 // dt 上限
}

// DefaultParams 返回默认参数
func DefaultParams() Params {
	return FromConfig(config.DefaultPlaybackConfig().Particles)
}

// FromConfig 从配置创建参数
func FromConfig(cfg config.ParticleConfig) Params {
	p := Params{
		Attraction:        cfg.Attraction,
		Repulsion:         cfg.Repulsion,
		RepulsionDistance: cfg.RepulsionDistance,
		Temperature:       cfg.Temperature,
		Damping:           cfg.Damping,
		MaxStep:           cfg.MaxStep,
	}
	if p.MaxStep <= 0 {
		p.MaxStep = DefaultMaxStep
	}
	return p
}

// WithOverrides 返回应用了原子组覆盖参数的副本
// f 为 nil 或字段为 nil 时保留原值
func (p Params) WithOverrides(f *reaction.ForceParams) Params {
	if f == nil {
		return p
	}
	if f.Attraction != nil {
		p.Attraction = *f.Attraction
	}
	if f.Repulsion != nil {
		p.Repulsion = *f.Repulsion
	}
	if f.RepulsionDistance != nil {
		p.RepulsionDistance = *f.RepulsionDistance
	}
	if f.Temperature != nil {
		p.Temperature = *f.Temperature
	}
	if f.Damping != nil {
		p.Damping = *f.Damping
	}
	return p
}

// Particle 单个粒子的状态
type Particle struct {
	BaseStart reaction.Vec3
	BaseEnd   reaction.Vec3
	Position  reaction.Vec3
	Velocity  reaction.Vec3
}

// Target 返回给定全局进度下的目标点
func (p *Particle) Target(progress float64) reaction.Vec3 {
	return interp.LerpVec3(p.BaseStart, p.BaseEnd, progress)
}

// System 一组相互作用的粒子
//
// System 携带跨帧状态（位置、速度），只能由驱动它的单一调用方推进，
// 不支持并发调用。
type System struct {
	Params    Params
	particles []Particle
	forces    []reaction.Vec3
	rng       *rand.Rand
}

// NewSystem 创建粒子系统
//
// 参数：
//   - starts: 每个粒子在进度 0 时的目标位置，也是初始位置
//   - ends: 每个粒子在进度 1 时的目标位置
//   - p: 积分器参数
//   - rng: 热扰动随机源，为 nil 时使用固定种子
//
// 返回：
//   - *System: 粒子数为 min(len(starts), len(ends))
func NewSystem(starts, ends []reaction.Vec3, p Params, rng *rand.Rand) *System {
	if p.MaxStep <= 0 {
		p.MaxStep = DefaultMaxStep
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	n := min(len(starts), len(ends))
	s := &System{
		Params:    p,
		particles: make([]Particle, n),
		forces:    make([]reaction.Vec3, n),
		rng:       rng,
	}
	for i := 0; i < n; i++ {
		s.particles[i] = Particle{BaseStart: starts[i], BaseEnd: ends[i]}
	}
	s.Reset()
	return s
}

// Len 返回粒子数量
func (s *System) Len() int {
	return len(s.particles)
}

// Particles 返回粒子状态的只读视图（调用方不应修改）
func (s *System) Particles() []Particle {
	return s.particles
}

// Reset 把所有粒子放回 BaseStart 并清零速度
func (s *System) Reset() {
	for i := range s.particles {
		s.particles[i].Position = s.particles[i].BaseStart
		s.particles[i].Velocity = reaction.Vec3{}
	}
}

// Positions 返回当前位置的副本
func (s *System) Positions() []reaction.Vec3 {
	out := make([]reaction.Vec3, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].Position
	}
	return out
}

// Step 推进一次积分
//
// 参数：
//   - dt: 时间步长（秒），截断到 [0, MaxStep]；dt 为 0 时不做任何事
//   - progress: 全局时间轴进度，截断到 [0, 1]
func (s *System) Step(dt, progress float64) {
	if math.IsNaN(dt) || dt <= 0 || len(s.particles) == 0 {
		return
	}
	if dt > s.Params.MaxStep {
		dt = s.Params.MaxStep
	}
	progress = interp.Clamp01(progress)
	p := s.Params

	// 1-2. 目标牵引力
	for i := range s.particles {
		pt := &s.particles[i]
		s.forces[i] = pt.Target(progress).Sub(pt.Position).Scale(p.Attraction)
	}

	// 3. 两两排斥
	if p.Repulsion != 0 && p.RepulsionDistance > 0 {
		s.accumulateRepulsion()
	}

	// 4. 热扰动
	if p.Temperature > 0 {
		for i := range s.forces {
			for axis := 0; axis < 3; axis++ {
				s.forces[i][axis] += (s.rng.Float64()*2 - 1) * p.Temperature
			}
		}
	}

	// 5. 半隐式欧拉
	for i := range s.particles {
		pt := &s.particles[i]
		pt.Velocity = pt.Velocity.Add(s.forces[i].Scale(dt)).Scale(p.Damping)
		pt.Position = pt.Position.Add(pt.Velocity.Scale(dt))
	}
}

// accumulateRepulsion 累加每对距离在作用半径内的粒子间排斥力
// 大小为 k * (1/d - 1/R)，方向背离邻居。重合的粒子没有确定方向，跳过。
func (s *System) accumulateRepulsion() {
	k := s.Params.Repulsion
	r := s.Params.RepulsionDistance
	for i := 0; i < len(s.particles); i++ {
		for j := i + 1; j < len(s.particles); j++ {
			delta := s.particles[i].Position.Sub(s.particles[j].Position)
			dist := length(delta)
			if dist == 0 || dist >= r {
				continue
			}
			magnitude := k * (1/dist - 1/r)
			push := delta.Scale(magnitude / dist)
			s.forces[i] = s.forces[i].Add(push)
			s.forces[j] = s.forces[j].Sub(push)
		}
	}
}

func length(v reaction.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
