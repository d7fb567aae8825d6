// Package interp 提供反应回放引擎使用的标量、向量与颜色插值。
// 所有函数都是纯函数。
package interp

import (
	"math"

	"github.com/gonewx/chemlab/internal/reaction"
)

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b；t 不做截断
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// LerpVec3 对三个分量分别做线性插值
func LerpVec3(a, b reaction.Vec3, t float64) reaction.Vec3 {
	return reaction.Vec3{
		Lerp(a[0], b[0], t),
		Lerp(a[1], b[1], t),
		Lerp(a[2], b[2], t),
	}
}

// Clamp01 将 t 截断到 [0, 1]，NaN 视为 0
func Clamp01(t float64) float64 {
	if math.IsNaN(t) || t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
