package interp

import (
	"math"
	"strings"
)

// Easing Functions (缓动函数)
//
// 缓动函数用于控制动画的速度曲线。
// 所有函数接受一个进度值 t ∈ [0, 1]，返回缓动后的值 ∈ [0, 1]。
//
// 参考：https://easings.net/

// EaseFunc 将进度映射为缓动后的进度
type EaseFunc func(t float64) float64

// EaseLinear 线性缓动（无缓动）
func EaseLinear(t float64) float64 {
	return t
}

// EaseInQuad 二次方缓入
// 公式：f(t) = t²
func EaseInQuad(t float64) float64 {
	return t * t
}

// EaseOutQuad 二次方缓出
// 公式：f(t) = 1 - (1-t)²
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// EaseInCubic 三次方缓入
// 公式：f(t) = t³
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// EaseOutCubic 三次方缓出
// 特点：开始快，结束慢（适合液体倾倒、试管归位）
// 公式：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInOutCubic 三次方缓入缓出
// 公式：
//
//	t < 0.5: f(t) = 4t³
//	t >= 0.5: f(t) = 1 - (-2t + 2)³ / 2
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutExpo 指数缓出
// 公式：f(t) = 1 - 2^(-10t)，t=1 时精确返回 1
func EaseOutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

var easings = map[string]EaseFunc{
	"":               EaseLinear,
	"linear":         EaseLinear,
	"easeinquad":     EaseInQuad,
	"easeoutquad":    EaseOutQuad,
	"easeincubic":    EaseInCubic,
	"easeoutcubic":   EaseOutCubic,
	"easeinout":      EaseInOutCubic,
	"easeinoutcubic": EaseInOutCubic,
	"easeoutexpo":    EaseOutExpo,
}

// Easing 按名称查找缓动函数
// 名称不区分大小写，忽略 '-' 和 '_'（"ease-out-cubic" 等同 "EaseOutCubic"）。
// 未知名称返回 EaseLinear。
func Easing(name string) EaseFunc {
	key := strings.ToLower(name)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	if fn, ok := easings[key]; ok {
		return fn
	}
	return EaseLinear
}
