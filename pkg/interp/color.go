package interp

import (
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseHex 解析 "#rrggbb"、"#rgb"，也接受省略 '#' 的写法
func ParseHex(s string) (colorful.Color, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// LerpColor 在 RGB 空间按 Clamp01(t) 混合两个十六进制颜色
//
// 参数：
//   - start, end: 起止颜色（十六进制字符串）
//   - t: 进度
//
// 返回：
//   - "#rrggbb" 格式的结果
//   - 任一端点解析失败时原样返回 start 与 false
func LerpColor(start, end string, t float64) (string, bool) {
	from, ok := ParseHex(start)
	if !ok {
		return start, false
	}
	to, ok := ParseHex(end)
	if !ok {
		return start, false
	}
	return from.BlendRgb(to, Clamp01(t)).Clamped().Hex(), true
}
