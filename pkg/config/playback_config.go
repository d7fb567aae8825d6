package config

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 CHEMLAB_PLAYBACK_SPEED
const EnvPrefix = "CHEMLAB"

// PlaybackConfig 播放器完整配置
//
// 对应配置文件结构（YAML）：
//
//	engine:
//	  fallbackDuration: 10
//	playback:
//	  speed: 1
//	  loop: false
//	  tickRate: 60
//	particles:
//	  attraction: 4
//	  ...
//	scrub:
//	  frequency: 6
//	  damping: 1
type PlaybackConfig struct {
	Engine    EngineConfig     `mapstructure:"engine" yaml:"engine"`
	Playback  PlaybackSettings `mapstructure:"playback" yaml:"playback"`
	Particles ParticleConfig   `mapstructure:"particles" yaml:"particles"`
	Scrub     ScrubConfig      `mapstructure:"scrub" yaml:"scrub"`
}

// EngineConfig 时间轴求值引擎配置
type EngineConfig struct {
	// FallbackDuration 时间轴总时长为 0 时使用的替代时长（秒）
	FallbackDuration float64 `mapstructure:"fallbackDuration" yaml:"fallbackDuration"`
}

// PlaybackSettings 播放参数，也是设置存储中持久化的部分
type PlaybackSettings struct {
	Speed    float64 `mapstructure:"speed" yaml:"speed"`       // 播放倍速，1 = 实时
	Loop     bool    `mapstructure:"loop" yaml:"loop"`         // 到达末尾后是否回到 0
	TickRate int     `mapstructure:"tickRate" yaml:"tickRate"` // 每秒更新次数
}

// ParticleConfig 原子粒子积分器参数
type ParticleConfig struct {
	Attraction        float64 `mapstructure:"attraction" yaml:"attraction"`
	Repulsion         float64 `mapstructure:"repulsion" yaml:"repulsion"`
	RepulsionDistance float64 `mapstructure:"repulsionDistance" yaml:"repulsionDistance"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
	Damping           float64 `mapstructure:"damping" yaml:"damping"` // 每次积分后的速度保留系数
	MaxStep           float64 `mapstructure:"maxStep" yaml:"maxStep"` // 单次积分的最大 dt（秒）
	Seed              int64   `mapstructure:"seed" yaml:"seed"`       // 热扰动随机种子
}

// ScrubConfig 平滑拖动（弹簧）参数
type ScrubConfig struct {
	Frequency float64 `mapstructure:"frequency" yaml:"frequency"` // 角频率
	Damping   float64 `mapstructure:"damping" yaml:"damping"`     // 阻尼比，1 = 临界阻尼
}

// DefaultPlaybackConfig 返回默认配置
func DefaultPlaybackConfig() *PlaybackConfig {
	return &PlaybackConfig{
		Engine: EngineConfig{
			FallbackDuration: 10,
		},
		Playback: PlaybackSettings{
			Speed:    1,
			Loop:     false,
			TickRate: 60,
		},
		Particles: ParticleConfig{
			Attraction:        4,
			Repulsion:         0.5,
			RepulsionDistance: 0.6,
			Temperature:       0.2,
			Damping:           0.92,
			MaxStep:           0.05,
			Seed:              1,
		},
		Scrub: ScrubConfig{
			Frequency: 6,
			Damping:   1,
		},
	}
}

// LoadPlaybackConfig 加载播放配置
//
// 参数：
//   - path: YAML 配置文件路径，为空时只使用默认值和环境变量
//
// 返回：
//   - *PlaybackConfig: 校验通过的配置
//   - error: 读取、解析或校验失败时返回错误
//
// 环境变量优先于配置文件，键名中的 "." 替换为 "_"，
// 例如 CHEMLAB_PLAYBACK_SPEED=2、CHEMLAB_SCRUB_FREQUENCY=8。
func LoadPlaybackConfig(path string) (*PlaybackConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultPlaybackConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read playback config '%s': %w", path, err)
		}
		log.Printf("[PlaybackConfig] Loaded %s", path)
	}

	cfg := &PlaybackConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode playback config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid playback config: %w", err)
	}

	return cfg, nil
}

// setDefaults 注册所有键的默认值
// 环境变量只覆盖 viper 已知的键，所以每个字段都要注册。
func setDefaults(v *viper.Viper, d *PlaybackConfig) {
	v.SetDefault("engine.fallbackDuration", d.Engine.FallbackDuration)

	v.SetDefault("playback.speed", d.Playback.Speed)
	v.SetDefault("playback.loop", d.Playback.Loop)
	v.SetDefault("playback.tickRate", d.Playback.TickRate)

	v.SetDefault("particles.attraction", d.Particles.Attraction)
	v.SetDefault("particles.repulsion", d.Particles.Repulsion)
	v.SetDefault("particles.repulsionDistance", d.Particles.RepulsionDistance)
	v.SetDefault("particles.temperature", d.Particles.Temperature)
	v.SetDefault("particles.damping", d.Particles.Damping)
	v.SetDefault("particles.maxStep", d.Particles.MaxStep)
	v.SetDefault("particles.seed", d.Particles.Seed)

	v.SetDefault("scrub.frequency", d.Scrub.Frequency)
	v.SetDefault("scrub.damping", d.Scrub.Damping)
}

// Validate 校验配置的有效性
func (c *PlaybackConfig) Validate() error {
	if c.Engine.FallbackDuration <= 0 {
		return fmt.Errorf("engine.fallbackDuration must be positive, got %v", c.Engine.FallbackDuration)
	}

	if err := c.Playback.Validate(); err != nil {
		return err
	}

	p := c.Particles
	if p.Attraction < 0 {
		return fmt.Errorf("particles.attraction must be non-negative, got %v", p.Attraction)
	}
	if p.Repulsion < 0 {
		return fmt.Errorf("particles.repulsion must be non-negative, got %v", p.Repulsion)
	}
	if p.RepulsionDistance < 0 {
		return fmt.Errorf("particles.repulsionDistance must be non-negative, got %v", p.RepulsionDistance)
	}
	if p.Temperature < 0 {
		return fmt.Errorf("particles.temperature must be non-negative, got %v", p.Temperature)
	}
	if p.Damping < 0 || p.Damping > 1 {
		return fmt.Errorf("particles.damping must be in [0, 1], got %v", p.Damping)
	}
	if p.MaxStep <= 0 {
		return fmt.Errorf("particles.maxStep must be positive, got %v", p.MaxStep)
	}

	if c.Scrub.Frequency <= 0 {
		return fmt.Errorf("scrub.frequency must be positive, got %v", c.Scrub.Frequency)
	}
	if c.Scrub.Damping < 0 {
		return fmt.Errorf("scrub.damping must be non-negative, got %v", c.Scrub.Damping)
	}

	return nil
}

// Validate 校验播放参数
func (s PlaybackSettings) Validate() error {
	if s.Speed <= 0 {
		return fmt.Errorf("playback.speed must be positive, got %v", s.Speed)
	}
	if s.TickRate <= 0 {
		return fmt.Errorf("playback.tickRate must be positive, got %d", s.TickRate)
	}
	return nil
}

// 倍速范围
const (
	MinSpeed = 0.1
	MaxSpeed = 8.0
)

// ClampSpeed 将倍速限制在 [MinSpeed, MaxSpeed]，NaN 视为 1
func ClampSpeed(speed float64) float64 {
	if math.IsNaN(speed) {
		return 1
	}
	if speed < MinSpeed {
		return MinSpeed
	}
	if speed > MaxSpeed {
		return MaxSpeed
	}
	return speed
}
