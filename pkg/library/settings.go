package library

import (
	"fmt"
	"log"

	"github.com/gonewx/chemlab/pkg/config"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 设置存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "playback"
)

// SettingsStore 播放设置存储
// 负责用户最近一次使用的倍速和循环开关的加载与保存
type SettingsStore struct {
	manager  *gdata.Manager // 可为 nil（降级模式，仅内存设置）
	defaults config.PlaybackSettings
	settings config.PlaybackSettings
}

// NewSettingsStore 创建设置存储
//
// 参数：
//   - manager: gdata 跨平台存储管理器，可为 nil（降级模式）
//   - defaults: 没有已保存设置或设置损坏时使用的值
//
// 返回：
//   - *SettingsStore: 设置存储实例，加载失败时使用默认值而不是返回错误
func NewSettingsStore(manager *gdata.Manager, defaults config.PlaybackSettings) *SettingsStore {
	s := &SettingsStore{
		manager:  manager,
		defaults: defaults,
		settings: defaults,
	}

	if err := s.Load(); err != nil {
		log.Printf("[SettingsStore] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return s
}

// Load 从 gdata 加载设置
//
// manager 为 nil 或设置不存在时使用默认值。
// 反序列化失败或内容无效时回到默认值并返回错误。
func (s *SettingsStore) Load() error {
	if s.manager == nil || !s.manager.ObjectPropExists(settingsObject, settingsProperty) {
		s.settings = s.defaults
		return nil
	}

	data, err := s.manager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		s.settings = s.defaults
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := s.defaults
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		s.settings = s.defaults
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		s.settings = s.defaults
		return fmt.Errorf("invalid saved settings: %w", err)
	}

	s.settings = loaded
	log.Printf("[SettingsStore] Settings loaded (speed=%.2f loop=%v)", loaded.Speed, loaded.Loop)
	return nil
}

// Save 保存设置到 gdata，manager 为 nil 时什么都不做
func (s *SettingsStore) Save() error {
	if s.manager == nil {
		return nil
	}

	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.manager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsStore] Settings saved")
	return nil
}

// Settings 返回当前设置
func (s *SettingsStore) Settings() config.PlaybackSettings {
	return s.settings
}

// SetSpeed 设置倍速，限制在 [config.MinSpeed, config.MaxSpeed]
// 仅修改内存中的设置，需调用 Save() 持久化
func (s *SettingsStore) SetSpeed(speed float64) {
	s.settings.Speed = config.ClampSpeed(speed)
}

// SetLoop 设置循环开关
// 仅修改内存中的设置，需调用 Save() 持久化
func (s *SettingsStore) SetLoop(loop bool) {
	s.settings.Loop = loop
}
