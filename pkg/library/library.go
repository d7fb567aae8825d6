// Package library 提供反应文档的本地持久化
//
// 文档以 YAML 形式存储在 gdata 对象属性中，另有一个索引对象记录
// 名称、标题和保存时间。gdata.Manager 为 nil 时降级为仅内存存储。
package library

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"time"

	"github.com/gonewx/chemlab/internal/reaction"
	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// ErrNotFound 文档不存在
var ErrNotFound = errors.New("document not found")

// 存储路径常量
const (
	documentsObject = "documents"
	indexObject     = "library"
	indexProperty   = "index"
)

// 名称会成为存储键，只允许文件名安全的字符
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Entry 索引中的一条记录
type Entry struct {
	Name    string    `yaml:"name"`
	Title   string    `yaml:"title,omitempty"`
	Steps   int       `yaml:"steps"`
	SavedAt time.Time `yaml:"savedAt"`
}

// indexData 索引对象的存储结构
type indexData struct {
	Entries []Entry `yaml:"entries"`
}

// Library 反应文档库
type Library struct {
	manager *gdata.Manager    // 可为 nil（降级模式，仅内存）
	memory  map[string][]byte // 降级模式下的文档内容
	index   *indexData
}

// Open 打开文档库
//
// 参数：
//   - manager: gdata 跨平台存储管理器，可为 nil（降级模式）
//
// 返回：
//   - *Library: 文档库实例
//   - error: 索引存在但无法读取时返回错误
func Open(manager *gdata.Manager) (*Library, error) {
	lib := &Library{
		manager: manager,
		memory:  make(map[string][]byte),
		index:   &indexData{},
	}

	if manager == nil {
		log.Printf("[Library] No storage manager, documents are kept in memory only")
		return lib, nil
	}

	if err := lib.loadIndex(); err != nil {
		return nil, err
	}
	return lib, nil
}

// loadIndex 从 gdata 读取索引，不存在时保持空索引
func (l *Library) loadIndex() error {
	if !l.manager.ObjectPropExists(indexObject, indexProperty) {
		return nil
	}

	data, err := l.manager.LoadObjectProp(indexObject, indexProperty)
	if err != nil {
		return fmt.Errorf("failed to load library index: %w", err)
	}

	var idx indexData
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("failed to unmarshal library index: %w", err)
	}

	l.index = &idx
	log.Printf("[Library] Loaded index with %d documents", len(idx.Entries))
	return nil
}

// saveIndex 写回索引
func (l *Library) saveIndex() error {
	if l.manager == nil {
		return nil
	}

	data, err := yaml.Marshal(l.index)
	if err != nil {
		return fmt.Errorf("failed to marshal library index: %w", err)
	}
	if err := l.manager.SaveObjectProp(indexObject, indexProperty, data); err != nil {
		return fmt.Errorf("failed to save library index: %w", err)
	}
	return nil
}

// ValidateName 校验文档名称
//
// 规则：
//   - 不能为空
//   - 只能包含字母、数字、下划线、连字符
//   - 长度不超过 64 个字符
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("document name is empty")
	}
	if len(name) > 64 {
		return fmt.Errorf("document name %q is longer than 64 characters", name)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("document name %q may only contain letters, digits, '_' and '-'", name)
	}
	return nil
}

// find 返回索引中名称对应的位置，不存在返回 -1
func (l *Library) find(name string) int {
	for i, e := range l.index.Entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Save 保存文档，同名文档会被覆盖
func (l *Library) Save(name string, doc *reaction.Document) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("cannot save nil document %q", name)
	}

	data, err := reaction.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document %q: %w", name, err)
	}

	if l.manager == nil {
		l.memory[name] = data
	} else if err := l.manager.SaveObjectProp(documentsObject, name, data); err != nil {
		return fmt.Errorf("failed to save document %q: %w", name, err)
	}

	entry := Entry{
		Name:    name,
		Title:   doc.Title,
		Steps:   doc.Timeline.Len(),
		SavedAt: time.Now().UTC().Truncate(time.Second),
	}
	if i := l.find(name); i >= 0 {
		l.index.Entries[i] = entry
	} else {
		l.index.Entries = append(l.index.Entries, entry)
	}

	if err := l.saveIndex(); err != nil {
		return err
	}

	log.Printf("[Library] Saved %q (%d steps)", name, entry.Steps)
	return nil
}

// Load 读取文档
//
// 返回：
//   - *reaction.Document: 解码后的文档
//   - error: 不存在时返回 ErrNotFound（可用 errors.Is 判断）
func (l *Library) Load(name string) (*reaction.Document, error) {
	if l.find(name) < 0 {
		return nil, fmt.Errorf("failed to load %q: %w", name, ErrNotFound)
	}

	var data []byte
	if l.manager == nil {
		data = l.memory[name]
	} else {
		if !l.manager.ObjectPropExists(documentsObject, name) {
			return nil, fmt.Errorf("failed to load %q: %w", name, ErrNotFound)
		}
		var err error
		data, err = l.manager.LoadObjectProp(documentsObject, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load document %q: %w", name, err)
		}
	}

	doc, err := reaction.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode document %q: %w", name, err)
	}
	return doc, nil
}

// Exists 检查文档是否存在
func (l *Library) Exists(name string) bool {
	return l.find(name) >= 0
}

// Names 返回所有文档名称（按字母排序）
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.index.Entries))
	for _, e := range l.index.Entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Entries 返回索引记录的副本，按保存时间从新到旧排列
func (l *Library) Entries() []Entry {
	out := make([]Entry, len(l.index.Entries))
	copy(out, l.index.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out
}

// Remove 从库中移除文档
//
// 存储中的文档属性被删除，名称从索引中移除；之后 Load 返回 ErrNotFound。
func (l *Library) Remove(name string) error {
	i := l.find(name)
	if i < 0 {
		return fmt.Errorf("failed to remove %q: %w", name, ErrNotFound)
	}

	if l.manager == nil {
		delete(l.memory, name)
	} else if err := l.manager.DeleteObjectProp(documentsObject, name); err != nil {
		return fmt.Errorf("failed to delete document %q: %w", name, err)
	}

	l.index.Entries = append(l.index.Entries[:i], l.index.Entries[i+1:]...)
	if err := l.saveIndex(); err != nil {
		return err
	}

	log.Printf("[Library] Removed %q", name)
	return nil
}
