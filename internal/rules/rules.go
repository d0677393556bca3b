// 包 rules 负责加载列表页解析规则（rules.yaml），
// 以预设名（如 default/forum）组织 CSS 选择器，用于抓取帖子列表页。
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPreset 为未指定或找不到预设时的回退名。
const DefaultPreset = "default"

// Rules 表示全部规则集合：键为预设名，值为具体规则。
type Rules struct {
	Presets map[string]Preset `yaml:",inline"`
}

// Preset 为单个预设的解析规则集合。
type Preset struct {
	Listing *Listing `yaml:"listing"`
}

// Listing 描述帖子列表页的选择器：
// - item：每条帖子的容器
// - 其余字段取文本或属性（支持 a@href / time@datetime / @data-id），可用 "||" 回退
type Listing struct {
	Item     string `yaml:"item"`
	ID       string `yaml:"id"`
	Content  string `yaml:"content"`
	Author   string `yaml:"author"`
	Date     string `yaml:"date"`
	Link     string `yaml:"link"`
	Likes    string `yaml:"likes"`
	Shares   string `yaml:"shares"`
	Comments string `yaml:"comments"`
	Views    string `yaml:"views"`
	Tags     string `yaml:"tags"`
}

// Load 从 YAML 文件加载规则。
func Load(path string) (*Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return Parse(b)
}

// Parse 解析 YAML 内容；没有 item 选择器的预设视为无效。
func Parse(b []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r.Presets); err != nil {
		return nil, fmt.Errorf("unmarshal rules: %w", err)
	}
	for name, p := range r.Presets {
		if p.Listing == nil || strings.TrimSpace(p.Listing.Item) == "" {
			return nil, fmt.Errorf("rules preset %q: listing.item required", name)
		}
	}
	return &r, nil
}

// GetPreset 按名称获取预设（不区分大小写），为空或不存在时回退到 "default"。
func (r *Rules) GetPreset(name string) (Preset, bool) {
	if r == nil || len(r.Presets) == 0 {
		return Preset{}, false
	}
	if name == "" {
		name = DefaultPreset
	}
	if p, ok := r.lookup(name); ok {
		return p, true
	}
	return r.lookup(DefaultPreset)
}

func (r *Rules) lookup(name string) (Preset, bool) {
	if p, ok := r.Presets[name]; ok {
		return p, true
	}
	for k, v := range r.Presets {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return Preset{}, false
}
