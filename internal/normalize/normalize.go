// 包 normalize 负责把任意来源（接口 JSON、导入文件、订阅、抓取页面）的原始帖子
// 统一为 model.Post：字段别名、时间解析、计数校验、情感映射、正文清洗与词项抽取。
// 纯函数，无副作用；单条记录的问题记录在 Post.Issues 中而不是返回错误。
package normalize

import (
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"go-social-dashboard/internal/model"
)

// Raw 为未经处理的原始帖子记录。
type Raw = map[string]any

// 字段别名，按优先级排列。不包含 collectedAt 等采集时间字段。
var (
	idKeys       = []string{"id", "_id", "post_id", "platform_id"}
	platformKeys = []string{"platform", "source", "platform_name"}
	contentKeys  = []string{"content", "text", "body", "title"}
	authorKeys   = []string{"author", "username", "handle", "user"}
	urlKeys      = []string{"url", "link", "permalink"}
	createdKeys  = []string{"createdAt", "created_at", "date", "timestamp", "published_at"}
	likeKeys     = []string{"likes", "like_count", "favorite_count"}
	shareKeys    = []string{"shares", "retweets", "retweet_count", "share_count"}
	commentKeys  = []string{"comments", "comment_count", "replies"}
	viewKeys     = []string{"views", "impressions", "view_count"}
)

// UnknownPlatform 为缺失平台时的占位值。
const UnknownPlatform = "unknown"

var idNamespace = uuid.MustParse("6f1c3a52-8d0e-4b4a-9a57-2f5d1c0e7b11")

// Normalizer 持有时间解析所用的时区（无时区信息的时间按该时区解释）。
type Normalizer struct {
	loc    *time.Location
	strict *bluemonday.Policy
}

// New 创建 Normalizer；loc 为空时使用 UTC。
func New(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc, strict: bluemonday.StrictPolicy()}
}

var defaultNormalizer = New(time.UTC)

// Post 使用 UTC 归一化单条记录。
func Post(raw Raw) model.Post { return defaultNormalizer.Post(raw) }

// Batch 使用 UTC 归一化一批记录。
func Batch(raws []Raw) ([]model.Post, int) { return defaultNormalizer.Batch(raws) }

// Batch 逐条归一化，返回帖子与时间无效的条数；单条失败不影响整体。
func (n *Normalizer) Batch(raws []Raw) ([]model.Post, int) {
	out := make([]model.Post, 0, len(raws))
	invalid := 0
	for _, r := range raws {
		if r == nil {
			continue
		}
		p := n.Post(r)
		if p.Invalid {
			invalid++
		}
		out = append(out, p)
	}
	return out, invalid
}

// Post 归一化单条记录。
func (n *Normalizer) Post(raw Raw) model.Post {
	var issues []string
	p := model.Post{}

	p.Platform = strings.ToLower(strings.TrimSpace(firstString(raw, platformKeys)))
	if p.Platform == "" {
		p.Platform = UnknownPlatform
	}
	p.Content = n.cleanText(firstString(raw, contentKeys))
	p.Author = strings.TrimSpace(authorOf(raw))
	p.URL = strings.TrimSpace(firstString(raw, urlKeys))

	if v, key, ok := first(raw, createdKeys); ok {
		t, err := parseTime(v, n.loc)
		if err != nil {
			p.Invalid = true
			issues = append(issues, key+": "+err.Error())
		} else {
			p.CreatedAt = t
		}
	} else {
		p.Invalid = true
		issues = append(issues, "createdAt: missing")
	}

	p.Likes = countOf(raw, likeKeys, &issues)
	p.Shares = countOf(raw, shareKeys, &issues)
	p.Comments = countOf(raw, commentKeys, &issues)
	p.Views = countOf(raw, viewKeys, &issues)
	p.Sentiment = sentimentOf(raw, &issues)

	if v, ok := raw["hashtags"]; ok && v != nil {
		p.Hashtags = termsOf(v, true)
	}
	if len(p.Hashtags) == 0 {
		p.Hashtags = ExtractHashtags(p.Content)
	}
	if v, ok := raw["keywords"]; ok && v != nil {
		p.Keywords = termsOf(v, false)
	}
	if len(p.Keywords) == 0 {
		p.Keywords = ExtractKeywords(p.Content)
	}

	p.ID = strings.TrimSpace(firstString(raw, idKeys))
	if p.ID == "" {
		p.ID = derivedID(p, raw)
	}
	p.Issues = issues
	return p
}

// cleanText 去除 HTML 标签、反转义实体并折叠空白。
func (n *Normalizer) cleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(n.strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// derivedID 为缺少 id 的记录生成稳定 id，保证重复导入幂等。
func derivedID(p model.Post, raw Raw) string {
	created := ""
	if v, _, ok := first(raw, createdKeys); ok {
		created = toString(v)
	}
	key := p.Platform + "|" + p.Author + "|" + p.URL + "|" + created + "|" + p.Content
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

// authorOf 兼容 author 为字符串或 {name|username|screen_name} 对象两种形态。
func authorOf(raw Raw) string {
	for _, k := range authorKeys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				return t
			}
		case map[string]any:
			if s := firstString(t, []string{"name", "username", "screen_name"}); s != "" {
				return s
			}
		}
	}
	return ""
}
