// 包 model 定义贯穿全链路的数据模型（帖子/情感/时间序列/指标/筛选/视图）。
package model

import (
	"strings"
	"time"
)

// Post 为归一化后的单条社交媒体帖子。
// CreatedAt 是分桶与筛选唯一依据的时间（不使用采集时间）。
type Post struct {
	ID        string    `json:"id"`
	Platform  string    `json:"platform"` // 统一小写
	Content   string    `json:"content"`
	Author    string    `json:"author,omitempty"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likes"`
	Shares    int       `json:"shares"`
	Comments  int       `json:"comments"`
	Views     int       `json:"views,omitempty"`
	// Sentiment 为 0-10 的规范化数值分数，标签仅在读取时派生。
	Sentiment float64 `json:"sentimentScore"`
	Hashtags  []Term  `json:"hashtags,omitempty"`
	Keywords  []Term  `json:"keywords,omitempty"`
	// Invalid 表示 createdAt 无法解析：不参与时间分桶，但仍可出现在未筛选列表中。
	Invalid bool     `json:"invalid,omitempty"`
	Issues  []string `json:"issues,omitempty"`
}

// Term 为抽取出的词项及其出现次数。
type Term struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// Engagement 返回互动总量（点赞+转发+评论）。
func (p Post) Engagement() int { return p.Likes + p.Shares + p.Comments }

// SentimentLabel 按分数阈值派生情感标签。
func (p Post) SentimentLabel() SentimentLabel { return LabelForScore(p.Sentiment) }

// HasTime 判断帖子是否具备可用于分桶的有效时间。
func (p Post) HasTime() bool { return !p.Invalid && !p.CreatedAt.IsZero() }

// SentimentLabel 为情感类别。
type SentimentLabel string

const (
	Positive SentimentLabel = "Positive"
	Neutral  SentimentLabel = "Neutral"
	Negative SentimentLabel = "Negative"
)

// 标签与分数互相映射时使用的阈值与代表值。
const (
	PositiveThreshold = 7.0
	NeutralThreshold  = 4.0

	PositiveScore = 8.0
	NeutralScore  = 5.0
	NegativeScore = 2.0
)

// LabelForScore：>=7 为 Positive，[4,7) 为 Neutral，<4 为 Negative。
func LabelForScore(score float64) SentimentLabel {
	switch {
	case score >= PositiveThreshold:
		return Positive
	case score >= NeutralThreshold:
		return Neutral
	default:
		return Negative
	}
}

// ScoreForLabel 返回标签的代表分数；未知标签视为 Neutral。
func ScoreForLabel(l SentimentLabel) float64 {
	switch l {
	case Positive:
		return PositiveScore
	case Negative:
		return NegativeScore
	default:
		return NeutralScore
	}
}

// ParseLabel 不区分大小写地解析情感标签。
func ParseLabel(s string) (SentimentLabel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "pos":
		return Positive, true
	case "neutral", "neu":
		return Neutral, true
	case "negative", "neg":
		return Negative, true
	}
	return "", false
}

// Labels 为固定顺序的全部标签。
func Labels() []SentimentLabel { return []SentimentLabel{Positive, Neutral, Negative} }
