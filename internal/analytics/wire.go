package analytics

import (
	"encoding/json"
	"strconv"
	"strings"

	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/summary"
)

// wireMetrics 为上游 metrics 字段的扁平结构。
type wireMetrics struct {
	TotalPosts       float64 `json:"totalPosts"`
	PostsChange      float64 `json:"postsChange"`
	EngagementRate   float64 `json:"engagementRate"`
	EngagementChange float64 `json:"engagementChange"`
	SentimentScore   float64 `json:"sentimentScore"`
	SentimentChange  float64 `json:"sentimentChange"`
	Reach            float64 `json:"reach"`
	ReachChange      float64 `json:"reachChange"`
}

func (m wireMetrics) summary() model.Summary {
	return model.Summary{
		Posts:          model.Metric{Total: m.TotalPosts, ChangePercent: m.PostsChange},
		EngagementRate: model.Metric{Total: m.EngagementRate, ChangePercent: m.EngagementChange},
		SentimentScore: model.Metric{Total: m.SentimentScore, ChangePercent: m.SentimentChange},
		Reach:          model.Metric{Total: m.Reach, ChangePercent: m.ReachChange},
	}
}

// WireMetrics 把指标卡片转换为上游的扁平结构，供本地接口复用同一形状。
func WireMetrics(s model.Summary) map[string]float64 {
	return map[string]float64{
		"totalPosts":       s.Posts.Total,
		"postsChange":      s.Posts.DisplayChange(),
		"engagementRate":   s.EngagementRate.Total,
		"engagementChange": s.EngagementRate.DisplayChange(),
		"sentimentScore":   s.SentimentScore.Total,
		"sentimentChange":  s.SentimentScore.DisplayChange(),
		"reach":            s.Reach.Total,
		"reachChange":      s.Reach.DisplayChange(),
	}
}

// wireTopic 兼容 sentiment 为数值或标签、trend 为字符串或数值两种形态。
type wireTopic struct {
	Name       string `json:"name"`
	Posts      int    `json:"posts"`
	Engagement int    `json:"engagement"`
	Sentiment  any    `json:"sentiment"`
	Trend      any    `json:"trend"`
}

func (w wireTopic) topic() model.Topic {
	t := model.Topic{Name: w.Name, Posts: w.Posts, Engagement: w.Engagement, Trend: summary.TrendFlat}
	switch v := w.Sentiment.(type) {
	case json.Number:
		t.Sentiment, _ = v.Float64()
	case string:
		if l, ok := model.ParseLabel(v); ok {
			t.Sentiment = model.ScoreForLabel(l)
		}
	}
	switch v := w.Trend.(type) {
	case json.Number:
		f, _ := v.Float64()
		t.Trend = trendOf(f)
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case summary.TrendUp, summary.TrendDown, summary.TrendFlat:
			t.Trend = s
		default:
			if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil {
				t.Trend = trendOf(f)
			}
		}
	}
	return t
}

func trendOf(f float64) string {
	switch {
	case f > 0:
		return summary.TrendUp
	case f < 0:
		return summary.TrendDown
	default:
		return summary.TrendFlat
	}
}
