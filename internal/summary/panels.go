package summary

import (
	"math"
	"sort"

	"go-social-dashboard/internal/model"
)

// 话题趋势。
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

type topicAcc struct {
	posts      int
	engagement int
	sentiment  float64
}

func hashtagStats(posts []model.Post) map[string]*topicAcc {
	m := map[string]*topicAcc{}
	for _, p := range posts {
		for _, h := range p.Hashtags {
			a, ok := m[h.Text]
			if !ok {
				a = &topicAcc{}
				m[h.Text] = a
			}
			a.posts++
			a.engagement += p.Engagement()
			a.sentiment += p.Sentiment
		}
	}
	return m
}

// TopHashtags 返回帖子数最多的话题（并列按互动量、名称排序），
// 趋势为与上期同话题帖子数的比较。limit<=0 表示不限制。
func TopHashtags(current, previous []model.Post, limit int) []model.Topic {
	cur := hashtagStats(current)
	prev := hashtagStats(previous)
	out := make([]model.Topic, 0, len(cur))
	for name, a := range cur {
		t := model.Topic{
			Name:       name,
			Posts:      a.posts,
			Engagement: a.engagement,
			Sentiment:  math.Round(a.sentiment/float64(a.posts)*100) / 100,
			Trend:      TrendFlat,
		}
		before := 0
		if p, ok := prev[name]; ok {
			before = p.posts
		}
		switch {
		case a.posts > before:
			t.Trend = TrendUp
		case a.posts < before:
			t.Trend = TrendDown
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Posts != out[j].Posts {
			return out[i].Posts > out[j].Posts
		}
		if out[i].Engagement != out[j].Engagement {
			return out[i].Engagement > out[j].Engagement
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// WordCloud 汇总关键词频次，取前 limit 个。
func WordCloud(posts []model.Post, limit int) []model.WordCount {
	counts := map[string]int{}
	for _, p := range posts {
		for _, k := range p.Keywords {
			counts[k.Text] += k.Count
		}
	}
	names := sortedByCount(counts)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	out := make([]model.WordCount, 0, len(names))
	for _, n := range names {
		out = append(out, model.WordCount{Text: n, Value: counts[n]})
	}
	return out
}

// TopPosts 按互动量降序返回前 limit 条（并列时较新的在前）。不修改入参。
func TopPosts(posts []model.Post, limit int) []model.Post {
	out := make([]model.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Engagement() != out[j].Engagement() {
			return out[i].Engagement() > out[j].Engagement()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
