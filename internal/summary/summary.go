// 包 summary 计算指标卡片与各统计面板：总量、互动率、情感均值、触达及环比变化，
// 以及情感分布、平台分布、热门话题、词云与高互动帖子。全部为纯函数。
package summary

import (
	"sort"

	"go-social-dashboard/internal/model"
)

// Totals 为一个时间段的聚合总量，可由上游预先计算后直接传入。
type Totals struct {
	Posts        int
	Interactions int
	SentimentSum float64
	Reach        int
}

// ComputeTotals 统计时间有效的帖子。
// Reach 为已知作者的不同 (平台, 作者) 组合数。
func ComputeTotals(posts []model.Post) Totals {
	var t Totals
	authors := map[[2]string]struct{}{}
	for _, p := range posts {
		if !p.HasTime() {
			continue
		}
		t.Posts++
		t.Interactions += p.Engagement()
		t.SentimentSum += p.Sentiment
		if p.Author != "" {
			authors[[2]string{p.Platform, p.Author}] = struct{}{}
		}
	}
	t.Reach = len(authors)
	return t
}

// EngagementRate 为平均每帖互动数；无帖子时为 0。
func (t Totals) EngagementRate() float64 {
	if t.Posts == 0 {
		return 0
	}
	return float64(t.Interactions) / float64(t.Posts)
}

// SentimentScore 为平均情感分（0-10）；无帖子时为 0。
func (t Totals) SentimentScore() float64 {
	if t.Posts == 0 {
		return 0
	}
	return t.SentimentSum / float64(t.Posts)
}

// ChangePercent 返回 (cur-prev)/prev*100；prev 为 0 时返回 0。
func ChangePercent(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func metric(cur, prev float64) model.Metric {
	return model.Metric{Total: cur, ChangePercent: ChangePercent(cur, prev)}
}

// FromTotals 由本期与上期总量计算指标卡片。
func FromTotals(cur, prev Totals) model.Summary {
	return model.Summary{
		Posts:          metric(float64(cur.Posts), float64(prev.Posts)),
		EngagementRate: metric(cur.EngagementRate(), prev.EngagementRate()),
		SentimentScore: metric(cur.SentimentScore(), prev.SentimentScore()),
		Reach:          metric(float64(cur.Reach), float64(prev.Reach)),
	}
}

// Summarize 由本期与上期帖子计算指标卡片；previous 可为空。
func Summarize(current, previous []model.Post) model.Summary {
	return FromTotals(ComputeTotals(current), ComputeTotals(previous))
}

// SentimentDistribution 统计各情感类别的帖子数。
func SentimentDistribution(posts []model.Post) model.SentimentDistribution {
	var d model.SentimentDistribution
	for _, p := range posts {
		switch p.SentimentLabel() {
		case model.Positive:
			d.Positive++
		case model.Neutral:
			d.Neutral++
		default:
			d.Negative++
		}
	}
	return d
}

// PlatformDistribution 按平台计数，按数量降序、名称升序排列。
func PlatformDistribution(posts []model.Post) model.Distribution {
	counts := map[string]int{}
	for _, p := range posts {
		counts[p.Platform]++
	}
	names := sortedByCount(counts)
	d := model.Distribution{Labels: make([]string, 0, len(names)), Data: make([]int, 0, len(names))}
	for _, n := range names {
		d.Labels = append(d.Labels, n)
		d.Data = append(d.Data, counts[n])
	}
	return d
}

func sortedByCount(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
