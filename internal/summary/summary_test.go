package summary

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-social-dashboard/internal/model"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func p(platform, author string, likes, shares, comments int, sentiment float64, tags ...string) model.Post {
	post := model.Post{
		Platform: platform, Author: author, CreatedAt: base,
		Likes: likes, Shares: shares, Comments: comments, Sentiment: sentiment,
	}
	for _, t := range tags {
		post.Hashtags = append(post.Hashtags, model.Term{Text: t, Count: 1})
	}
	return post
}

func TestChangePercent_ZeroPrevious(t *testing.T) {
	assert.Equal(t, 0.0, ChangePercent(10, 0))
	assert.Equal(t, 0.0, ChangePercent(0, 0))
	assert.Equal(t, 50.0, ChangePercent(15, 10))
	assert.Equal(t, -100.0, ChangePercent(0, 10))

	s := Summarize([]model.Post{p("twitter", "a", 1, 1, 1, 8)}, nil)
	for _, m := range []model.Metric{s.Posts, s.EngagementRate, s.SentimentScore, s.Reach} {
		assert.Equal(t, 0.0, m.ChangePercent)
		assert.False(t, math.IsNaN(m.ChangePercent) || math.IsInf(m.ChangePercent, 0))
	}
}

func TestSummarize_Formulas(t *testing.T) {
	cur := []model.Post{
		p("twitter", "alice", 10, 2, 0, 8),
		p("twitter", "alice", 4, 0, 2, 5),
		p("facebook", "alice", 0, 0, 0, 2),
		p("facebook", "", 0, 0, 0, 5),
		{Platform: "twitter", Invalid: true, Likes: 100, Sentiment: 10, Author: "bob"},
	}
	prev := []model.Post{
		p("twitter", "carol", 3, 0, 0, 5),
		p("twitter", "dave", 3, 0, 0, 5),
	}
	s := Summarize(cur, prev)
	assert.Equal(t, 4.0, s.Posts.Total)
	assert.Equal(t, 100.0, s.Posts.ChangePercent)
	assert.Equal(t, 4.5, s.EngagementRate.Total)
	assert.Equal(t, 50.0, s.EngagementRate.ChangePercent)
	assert.Equal(t, 5.0, s.SentimentScore.Total)
	assert.Equal(t, 2.0, s.Reach.Total)
	assert.Equal(t, 0.0, s.Reach.ChangePercent)
}

func TestComputeTotals_SkipsUndatedPosts(t *testing.T) {
	undated := p("twitter", "zed", 50, 0, 0, 10)
	undated.CreatedAt = time.Time{}
	tot := ComputeTotals([]model.Post{p("twitter", "alice", 2, 0, 0, 8), undated})
	assert.Equal(t, Totals{Posts: 1, Interactions: 2, SentimentSum: 8, Reach: 1}, tot)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Equal(t, model.Summary{}, s)
}

func TestFromTotals_PrecomputedTotals(t *testing.T) {
	s := FromTotals(Totals{Posts: 4, Interactions: 10, SentimentSum: 24, Reach: 3}, Totals{Posts: 3})
	assert.InDelta(t, 33.333, s.Posts.ChangePercent, 0.001)
	assert.Equal(t, 33.3, s.Posts.DisplayChange())
	assert.Equal(t, 2.5, s.EngagementRate.Total)
	assert.Equal(t, 6.0, s.SentimentScore.Total)
}

func TestDistributions(t *testing.T) {
	posts := []model.Post{
		p("twitter", "a", 0, 0, 0, 9),
		p("twitter", "a", 0, 0, 0, 7),
		p("facebook", "a", 0, 0, 0, 4),
		p("reddit", "a", 0, 0, 0, 1),
	}
	assert.Equal(t, model.SentimentDistribution{Positive: 2, Neutral: 1, Negative: 1}, SentimentDistribution(posts))
	assert.Equal(t, model.Distribution{
		Labels: []string{"twitter", "facebook", "reddit"},
		Data:   []int{2, 1, 1},
	}, PlatformDistribution(posts))
}

func TestTopHashtags_Trend(t *testing.T) {
	cur := []model.Post{
		p("twitter", "a", 5, 0, 0, 8, "ai", "go"),
		p("twitter", "b", 1, 0, 0, 4, "ai"),
		p("twitter", "c", 0, 0, 0, 5, "rust"),
	}
	prev := []model.Post{
		p("twitter", "a", 0, 0, 0, 5, "go"),
		p("twitter", "a", 0, 0, 0, 5, "rust"),
		p("twitter", "a", 0, 0, 0, 5, "rust"),
	}
	top := TopHashtags(cur, prev, 2)
	require.Len(t, top, 2)
	assert.Equal(t, model.Topic{Name: "ai", Posts: 2, Engagement: 6, Sentiment: 6, Trend: TrendUp}, top[0])
	assert.Equal(t, model.Topic{Name: "go", Posts: 1, Engagement: 5, Sentiment: 8, Trend: TrendFlat}, top[1])

	all := TopHashtags(cur, prev, 0)
	require.Len(t, all, 3)
	assert.Equal(t, TrendDown, all[2].Trend)
}

func TestWordCloud(t *testing.T) {
	posts := []model.Post{
		{Keywords: []model.Term{{Text: "golang", Count: 2}, {Text: "release", Count: 1}}},
		{Keywords: []model.Term{{Text: "golang", Count: 1}, {Text: "alpha", Count: 1}}},
	}
	assert.Equal(t, []model.WordCount{{Text: "golang", Value: 3}, {Text: "alpha", Value: 1}}, WordCloud(posts, 2))
}

func TestTopPosts_DoesNotMutate(t *testing.T) {
	posts := []model.Post{
		{ID: "low", Likes: 1},
		{ID: "high", Likes: 10},
		{ID: "mid-old", Likes: 5, CreatedAt: base},
		{ID: "mid-new", Likes: 5, CreatedAt: base.Add(time.Hour)},
	}
	top := TopPosts(posts, 3)
	ids := []string{top[0].ID, top[1].ID, top[2].ID}
	assert.Equal(t, []string{"high", "mid-new", "mid-old"}, ids)
	assert.Equal(t, "low", posts[0].ID)
}
