package normalize

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-social-dashboard/internal/model"
)

func TestPost_AliasesAndCounts(t *testing.T) {
	p := Post(Raw{
		"_id":            "x1",
		"source":         "Twitter",
		"text":           "<p>Hello &amp; <b>world</b></p>  #AI",
		"user":           map[string]any{"name": "alice"},
		"created_at":     "2024-03-01 10:00:00",
		"retweet_count":  "3",
		"favorite_count": float64(5),
		"replies":        float64(-2),
		"sentiment":      "POSITIVE",
	})
	assert.Equal(t, "x1", p.ID)
	assert.Equal(t, "twitter", p.Platform)
	assert.Equal(t, "alice", p.Author)
	assert.Equal(t, "Hello & world #AI", p.Content)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), p.CreatedAt)
	assert.False(t, p.Invalid)
	assert.Equal(t, 5, p.Likes)
	assert.Equal(t, 3, p.Shares)
	assert.Equal(t, 0, p.Comments)
	assert.Equal(t, model.PositiveScore, p.Sentiment)
	require.Len(t, p.Issues, 1)
	assert.Contains(t, p.Issues[0], "replies")
	assert.Contains(t, p.Issues[0], "input error")
	assert.Equal(t, []model.Term{{Text: "ai", Count: 1}}, p.Hashtags)
}

func TestPost_NonNumericCount(t *testing.T) {
	p := Post(Raw{"platform": "facebook", "content": "x", "date": "2024-03-01", "likes": "lots"})
	assert.Equal(t, 0, p.Likes)
	require.Len(t, p.Issues, 1)
	assert.True(t, strings.HasPrefix(p.Issues[0], "input error (likes)"))
}

func TestPost_HugeCountClamped(t *testing.T) {
	p := Post(Raw{"platform": "facebook", "content": "x", "date": "2024-03-01", "likes": 1e300, "shares": "NaN"})
	assert.Equal(t, math.MaxInt32, p.Likes)
	assert.Equal(t, 0, p.Shares)
	require.Len(t, p.Issues, 2)
	assert.Contains(t, p.Issues[0], "out of range")
	assert.Contains(t, p.Issues[1], "non-numeric")
	assert.False(t, p.Invalid)

	p = Post(Raw{"platform": "x", "content": "y", "date": 1e300})
	assert.True(t, p.Invalid)
}

func TestPost_Sentiment(t *testing.T) {
	cases := []struct {
		name string
		raw  Raw
		want float64
	}{
		{"polarity", Raw{"sentiment_score": -0.6}, 2},
		{"polarity-positive", Raw{"sentiment_score": 0.8}, 9},
		{"score-clamped", Raw{"sentimentScore": float64(12)}, 10},
		{"score-negative-clamped", Raw{"sentimentScore": float64(-3)}, 0},
		{"label", Raw{"sentiment": "negative"}, model.NegativeScore},
		{"missing", Raw{}, model.NeutralScore},
		{"label-wins-on-conflict", Raw{"sentiment": "Positive", "sentimentScore": 0.2}, model.PositiveScore},
		{"label-agrees", Raw{"sentiment": "Positive", "sentimentScore": 9.5}, 9.5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := Post(c.raw)
			assert.InDelta(t, c.want, p.Sentiment, 1e-9)
		})
	}
}

func TestPost_Dates(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, v := range []any{
		"2024-03-01T10:00:00Z",
		"2024-03-01T18:00:00+08:00",
		"2024-03-01 10:00",
		float64(1709287200),
		float64(1709287200000),
		"1709287200",
	} {
		p := Post(Raw{"createdAt": v})
		assert.False(t, p.Invalid, "value=%v", v)
		assert.True(t, want.Equal(p.CreatedAt), "value=%v got=%v", v, p.CreatedAt)
	}

	p := Post(Raw{"createdAt": "yesterday-ish"})
	assert.True(t, p.Invalid)
	assert.True(t, p.CreatedAt.IsZero())
	require.NotEmpty(t, p.Issues)

	p = Post(Raw{"content": "no date"})
	assert.True(t, p.Invalid)
}

func TestPost_CollectedAtIgnored(t *testing.T) {
	p := Post(Raw{"collected_at": "2024-03-01", "collectedAt": "2024-03-01"})
	assert.True(t, p.Invalid)
}

func TestNormalizer_Location(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	p := New(loc).Post(Raw{"date": "2024-03-01 08:00"})
	assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(p.CreatedAt))
}

func TestExtractTerms(t *testing.T) {
	content := "Loving the new #GoLang release, golang rocks! #golang"
	assert.Equal(t, []model.Term{{Text: "golang", Count: 2}}, ExtractHashtags(content))
	assert.Equal(t, []model.Term{
		{Text: "golang", Count: 1},
		{Text: "loving", Count: 1},
		{Text: "release", Count: 1},
		{Text: "rocks", Count: 1},
	}, ExtractKeywords(content))
	assert.Nil(t, ExtractKeywords("a an to 42 1234"))
}

func TestPost_GivenTerms(t *testing.T) {
	p := Post(Raw{
		"content":  "ignored #other",
		"hashtags": []any{"#AI", "ai", map[string]any{"text": "ML", "count": float64(3)}},
		"keywords": "model, data",
	})
	assert.Equal(t, []model.Term{{Text: "ml", Count: 3}, {Text: "ai", Count: 2}}, p.Hashtags)
	assert.Equal(t, []model.Term{{Text: "data", Count: 1}, {Text: "model", Count: 1}}, p.Keywords)
}

func TestBatch_CountsInvalidAndDerivesStableIDs(t *testing.T) {
	raws := []Raw{
		{"platform": "twitter", "content": "a", "date": "2024-03-01"},
		nil,
		{"platform": "twitter", "content": "b", "date": "garbage"},
		{"content": "c"},
	}
	posts, invalid := Batch(raws)
	require.Len(t, posts, 3)
	assert.Equal(t, 2, invalid)
	assert.Equal(t, UnknownPlatform, posts[2].Platform)

	again, _ := Batch(raws)
	for i := range posts {
		assert.NotEmpty(t, posts[i].ID)
		assert.Equal(t, posts[i].ID, again[i].ID)
	}
	assert.NotEqual(t, posts[0].ID, posts[1].ID)
}
