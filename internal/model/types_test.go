package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-social-dashboard/internal/model"
)

func TestLabelForScore_Thresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  model.SentimentLabel
	}{
		{10, model.Positive},
		{7, model.Positive},
		{6.99, model.Neutral},
		{4, model.Neutral},
		{3.99, model.Negative},
		{0, model.Negative},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, model.LabelForScore(c.score), "score=%v", c.score)
	}
}

func TestScoreForLabel_RoundTrip(t *testing.T) {
	for _, l := range model.Labels() {
		assert.Equal(t, l, model.LabelForScore(model.ScoreForLabel(l)))
	}
	assert.Equal(t, model.NeutralScore, model.ScoreForLabel("bogus"))
}

func TestParseLabel_CaseInsensitive(t *testing.T) {
	l, ok := model.ParseLabel("  POSITIVE ")
	assert.True(t, ok)
	assert.Equal(t, model.Positive, l)
	_, ok = model.ParseLabel("all")
	assert.False(t, ok)
}

func TestMetric_DisplayChange(t *testing.T) {
	m := model.Metric{ChangePercent: 33.3333}
	assert.Equal(t, 33.3, m.DisplayChange())
	assert.Equal(t, 33.3333, m.ChangePercent)
}

func TestPost_EngagementAndTime(t *testing.T) {
	p := model.Post{Likes: 3, Shares: 2, Comments: 1, Invalid: true}
	assert.Equal(t, 6, p.Engagement())
	assert.False(t, p.HasTime())
}

func TestFilterState_Clamped(t *testing.T) {
	f := model.FilterState{TimeRangeDays: 2000000, Page: -3}.Clamped()
	assert.Equal(t, model.MaxTimeRangeDays, f.TimeRangeDays)
	assert.Equal(t, 1, f.Page)

	f = model.FilterState{TimeRangeDays: -1, Page: 4}.Clamped()
	assert.Equal(t, 0, f.TimeRangeDays)
	assert.Equal(t, 4, f.Page)
}
