package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-social-dashboard/internal/model"
)

func sampleView() *model.DashboardViewModel {
	ts := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return &model.DashboardViewModel{
		Filter:      model.DefaultFilterState(),
		GeneratedAt: ts,
		Metrics: model.Summary{
			Posts:          model.Metric{Total: 6, ChangePercent: 50},
			EngagementRate: model.Metric{Total: 12.5, ChangePercent: -10},
		},
		Activity: model.ChartData{
			Labels:   []string{"2024-03-09", "2024-03-10"},
			Datasets: []model.Dataset{{Label: "Twitter", Data: []float64{2, 4}}},
		},
		Sentiment:   model.SentimentDistribution{Positive: 3, Neutral: 1},
		WordCloud:   []model.WordCount{{Text: "golang", Value: 4}},
		TopHashtags: []model.Topic{{Name: "ai", Posts: 3, Engagement: 40, Sentiment: 7.5, Trend: "up"}},
		Platforms:   model.Distribution{Labels: []string{"twitter"}, Data: []int{6}},
		RecentPosts: model.Page{
			Items:      []model.Post{{ID: "p1", Platform: "twitter", Author: "alice", Content: strings.Repeat("x", 80), CreatedAt: ts, Sentiment: 8, Likes: 3}},
			Page:       1,
			PageSize:   5,
			TotalItems: 6,
			TotalPages: 2,
		},
		TrendingSummary: "Go is trending",
		Panels: map[model.Panel]model.PanelState{
			model.PanelInsight: {Status: model.StatusError, Error: "insight down"},
		},
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleView()))
	out := buf.String()

	assert.Contains(t, out, "== Key Metrics ==")
	assert.Contains(t, out, "+50%")
	assert.Contains(t, out, "-10%")
	assert.Contains(t, out, "75.0%")
	assert.Contains(t, out, "#ai")
	assert.Contains(t, out, "golang(4)")
	assert.Contains(t, out, "2024-03-10 12:00")
	assert.Contains(t, out, strings.Repeat("x", 60)+"...")
	assert.Contains(t, out, "page 1/2 (6 posts)")
	assert.Contains(t, out, "Go is trending")
	assert.Contains(t, out, "! unavailable: insight down")
	assert.NotContains(t, out, "stale data")
}

func TestRender_Stale(t *testing.T) {
	vm := sampleView()
	vm.Stale = true
	vm.Panels[model.PanelMetrics] = model.PanelState{Status: model.StatusStale, Error: "timeout"}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, vm))
	assert.Contains(t, buf.String(), "showing stale data")
	assert.Contains(t, buf.String(), "(stale)")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "0%", percent(1, 0))
	assert.Equal(t, "33.3%", percent(1, 3))
	assert.Equal(t, "0%", change(model.Metric{}))
	assert.Equal(t, "abc", preview("abc"))
}
