package server

import (
	"go-social-dashboard/internal/analytics"
	"go-social-dashboard/internal/model"
)

const (
	// wireDateLayout 为最近帖子的日期格式。
	wireDateLayout = "2006-01-02 15:04"
	// contentPreview 为最近帖子正文的最大字符数，超出部分以省略号代替。
	contentPreview = 100
)

// wirePost 为 /api/dashboard-data 中最近帖子的结构。
type wirePost struct {
	ID             string  `json:"id"`
	Platform       string  `json:"platform"`
	Author         string  `json:"author"`
	Content        string  `json:"content"`
	URL            string  `json:"url,omitempty"`
	Sentiment      string  `json:"sentiment"`
	SentimentScore float64 `json:"sentimentScore"`
	Likes          int     `json:"likes"`
	Shares         int     `json:"shares"`
	Comments       int     `json:"comments"`
	Date           string  `json:"date"`
}

// dashboardData 为 /api/dashboard-data 的响应结构，与上游分析接口一致，另附面板状态。
type dashboardData struct {
	Metrics               map[string]float64               `json:"metrics"`
	ActivityData          model.ChartData                  `json:"activityData"`
	SentimentDistribution model.SentimentDistribution      `json:"sentimentDistribution"`
	WordCloudData         []model.WordCount                `json:"wordCloudData"`
	TopTopics             []model.Topic                    `json:"topTopics"`
	PlatformDistribution  model.Distribution               `json:"platformDistribution"`
	EngagementMetrics     model.ChartData                  `json:"engagementMetrics"`
	RecentPosts           []wirePost                       `json:"recentPosts"`
	Panels                map[model.Panel]model.PanelState `json:"panels,omitempty"`
}

func toWire(vm *model.DashboardViewModel, recent []model.Post) dashboardData {
	posts := make([]wirePost, 0, len(recent))
	for _, p := range recent {
		posts = append(posts, wirePostOf(p))
	}
	return dashboardData{
		Metrics:               analytics.WireMetrics(vm.Metrics),
		ActivityData:          vm.Activity,
		SentimentDistribution: vm.Sentiment,
		WordCloudData:         vm.WordCloud,
		TopTopics:             vm.TopHashtags,
		PlatformDistribution:  vm.Platforms,
		EngagementMetrics:     vm.Engagement,
		RecentPosts:           posts,
		Panels:                vm.Panels,
	}
}

func wirePostOf(p model.Post) wirePost {
	w := wirePost{
		ID:             p.ID,
		Platform:       p.Platform,
		Author:         p.Author,
		Content:        preview(p.Content),
		URL:            p.URL,
		Sentiment:      string(p.SentimentLabel()),
		SentimentScore: p.Sentiment,
		Likes:          p.Likes,
		Shares:         p.Shares,
		Comments:       p.Comments,
	}
	if w.Author == "" {
		w.Author = "N/A"
	}
	if p.HasTime() {
		w.Date = p.CreatedAt.Format(wireDateLayout)
	}
	return w
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= contentPreview {
		return s
	}
	return string(r[:contentPreview]) + "..."
}
