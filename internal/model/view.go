package model

import (
	"math"
	"time"
)

// Granularity 为时间分桶粒度。
type Granularity string

const (
	Hour  Granularity = "hour"
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// Bucket 为一个时间桶：Key 可排序，Start 为桶的起始时刻。
type Bucket struct {
	Key    string         `json:"key"`
	Start  time.Time      `json:"start"`
	Counts map[string]int `json:"counts"`
}

// Total 返回桶内所有维度计数之和。
func (b Bucket) Total() int {
	n := 0
	for _, c := range b.Counts {
		n += c
	}
	return n
}

// Series 为按时间升序排列的桶序列。
type Series struct {
	Granularity Granularity `json:"granularity"`
	Dimensions  []string    `json:"dimensions"`
	Buckets     []Bucket    `json:"buckets"`
	Skipped     int         `json:"skipped,omitempty"`
	Warning     string      `json:"warning,omitempty"`
}

// Dataset 为图表的一条数据线。
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// ChartData 为图表可直接渲染的 labels + datasets 结构。
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Metric 为单项指标：当前值与环比变化百分比（内部保留完整精度）。
type Metric struct {
	Total         float64 `json:"total"`
	ChangePercent float64 `json:"changePercent"`
}

// DisplayChange 返回保留一位小数的变化百分比，仅用于展示。
func (m Metric) DisplayChange() float64 { return math.Round(m.ChangePercent*10) / 10 }

// Summary 为头部指标卡片数据。
type Summary struct {
	Posts          Metric `json:"posts"`
	EngagementRate Metric `json:"engagementRate"`
	SentimentScore Metric `json:"sentimentScore"`
	Reach          Metric `json:"reach"`
}

// SentimentDistribution 为各情感类别的帖子数。
type SentimentDistribution struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Total 返回三类合计。
func (d SentimentDistribution) Total() int { return d.Positive + d.Neutral + d.Negative }

// Distribution 为饼图类数据（标签与数值一一对应）。
type Distribution struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// Topic 为热门话题（话题标签）统计。
type Topic struct {
	Name       string  `json:"name"`
	Posts      int     `json:"posts"`
	Engagement int     `json:"engagement"`
	Sentiment  float64 `json:"sentiment"`
	Trend      string  `json:"trend"` // up|down|flat
}

// WordCount 为词云条目。
type WordCount struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// FilterState 为当前用户筛选条件；每次变更整体替换，不做合并。
type FilterState struct {
	Source        string `json:"source"`
	Keyword       string `json:"keyword"`
	TimeRangeDays int    `json:"timeRange"`
	Sentiment     string `json:"sentiment"`
	Page          int    `json:"page"`
}

// FilterAll 表示不筛选。
const FilterAll = "all"

// MaxTimeRangeDays 为时间范围上限，更大的值按上限处理。
const MaxTimeRangeDays = 365

// Clamped 返回时间范围截断到 [0, MaxTimeRangeDays]、页码至少为 1 的副本。
func (f FilterState) Clamped() FilterState {
	f.TimeRangeDays = min(max(f.TimeRangeDays, 0), MaxTimeRangeDays)
	f.Page = max(f.Page, 1)
	return f
}

// DefaultFilterState 返回默认筛选条件。
func DefaultFilterState() FilterState {
	return FilterState{Source: FilterAll, Keyword: "", TimeRangeDays: 7, Sentiment: FilterAll, Page: 1}
}

// Page 为分页结果。
type Page struct {
	Items      []Post `json:"items"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalItems int    `json:"totalItems"`
	TotalPages int    `json:"totalPages"`
}

// Panel 为仪表盘上独立加载的面板。
type Panel string

const (
	PanelMetrics     Panel = "metrics"
	PanelActivity    Panel = "activity"
	PanelSentiment   Panel = "sentiment"
	PanelWordCloud   Panel = "wordCloud"
	PanelTopHashtags Panel = "topHashtags"
	PanelPlatforms   Panel = "platformDistribution"
	PanelEngagement  Panel = "engagementMetrics"
	PanelRecentPosts Panel = "recentPosts"
	PanelTopPosts    Panel = "topPosts"
	PanelSummary     Panel = "trendingSummary"
	PanelInsight     Panel = "sentimentInsight"
)

// DataPanels 为依赖主数据请求的面板。
func DataPanels() []Panel {
	return []Panel{
		PanelMetrics, PanelActivity, PanelSentiment, PanelWordCloud, PanelTopHashtags,
		PanelPlatforms, PanelEngagement, PanelRecentPosts, PanelTopPosts,
	}
}

// PanelStatus 为面板状态。
type PanelStatus string

const (
	StatusReady PanelStatus = "ready"
	StatusError PanelStatus = "error"
	StatusStale PanelStatus = "stale"
)

// PanelState 记录单个面板的状态与错误信息。
type PanelState struct {
	Status PanelStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// DashboardViewModel 为一次筛选对应的完整视图数据。
// 由编排器独占并整体替换；调用方拿到的是只读快照，不得原地修改。
type DashboardViewModel struct {
	Filter      FilterState `json:"filter"`
	RequestID   string      `json:"requestId"`
	Seq         uint64      `json:"seq"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Stale       bool        `json:"stale,omitempty"`

	Metrics          Summary               `json:"metrics"`
	Activity         ChartData             `json:"activityData"`
	Sentiment        SentimentDistribution `json:"sentimentDistribution"`
	WordCloud        []WordCount           `json:"wordCloudData"`
	TopHashtags      []Topic               `json:"topTopics"`
	Platforms        Distribution          `json:"platformDistribution"`
	Engagement       ChartData             `json:"engagementMetrics"`
	RecentPosts      Page                  `json:"recentPosts"`
	TopPosts         []Post                `json:"topPosts"`
	TrendingSummary  string                `json:"trendingSummary"`
	SentimentInsight string                `json:"sentimentInsight"`

	Panels map[Panel]PanelState `json:"panels"`
}

// PanelOK 判断面板是否成功加载。
func (vm *DashboardViewModel) PanelOK(p Panel) bool {
	if vm == nil {
		return false
	}
	return vm.Panels[p].Status == StatusReady
}
