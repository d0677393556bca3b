package model

import "time"

// SourceStatus 记录一个采集来源最近一次采集的结果。
type SourceStatus struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Type        string    `json:"type"`
	Platform    string    `json:"platform"`
	Posts       int       `json:"posts"`
	Error       string    `json:"error,omitempty"`
	CollectedAt time.Time `json:"collectedAt"`
}

// Stats 为本地数据的统计汇总。
type Stats struct {
	SourcesTotal int       `json:"sourcesTotal"`
	SourcesAlive int       `json:"sourcesAlive"`
	SourcesError int       `json:"sourcesError"`
	PostsTotal   int       `json:"postsTotal"`
	InvalidPosts int       `json:"invalidPosts"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Export 为导出文件结构：当前视图快照，附带本地数据（若有）。
type Export struct {
	ExportedAt time.Time           `json:"exportedAt"`
	Dashboard  *DashboardViewModel `json:"dashboard,omitempty"`
	Stats      *Stats              `json:"stats,omitempty"`
	Sources    []SourceStatus      `json:"sources,omitempty"`
	Posts      []Post              `json:"posts,omitempty"`
}
