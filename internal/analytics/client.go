// 包 analytics 是上游 /dashboard-data 接口的客户端。
// 顶层对象按字段逐个解码：某个字段类型不符只影响对应面板，缺失或 null 字段取默认值。
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-social-dashboard/internal/apperr"
	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/normalize"
)

// 上游响应中的字段名。
const (
	FieldMetrics     = "metrics"
	FieldActivity    = "activityData"
	FieldSentiment   = "sentimentDistribution"
	FieldWordCloud   = "wordCloudData"
	FieldTopics      = "topTopics"
	FieldPlatforms   = "platformDistribution"
	FieldEngagement  = "engagementMetrics"
	FieldRecentPosts = "recentPosts"
)

// FieldPanels 为字段到面板的映射。
var FieldPanels = map[string]model.Panel{
	FieldMetrics:     model.PanelMetrics,
	FieldActivity:    model.PanelActivity,
	FieldSentiment:   model.PanelSentiment,
	FieldWordCloud:   model.PanelWordCloud,
	FieldTopics:      model.PanelTopHashtags,
	FieldPlatforms:   model.PanelPlatforms,
	FieldEngagement:  model.PanelEngagement,
	FieldRecentPosts: model.PanelRecentPosts,
}

// Result 为一次接口调用解码后的数据。FieldErrors 记录各面板的形状错误。
type Result struct {
	Metrics     model.Summary
	Activity    model.ChartData
	Sentiment   model.SentimentDistribution
	WordCloud   []model.WordCount
	Topics      []model.Topic
	Platforms   model.Distribution
	Engagement  model.ChartData
	RecentPosts []model.Post
	FieldErrors map[model.Panel]error
}

// Client 调用上游分析接口。
type Client struct {
	http *fetch.Client
	base string
	norm *normalize.Normalizer
}

// New 创建客户端；base 形如 http://localhost:5000/api。
func New(cl *fetch.Client, base string, loc *time.Location) *Client {
	return &Client{http: cl, base: strings.TrimRight(base, "/"), norm: normalize.New(loc)}
}

// URL 构造请求地址；关键词 all 以空字符串发送。
func (c *Client) URL(f model.FilterState) string {
	source := f.Source
	if source == "" {
		source = model.FilterAll
	}
	keyword := f.Keyword
	if strings.EqualFold(strings.TrimSpace(keyword), model.FilterAll) {
		keyword = ""
	}
	q := url.Values{}
	q.Set("source", source)
	q.Set("keyword", keyword)
	q.Set("timeRange", strconv.Itoa(f.TimeRangeDays))
	return c.base + "/dashboard-data?" + q.Encode()
}

// Fetch 请求并解码仪表盘数据。传输失败或顶层不是对象时返回错误；
// 单个字段的形状错误记录在 Result.FieldErrors 中。
func (c *Client) Fetch(ctx context.Context, f model.FilterState) (*Result, error) {
	body, err := c.http.GetJSON(ctx, c.URL(f))
	if err != nil {
		return nil, fmt.Errorf("fetch dashboard data: %w", err)
	}
	return Decode(body, c.norm)
}

// Decode 解析 /dashboard-data 响应体。
func Decode(body []byte, norm *normalize.Normalizer) (*Result, error) {
	if norm == nil {
		norm = normalize.New(time.UTC)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		if err == nil {
			err = fmt.Errorf("top-level value is null")
		}
		return nil, apperr.New(apperr.Shape, "analytics.decode", err)
	}
	r := &Result{
		Activity:    emptyChart(),
		Engagement:  emptyChart(),
		WordCloud:   []model.WordCount{},
		Topics:      []model.Topic{},
		Platforms:   model.Distribution{Labels: []string{}, Data: []int{}},
		RecentPosts: []model.Post{},
		FieldErrors: map[model.Panel]error{},
	}
	fail := func(field string, err error) {
		if err != nil {
			r.FieldErrors[FieldPanels[field]] = err
		}
	}

	var m wireMetrics
	if err := decodeField(raw, FieldMetrics, &m); err != nil {
		fail(FieldMetrics, err)
	} else {
		r.Metrics = m.summary()
	}
	var activity model.ChartData
	if err := decodeField(raw, FieldActivity, &activity); err != nil {
		fail(FieldActivity, err)
	} else {
		r.Activity = chartOrEmpty(activity)
	}
	fail(FieldSentiment, decodeField(raw, FieldSentiment, &r.Sentiment))

	var words []model.WordCount
	if err := decodeField(raw, FieldWordCloud, &words); err != nil {
		fail(FieldWordCloud, err)
	} else if words != nil {
		r.WordCloud = words
	}
	var topics []wireTopic
	if err := decodeField(raw, FieldTopics, &topics); err != nil {
		fail(FieldTopics, err)
	} else {
		for _, t := range topics {
			r.Topics = append(r.Topics, t.topic())
		}
	}
	var platforms model.Distribution
	if err := decodeField(raw, FieldPlatforms, &platforms); err != nil {
		fail(FieldPlatforms, err)
	} else if len(platforms.Labels) != len(platforms.Data) {
		fail(FieldPlatforms, apperr.Shapef("analytics.decode", FieldPlatforms,
			"labels/data length mismatch %d != %d", len(platforms.Labels), len(platforms.Data)))
	} else if platforms.Labels != nil {
		r.Platforms = platforms
	}
	var engagement model.ChartData
	if err := decodeField(raw, FieldEngagement, &engagement); err != nil {
		fail(FieldEngagement, err)
	} else {
		r.Engagement = chartOrEmpty(engagement)
	}
	var recent []normalize.Raw
	if err := decodeField(raw, FieldRecentPosts, &recent); err != nil {
		fail(FieldRecentPosts, err)
	} else {
		posts, _ := norm.Batch(recent)
		r.RecentPosts = posts
	}
	return r, nil
}

// decodeField 解码单个字段：缺失或 null 时保持 dst 不变；失败时 dst 也不被部分写入。
func decodeField[T any](raw map[string]json.RawMessage, key string, dst *T) error {
	b, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var v T
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return apperr.Shapef("analytics.decode", key, "%v", err)
	}
	*dst = v
	return nil
}

func emptyChart() model.ChartData {
	return model.ChartData{Labels: []string{}, Datasets: []model.Dataset{}}
}

func chartOrEmpty(c model.ChartData) model.ChartData {
	if c.Labels == nil {
		c.Labels = []string{}
	}
	if c.Datasets == nil {
		c.Datasets = []model.Dataset{}
	}
	for i := range c.Datasets {
		if c.Datasets[i].Data == nil {
			c.Datasets[i].Data = []float64{}
		}
	}
	return c
}
