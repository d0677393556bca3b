package dashboard

import (
	"context"
	"fmt"

	"go-social-dashboard/internal/analytics"
	"go-social-dashboard/internal/filter"
	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/summary"
	"go-social-dashboard/internal/timeseries"
)

// dataResult 为数据请求得到的全部数据面板及字段级错误。
type dataResult struct {
	metrics     model.Summary
	activity    model.ChartData
	sentiment   model.SentimentDistribution
	wordCloud   []model.WordCount
	topics      []model.Topic
	platforms   model.Distribution
	engagement  model.ChartData
	recent      model.Page
	topPosts    []model.Post
	posts       []model.Post // 情感分析使用的帖子
	fieldErrors map[model.Panel]error
}

func (o *Orchestrator) loadData(ctx context.Context, f model.FilterState) (*dataResult, error) {
	if o.opts.Remote != nil {
		res, err := o.opts.Remote.Fetch(ctx, f)
		if err != nil {
			return nil, err
		}
		return o.fromRemote(res, f), nil
	}
	posts, err := o.opts.Posts.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return o.compose(posts, f), nil
}

// fromRemote 整理上游数据：活动图按粒度重新归桶排序；
// 上游不支持情感筛选与分页，最近帖子在本地按情感过滤后分页。
func (o *Orchestrator) fromRemote(res *analytics.Result, f model.FilterState) *dataResult {
	d := &dataResult{
		metrics:     res.Metrics,
		activity:    res.Activity,
		sentiment:   res.Sentiment,
		wordCloud:   res.WordCloud,
		topics:      res.Topics,
		platforms:   res.Platforms,
		engagement:  res.Engagement,
		fieldErrors: res.FieldErrors,
	}
	if len(res.Activity.Labels) > 0 {
		s := timeseries.FromChart(res.Activity, o.opts.Granularity, o.opts.Location)
		if len(s.Buckets) > 0 {
			d.activity = timeseries.ToChart(s)
		}
	}
	recent := filter.Apply(res.RecentPosts, model.FilterState{Sentiment: f.Sentiment}, o.opts.Now())
	d.posts = recent
	d.recent = filter.Paginate(recent, f.Page, o.opts.PageSize)
	d.topPosts = summary.TopPosts(recent, o.opts.TopPostsLimit)
	return d
}

// compose 基于本地帖子计算全部面板。
func (o *Orchestrator) compose(all []model.Post, f model.FilterState) *dataResult {
	now := o.opts.Now()
	cur := filter.Apply(all, f, now)
	prev := filter.Previous(all, f, now)

	topts := timeseries.Options{
		Granularity: o.opts.Granularity,
		Dimension:   timeseries.DimensionPlatform,
		Location:    o.opts.Location,
	}
	if f.TimeRangeDays > 0 {
		topts.Range = &timeseries.Range{Start: now.AddDate(0, 0, -f.TimeRangeDays), End: now}
	}
	return &dataResult{
		metrics:     summary.Summarize(cur, prev),
		activity:    timeseries.ToChart(timeseries.Aggregate(cur, topts)),
		sentiment:   summary.SentimentDistribution(cur),
		wordCloud:   summary.WordCloud(cur, o.opts.WordLimit),
		topics:      summary.TopHashtags(cur, prev, o.opts.TopicLimit),
		platforms:   summary.PlatformDistribution(cur),
		engagement:  timeseries.Engagement(cur, topts),
		recent:      filter.Paginate(cur, f.Page, o.opts.PageSize),
		topPosts:    summary.TopPosts(cur, o.opts.TopPostsLimit),
		posts:       cur,
		fieldErrors: map[model.Panel]error{},
	}
}

// apply 把数据写入视图；字段级错误只影响对应面板。
func (d *dataResult) apply(vm *model.DashboardViewModel) {
	vm.Metrics = d.metrics
	vm.Activity = d.activity
	vm.Sentiment = d.sentiment
	vm.WordCloud = d.wordCloud
	vm.TopHashtags = d.topics
	vm.Platforms = d.platforms
	vm.Engagement = d.engagement
	vm.RecentPosts = d.recent
	vm.TopPosts = d.topPosts
	for _, p := range model.DataPanels() {
		err := d.fieldErrors[p]
		if p == model.PanelTopPosts {
			err = d.fieldErrors[model.PanelRecentPosts]
		}
		setPanel(vm, p, err)
	}
	fillEmpty(vm)
}

// texts 返回送往情感分析的帖子正文（最多 n 条）。
func (d *dataResult) texts(n int) []string {
	out := make([]string, 0, min(n, len(d.posts)))
	for _, p := range d.posts {
		if len(out) == n {
			break
		}
		if p.Content != "" {
			out = append(out, p.Content)
		}
	}
	return out
}

// emptyView 返回所有列表字段非 nil 的空视图。
func emptyView(f model.FilterState) *model.DashboardViewModel {
	vm := &model.DashboardViewModel{Filter: f, Panels: map[model.Panel]model.PanelState{}}
	fillEmpty(vm)
	return vm
}

func fillEmpty(vm *model.DashboardViewModel) {
	if vm.Activity.Labels == nil {
		vm.Activity.Labels = []string{}
	}
	if vm.Activity.Datasets == nil {
		vm.Activity.Datasets = []model.Dataset{}
	}
	if vm.Engagement.Labels == nil {
		vm.Engagement.Labels = []string{}
	}
	if vm.Engagement.Datasets == nil {
		vm.Engagement.Datasets = []model.Dataset{}
	}
	if vm.WordCloud == nil {
		vm.WordCloud = []model.WordCount{}
	}
	if vm.TopHashtags == nil {
		vm.TopHashtags = []model.Topic{}
	}
	if vm.Platforms.Labels == nil {
		vm.Platforms.Labels = []string{}
	}
	if vm.Platforms.Data == nil {
		vm.Platforms.Data = []int{}
	}
	if vm.RecentPosts.Items == nil {
		vm.RecentPosts.Items = []model.Post{}
	}
	if vm.TopPosts == nil {
		vm.TopPosts = []model.Post{}
	}
}

// copyDataPanels 沿用旧视图的数据面板（浅拷贝：旧视图本身不可变）。
func copyDataPanels(dst, src *model.DashboardViewModel) {
	dst.Metrics = src.Metrics
	dst.Activity = src.Activity
	dst.Sentiment = src.Sentiment
	dst.WordCloud = src.WordCloud
	dst.TopHashtags = src.TopHashtags
	dst.Platforms = src.Platforms
	dst.Engagement = src.Engagement
	dst.RecentPosts = src.RecentPosts
	dst.TopPosts = src.TopPosts
}
