// 包 dashboard 负责按筛选条件组装完整的仪表盘视图：
// - 数据来自上游分析接口（remote）或本地帖子（local）
// - 并发请求数据与 AI 摘要，随后基于帖子文本请求 AI 情感分析
// - 每个面板独立记录成功/失败，单个上游失败不会清空整个视图
// - 以单调递增序号防止旧请求覆盖新结果，视图整体替换
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go-social-dashboard/internal/analytics"
	"go-social-dashboard/internal/insight"
	"go-social-dashboard/internal/logx"
	"go-social-dashboard/internal/model"
)

// ErrSuperseded 表示请求返回前已有更新的请求发起，结果被丢弃。
var ErrSuperseded = errors.New("dashboard: request superseded by a newer one")

// ErrNoInsight 表示未配置 AI 服务。
var ErrNoInsight = errors.New("dashboard: insight service not configured")

// DashboardSource 为上游分析接口。
type DashboardSource interface {
	Fetch(ctx context.Context, f model.FilterState) (*analytics.Result, error)
}

// PostSource 为本地帖子来源（SQLite 或内存缓冲）。
type PostSource interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
}

// Options 为编排器参数。Remote 与 Posts 至少提供一个，Remote 优先。
type Options struct {
	Remote               DashboardSource
	Posts                PostSource
	Insights             insight.Service
	PageSize             int
	Granularity          model.Granularity
	Location             *time.Location
	Timeout              time.Duration
	StaleWhileRevalidate bool
	DefaultTopic         string
	TopicLimit           int
	WordLimit            int
	TopPostsLimit        int
	// InsightPosts 为送往情感分析的帖子条数上限。
	InsightPosts int
	Now          func() time.Time
}

// Orchestrator 持有唯一的当前视图；Load 可被并发调用，只有最新一次的结果会被发布。
type Orchestrator struct {
	opts Options

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *model.DashboardViewModel
}

// New 创建编排器并填充默认值。
func New(opts Options) (*Orchestrator, error) {
	if opts.Remote == nil && opts.Posts == nil {
		return nil, errors.New("dashboard: either a remote source or a post source is required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}
	if opts.Granularity == "" {
		opts.Granularity = model.Day
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.DefaultTopic == "" {
		opts.DefaultTopic = "AI trends"
	}
	if opts.TopicLimit <= 0 {
		opts.TopicLimit = 10
	}
	if opts.WordLimit <= 0 {
		opts.WordLimit = 50
	}
	if opts.TopPostsLimit <= 0 {
		opts.TopPostsLimit = 5
	}
	if opts.InsightPosts <= 0 {
		opts.InsightPosts = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts}, nil
}

// Current 返回最近一次发布的视图快照；尚未加载时为 nil。调用方不得修改。
func (o *Orchestrator) Current() *model.DashboardViewModel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Topic 返回 AI 摘要使用的话题：关键词为空或 all 时使用默认话题。
func (o *Orchestrator) Topic(f model.FilterState) string {
	k := strings.TrimSpace(f.Keyword)
	if k == "" || strings.EqualFold(k, model.FilterAll) {
		return o.opts.DefaultTopic
	}
	return k
}

// Load 按筛选条件组装视图。新的 Load 会取消仍在进行的旧请求；
// 若返回前已有更新的请求发起，结果被丢弃并返回 ErrSuperseded。
func (o *Orchestrator) Load(ctx context.Context, f model.FilterState) (*model.DashboardViewModel, error) {
	f = normalizeFilter(f)

	o.mu.Lock()
	o.seq++
	seq := o.seq
	if o.cancel != nil {
		o.cancel()
	}
	lctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	o.cancel = cancel
	prev := o.current
	o.mu.Unlock()
	defer cancel()

	start := time.Now()
	vm, log := o.build(lctx, f, prev)
	vm.Seq = seq

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		log.Debug("结果已过期，丢弃", "seq", seq, "latest", o.seq)
		return nil, ErrSuperseded
	}
	o.current = vm
	log.Info("仪表盘加载完成", "seq", seq, "failed_panels", failedPanels(vm), "elapsed", time.Since(start).Round(time.Millisecond))
	return vm, nil
}

// Snapshot 按筛选条件组装一份独立视图，不参与序号竞争也不替换当前视图。
// 供并发的 HTTP 请求使用；过期数据回退基于当前视图。
func (o *Orchestrator) Snapshot(ctx context.Context, f model.FilterState) (*model.DashboardViewModel, error) {
	f = normalizeFilter(f)
	lctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()
	vm, _ := o.build(lctx, f, o.Current())
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vm, nil
}

// build 并发请求数据与 AI 摘要，随后请求情感分析；所有失败都落在面板状态上。
func (o *Orchestrator) build(ctx context.Context, f model.FilterState, prev *model.DashboardViewModel) (*model.DashboardViewModel, *slog.Logger) {
	reqID := uuid.NewString()
	log := logx.With("request_id", reqID)
	log.Debug("开始加载仪表盘", "source", f.Source, "keyword", f.Keyword, "days", f.TimeRangeDays, "page", f.Page)

	vm := emptyView(f)
	vm.RequestID = reqID
	vm.GeneratedAt = o.opts.Now()

	topic := o.Topic(f)
	var (
		data    *dataResult
		dataErr error
		sum     string
		sumErr  error
	)
	// 两个调用相互独立：任一失败不取消另一个。
	var g errgroup.Group
	g.Go(func() error {
		data, dataErr = o.loadData(ctx, f)
		return nil
	})
	g.Go(func() error {
		if o.opts.Insights == nil {
			sumErr = ErrNoInsight
			return nil
		}
		sum, sumErr = o.opts.Insights.Summarize(ctx, topic)
		return nil
	})
	_ = g.Wait()

	if dataErr != nil {
		log.Warn("仪表盘数据加载失败", "error", dataErr)
		o.failData(vm, prev, dataErr)
	} else {
		data.apply(vm)
	}
	setPanel(vm, model.PanelSummary, sumErr)
	if sumErr == nil {
		vm.TrendingSummary = sum
	} else {
		log.Warn("AI 摘要失败", "error", sumErr)
	}

	var insightErr error
	switch {
	case o.opts.Insights == nil:
		insightErr = ErrNoInsight
	case dataErr != nil:
		insightErr = fmt.Errorf("sentiment insight needs posts: %w", dataErr)
	default:
		vm.SentimentInsight, insightErr = o.opts.Insights.AnalyzeSentiment(ctx, topic, data.texts(o.opts.InsightPosts))
		if insightErr != nil {
			log.Warn("AI 情感分析失败", "error", insightErr)
		}
	}
	setPanel(vm, model.PanelInsight, insightErr)
	return vm, log
}

// failData 处理数据请求整体失败：默认清空并标记错误；
// 开启 stale-while-revalidate 且存在旧视图时沿用旧数据并标记为过期。
func (o *Orchestrator) failData(vm, prev *model.DashboardViewModel, err error) {
	if o.opts.StaleWhileRevalidate && prev != nil {
		copyDataPanels(vm, prev)
		vm.Stale = true
		for _, p := range model.DataPanels() {
			vm.Panels[p] = model.PanelState{Status: model.StatusStale, Error: err.Error()}
		}
		return
	}
	for _, p := range model.DataPanels() {
		vm.Panels[p] = model.PanelState{Status: model.StatusError, Error: err.Error()}
	}
}

func normalizeFilter(f model.FilterState) model.FilterState {
	if strings.TrimSpace(f.Source) == "" {
		f.Source = model.FilterAll
	}
	if strings.TrimSpace(f.Sentiment) == "" {
		f.Sentiment = model.FilterAll
	}
	return f.Clamped()
}

func setPanel(vm *model.DashboardViewModel, p model.Panel, err error) {
	if err != nil {
		vm.Panels[p] = model.PanelState{Status: model.StatusError, Error: err.Error()}
		return
	}
	vm.Panels[p] = model.PanelState{Status: model.StatusReady}
}

func failedPanels(vm *model.DashboardViewModel) int {
	n := 0
	for _, st := range vm.Panels {
		if st.Status != model.StatusReady {
			n++
		}
	}
	return n
}
