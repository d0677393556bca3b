// 包 collect 负责帖子采集主流程：
// - 按配置的来源（订阅/列表页）并发抓取原始帖子
// - 统一经 normalize 归一化后写入 SQLite 或内存缓冲（极简模式）
// - 记录每个来源的采集状态并清理过期帖子
package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"go-social-dashboard/internal/config"
	"go-social-dashboard/internal/feeds"
	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/logx"
	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/normalize"
	"go-social-dashboard/internal/pages"
	"go-social-dashboard/internal/rules"
	"go-social-dashboard/internal/store"
)

// Sink 为采集结果的落点：SQLite 或内存缓冲。
type Sink interface {
	UpsertPosts(ctx context.Context, posts []model.Post) (int, error)
	UpsertSource(ctx context.Context, st model.SourceStatus) error
	CleanOldPosts(ctx context.Context, days int) (int64, error)
}

// Report 为一轮采集或导入的汇总。
type Report struct {
	Sources int
	Failed  int
	Posts   int
	Invalid int
	Cleaned int64
}

// Runner 采集执行器，持有配置/存储/HTTP 客户端/规则。
type Runner struct {
	cfg   *config.Config
	rules *rules.Rules
	fetch *fetch.Client
	norm  *normalize.Normalizer
	sink  Sink
	// 极简模式：仅保存在内存，不落库
	buf *MemoryBuffer
}

// New 创建 Runner；极简模式或未提供存储时使用内存缓冲。
func New(cfg *config.Config, s *store.SQLite, cl *fetch.Client, rl *rules.Rules) *Runner {
	r := &Runner{cfg: cfg, fetch: cl, rules: rl, norm: normalize.New(cfg.Location())}
	if cfg.SimpleMode || s == nil {
		r.buf = NewMemoryBuffer()
		r.sink = r.buf
	} else {
		r.sink = s
	}
	return r
}

// Buffer 返回极简模式下的内存缓冲；非极简模式为 nil。
func (r *Runner) Buffer() *MemoryBuffer { return r.buf }

// Run 执行一轮采集：并发处理各来源，随后清理过期帖子。
// 单个来源失败只记录在其状态中，不影响其它来源。
func (r *Runner) Run(ctx context.Context) (Report, error) {
	sources := dedup(r.cfg.Sources)
	logx.Infof("开始采集：来源=%d", len(sources))
	if len(sources) == 0 {
		logx.Warnf("没有配置任何采集来源")
	}

	results := make([]sourceResult, len(sources))
	var g errgroup.Group
	g.SetLimit(max(1, r.cfg.Concurrency.Fetch))
	for i, src := range sources {
		g.Go(func() error {
			results[i] = r.processSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	rep := Report{Sources: len(sources)}
	for _, res := range results {
		if res.status.Error != "" {
			rep.Failed++
		}
		rep.Posts += res.status.Posts
		rep.Invalid += res.invalid
	}
	n, err := r.sink.CleanOldPosts(ctx, r.cfg.OutdateCleanDays)
	if err != nil {
		logx.Warnf("清理过期帖子失败：%v", err)
	}
	rep.Cleaned = n
	logx.Infof("采集完成：来源=%d 失败=%d 帖子=%d 时间无效=%d 清理=%d",
		rep.Sources, rep.Failed, rep.Posts, rep.Invalid, rep.Cleaned)
	return rep, nil
}

// Loop 先执行一轮采集，之后按 every 定时执行，直到 ctx 结束。
func (r *Runner) Loop(ctx context.Context, every time.Duration) {
	if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
		logx.Errorf("采集失败：%v", err)
	}
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.Run(ctx); err != nil && ctx.Err() == nil {
				logx.Errorf("采集失败：%v", err)
			}
		}
	}
}

type sourceResult struct {
	status  model.SourceStatus
	invalid int
}

// processSource 处理单个来源：抓取→归一化→写入，并记录来源状态。
func (r *Runner) processSource(ctx context.Context, src config.Source) sourceResult {
	platform := platformOf(src)
	st := model.SourceStatus{Name: src.Name, URL: src.URL, Type: src.Type, Platform: platform, CollectedAt: time.Now()}
	host := hostOf(src.URL)
	res := sourceResult{}

	raws, err := r.fetchRaw(ctx, src, platform)
	if err == nil {
		var posts []model.Post
		posts, res.invalid = r.norm.Batch(raws)
		if _, err = r.sink.UpsertPosts(ctx, posts); err == nil {
			st.Posts = len(posts)
			logx.Infof("[%s|%s] 帖子采集完成：%d（时间无效 %d）", src.Name, host, len(posts), res.invalid)
		}
	}
	if err != nil {
		st.Error = err.Error()
		logx.Warnf("[%s|%s] 采集失败：%v", src.Name, host, err)
	}
	if err := r.sink.UpsertSource(ctx, st); err != nil {
		logx.Warnf("写入来源状态失败：%v", err)
	}
	res.status = st
	return res
}

func (r *Runner) fetchRaw(ctx context.Context, src config.Source, platform string) ([]normalize.Raw, error) {
	if src.Type == "page" {
		var preset rules.Preset
		if r.rules != nil {
			preset, _ = r.rules.GetPreset(src.Theme)
		}
		return pages.ParseListing(ctx, r.fetch, src.URL, platform, preset, r.cfg.MaxPostsNum)
	}
	feedURL, err := feeds.DiscoverFeed(ctx, r.fetch, src.URL, src.FeedSuffix)
	if err != nil {
		return nil, err
	}
	return feeds.ParseFeed(ctx, r.fetch, feedURL, platform, r.cfg.MaxPostsNum)
}

// platformOf 返回来源的平台名：依次取 platform、name、主机名。
func platformOf(src config.Source) string {
	for _, s := range []string{src.Platform, src.Name, hostOf(src.URL)} {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			return s
		}
	}
	return normalize.UnknownPlatform
}

// dedup 按 url 去重，保持配置顺序。
func dedup(in []config.Source) []config.Source {
	seen := map[string]bool{}
	out := make([]config.Source, 0, len(in))
	for _, s := range in {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}

// hostOf 提取链接的主机名，失败时做字符串兜底，便于日志定位。
func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		return u.Host
	}
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if j := strings.IndexAny(s, "/?#"); j >= 0 {
		s = s[:j]
	}
	return s
}
