package collect

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-social-dashboard/internal/filter"
	"go-social-dashboard/internal/model"
)

// MemoryBuffer 在极简模式下保存采集数据，避免落库。可并发使用。
type MemoryBuffer struct {
	mu      sync.Mutex
	sources map[string]model.SourceStatus // key: url
	posts   map[string]model.Post         // key: platform/id
}

func NewMemoryBuffer() *MemoryBuffer {
	return &MemoryBuffer{
		sources: make(map[string]model.SourceStatus),
		posts:   make(map[string]model.Post),
	}
}

func postKey(p model.Post) string { return p.Platform + "/" + p.ID }

// UpsertPosts 写入帖子，同一 platform/id 覆盖旧值。
func (b *MemoryBuffer) UpsertPosts(_ context.Context, list []model.Post) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range list {
		if p.ID == "" || p.Platform == "" {
			continue
		}
		b.posts[postKey(p)] = p
		n++
	}
	return n, nil
}

func (b *MemoryBuffer) UpsertSource(_ context.Context, st model.SourceStatus) error {
	if st.URL == "" {
		return nil
	}
	b.mu.Lock()
	b.sources[st.URL] = st
	b.mu.Unlock()
	return nil
}

// CleanOldPosts 删除发布时间早于 days 天前的帖子；时间无效的保留。
func (b *MemoryBuffer) CleanOldPosts(_ context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	b.mu.Lock()
	defer b.mu.Unlock()
	var n int64
	for k, p := range b.posts {
		if p.HasTime() && p.CreatedAt.Before(cutoff) {
			delete(b.posts, k)
			n++
		}
	}
	return n, nil
}

// ListPosts 返回帖子副本，按发布时间倒序（时间无效的在最后）。
func (b *MemoryBuffer) ListPosts(_ context.Context) ([]model.Post, error) {
	b.mu.Lock()
	ps := make([]model.Post, 0, len(b.posts))
	for _, v := range b.posts {
		ps = append(ps, v)
	}
	b.mu.Unlock()
	// map 遍历无序，先按键排序保证同一时间的帖子顺序稳定
	sort.Slice(ps, func(i, j int) bool { return postKey(ps[i]) < postKey(ps[j]) })
	filter.SortRecent(ps)
	return ps, nil
}

// ListSources 返回来源状态副本，按名称排序。
func (b *MemoryBuffer) ListSources(_ context.Context) ([]model.SourceStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.SourceStatus, 0, len(b.sources))
	for _, v := range b.sources {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].URL < out[j].URL
	})
	return out, nil
}

// Stats 统计汇总，口径与 SQLite 存储一致。
func (b *MemoryBuffer) Stats(_ context.Context) (model.Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := model.Stats{SourcesTotal: len(b.sources), PostsTotal: len(b.posts), UpdatedAt: time.Now()}
	for _, s := range b.sources {
		if s.Error == "" {
			st.SourcesAlive++
		}
	}
	st.SourcesError = st.SourcesTotal - st.SourcesAlive
	for _, p := range b.posts {
		if p.Invalid {
			st.InvalidPosts++
		}
	}
	return st, nil
}
