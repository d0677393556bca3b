package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/store"
)

func openTemp(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_MigrateCRUDAndClean(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	old := time.Now().AddDate(-1, 0, 0)
	recent := time.Now().Add(-time.Hour)
	p := model.Post{ID: "1", Platform: "twitter", Content: "old", Author: "alice", CreatedAt: old, Likes: 1}
	if err := s.UpsertPost(ctx, p); err != nil {
		t.Fatalf("upsert old: %v", err)
	}
	// 同一 platform+id 再次写入为更新
	p.Likes = 9
	if err := s.UpsertPost(ctx, p); err != nil {
		t.Fatalf("upsert old upd: %v", err)
	}
	n := model.Post{
		ID: "2", Platform: "reddit", Content: "new", CreatedAt: recent, Sentiment: 8,
		Hashtags: []model.Term{{Text: "ai", Count: 2}}, Keywords: []model.Term{{Text: "model", Count: 1}},
	}
	if err := s.UpsertPost(ctx, n); err != nil {
		t.Fatalf("upsert new: %v", err)
	}
	// 同一 id 不同平台不冲突
	if err := s.UpsertPost(ctx, model.Post{ID: "2", Platform: "twitter", Invalid: true, Issues: []string{"bad date"}}); err != nil {
		t.Fatalf("upsert invalid: %v", err)
	}

	posts, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("posts=%d", len(posts))
	}
	if posts[0].ID != "2" || posts[0].Platform != "reddit" {
		t.Fatalf("newest first expected: %+v", posts[0])
	}
	if len(posts[0].Hashtags) != 1 || posts[0].Hashtags[0].Text != "ai" || posts[0].Keywords[0].Text != "model" {
		t.Fatalf("terms lost: %+v", posts[0])
	}
	if posts[1].Likes != 9 {
		t.Fatalf("post not updated: %+v", posts[1])
	}
	if !posts[2].Invalid || !posts[2].CreatedAt.IsZero() || len(posts[2].Issues) != 1 {
		t.Fatalf("invalid post should be last with zero time: %+v", posts[2])
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.PostsTotal != 3 || st.InvalidPosts != 1 {
		t.Fatalf("stats mismatch: %+v", st)
	}

	// 清理超过 1 天的帖子；时间无效的不受影响
	removed, err := s.CleanOldPosts(ctx, 1)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed=%d", removed)
	}
	posts, err = s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 2 || posts[0].Content != "new" {
		t.Fatalf("unexpected posts after clean: %#v", posts)
	}
}

func TestSQLite_UpsertPostsRequiresKey(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	batch := []model.Post{{ID: "a", Platform: "x"}, {ID: "", Platform: "x"}}
	if _, err := s.UpsertPosts(ctx, batch); err == nil {
		t.Fatalf("expected error for missing id")
	}
	// 事务回滚，不应留下部分数据
	posts, err := s.ListPosts(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("rollback expected, got %d", len(posts))
	}
	n, err := s.UpsertPosts(ctx, batch[:1])
	if err != nil || n != 1 {
		t.Fatalf("upsert posts: n=%d err=%v", n, err)
	}
}

func TestSQLite_SourcesAndReset(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	if err := s.UpsertSource(ctx, model.SourceStatus{Name: "b", URL: "https://b", Posts: 3}); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if err := s.UpsertSource(ctx, model.SourceStatus{Name: "a", URL: "https://a", Error: "timeout"}); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	if err := s.UpsertSource(ctx, model.SourceStatus{Name: "b", URL: "https://b", Posts: 5}); err != nil {
		t.Fatalf("update source: %v", err)
	}
	src, err := s.ListSources(ctx)
	if err != nil || len(src) != 2 {
		t.Fatalf("list sources: %v len=%d", err, len(src))
	}
	if src[0].Name != "a" || src[1].Posts != 5 || src[1].CollectedAt.IsZero() {
		t.Fatalf("sources: %+v", src)
	}
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.SourcesTotal != 2 || st.SourcesAlive != 1 || st.SourcesError != 1 {
		t.Fatalf("stats mismatch: %+v", st)
	}

	if err := s.UpsertPost(ctx, model.Post{ID: "t", Platform: "p"}); err != nil {
		t.Fatalf("seed post: %v", err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	src, _ = s.ListSources(ctx)
	ps, _ := s.ListPosts(ctx)
	if len(src) != 0 || len(ps) != 0 {
		t.Fatalf("not empty after reset: src=%d ps=%d", len(src), len(ps))
	}
}
