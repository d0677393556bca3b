package export_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-social-dashboard/internal/export"
	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/store"
)

func TestExport_ToJSON_WithCap(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")
	s, err := store.OpenSQLite(filepath.Join(dir, "t.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	now := time.Now()
	posts := make([]model.Post, 0, 200)
	for i := 0; i < 200; i++ {
		posts = append(posts, model.Post{ID: fmt.Sprintf("p%03d", i), Platform: "twitter", CreatedAt: now.Add(time.Duration(i) * time.Minute)})
	}
	if _, err := s.UpsertPosts(ctx, posts); err != nil {
		t.Fatalf("seed posts: %v", err)
	}
	if err := s.UpsertSource(ctx, model.SourceStatus{Name: "A", URL: "l", Error: "x"}); err != nil {
		t.Fatalf("seed source: %v", err)
	}
	vm := &model.DashboardViewModel{
		Filter:    model.DefaultFilterState(),
		RequestID: "r1",
		Panels:    map[model.Panel]model.PanelState{model.PanelMetrics: {Status: model.StatusReady}},
	}
	if err := export.ToJSON(ctx, vm, s, out); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var e model.Export
	if err := json.Unmarshal(b, &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(e.Posts) != export.MaxExportPosts {
		t.Fatalf("len=%d want=%d", len(e.Posts), export.MaxExportPosts)
	}
	if e.Posts[0].CreatedAt.Before(e.Posts[len(e.Posts)-1].CreatedAt) {
		t.Fatalf("order not desc")
	}
	if e.Stats == nil || e.Stats.PostsTotal != export.MaxExportPosts || e.Stats.SourcesError != 1 {
		t.Fatalf("stats mismatch: %+v", e.Stats)
	}
	if e.Dashboard == nil || e.Dashboard.RequestID != "r1" || !e.Dashboard.PanelOK(model.PanelMetrics) {
		t.Fatalf("dashboard snapshot lost: %+v", e.Dashboard)
	}
}

func TestExport_BuildWithoutData(t *testing.T) {
	e, err := export.Build(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if e.Stats != nil || e.Posts != nil || e.ExportedAt.IsZero() {
		t.Fatalf("unexpected export: %+v", e)
	}
}

func TestExport_CreateError(t *testing.T) {
	err := export.ToJSON(context.Background(), nil, nil, filepath.Join(t.TempDir(), "missing", "out.json"))
	if err == nil {
		t.Fatalf("expect error for missing directory")
	}
}
