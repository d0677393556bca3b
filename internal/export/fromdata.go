package export

import (
	"context"
	"fmt"

	"go-social-dashboard/internal/model"
)

// MaxExportPosts 为导出帖子数上限：按时间倒序仅保留最新的部分。
const MaxExportPosts = 150

// fromData 读取本地统计/来源/帖子写入导出结构。
func fromData(ctx context.Context, data Data, out *model.Export) error {
	posts, err := data.ListPosts(ctx)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	sources, err := data.ListSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	stats, err := data.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if len(posts) > MaxExportPosts {
		posts = posts[:MaxExportPosts]
	}
	// posts_total 以导出数量为准，避免与上限不符
	stats.PostsTotal = len(posts)
	out.Stats = &stats
	out.Sources = sources
	out.Posts = posts
	return nil
}
