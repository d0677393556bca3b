package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"go-social-dashboard/internal/filter"
	"go-social-dashboard/internal/model"
	"go-social-dashboard/internal/summary"
)

// requireData 在没有本地数据时返回 501。
func (s *Server) requireData(c *gin.Context) bool {
	if s.opts.Data == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "local post data not available"})
		return false
	}
	return true
}

// recentPosts 返回按筛选条件过滤后的最近帖子，最多 RecentLimit 条。
func (s *Server) recentPosts(ctx context.Context, f model.FilterState) ([]model.Post, error) {
	out, err := s.listFiltered(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(out) > s.opts.RecentLimit {
		out = out[:s.opts.RecentLimit]
	}
	return out, nil
}

// topPosts 返回最近 days 天互动量最高的帖子。
func (s *Server) topPosts(c *gin.Context) {
	if !s.requireData(c) {
		return
	}
	days, err := intQuery(c, "days", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := intQuery(c, "limit", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f := model.DefaultFilterState()
	f.TimeRangeDays = days
	f.Source = c.DefaultQuery("platform", model.FilterAll)
	posts, err := s.listFiltered(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary.TopPosts(posts, limit))
}

// search 按正文关键词搜索最近 days 天的帖子，按时间倒序。
func (s *Server) search(c *gin.Context) {
	if !s.requireData(c) {
		return
	}
	days, err := intQuery(c, "days", 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f := model.DefaultFilterState()
	f.TimeRangeDays = days
	f.Keyword = strings.TrimSpace(c.Query("q"))
	posts, err := s.listFiltered(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	c.JSON(http.StatusOK, posts)
}

// systemStats 返回本地数据概况：帖子数、近 30 天平均情感分、来源状态。
func (s *Server) systemStats(c *gin.Context) {
	if !s.requireData(c) {
		return
	}
	ctx := c.Request.Context()
	st, err := s.opts.Data.Stats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	sources, err := s.opts.Data.ListSources(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	f := model.DefaultFilterState()
	f.TimeRangeDays = 30
	recent, err := s.listFiltered(ctx, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	totals := summary.ComputeTotals(recent)
	if sources == nil {
		sources = []model.SourceStatus{}
	}
	c.JSON(http.StatusOK, gin.H{
		"postsAnalyzed": st.PostsTotal,
		"invalidPosts":  st.InvalidPosts,
		"avgSentiment":  totals.SentimentScore(),
		"dataSources":   st.SourcesAlive,
		"sourceErrors":  st.SourcesError,
		"sources":       sources,
		"updatedAt":     st.UpdatedAt,
	})
}

func (s *Server) listFiltered(ctx context.Context, f model.FilterState) ([]model.Post, error) {
	all, err := s.opts.Data.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return filter.Apply(all, f, s.opts.Now()), nil
}
