// 包 filter 负责按筛选条件过滤帖子、排序与分页。
// 过滤顺序固定：平台 → 关键词 → 时间范围 → 情感；结果按发布时间倒序。
// 所有函数都不修改入参切片。
package filter

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"go-social-dashboard/internal/model"
)

// DefaultPageSize 为未指定页大小时的默认值。
const DefaultPageSize = 5

// matcher 持有单次过滤使用的大小写折叠器（Caser 非并发安全，按调用创建）。
type matcher struct {
	fold      cases.Caser
	source    string
	keyword   string
	sentiment model.SentimentLabel
	anyLabel  bool
	badLabel  bool
}

func newMatcher(f model.FilterState) *matcher {
	m := &matcher{fold: cases.Fold()}
	if s := m.fold.String(strings.TrimSpace(f.Source)); s != "" && s != model.FilterAll {
		m.source = s
	}
	if k := strings.TrimSpace(f.Keyword); k != "" && m.fold.String(k) != model.FilterAll {
		m.keyword = m.fold.String(k)
	}
	switch s := strings.TrimSpace(f.Sentiment); {
	case s == "" || m.fold.String(s) == model.FilterAll:
		m.anyLabel = true
	default:
		l, ok := model.ParseLabel(s)
		m.sentiment, m.badLabel = l, !ok
	}
	return m
}

func (m *matcher) sourceOK(p model.Post) bool {
	return m.source == "" || m.fold.String(p.Platform) == m.source
}

func (m *matcher) keywordOK(p model.Post) bool {
	return m.keyword == "" || strings.Contains(m.fold.String(p.Content), m.keyword)
}

func (m *matcher) sentimentOK(p model.Post) bool {
	if m.anyLabel {
		return true
	}
	return !m.badLabel && p.SentimentLabel() == m.sentiment
}

// Apply 按筛选条件过滤并排序。TimeRangeDays<=0 时不按时间过滤；
// 启用时间过滤时，时间无效的帖子被排除。Page 字段不参与过滤。
func Apply(posts []model.Post, f model.FilterState, now time.Time) []model.Post {
	m := newMatcher(f)
	var cutoff time.Time
	if f.TimeRangeDays > 0 {
		cutoff = now.AddDate(0, 0, -f.TimeRangeDays)
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if !m.sourceOK(p) || !m.keywordOK(p) {
			continue
		}
		if !cutoff.IsZero() && (!p.HasTime() || p.CreatedAt.Before(cutoff)) {
			continue
		}
		if !m.sentimentOK(p) {
			continue
		}
		out = append(out, p)
	}
	SortRecent(out)
	return out
}

// Previous 返回与 Apply 相同条件下、紧邻的上一个等长时间段内的帖子，用于环比。
// 未启用时间过滤时返回 nil。
func Previous(posts []model.Post, f model.FilterState, now time.Time) []model.Post {
	if f.TimeRangeDays <= 0 {
		return nil
	}
	m := newMatcher(f)
	to := now.AddDate(0, 0, -f.TimeRangeDays)
	from := to.AddDate(0, 0, -f.TimeRangeDays)
	out := make([]model.Post, 0)
	for _, p := range Window(posts, from, to) {
		if m.sourceOK(p) && m.keywordOK(p) && m.sentimentOK(p) {
			out = append(out, p)
		}
	}
	return out
}

// Window 返回发布时间落在 [from, to) 的帖子（保持原顺序）。
func Window(posts []model.Post, from, to time.Time) []model.Post {
	out := make([]model.Post, 0)
	for _, p := range posts {
		if !p.HasTime() || p.CreatedAt.Before(from) || !p.CreatedAt.Before(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SortRecent 原地按发布时间倒序稳定排序，时间无效的排在最后。
func SortRecent(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if a.HasTime() != b.HasTime() {
			return a.HasTime()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Paginate 返回第 page 页（从 1 开始）。page<1 视为 1；超出末页返回空列表而非错误；
// size<=0 使用默认页大小。
func Paginate(posts []model.Post, page, size int) model.Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	total := len(posts)
	pg := model.Page{
		Items:      []model.Post{},
		Page:       page,
		PageSize:   size,
		TotalItems: total,
		TotalPages: total / size,
	}
	if total%size != 0 {
		pg.TotalPages++
	}
	if page > pg.TotalPages {
		return pg
	}
	start := (page - 1) * size
	end := start + min(size, total-start)
	pg.Items = append(pg.Items, posts[start:end]...)
	return pg
}
