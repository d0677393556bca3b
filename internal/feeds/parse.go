package feeds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/normalize"
)

// parseTimeout 为单个订阅的抓取解析超时。
const parseTimeout = 25 * time.Second

// ParseFeed 抓取并解析订阅，把条目转换为原始帖子（最多 max 条，0 表示不限制）。
// 平台名取自来源配置；条目分类作为话题标签。
func ParseFeed(ctx context.Context, cl *fetch.Client, feedURL, platform string, max int) ([]normalize.Raw, error) {
	rctx, cancel := context.WithTimeout(ctx, parseTimeout)
	defer cancel()
	// gofeed 不接收自定义 http.Client，先用统一客户端抓取再交给解析器
	resp, err := cl.Get(rctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("GET feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	out := make([]normalize.Raw, 0, len(feed.Items))
	for _, it := range feed.Items {
		out = append(out, itemRaw(it, feed, platform))
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

func itemRaw(it *gofeed.Item, feed *gofeed.Feed, platform string) normalize.Raw {
	raw := normalize.Raw{
		"platform": platform,
		"content":  itemText(it),
		"url":      strings.TrimSpace(it.Link),
	}
	if id := strings.TrimSpace(it.GUID); id != "" {
		raw["id"] = id
	}
	if a := authorName(it, feed); a != "" {
		raw["author"] = a
	}
	if t := pickTime(it.PublishedParsed, it.UpdatedParsed); !t.IsZero() {
		raw["created_at"] = t
	}
	if len(it.Categories) > 0 {
		tags := make([]string, 0, len(it.Categories))
		for _, c := range it.Categories {
			if c = strings.TrimSpace(c); c != "" {
				tags = append(tags, c)
			}
		}
		raw["hashtags"] = tags
	}
	return raw
}

// itemText 拼接标题与摘要；无摘要时回退到正文。
func itemText(it *gofeed.Item) string {
	body := it.Description
	if strings.TrimSpace(body) == "" {
		body = it.Content
	}
	title := strings.TrimSpace(it.Title)
	if title == "" {
		return body
	}
	if strings.TrimSpace(body) == "" {
		return title
	}
	return title + " " + body
}

func pickTime(a, b *time.Time) time.Time {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return time.Time{}
}

func authorName(it *gofeed.Item, feed *gofeed.Feed) string {
	for _, p := range []*gofeed.Person{it.Author, feed.Author} {
		if p == nil {
			continue
		}
		if p.Name != "" {
			return p.Name
		}
		if p.Email != "" {
			return p.Email
		}
	}
	return ""
}
