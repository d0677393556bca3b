// 包 pages 提供帖子列表页解析：
// - 依据 rules.yaml 预设的 CSS 选择器取出正文/作者/时间/互动数等字段
// - 支持 "选择器@属性"、"." 当前项文本以及 "||" 多方案回退
// - 结果为原始帖子，交由 normalize 统一处理
package pages

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/normalize"
	"go-social-dashboard/internal/rules"
)

// ParseListing 抓取列表页并按预设抽取帖子（最多 max 条，0 表示不限制）。
// 规则语法：
// - 文本：".content" 或 "."（取当前项文本）
// - 属性："a@href"/"time@datetime"/"@data-id"（当前项属性）
// - 回退：使用 "||" 连接多个候选，按先后尝试
func ParseListing(ctx context.Context, cl *fetch.Client, pageURL, platform string, preset rules.Preset, max int) ([]normalize.Raw, error) {
	if preset.Listing == nil {
		return nil, fmt.Errorf("preset has no listing rules for %s", pageURL)
	}
	resp, err := cl.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("GET listing page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}
	lp := preset.Listing
	var out []normalize.Raw
	doc.Find(lp.Item).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := normalize.Raw{"platform": platform}
		content := getVal(s, lp.Content)
		link := abs(pageURL, getVal(s, lp.Link))
		if content == "" && link == "" {
			return true
		}
		raw["content"] = content
		set(raw, "url", link)
		set(raw, "id", getVal(s, lp.ID))
		set(raw, "author", getVal(s, lp.Author))
		set(raw, "date", getVal(s, lp.Date))
		set(raw, "likes", numeric(getVal(s, lp.Likes)))
		set(raw, "shares", numeric(getVal(s, lp.Shares)))
		set(raw, "comments", numeric(getVal(s, lp.Comments)))
		set(raw, "views", numeric(getVal(s, lp.Views)))
		if lp.Tags != "" {
			if tags := allText(s, lp.Tags); len(tags) > 0 {
				raw["hashtags"] = tags
			}
		}
		out = append(out, raw)
		return max <= 0 || len(out) < max
	})
	return out, nil
}

// set 只写入非空值，缺失字段交给 normalize 处理默认值。
func set(raw normalize.Raw, key, val string) {
	if val != "" {
		raw[key] = val
	}
}

// numeric 去掉千分位与空白，例如 "1,204 likes" -> "1204"。
func numeric(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// allText 返回选择器命中的全部元素文本。
func allText(scope *goquery.Selection, sel string) []string {
	var out []string
	scope.Find(sel).Each(func(_ int, el *goquery.Selection) {
		if t := strings.TrimSpace(el.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// getVal 解析表达式并支持 "||" 回退，例如 "a@href||@href" 或 ".text||.body||."。
func getVal(scope *goquery.Selection, expr string) string {
	for _, p := range strings.Split(strings.TrimSpace(expr), "||") {
		if v := getValSingle(scope, strings.TrimSpace(p)); v != "" {
			return v
		}
	}
	return ""
}

// getValSingle 解析单个表达式：文本或属性读取。
func getValSingle(scope *goquery.Selection, expr string) string {
	switch {
	case expr == "":
		return ""
	case expr == ".":
		return strings.TrimSpace(scope.Text())
	}
	if at := strings.Index(expr, "@"); at != -1 {
		sel := strings.TrimSpace(expr[:at])
		attr := strings.TrimSpace(expr[at+1:])
		el := scope
		if sel != "" {
			el = scope.Find(sel).First()
		}
		return strings.TrimSpace(el.AttrOr(attr, ""))
	}
	return strings.TrimSpace(scope.Find(expr).First().Text())
}

// abs 将相对链接转换为绝对 URL。
func abs(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return bu.ResolveReference(ru).String()
}
