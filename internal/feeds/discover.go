// 包 feeds 负责订阅类来源的发现与解析：
// - DiscoverFeed：按常见端点与 HTML <link rel=alternate> 发现订阅地址
// - ParseFeed：使用 gofeed 解析 RSS/Atom/JSON Feed，输出待归一化的原始帖子
package feeds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/logx"
)

// 以来源 URL 为目录依次尝试的相对端点。
var dirCandidates = []string{"index.xml", "atom.xml", "rss.xml", "feed", "feed.xml", "index.json"}

// 以站点根为基准依次尝试的端点。
var rootCandidates = []string{
	"/feed", "/feed.xml", "/index.xml", "/atom.xml", "/rss.xml", "/rss",
	"/?feed=rss2", "/?feed=atom",
	"/index.json", "/feed.json",
}

// probeTimeout 为单个候选地址的探测超时。
const probeTimeout = 6 * time.Second

// DiscoverFeed 返回来源的订阅地址。若来源地址本身就是订阅则直接返回。
func DiscoverFeed(ctx context.Context, cl *fetch.Client, site, feedSuffix string) (string, error) {
	candidates := []string{site}
	if feedSuffix != "" {
		candidates = append(candidates, joinURL(site, feedSuffix), joinURLDir(site, feedSuffix))
	}
	for _, c := range dirCandidates {
		candidates = append(candidates, joinURLDir(site, c))
	}
	for _, c := range rootCandidates {
		candidates = append(candidates, joinURL(site, c))
	}

	seen := make(map[string]bool, len(candidates))
	for _, u := range candidates {
		if seen[u] {
			continue
		}
		seen[u] = true
		if err := ctx.Err(); err != nil {
			return "", err
		}
		logx.Debugf("探测候选订阅：%s", u)
		if probeFeed(ctx, cl, u) {
			return u, nil
		}
	}

	found, err := linkFromHTML(ctx, cl, site)
	if err != nil {
		return "", err
	}
	if found != "" && probeFeed(ctx, cl, found) {
		logx.Debugf("从 <link> 发现订阅：%s", found)
		return found, nil
	}
	return "", fmt.Errorf("no feed discovered for %s", site)
}

// linkFromHTML 抓取页面并解析订阅声明；优先 rel=alternate + 类型，其次按后缀判断。
func linkFromHTML(ctx context.Context, cl *fetch.Client, site string) (string, error) {
	resp, err := cl.Get(ctx, site)
	if err != nil {
		return "", fmt.Errorf("GET site %s: %w", site, err)
	}
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	var found string
	doc.Find("link[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel := strings.ToLower(s.AttrOr("rel", ""))
		typ := strings.ToLower(s.AttrOr("type", ""))
		href := s.AttrOr("href", "")
		if strings.Contains(rel, "alternate") && isFeedType(typ) {
			found = joinURL(site, href)
			return false
		}
		if typ == "" && hasFeedSuffix(href) {
			found = joinURL(site, href)
			return false
		}
		return true
	})
	return found, nil
}

func isFeedType(ct string) bool {
	return strings.Contains(ct, "rss") || strings.Contains(ct, "atom") || strings.Contains(ct, "json")
}

func hasFeedSuffix(href string) bool {
	h := strings.ToLower(href)
	for _, suf := range []string{".xml", ".rss", ".atom", ".json"} {
		if strings.HasSuffix(h, suf) {
			return true
		}
	}
	return false
}

// probeFeed 根据 Content-Type 与内容开头判断 URL 是否为订阅，HTML 页面不算。
func probeFeed(ctx context.Context, cl *fetch.Client, feedURL string) bool {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	resp, err := cl.Get(pctx, feedURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	head, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	lb := bytes.ToLower(head)
	jsonFeed := bytes.Contains(lb, []byte(`"version":"https://jsonfeed.org/version`))

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	switch {
	case strings.Contains(ct, "json"):
		return jsonFeed
	case strings.Contains(ct, "rss"), strings.Contains(ct, "atom"), strings.Contains(ct, "xml"):
		return true
	}
	return jsonFeed || bytes.Contains(lb, []byte("<rss")) || bytes.Contains(lb, []byte("<feed")) ||
		bytes.Contains(lb, []byte("<rdf"))
}

// joinURL 将相对路径按站点根解析为绝对 URL。
func joinURL(base, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	u, err := url.Parse(base)
	if err != nil {
		return base + ref
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return base + ref
	}
	return u.ResolveReference(ru).String()
}

// joinURLDir 将 base 视为目录拼接（即便不以 / 结尾），适配 https://host/blog 这类子路径站点。
func joinURLDir(base, ref string) string {
	ref = strings.TrimPrefix(ref, "/")
	u, err := url.Parse(base)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + ref
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	ru, err := url.Parse(ref)
	if err != nil {
		return u.String() + ref
	}
	return u.ResolveReference(ru).String()
}
