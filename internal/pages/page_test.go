package pages_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/normalize"
	"go-social-dashboard/internal/pages"
	"go-social-dashboard/internal/rules"
)

const listingHTML = `<!doctype html><ul>
  <li class="post" data-id="p1">
    <p class="text">Shipping the new <b>agent</b> today #launch</p>
    <span class="by">alice</span>
    <time datetime="2024-03-10T12:00:00Z">Mar 10</time>
    <a class="permalink" href="/p/1">link</a>
    <span class="likes">1,204 likes</span><span class="comments">7</span>
    <a class="tag">AI</a><a class="tag">Agents</a>
  </li>
  <li class="post" data-id="p2">
    <div class="body">Second post</div>
    <a href="/p/2">link</a>
  </li>
  <li class="post"></li>
</ul>`

func serve(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/forum", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(listingHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func preset() rules.Preset {
	return rules.Preset{Listing: &rules.Listing{
		Item:     ".post",
		ID:       "@data-id",
		Content:  ".text||.body",
		Author:   ".by",
		Date:     "time@datetime",
		Link:     "a.permalink@href||a@href",
		Likes:    ".likes",
		Comments: ".comments",
		Tags:     ".tag",
	}}
}

func TestParseListing(t *testing.T) {
	srv := serve(t)
	cl, err := fetch.New(fetch.Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("fetch client: %v", err)
	}
	raws, err := pages.ParseListing(context.Background(), cl, srv.URL+"/forum", "forum", preset(), 0)
	if err != nil {
		t.Fatalf("parse listing: %v", err)
	}
	// 空条目被跳过
	if len(raws) != 2 {
		t.Fatalf("len=%d want=2", len(raws))
	}
	if raws[0]["url"] != srv.URL+"/p/1" || raws[1]["url"] != srv.URL+"/p/2" {
		t.Fatalf("expect absolute urls, got %v %v", raws[0]["url"], raws[1]["url"])
	}
	if raws[1]["content"] != "Second post" {
		t.Fatalf("fallback content expected, got %q", raws[1]["content"])
	}

	posts, invalid := normalize.Batch(raws)
	if invalid != 1 {
		t.Fatalf("invalid=%d want=1", invalid)
	}
	p := posts[0]
	if p.ID != "p1" || p.Author != "alice" || p.Platform != "forum" {
		t.Fatalf("fields: %+v", p)
	}
	if p.Likes != 1204 || p.Comments != 7 || len(p.Issues) != 0 {
		t.Fatalf("counts: likes=%d comments=%d issues=%v", p.Likes, p.Comments, p.Issues)
	}
	if !p.CreatedAt.Equal(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("date: %v", p.CreatedAt)
	}
	if len(p.Hashtags) != 2 || p.Hashtags[0].Text != "agents" {
		t.Fatalf("tags: %+v", p.Hashtags)
	}
}

func TestParseListing_Max(t *testing.T) {
	srv := serve(t)
	cl, _ := fetch.New(fetch.Options{})
	raws, err := pages.ParseListing(context.Background(), cl, srv.URL+"/forum", "forum", preset(), 1)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("len=%d want=1", len(raws))
	}
}

func TestParseListing_NoRules(t *testing.T) {
	cl, _ := fetch.New(fetch.Options{})
	if _, err := pages.ParseListing(context.Background(), cl, "http://127.0.0.1:1/", "x", rules.Preset{}, 0); err == nil {
		t.Fatalf("expect error without listing rules")
	}
}
