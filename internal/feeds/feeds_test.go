package feeds_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-social-dashboard/internal/feeds"
	"go-social-dashboard/internal/fetch"
	"go-social-dashboard/internal/normalize"
)

const rssSample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>t</title>
    <link>https://ex</link>
    <item>
      <guid>a-1</guid>
      <title>Launch day</title>
      <description>&lt;p&gt;New &lt;b&gt;model&lt;/b&gt; shipped #ai&lt;/p&gt;</description>
      <link>https://ex/a</link>
      <category>Release</category>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    </item>
    <item><title>b</title><link>https://ex/b</link></item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example</title>
  <author><name>Robot</name></author>
  <entry>
    <title>Atom-Powered Robots Run Amok</title>
    <updated>2003-12-13T18:30:02Z</updated>
    <link href="http://example.org/2003/12/13/atom03"/>
  </entry>
</feed>`

func newClient(t *testing.T) *fetch.Client {
	t.Helper()
	cl, err := fetch.New(fetch.Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return cl
}

func TestDiscoverFeed_StraightCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssSample))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := feeds.DiscoverFeed(context.Background(), newClient(t), srv.URL+"/", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/index.xml", got)
}

func TestDiscoverFeed_SiteIsFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomSample))
	}))
	defer srv.Close()

	got, err := feeds.DiscoverFeed(context.Background(), newClient(t), srv.URL+"/atom", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/atom", got)
}

func TestDiscoverFeed_FromHTMLLink(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!doctype html><head><link rel="alternate" type="application/rss+xml" href="/custom/posts.rss"></head>`))
	})
	mux.HandleFunc("/custom/posts.rss", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssSample))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := feeds.DiscoverFeed(context.Background(), newClient(t), srv.URL+"/", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/custom/posts.rss", got)
}

func TestDiscoverFeed_JSONCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/feed+json")
		_, _ = w.Write([]byte(`{"version":"https://jsonfeed.org/version/1.1","items":[]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := feeds.DiscoverFeed(context.Background(), newClient(t), srv.URL+"/", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/index.json", got)
}

func TestDiscoverFeed_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cl, err := fetch.New(fetch.Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	_, err = feeds.DiscoverFeed(context.Background(), cl, srv.URL+"/", "")
	assert.Error(t, err)
}

func TestParseFeed_RSSToPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssSample))
	}))
	defer srv.Close()

	raws, err := feeds.ParseFeed(context.Background(), newClient(t), srv.URL, "Blog", 0)
	require.NoError(t, err)
	require.Len(t, raws, 2)

	posts, invalid := normalize.Batch(raws)
	require.Len(t, posts, 2)
	// 第二条缺少发布时间
	assert.Equal(t, 1, invalid)

	p := posts[0]
	assert.Equal(t, "a-1", p.ID)
	assert.Equal(t, "blog", p.Platform)
	assert.Equal(t, "Launch day New model shipped #ai", p.Content)
	assert.Equal(t, "https://ex/a", p.URL)
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC), p.CreatedAt.UTC())
	require.Len(t, p.Hashtags, 1)
	assert.Equal(t, "release", p.Hashtags[0].Text)
	assert.True(t, posts[1].Invalid)
}

func TestParseFeed_AtomLimitAndAuthor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(atomSample))
	}))
	defer srv.Close()

	raws, err := feeds.ParseFeed(context.Background(), newClient(t), srv.URL, "news", 1)
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Robot", raws[0]["author"])
	assert.Equal(t, "news", raws[0]["platform"])
}
