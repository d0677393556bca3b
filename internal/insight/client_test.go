package insight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-social-dashboard/internal/apperr"
	"go-social-dashboard/internal/fetch"
)

func newClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	cl, err := fetch.New(fetch.Options{Timeout: 2 * time.Second})
	require.NoError(t, err)
	return New(cl, srv.URL+"/api")
}

func TestSummarize(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summarize", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.Equal(t, http.MethodPost, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "talk about " + req["query"]})
	})
	got, err := newClient(t, mux).Summarize(context.Background(), "AI trends")
	require.NoError(t, err)
	assert.Equal(t, "talk about AI trends", got)
}

func TestAnalyzeSentiment(t *testing.T) {
	var tweets []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sentiment", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic  string   `json:"topic"`
			Tweets []string `json:"tweets"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		tweets = req.Tweets
		_, _ = w.Write([]byte(`{"sentiment":"Mostly positive"}`))
	})
	got, err := newClient(t, mux).AnalyzeSentiment(context.Background(), "go", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "Mostly positive", got)
	assert.Equal(t, []string{"a", "b"}, tweets)
}

func TestErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summarize", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"summary":""}`))
	})
	mux.HandleFunc("/api/sentiment", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newClient(t, mux)

	_, err := c.Summarize(context.Background(), "x")
	assert.True(t, apperr.Is(err, apperr.Shape), "%v", err)

	_, err = c.AnalyzeSentiment(context.Background(), "x", nil)
	assert.True(t, apperr.Is(err, apperr.Transport), "%v", err)
}

func TestMalformedBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/summarize", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["not","an","object"]`))
	})
	_, err := newClient(t, mux).Summarize(context.Background(), "x")
	assert.True(t, apperr.Is(err, apperr.Shape), "%v", err)
}
