// 包 insight 是 AI 文本服务的客户端：话题摘要与情感分析。
// 两个调用相互独立，任一失败都不影响其它面板。
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go-social-dashboard/internal/apperr"
	"go-social-dashboard/internal/fetch"
)

// Service 为编排器依赖的 AI 文本能力。
type Service interface {
	Summarize(ctx context.Context, topic string) (string, error)
	AnalyzeSentiment(ctx context.Context, topic string, posts []string) (string, error)
}

// Client 通过 HTTP 调用 AI 服务。
type Client struct {
	http *fetch.Client
	base string
}

var _ Service = (*Client)(nil)

// New 创建客户端；base 形如 http://localhost:5000/api。
func New(cl *fetch.Client, base string) *Client {
	return &Client{http: cl, base: strings.TrimRight(base, "/")}
}

type summarizeRequest struct {
	Query string `json:"query"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type sentimentRequest struct {
	Topic  string   `json:"topic"`
	Tweets []string `json:"tweets"`
}

type sentimentResponse struct {
	Sentiment string `json:"sentiment"`
}

// Summarize 生成话题摘要：POST {base}/summarize。
func (c *Client) Summarize(ctx context.Context, topic string) (string, error) {
	var out summarizeResponse
	if err := c.post(ctx, "summarize", summarizeRequest{Query: topic}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", apperr.Shapef("insight.summarize", "summary", "empty summary")
	}
	return out.Summary, nil
}

// AnalyzeSentiment 分析一组帖子文本的整体情感：POST {base}/sentiment。
func (c *Client) AnalyzeSentiment(ctx context.Context, topic string, posts []string) (string, error) {
	if posts == nil {
		posts = []string{}
	}
	var out sentimentResponse
	if err := c.post(ctx, "sentiment", sentimentRequest{Topic: topic, Tweets: posts}, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Sentiment) == "" {
		return "", apperr.Shapef("insight.sentiment", "sentiment", "empty sentiment")
	}
	return out.Sentiment, nil
}

func (c *Client) post(ctx context.Context, path string, req, out any) error {
	body, err := c.http.PostJSON(ctx, c.base+"/"+path, req)
	if err != nil {
		return fmt.Errorf("insight %s: %w", path, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperr.New(apperr.Shape, "insight."+path, err)
	}
	return nil
}
