// 包 fetch 封装 HTTP 客户端（代理/超时/重试），供上游接口调用、订阅与页面抓取共用。
// 网络失败、超时与非 2xx 状态统一返回 apperr.Transport 类别的错误。
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"go-social-dashboard/internal/apperr"
)

// DefaultTimeout 为单次请求的默认超时。
const DefaultTimeout = 30 * time.Second

// DefaultMaxBody 为 GetJSON/PostJSON 读取响应体的默认上限。
const DefaultMaxBody = 16 << 20

const defaultUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

// Client 为带重试的 HTTP 客户端。
type Client struct {
	http    *http.Client
	retry   int
	ua      string
	maxBody int64
}

// Options 为客户端构造参数。
type Options struct {
	ProxyHTTP  string
	ProxyHTTPS string
	Timeout    time.Duration
	Retry      int
	UserAgent  string
	// MaxBody 为响应体上限（字节），<=0 使用 DefaultMaxBody。
	MaxBody int64
}

// New 创建客户端，支持 http/https 代理与基础超时配置。
func New(opts Options) (*Client, error) {
	var proxyHTTP, proxyHTTPS *url.URL
	var err error
	if opts.ProxyHTTP != "" {
		if proxyHTTP, err = url.Parse(opts.ProxyHTTP); err != nil {
			return nil, fmt.Errorf("parse http proxy: %w", err)
		}
	}
	if opts.ProxyHTTPS != "" {
		if proxyHTTPS, err = url.Parse(opts.ProxyHTTPS); err != nil {
			return nil, fmt.Errorf("parse https proxy: %w", err)
		}
	}
	transport := &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if req.URL.Scheme == "https" && proxyHTTPS != nil {
				return proxyHTTPS, nil
			}
			if req.URL.Scheme == "http" && proxyHTTP != nil {
				return proxyHTTP, nil
			}
			return http.ProxyFromEnvironment(req)
		},
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retry < 0 {
		opts.Retry = 0
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = os.Getenv("DASHBOARD_UA")
	}
	if ua == "" {
		ua = defaultUA
	}
	cl := &http.Client{Transport: transport, Timeout: opts.Timeout}
	if opts.MaxBody <= 0 {
		opts.MaxBody = DefaultMaxBody
	}
	return &Client{http: cl, retry: opts.Retry, ua: ua, maxBody: opts.MaxBody}, nil
}

// Get 发起 GET 请求，失败时按线性回退重试。调用方负责关闭 Body。
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, "")
}

// GetJSON 发起 GET 请求并返回完整响应体。
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil, "application/json")
	if err != nil {
		return nil, err
	}
	return c.readAll(resp, url)
}

// PostJSON 以 JSON 发送 body 并返回完整响应体。POST 不重试。
func (c *Client) PostJSON(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request %s: %w", url, err)
	}
	resp, err := c.do(ctx, http.MethodPost, url, payload, "application/json")
	if err != nil {
		return nil, err
	}
	return c.readAll(resp, url)
}

func (c *Client) readAll(resp *http.Response, url string) ([]byte, error) {
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, apperr.New(apperr.Transport, "read "+url, err)
	}
	if int64(len(b)) > c.maxBody {
		return nil, apperr.Transportf("read "+url, "response body exceeds %d bytes", c.maxBody)
	}
	return b, nil
}

// do 执行请求：2xx 直接返回；GET 在网络错误或非 2xx 时重试，最终返回传输错误。
// 上下文取消时立即返回。
func (c *Client) do(ctx context.Context, method, url string, body []byte, accept string) (*http.Response, error) {
	var lastErr error
	attempts := 1
	if method == http.MethodGet {
		attempts += c.retry
	}
	for i := 0; i < attempts; i++ {
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, reqErr := http.NewRequestWithContext(ctx, method, url, rd)
		if reqErr != nil {
			return nil, apperr.New(apperr.Transport, method+" "+url, reqErr)
		}
		req.Header.Set("User-Agent", c.ua)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		resp, err := c.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		if err == nil {
			lastErr = apperr.Transportf(method+" "+url, "http status: %s", resp.Status)
			if resp.Body != nil {
				resp.Body.Close()
			}
		} else {
			lastErr = apperr.New(apperr.Transport, method+" "+url, err)
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, apperr.New(apperr.Transport, method+" "+url, ctx.Err())
		case <-time.After(time.Duration(i+1) * 300 * time.Millisecond):
		}
	}
	return nil, lastErr
}
