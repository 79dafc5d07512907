package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/betbot/anboto/trading/types"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const defaultUserAgent = "anboto-go"

// Options 传输层配置
type Options struct {
	Timeout time.Duration
	// RetryCount 仅在网络错误时重试；签名带时间戳，超出接收窗口的重试会被服务端拒绝
	RetryCount int
	// ProxyURL 为空时 resty 会读取 HTTP_PROXY/HTTPS_PROXY 环境变量
	ProxyURL  string
	UserAgent string
}

// Client 基于 resty 的传输实现，满足 types.Transport
type Client struct {
	client    *resty.Client
	userAgent string
}

var _ types.Transport = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetLogger(logrus.WithField("component", "resty"))
	if opts.RetryCount > 0 {
		// 只重试网络错误，任何 HTTP 响应都原样交还调用方
		client.AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil
		})
	}
	if opts.ProxyURL != "" {
		client.SetProxy(opts.ProxyURL)
	}

	return &Client{client: client, userAgent: opts.UserAgent}
}

// Execute 发送请求并返回原始响应；非 2xx 不视为错误
func (c *Client) Execute(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	r.SetHeader("User-Agent", c.userAgent)
	for k, vs := range req.Header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	method := strings.ToUpper(req.Method)
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPut:
	default:
		return nil, fmt.Errorf("unsupported method: %s", req.Method)
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, req.Path)
	}
	return &types.Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Message:    resp.Status(),
	}, nil
}
