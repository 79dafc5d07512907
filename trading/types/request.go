package types

import (
	"context"
	"net/http"
	"strconv"
)

// DefaultRecvWindow 默认接收窗口（毫秒）
const DefaultRecvWindow int64 = 5000

// Credentials API 凭证，进程内不可变，禁止打印
type Credentials struct {
	apiKey string
	secret []byte
}

// NewCredentials 创建凭证（复制 secret，调用方后续修改不影响凭证）
func NewCredentials(apiKey string, secret []byte) *Credentials {
	cp := make([]byte, len(secret))
	copy(cp, secret)
	return &Credentials{apiKey: apiKey, secret: cp}
}

func (c *Credentials) APIKey() string { return c.apiKey }

// Secret 返回 secret 副本
func (c *Credentials) Secret() []byte {
	cp := make([]byte, len(c.secret))
	copy(cp, c.secret)
	return cp
}

// Validate 检查凭证是否完整
func (c *Credentials) Validate() error {
	if c == nil {
		return NewConfigurationError("credentials", "未配置 API 凭证")
	}
	if c.apiKey == "" {
		return NewConfigurationError("api_key", "API key 为空")
	}
	if len(c.secret) == 0 {
		return NewConfigurationError("api_secret", "API secret 为空")
	}
	return nil
}

// String 脱敏输出
func (c *Credentials) String() string {
	if c == nil {
		return "Credentials<nil>"
	}
	key := c.apiKey
	if len(key) > 4 {
		key = key[:4] + "***"
	}
	return "Credentials{APIKey: " + key + ", Secret: [REDACTED]}"
}

// GoString 防止 %#v 泄露 secret
func (c *Credentials) GoString() string { return c.String() }

// RequestWindow 单次签名的时间信息
type RequestWindow struct {
	Timestamp  int64 // 毫秒
	RecvWindow int64 // 毫秒
}

func (w RequestWindow) TimestampString() string  { return strconv.FormatInt(w.Timestamp, 10) }
func (w RequestWindow) RecvWindowString() string { return strconv.FormatInt(w.RecvWindow, 10) }

// Request 与传输层无关的请求描述
type Request struct {
	Method string
	URL    string
	Path   string
	Header http.Header
	Body   []byte
}

// Response 传输层返回的原始响应
type Response struct {
	StatusCode int
	Body       []byte
	Message    string
}

// IsSuccess 2xx
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport 传输层协作者：连接复用、TLS、代理、重试都由实现方负责
type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc 函数适配器
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

func (f TransportFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
