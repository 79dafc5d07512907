package client

import (
	"net/url"
	"strings"

	sdkhttp "github.com/betbot/anboto/pkg/sdk/http"
	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "trading_client")

// Options 客户端选项，零值字段使用默认值
type Options struct {
	BaseURL    string
	RecvWindow int64 // 毫秒，默认 5000

	// Transport 为 nil 时使用 resty 实现（HTTP 配置见 HTTP 字段）
	Transport types.Transport
	HTTP      sdkhttp.Options

	Clock       signing.Clock
	IDGenerator signing.ClientOrderIDGenerator
	SideFormat  types.SideFormat
}

// Client 签名 REST 客户端
// 除客户端订单 ID 计数器外没有可变共享状态，可并发使用
type Client struct {
	baseURL    string
	creds      *types.Credentials
	recvWindow int64
	transport  types.Transport
	clock      signing.Clock
	ids        signing.ClientOrderIDGenerator
	sideFormat types.SideFormat
}

// NewClient 创建客户端；凭证或地址非法时返回 ConfigurationError
func NewClient(creds *types.Credentials, opts Options) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &types.ConfigurationError{Field: "base_url", Reason: "非法地址 " + base, Err: err}
	}

	recv := opts.RecvWindow
	if recv <= 0 {
		recv = types.DefaultRecvWindow
	}

	switch opts.SideFormat {
	case "":
		opts.SideFormat = types.SideFormatString
	case types.SideFormatString, types.SideFormatNumeric:
	default:
		return nil, types.NewConfigurationError("side_format", "不支持的方向格式 "+string(opts.SideFormat))
	}

	clock := opts.Clock
	if clock == nil {
		clock = signing.SystemClock{}
	}
	ids := opts.IDGenerator
	if ids == nil {
		ids = signing.NewCounterIDGenerator(clock)
	}
	transport := opts.Transport
	if transport == nil {
		transport = sdkhttp.NewClient(opts.HTTP)
	}

	return &Client{
		baseURL:    base,
		creds:      creds,
		recvWindow: recv,
		transport:  transport,
		clock:      clock,
		ids:        ids,
		sideFormat: opts.SideFormat,
	}, nil
}

// BaseURL 获取服务地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NextClientOrderID 生成新的客户端订单 ID
func (c *Client) NextClientOrderID() string {
	return c.ids.Next()
}

// window 每次签名时重新取时间戳
func (c *Client) window() types.RequestWindow {
	return types.RequestWindow{Timestamp: c.clock.NowMillis(), RecvWindow: c.recvWindow}
}
