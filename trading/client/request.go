package client

import (
	"context"
	"net/http"
	"time"

	"github.com/betbot/anboto/internal/metrics"
	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BuildRequest 构建签名请求
// GET/DELETE 的签名载荷为规范化查询串，POST/PUT 为规范化 JSON 请求体；
// 发送的字节与签名的字节完全一致
func BuildRequest(baseURL, method, path string, params canonical.Params, window types.RequestWindow, creds *types.Credentials) (*types.Request, error) {
	var (
		payload string
		body    []byte
	)
	url := baseURL + path

	switch method {
	case http.MethodGet, http.MethodDelete:
		if q, ok := canonical.Query(params); ok {
			payload = q
			url += "?" + q
		}
	case http.MethodPost, http.MethodPut:
		payload = canonical.Body(params)
		body = []byte(payload)
	default:
		return nil, &types.InvalidRequestError{Field: "method", Reason: "不支持的请求方法 " + method}
	}

	auth, err := signing.CreateAuthHeaders(creds, window, payload)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	auth.Apply(header)
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	return &types.Request{
		Method: method,
		URL:    url,
		Path:   path,
		Header: header,
		Body:   body,
	}, nil
}

// SendSigned 签名并发送请求，返回原始响应（不解析状态码）
// 每次调用都重新取时间戳；失败时不重试
func (c *Client) SendSigned(ctx context.Context, method, path string, params canonical.Params) (*types.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, &types.TransportError{Method: method, Path: path, Err: err}
	}

	req, err := BuildRequest(c.baseURL, method, path, params, c.window(), c.creds)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	metrics.RequestsSent.Add(1)
	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		metrics.TransportErrors.Add(1)
		log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warnf("请求失败: %v", err)
		return nil, &types.TransportError{Method: method, Path: path, Err: err}
	}
	if resp == nil {
		metrics.TransportErrors.Add(1)
		return nil, &types.TransportError{Method: method, Path: path, Err: errors.New("empty response")}
	}

	log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Milliseconds(),
	}).Debug("请求完成")
	return resp, nil
}

// call 发送请求并检查状态码
func (c *Client) call(ctx context.Context, method, path string, params canonical.Params) (*types.Response, error) {
	resp, err := c.SendSigned(ctx, method, path, params)
	if err != nil {
		return nil, err
	}
	if err := checkResponse(method, path, resp); err != nil {
		return nil, observe(err)
	}
	return resp, nil
}

// observe 按错误类别计数
func observe(err error) error {
	switch {
	case err == nil:
	case errors.Is(err, types.ErrAuthRejected):
		metrics.AuthRejects.Add(1)
	case errors.Is(err, types.ErrMalformedResponse):
		metrics.MalformedResponses.Add(1)
	case errors.Is(err, types.ErrTransport):
		metrics.TransportErrors.Add(1)
	case errors.Is(err, types.ErrAPI):
		metrics.APIErrors.Add(1)
	}
	return err
}
