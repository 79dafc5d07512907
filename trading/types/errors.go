package types

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// 错误类别，使用 errors.Is 判断
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrTransport         = errors.New("transport error")
	ErrAuthRejected      = errors.New("auth rejected")
	ErrAPI               = errors.New("api error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrPartialBatch      = errors.New("partial batch failure")
)

// ConfigurationError 凭证缺失/非法、加密原语不可用等，属于致命错误，不重试
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func NewConfigurationError(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

func (e *ConfigurationError) Error() string {
	msg := "配置错误"
	if e.Field != "" {
		msg += " [" + e.Field + "]"
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error        { return e.Err }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InvalidRequestError 请求参数在发送前校验失败
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("请求参数非法 [%s]: %s", e.Field, e.Reason)
}

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// TransportError 网络失败/超时/取消。签名有时效，重试必须重新生成时间戳和签名
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("传输失败 %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error        { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Timeout 是否为超时
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Canceled 是否被调用方取消
func (e *TransportError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled)
}

// AuthRejectedError 服务端拒绝签名/时间戳/接收窗口，禁止用同一签名重试
type AuthRejectedError struct {
	StatusCode int
	Code       APIErrorCode
	Message    string
	Body       []byte
}

func (e *AuthRejectedError) Error() string {
	return fmt.Sprintf("认证被拒绝 (HTTP %d, %s): %s", e.StatusCode, e.Code, e.Message)
}

func (e *AuthRejectedError) Is(target error) bool { return target == ErrAuthRejected }

// APIError 服务端返回的其它非 2xx 错误
type APIError struct {
	StatusCode int
	Code       APIErrorCode
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP 错误 %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP 错误 %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool { return target == ErrAPI }

// MalformedResponseError 响应体不符合端点约定，携带原始响应体用于诊断
type MalformedResponseError struct {
	Endpoint string
	Reason   string
	Body     []byte
	Err      error
}

func (e *MalformedResponseError) Error() string {
	msg := fmt.Sprintf("响应格式错误 %s: %s", e.Endpoint, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedResponseError) Unwrap() error        { return e.Err }
func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }

// RawBody 原始响应体
func (e *MalformedResponseError) RawBody() []byte { return e.Body }

// PartialBatchFailure 批量请求 HTTP 层成功，但部分条目失败
type PartialBatchFailure struct {
	Total  int
	Failed []EntryResult
}

func (e *PartialBatchFailure) Error() string {
	reasons := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		reasons = append(reasons, fmt.Sprintf("#%d %s", f.Index, f.Error.Error()))
	}
	return fmt.Sprintf("批量请求部分失败 %d/%d: %s", len(e.Failed), e.Total, strings.Join(reasons, "; "))
}

func (e *PartialBatchFailure) Is(target error) bool { return target == ErrPartialBatch }
