package signing

import (
	"net/http"

	"github.com/betbot/anboto/trading/types"
)

// 认证请求头
const (
	HeaderAPIKey     = "X-API-KEY"
	HeaderSign       = "X-SIGN"
	HeaderTimestamp  = "X-TIMESTAMP"
	HeaderRecvWindow = "X-RECV-WINDOW"
)

// AuthHeaders 认证头
type AuthHeaders struct {
	APIKey     string
	Sign       string
	Timestamp  string
	RecvWindow string
}

// CreateAuthHeaders 对 payload 签名并生成认证头
func CreateAuthHeaders(creds *types.Credentials, window types.RequestWindow, payload string) (*AuthHeaders, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	ts := window.TimestampString()
	recv := window.RecvWindowString()

	sig, err := Sign(creds.Secret(), Message(ts, creds.APIKey(), recv, payload))
	if err != nil {
		return nil, err
	}

	return &AuthHeaders{
		APIKey:     creds.APIKey(),
		Sign:       sig,
		Timestamp:  ts,
		RecvWindow: recv,
	}, nil
}

// Apply 写入 http.Header
func (h *AuthHeaders) Apply(header http.Header) {
	header.Set(HeaderAPIKey, h.APIKey)
	header.Set(HeaderSign, h.Sign)
	header.Set(HeaderTimestamp, h.Timestamp)
	header.Set(HeaderRecvWindow, h.RecvWindow)
}

// ReadAuthHeaders 从请求头读取认证信息（服务端校验使用）
func ReadAuthHeaders(header http.Header) AuthHeaders {
	return AuthHeaders{
		APIKey:     header.Get(HeaderAPIKey),
		Sign:       header.Get(HeaderSign),
		Timestamp:  header.Get(HeaderTimestamp),
		RecvWindow: header.Get(HeaderRecvWindow),
	}
}
