package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/betbot/anboto/trading/types"
)

// Message 构建签名原文：timestamp + api_key + recv_window + payload
// POST 的 payload 为 JSON 请求体，GET 的 payload 为查询串（无参数时为空串）
func Message(timestamp, apiKey, recvWindow, payload string) string {
	var sb strings.Builder
	sb.Grow(len(timestamp) + len(apiKey) + len(recvWindow) + len(payload))
	sb.WriteString(timestamp)
	sb.WriteString(apiKey)
	sb.WriteString(recvWindow)
	sb.WriteString(payload)
	return sb.String()
}

// Sign 计算 HMAC-SHA256 并对原始摘要做标准 base64 编码（不是 hex）
func Sign(secret []byte, message string) (string, error) {
	if len(secret) == 0 {
		return "", types.NewConfigurationError("api_secret", "HMAC secret 为空")
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// Verify 常数时间比较签名
func Verify(secret []byte, message, signature string) bool {
	expected, err := Sign(secret, message)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(signature))
}

// DecodeSecret 解码 base64 编码的 API secret
// 兼容 base64url 格式（- 替换为 +，_ 替换为 /）以及缺少填充的情况
func DecodeSecret(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if s == "" {
		return nil, types.NewConfigurationError("api_secret", "API secret 为空")
	}
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")

	enc := base64.StdEncoding
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	key, err := enc.DecodeString(s)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "api_secret", Reason: "API secret 不是合法的 base64", Err: err}
	}
	if len(key) == 0 {
		return nil, types.NewConfigurationError("api_secret", "API secret 解码后为空")
	}
	return key, nil
}

// ParseCredentials 从 API key 与 base64 secret 构建凭证
func ParseCredentials(apiKey, encodedSecret string) (*types.Credentials, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, types.NewConfigurationError("api_key", "API key 为空")
	}
	secret, err := DecodeSecret(encodedSecret)
	if err != nil {
		return nil, err
	}
	return types.NewCredentials(apiKey, secret), nil
}
