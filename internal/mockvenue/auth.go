package mockvenue

import (
	"net/http"
	"strconv"

	"github.com/betbot/anboto/internal/metrics"
	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
	"github.com/gin-gonic/gin"
)

const (
	ctxAPIKey  = "mockvenue.api_key"
	ctxRawBody = "mockvenue.raw_body"
)

// maxFutureSkew 允许客户端时钟超前的毫秒数
const maxFutureSkew = 1000

// authenticate 按 timestamp + apiKey + recvWindow + payload 校验签名
// GET 的 payload 为原始查询串，其它方法为原始请求体
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := signing.ReadAuthHeaders(c.Request.Header)

		secret, ok := s.secrets[h.APIKey]
		if h.APIKey == "" || !ok {
			reject(c, types.ErrCodeInvalidAPIKey, "unknown api key")
			return
		}

		ts, err := strconv.ParseInt(h.Timestamp, 10, 64)
		if err != nil {
			reject(c, types.ErrCodeInvalidTimestamp, "invalid X-TIMESTAMP")
			return
		}
		recv, err := strconv.ParseInt(h.RecvWindow, 10, 64)
		if err != nil || recv <= 0 || recv > MaxRecvWindow {
			reject(c, types.ErrCodeInvalidTimestamp, "invalid X-RECV-WINDOW")
			return
		}
		now := s.clock.NowMillis()
		if ts > now+maxFutureSkew || now-ts > recv {
			reject(c, types.ErrCodeInvalidTimestamp, "timestamp outside recv window")
			return
		}

		payload := c.Request.URL.RawQuery
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodDelete {
			body, err := c.GetRawData()
			if err != nil {
				writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "read body failed")
				return
			}
			c.Set(ctxRawBody, body)
			payload = string(body)
		}

		if !signing.Verify(secret, signing.Message(h.Timestamp, h.APIKey, h.RecvWindow, payload), h.Sign) {
			reject(c, types.ErrCodeInvalidSignature, "signature mismatch")
			return
		}

		c.Set(ctxAPIKey, h.APIKey)
		c.Next()
	}
}

func reject(c *gin.Context, code types.APIErrorCode, msg string) {
	metrics.VenueAuthFailures.Add(1)
	log.WithField("code", code).Warnf("认证失败: %s %s", c.Request.Method, c.Request.URL.Path)
	writeError(c, http.StatusUnauthorized, code, msg)
}

func writeError(c *gin.Context, status int, code types.APIErrorCode, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": gin.H{"code": code, "message": msg}})
}

func apiKeyOf(c *gin.Context) string {
	return c.GetString(ctxAPIKey)
}

func rawBodyOf(c *gin.Context) []byte {
	if v, ok := c.Get(ctxRawBody); ok {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}
