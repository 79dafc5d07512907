// Package mockvenue 本地模拟交易接口：校验签名、时间戳与接收窗口，订单保存在 SQLite 中
package mockvenue

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var log = logrus.WithField("component", "mockvenue")

// BasePath 路由前缀，与线上服务保持一致
const BasePath = "/api/v2/trading"

// MaxRecvWindow 服务端接受的最大接收窗口（毫秒）
const MaxRecvWindow = 60000

// Quirks 用于测试客户端关联逻辑的响应变形
type Quirks struct {
	OmitBatchEcho bool // 批量响应不回显 client_order_id / order_id
	ReverseBatch  bool // 批量响应倒序返回
	DropLastEntry bool // 批量响应丢弃最后一个条目
}

type Config struct {
	// DBPath 为空时使用内存数据库
	DBPath      string
	Credentials []*types.Credentials
	Clock       signing.Clock
	Quirks      Quirks
}

type Server struct {
	cfg     Config
	db      *sql.DB
	clock   signing.Clock
	secrets map[string][]byte
}

func New(cfg Config) (*Server, error) {
	if len(cfg.Credentials) == 0 {
		return nil, errors.New("at least one api credential is required")
	}
	secrets := make(map[string][]byte, len(cfg.Credentials))
	for _, c := range cfg.Credentials {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		secrets[c.APIKey()] = c.Secret()
	}

	dsn := cfg.DBPath
	if dsn == "" {
		dsn = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // 内存库随连接关闭而丢失

	clock := cfg.Clock
	if clock == nil {
		clock = signing.SystemClock{}
	}

	s := &Server{cfg: cfg, db: db, clock: clock, secrets: secrets}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group(BasePath)
	api.Use(s.authenticate())

	order := api.Group("/order")
	order.POST("/create", s.handleCreate)
	order.POST("/createMany", s.handleCreateMany)
	order.POST("/cancel", s.handleCancel)
	order.POST("/cancelMany", s.handleCancelMany)
	order.GET("/open", s.handleOpen)
	order.GET("/byId", s.handleByID)
	order.GET("/find", s.handleFind)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).Milliseconds(),
		}).Debug("request")
	}
}
