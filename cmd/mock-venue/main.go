// mock-venue 本地模拟交易接口，用于联调 anboto 客户端
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/betbot/anboto/internal/metrics"
	"github.com/betbot/anboto/internal/mockvenue"
	"github.com/betbot/anboto/pkg/logger"
	"github.com/betbot/anboto/pkg/shutdown"
	"github.com/betbot/anboto/trading/signing"
	"github.com/betbot/anboto/trading/types"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env 可选，不存在时使用真实环境变量
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return def
	}

	var (
		listenAddr  = flag.String("listen", getenv("ANBOTO_VENUE_LISTEN", ":8090"), "HTTP listen address")
		dbPath      = flag.String("db", getenv("ANBOTO_VENUE_DB", ""), "SQLite db file path (empty = in-memory)")
		apiKey      = flag.String("api-key", getenv("ANBOTO_API_KEY", ""), "accepted api key")
		apiSecret   = flag.String("api-secret", getenv("ANBOTO_API_SECRET", ""), "accepted api secret (base64)")
		metricsAddr = flag.String("metrics", getenv("ANBOTO_METRICS_ADDR", ""), "expvar listen address (optional)")
		logLevel    = flag.String("log-level", getenv("ANBOTO_LOG_LEVEL", "info"), "log level")
		logFile     = flag.String("log-file", getenv("ANBOTO_LOG_FILE", ""), "log file path (rotated, optional)")
		omitEcho    = flag.Bool("omit-batch-echo", false, "batch responses omit client_order_id / order_id")
		reverse     = flag.Bool("reverse-batch", false, "batch responses in reverse order")
		dropLast    = flag.Bool("drop-last-entry", false, "batch responses drop the last entry")
	)
	flag.Parse()

	if err := logger.Init(logger.Config{
		Level:      *logLevel,
		OutputFile: *logFile,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
	}); err != nil {
		logrus.Fatalf("初始化日志失败: %v", err)
	}
	if f := logger.GetCurrentLogFile(); f != "" {
		logger.Infof("日志文件: %s", f)
	}

	creds, err := signing.ParseCredentials(*apiKey, *apiSecret)
	if err != nil {
		logrus.Fatalf("凭证无效: %v", err)
	}

	srv, err := mockvenue.New(mockvenue.Config{
		DBPath:      *dbPath,
		Credentials: []*types.Credentials{creds},
		Quirks: mockvenue.Quirks{
			OmitBatchEcho: *omitEcho,
			ReverseBatch:  *reverse,
			DropLastEntry: *dropLast,
		},
	})
	if err != nil {
		logrus.Fatalf("初始化 mock venue 失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		if _, err := metrics.StartAsync(ctx, *metricsAddr); err != nil {
			logger.Warnf("metrics 服务启动失败: %v", err)
		}
	}

	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"listen":    *listenAddr,
			"base_path": mockvenue.BasePath,
			"db":        *dbPath,
		}).Info("mock venue listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http server error: %v", err)
			stop()
		}
	}()

	mgr := shutdown.NewManager()
	mgr.OnShutdown("sqlite", func(context.Context) error { return srv.Close() })
	mgr.OnShutdown("http", httpSrv.Shutdown)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mgr.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("关闭未完成: %v", err)
	}
	logger.Infof("mock venue stopped")
}
