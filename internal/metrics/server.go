package metrics

import (
	"context"
	"expvar"
	"net"
	"net/http"
	"time"
)

// Handler 返回 expvar 处理器（/debug/vars）
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

// StartAsync 非阻塞启动 /debug/vars 服务，ctx 结束时关闭
func StartAsync(ctx context.Context, listenAddr string) (*http.Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, err
	}
	s := &http.Server{Handler: Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		// Shutdown 后返回 http.ErrServerClosed
		_ = s.Serve(ln)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	return s, nil
}
