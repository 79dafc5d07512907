package shutdown

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "shutdown")

// Handler 关闭回调，应在 ctx 结束前返回
type Handler func(ctx context.Context) error

type entry struct {
	name string
	fn   Handler
}

// Manager 优雅关闭管理器，按注册的逆序依次执行回调
type Manager struct {
	mu      sync.Mutex
	entries []entry
	done    bool
}

// NewManager 创建关闭管理器
func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, fn Handler) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{name: name, fn: fn})
}

// Shutdown 执行所有回调，只执行一次
// 后注册的先关闭（例如先停 HTTP 服务再关数据库）；返回第一个错误
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return nil
	}
	m.done = true
	entries := m.entries
	m.entries = nil
	m.mu.Unlock()

	var first error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if ctx.Err() != nil {
			log.Warnf("关闭超时，跳过 %s: %v", e.name, ctx.Err())
			if first == nil {
				first = ctx.Err()
			}
			continue
		}
		if err := e.fn(ctx); err != nil {
			log.Errorf("关闭 %s 失败: %v", e.name, err)
			if first == nil {
				first = err
			}
			continue
		}
		log.Debugf("已关闭 %s", e.name)
	}
	return first
}
