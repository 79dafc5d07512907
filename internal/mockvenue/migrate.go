package mockvenue

import (
	"context"
	"fmt"
	"time"
)

func (s *Server) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS orders (
  order_id INTEGER PRIMARY KEY AUTOINCREMENT,
  api_key TEXT NOT NULL,
  client_order_id TEXT NOT NULL,
  exchange TEXT NOT NULL,
  symbol TEXT NOT NULL,
  asset_category TEXT NOT NULL,
  side TEXT NOT NULL,
  quantity TEXT NOT NULL,
  strategy TEXT NOT NULL,
  limit_price TEXT,
  status TEXT NOT NULL,
  body TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_orders_client_id ON orders(api_key, client_order_id);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(api_key, status);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(api_key, created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
