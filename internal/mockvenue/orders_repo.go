package mockvenue

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/betbot/anboto/trading/types"
)

type orderRow struct {
	OrderID       int64  `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
	Exchange      string `json:"exchange"`
	Symbol        string `json:"symbol"`
	AssetCategory string `json:"asset_category"`
	Side          string `json:"side"`
	Quantity      string `json:"quantity"`
	Strategy      string `json:"strategy"`
	LimitPrice    string `json:"limitPrice,omitempty"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"created_at"`
}

// querier 同时适配 *sql.DB 与 *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const orderColumns = `order_id,client_order_id,exchange,symbol,asset_category,side,quantity,strategy,COALESCE(limit_price,''),status,created_at`

func insertOrder(ctx context.Context, q querier, apiKey string, o orderRow, body string) (int64, error) {
	var limit any
	if o.LimitPrice != "" {
		limit = o.LimitPrice
	}
	res, err := q.ExecContext(ctx, `
INSERT INTO orders (api_key,client_order_id,exchange,symbol,asset_category,side,quantity,strategy,limit_price,status,body,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
`, apiKey, o.ClientOrderID, o.Exchange, o.Symbol, o.AssetCategory, o.Side, o.Quantity, o.Strategy, limit, o.Status, body, o.CreatedAt, o.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func clientOrderIDExists(ctx context.Context, q querier, apiKey, clientOrderID string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(1) FROM orders WHERE api_key=? AND client_order_id=?`, apiKey, clientOrderID).Scan(&n)
	return n > 0, err
}

func getOrder(ctx context.Context, q querier, apiKey string, orderID int64) (*orderRow, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE api_key=? AND order_id=?`, apiKey, orderID)
	return scanOrder(row)
}

func getOrderByClientID(ctx context.Context, q querier, apiKey, clientOrderID string) (*orderRow, error) {
	row := q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE api_key=? AND client_order_id=?`, apiKey, clientOrderID)
	return scanOrder(row)
}

func updateOrderStatus(ctx context.Context, q querier, orderID int64, status types.OrderStatus, now int64) error {
	_, err := q.ExecContext(ctx, `UPDATE orders SET status=?, updated_at=? WHERE order_id=?`, string(status), now, orderID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*orderRow, error) {
	var o orderRow
	err := row.Scan(&o.OrderID, &o.ClientOrderID, &o.Exchange, &o.Symbol, &o.AssetCategory, &o.Side,
		&o.Quantity, &o.Strategy, &o.LimitPrice, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// orderFilter 查询条件，零值字段不参与过滤
type orderFilter struct {
	Statuses       []types.OrderStatus
	OrderIDs       []int64
	ClientOrderIDs []string
	StartMs        int64
	EndMs          int64
	Limit          int
}

func (s *Server) listOrders(ctx context.Context, apiKey string, f orderFilter) ([]orderRow, error) {
	where := []string{"api_key=?"}
	args := []any{apiKey}

	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, string(st))
		}
	}

	var idClauses []string
	if len(f.OrderIDs) > 0 {
		idClauses = append(idClauses, "order_id IN ("+placeholders(len(f.OrderIDs))+")")
		for _, id := range f.OrderIDs {
			args = append(args, id)
		}
	}
	if len(f.ClientOrderIDs) > 0 {
		idClauses = append(idClauses, "client_order_id IN ("+placeholders(len(f.ClientOrderIDs))+")")
		for _, id := range f.ClientOrderIDs {
			args = append(args, id)
		}
	}
	if len(idClauses) > 0 {
		where = append(where, "("+strings.Join(idClauses, " OR ")+")")
	}

	if f.StartMs > 0 {
		where = append(where, "created_at >= ?")
		args = append(args, f.StartMs)
	}
	if f.EndMs > 0 {
		where = append(where, "created_at <= ?")
		args = append(args, f.EndMs)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + strings.Join(where, " AND ") + ` ORDER BY order_id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]orderRow, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
