package types

import (
	"encoding/json"

	"github.com/betbot/anboto/trading/canonical"
	"github.com/shopspring/decimal"
)

// OrderRequest 下单请求
type OrderRequest struct {
	// ClientOrderID 客户端订单 ID，为空时由客户端生成 {counter}_{epoch_millis}
	ClientOrderID string

	Symbol        string
	Side          Side
	AssetCategory AssetCategory
	Exchange      Exchange
	Strategy      ExecutionStrategy
	Quantity      decimal.Decimal

	// 以下字段可选
	LimitPrice   *decimal.Decimal
	StartTime    *int64 // 毫秒
	EndTime      *int64 // 毫秒
	ClipSizeType *string
	ClipSizeVal  *decimal.Decimal

	// Params 策略参数，例如 duration_seconds
	Params canonical.Params
}

// CreateManyOptions 批量下单选项
type CreateManyOptions struct {
	// AllOrNone 为 nil 时不发送该字段，由服务端决定
	AllOrNone *bool
}

// CancelRequest 撤单请求，OrderID 与 ClientOrderID 二选一
type CancelRequest struct {
	OrderID       int64
	ClientOrderID string
}

// CancelAck 撤单确认
type CancelAck struct {
	OrderID       int64           `json:"order_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Status        OrderStatus     `json:"status,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// OpenOrder 服务端返回的订单对象
type OpenOrder struct {
	OrderID       int64           `json:"order_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Symbol        string          `json:"symbol,omitempty"`
	Side          Side            `json:"side,omitempty"`
	Status        OrderStatus     `json:"status,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// FindParams 历史订单查询参数，零值字段不发送
type FindParams struct {
	StartMs int64
	EndMs   int64
	Limit   int
}
