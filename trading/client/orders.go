package client

import (
	"context"
	"net/http"

	"github.com/betbot/anboto/internal/metrics"
	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/types"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// NewOrder 创建订单请求，客户端订单 ID 由生成器填充
func (c *Client) NewOrder(exchange types.Exchange, symbol string, category types.AssetCategory, side types.Side, quantity decimal.Decimal, strategy types.ExecutionStrategy, params canonical.Params) types.OrderRequest {
	return types.OrderRequest{
		ClientOrderID: c.ids.Next(),
		Symbol:        symbol,
		Side:          side,
		AssetCategory: category,
		Exchange:      exchange,
		Strategy:      strategy,
		Quantity:      quantity,
		Params:        params,
	}
}

// PlaceOrder 下单，返回服务端订单 ID
func (c *Client) PlaceOrder(ctx context.Context, order types.OrderRequest) (int64, error) {
	order, err := c.prepareOrder(order)
	if err != nil {
		return 0, err
	}

	resp, err := c.call(ctx, http.MethodPost, EndpointCreateOrder, c.orderObject(order))
	if err != nil {
		return 0, err
	}
	id, err := ParseOrderID(EndpointCreateOrder, resp)
	if err != nil {
		return 0, observe(err)
	}

	log.WithFields(logrus.Fields{
		"client_order_id": order.ClientOrderID,
		"order_id":        id,
		"symbol":          order.Symbol,
		"side":            order.Side,
	}).Info("订单已创建")
	return id, nil
}

// PlaceMany 批量下单
// 返回的结果与请求一一对应；部分失败时结果仍然返回，失败详情见 BatchResult.Err()
func (c *Client) PlaceMany(ctx context.Context, orders []types.OrderRequest, opts types.CreateManyOptions) (*types.BatchResult, error) {
	if err := validateBatchSize(fieldOrders, len(orders)); err != nil {
		return nil, err
	}

	objects := make([]canonical.Params, 0, len(orders))
	keys := make([]BatchKey, 0, len(orders))
	seen := make(map[string]struct{}, len(orders))
	for _, raw := range orders {
		o, err := c.prepareOrder(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[o.ClientOrderID]; dup {
			return nil, &types.InvalidRequestError{Field: fieldClientOrderID, Reason: "批量请求中重复 " + o.ClientOrderID}
		}
		seen[o.ClientOrderID] = struct{}{}
		objects = append(objects, c.orderObject(o))
		keys = append(keys, BatchKey{ClientOrderID: o.ClientOrderID})
	}

	resp, err := c.call(ctx, http.MethodPost, EndpointCreateMany, createManyParams(objects, opts))
	if err != nil {
		return nil, err
	}
	result, err := ParseBatch(EndpointCreateMany, resp, keys)
	if err != nil {
		return nil, observe(err)
	}
	c.recordBatch(EndpointCreateMany, result)
	return result, nil
}

// CancelOrder 按服务端订单 ID 撤单
func (c *Client) CancelOrder(ctx context.Context, orderID int64) (*types.CancelAck, error) {
	if orderID <= 0 {
		return nil, &types.InvalidRequestError{Field: fieldOrderID, Reason: "必须大于 0"}
	}
	return c.cancel(ctx, cancelParams(orderID), orderID, "")
}

// CancelByClientOrderID 按客户端订单 ID 撤单
func (c *Client) CancelByClientOrderID(ctx context.Context, clientOrderID string) (*types.CancelAck, error) {
	if clientOrderID == "" {
		return nil, &types.InvalidRequestError{Field: fieldClientOrderID, Reason: "不能为空"}
	}
	return c.cancel(ctx, cancelByClientParams(clientOrderID), 0, clientOrderID)
}

func (c *Client) cancel(ctx context.Context, params canonical.Params, orderID int64, clientOrderID string) (*types.CancelAck, error) {
	resp, err := c.call(ctx, http.MethodPost, EndpointCancelOrder, params)
	if err != nil {
		return nil, err
	}
	id, err := ParseOrderID(EndpointCancelOrder, resp)
	if err != nil {
		return nil, observe(err)
	}

	ack := &types.CancelAck{OrderID: id, ClientOrderID: clientOrderID, Raw: resp.Body}
	if obj, err := decodeObject(resp.Body); err == nil {
		ack.Status = types.OrderStatus(stringField(obj, respStatus))
		if ack.ClientOrderID == "" {
			ack.ClientOrderID = stringField(obj, respClientOrderID, respClientIDAlt)
		}
	}
	if orderID != 0 && id != orderID {
		log.Warnf("撤单确认的订单 ID %d 与请求 %d 不一致", id, orderID)
	}

	log.WithFields(logrus.Fields{
		"order_id": id,
		"status":   ack.Status,
	}).Info("撤单已确认")
	return ack, nil
}

// CancelMany 批量撤单
func (c *Client) CancelMany(ctx context.Context, orderIDs []int64) (*types.BatchResult, error) {
	if err := validateBatchSize(fieldOrders, len(orderIDs)); err != nil {
		return nil, err
	}
	keys := make([]BatchKey, 0, len(orderIDs))
	for _, id := range orderIDs {
		if id <= 0 {
			return nil, &types.InvalidRequestError{Field: fieldOrderID, Reason: "必须大于 0"}
		}
		keys = append(keys, BatchKey{OrderID: id})
	}

	resp, err := c.call(ctx, http.MethodPost, EndpointCancelMany, cancelManyParams(orderIDs))
	if err != nil {
		return nil, err
	}
	result, err := ParseBatch(EndpointCancelMany, resp, keys)
	if err != nil {
		return nil, observe(err)
	}
	c.recordBatch(EndpointCancelMany, result)
	return result, nil
}

// ListOpenOrders 未完成订单 ID，保持服务端顺序
func (c *Client) ListOpenOrders(ctx context.Context) ([]int64, error) {
	orders, err := c.OpenOrders(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.OrderID)
	}
	return ids, nil
}

// OpenOrders 未完成订单（完整对象）
func (c *Client) OpenOrders(ctx context.Context) ([]types.OpenOrder, error) {
	return c.listOrders(ctx, EndpointOpenOrders, canonical.NewParams())
}

// GetOrders 按订单 ID / 客户端订单 ID 查询
func (c *Client) GetOrders(ctx context.Context, orderIDs []int64, clientOrderIDs []string) ([]types.OpenOrder, error) {
	if len(orderIDs) == 0 && len(clientOrderIDs) == 0 {
		return nil, &types.InvalidRequestError{Field: queryOrderIDs, Reason: "orderIds 与 clientOrderIds 至少提供一个"}
	}
	return c.listOrders(ctx, EndpointOrdersByID, byIDQuery(orderIDs, clientOrderIDs))
}

// FindOrders 按时间范围查询历史订单
func (c *Client) FindOrders(ctx context.Context, params types.FindParams) ([]types.OpenOrder, error) {
	if params.StartMs > 0 && params.EndMs > 0 && params.EndMs < params.StartMs {
		return nil, &types.InvalidRequestError{Field: queryEnd, Reason: "不能早于 startMs"}
	}
	if params.Limit < 0 {
		return nil, &types.InvalidRequestError{Field: queryLimit, Reason: "不能为负数"}
	}
	return c.listOrders(ctx, EndpointFindOrders, findQuery(params))
}

func (c *Client) listOrders(ctx context.Context, endpoint string, query canonical.Params) ([]types.OpenOrder, error) {
	resp, err := c.call(ctx, http.MethodGet, endpoint, query)
	if err != nil {
		return nil, err
	}
	orders, err := ParseOpenOrders(endpoint, resp)
	if err != nil {
		return nil, observe(err)
	}
	return orders, nil
}

func (c *Client) recordBatch(endpoint string, result *types.BatchResult) {
	failed := len(result.Failed())
	metrics.BatchEntriesFailed.Add(int64(failed))
	metrics.BatchEntriesSuccess.Add(int64(len(result.Entries) - failed))

	entry := log.WithFields(logrus.Fields{
		"endpoint":  endpoint,
		"total":     len(result.Entries),
		"failed":    failed,
		"succeeded": len(result.Entries) - failed,
	})
	if failed > 0 {
		entry.Warn("批量请求部分失败")
		return
	}
	entry.Info("批量请求完成")
}
