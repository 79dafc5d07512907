package client

import (
	"strconv"

	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/types"
)

// MaxBatchSize 单次批量请求的条目上限
const MaxBatchSize = 100

// 请求体字段
const (
	fieldClientOrderID = "client_order_id"
	fieldOrderID       = "order_id"
	fieldExchange      = "exchange"
	fieldSymbol        = "symbol"
	fieldAssetCategory = "asset_category"
	fieldSide          = "side"
	fieldQuantity      = "quantity"
	fieldStrategy      = "strategy"
	fieldLimitPrice    = "limitPrice"
	fieldStartTime     = "startTime"
	fieldEndTime       = "endTime"
	fieldClipSizeType  = "clipSizeType"
	fieldClipSizeVal   = "clipSizeVal"
	fieldParams        = "params"
	fieldOrders        = "orders"
	fieldAllOrNone     = "allOrNone"
)

// 查询参数
const (
	queryOrderIDs       = "orderIds"
	queryClientOrderIDs = "clientOrderIds"
	queryStart          = "startMs"
	queryEnd            = "endMs"
	queryLimit          = "limit"
)

func validateOrder(o types.OrderRequest) error {
	switch {
	case o.Symbol == "":
		return &types.InvalidRequestError{Field: fieldSymbol, Reason: "不能为空"}
	case !o.Side.Valid():
		return &types.InvalidRequestError{Field: fieldSide, Reason: "非法方向 " + string(o.Side)}
	case o.AssetCategory == "":
		return &types.InvalidRequestError{Field: fieldAssetCategory, Reason: "不能为空"}
	case o.Exchange == "":
		return &types.InvalidRequestError{Field: fieldExchange, Reason: "不能为空"}
	case o.Strategy == "":
		return &types.InvalidRequestError{Field: fieldStrategy, Reason: "不能为空"}
	case !o.Quantity.IsPositive():
		return &types.InvalidRequestError{Field: fieldQuantity, Reason: "必须大于 0"}
	case o.LimitPrice != nil && !o.LimitPrice.IsPositive():
		return &types.InvalidRequestError{Field: fieldLimitPrice, Reason: "必须大于 0"}
	case o.StartTime != nil && o.EndTime != nil && *o.EndTime <= *o.StartTime:
		return &types.InvalidRequestError{Field: fieldEndTime, Reason: "必须晚于 startTime"}
	}
	return nil
}

// orderObject 订单 JSON 对象，字段顺序固定
func (c *Client) orderObject(o types.OrderRequest) canonical.Params {
	p := canonical.NewParams()
	p.Set(fieldClientOrderID, canonical.String(o.ClientOrderID)).
		Set(fieldExchange, canonical.String(string(o.Exchange))).
		Set(fieldSymbol, canonical.String(o.Symbol)).
		Set(fieldAssetCategory, canonical.String(string(o.AssetCategory))).
		Set(fieldSide, c.sideValue(o.Side)).
		Set(fieldQuantity, canonical.Number(o.Quantity)).
		Set(fieldStrategy, canonical.String(string(o.Strategy)))

	if o.LimitPrice != nil {
		p.Set(fieldLimitPrice, canonical.Number(*o.LimitPrice))
	}
	if o.StartTime != nil {
		p.Set(fieldStartTime, canonical.Int(*o.StartTime))
	}
	if o.EndTime != nil {
		p.Set(fieldEndTime, canonical.Int(*o.EndTime))
	}
	if o.ClipSizeType != nil {
		p.Set(fieldClipSizeType, canonical.String(*o.ClipSizeType))
	}
	if o.ClipSizeVal != nil {
		p.Set(fieldClipSizeVal, canonical.Number(*o.ClipSizeVal))
	}
	if !o.Params.IsEmpty() {
		p.Set(fieldParams, canonical.Object(o.Params))
	}
	return p
}

func (c *Client) sideValue(s types.Side) canonical.Value {
	if c.sideFormat == types.SideFormatNumeric {
		return canonical.Int(s.Code())
	}
	return canonical.String(string(s))
}

// prepareOrder 补全客户端订单 ID 并校验
func (c *Client) prepareOrder(o types.OrderRequest) (types.OrderRequest, error) {
	if o.ClientOrderID == "" {
		o.ClientOrderID = c.ids.Next()
	}
	if err := validateOrder(o); err != nil {
		return o, err
	}
	return o, nil
}

func createManyParams(orders []canonical.Params, opts types.CreateManyOptions) canonical.Params {
	list := make([]canonical.Value, 0, len(orders))
	for _, o := range orders {
		list = append(list, canonical.Object(o))
	}
	p := canonical.NewParams()
	p.Set(fieldOrders, canonical.List(list...))
	if opts.AllOrNone != nil {
		p.Set(fieldAllOrNone, canonical.Bool(*opts.AllOrNone))
	}
	return p
}

func cancelParams(orderID int64) canonical.Params {
	p := canonical.NewParams()
	p.Set(fieldOrderID, canonical.Int(orderID))
	return p
}

func cancelByClientParams(clientOrderID string) canonical.Params {
	p := canonical.NewParams()
	p.Set(fieldClientOrderID, canonical.String(clientOrderID))
	return p
}

func cancelManyParams(orderIDs []int64) canonical.Params {
	list := make([]canonical.Value, 0, len(orderIDs))
	for _, id := range orderIDs {
		list = append(list, canonical.Object(cancelParams(id)))
	}
	p := canonical.NewParams()
	p.Set(fieldOrders, canonical.List(list...))
	return p
}

func byIDQuery(orderIDs []int64, clientOrderIDs []string) canonical.Params {
	p := canonical.NewParams()
	if len(orderIDs) > 0 {
		p.Set(queryOrderIDs, canonical.Ints(orderIDs...))
	}
	if len(clientOrderIDs) > 0 {
		p.Set(queryClientOrderIDs, canonical.Strings(clientOrderIDs...))
	}
	return p
}

func findQuery(f types.FindParams) canonical.Params {
	p := canonical.NewParams()
	if f.StartMs > 0 {
		p.Set(queryStart, canonical.Int(f.StartMs))
	}
	if f.EndMs > 0 {
		p.Set(queryEnd, canonical.Int(f.EndMs))
	}
	if f.Limit > 0 {
		p.Set(queryLimit, canonical.Int(int64(f.Limit)))
	}
	return p
}

func validateBatchSize(field string, n int) error {
	if n == 0 {
		return &types.InvalidRequestError{Field: field, Reason: "不能为空"}
	}
	if n > MaxBatchSize {
		return &types.InvalidRequestError{Field: field, Reason: "超过上限 " + strconv.Itoa(MaxBatchSize)}
	}
	return nil
}
