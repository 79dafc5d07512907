package client

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/betbot/anboto/trading/types"
	"github.com/pkg/errors"
)

// 响应字段
const (
	respOrderID       = "order_id"
	respOrderIDAlt    = "orderId"
	respClientOrderID = "client_order_id"
	respClientIDAlt   = "clientOrderId"
	respOrders        = "orders"
	respStatuses      = "statuses"
	respStatus        = "status"
	respSymbol        = "symbol"
	respSide          = "side"
)

// errorBodyLimit 错误信息中保留的响应体长度
const errorBodyLimit = 256

type object map[string]json.RawMessage

// BatchKey 批量请求条目的关联键：下单用 ClientOrderID，撤单用 OrderID
type BatchKey struct {
	ClientOrderID string
	OrderID       int64
}

// checkResponse 非 2xx 响应分类
// 401/403 或认证类错误码为 AuthRejected；可解析的错误体为 APIError；
// 无法解析的错误体（网关 HTML 等）视为传输层失败
func checkResponse(method, path string, resp *types.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	obj, err := decodeObject(resp.Body)
	var entryErr *types.EntryError
	if err == nil {
		entryErr = describeFailure(obj)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
		(entryErr != nil && entryErr.Code.IsAuthFailure()) {
		e := &types.AuthRejectedError{StatusCode: resp.StatusCode, Message: resp.Message, Body: resp.Body}
		if entryErr != nil {
			e.Code, e.Message = entryErr.Code, entryErr.Message
		}
		return e
	}

	if entryErr != nil {
		return &types.APIError{
			StatusCode: resp.StatusCode,
			Code:       entryErr.Code,
			Message:    entryErr.Message,
			Body:       resp.Body,
		}
	}

	return &types.TransportError{
		Method: method,
		Path:   path,
		Err: &types.APIError{
			StatusCode: resp.StatusCode,
			Message:    truncate(strings.TrimSpace(resp.Message+" "+string(resp.Body)), errorBodyLimit),
			Body:       resp.Body,
		},
	}
}

// rejectedWithSuccessStatus 2xx 响应体中携带错误信封
func rejectedWithSuccessStatus(resp *types.Response, e *types.EntryError) error {
	if e.Code.IsAuthFailure() {
		return &types.AuthRejectedError{StatusCode: resp.StatusCode, Code: e.Code, Message: e.Message, Body: resp.Body}
	}
	return &types.APIError{StatusCode: resp.StatusCode, Code: e.Code, Message: e.Message, Body: resp.Body}
}

// ParseOrderID 解析 order/create、order/cancel 的响应
func ParseOrderID(endpoint string, resp *types.Response) (int64, error) {
	obj, err := decodeObject(resp.Body)
	if err != nil {
		return 0, malformed(endpoint, "响应体不是 JSON 对象", resp.Body, err)
	}
	if e, ok := extractError(obj); ok {
		return 0, rejectedWithSuccessStatus(resp, e)
	}
	id, ok, err := int64Field(obj, respOrderID, respOrderIDAlt)
	if err != nil {
		return 0, malformed(endpoint, "order_id 不是整数", resp.Body, err)
	}
	if !ok {
		return 0, malformed(endpoint, "缺少 order_id", resp.Body, nil)
	}
	return id, nil
}

// ParseOpenOrders 解析 {orders: [...]}，保持服务端顺序
func ParseOpenOrders(endpoint string, resp *types.Response) ([]types.OpenOrder, error) {
	obj, err := decodeObject(resp.Body)
	if err != nil {
		return nil, malformed(endpoint, "响应体不是 JSON 对象", resp.Body, err)
	}
	if e, ok := extractError(obj); ok {
		return nil, rejectedWithSuccessStatus(resp, e)
	}

	items, err := orderList(obj)
	if err != nil {
		return nil, malformed(endpoint, err.Error(), resp.Body, nil)
	}

	orders := make([]types.OpenOrder, 0, len(items))
	for i, raw := range items {
		o, err := parseOrder(raw)
		if err != nil {
			return nil, malformed(endpoint, "orders["+strconv.Itoa(i)+"]", resp.Body, err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func parseOrder(raw json.RawMessage) (types.OpenOrder, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return types.OpenOrder{}, err
	}
	id, ok, err := int64Field(obj, respOrderID, respOrderIDAlt)
	if err != nil {
		return types.OpenOrder{}, err
	}
	if !ok {
		return types.OpenOrder{}, errors.New("缺少 order_id")
	}

	o := types.OpenOrder{
		OrderID:       id,
		ClientOrderID: stringField(obj, respClientOrderID, respClientIDAlt),
		Symbol:        stringField(obj, respSymbol),
		Status:        types.OrderStatus(stringField(obj, respStatus)),
		Raw:           raw,
	}
	if s := stringField(obj, respSide); s != "" {
		o.Side = types.Side(strings.ToUpper(s))
	} else if code, ok, _ := int64Field(obj, respSide); ok {
		o.Side = types.SideFromCode(code)
	}
	return o, nil
}

// batchEntry 批量响应中的单个条目
type batchEntry struct {
	raw      json.RawMessage
	obj      object // 非对象条目为 nil
	clientID string
	orderID  int64
	hasID    bool
}

func (e batchEntry) echoes(k BatchKey) bool {
	if k.ClientOrderID != "" {
		return e.clientID == k.ClientOrderID
	}
	return e.hasID && e.orderID == k.OrderID
}

func (e batchEntry) hasEcho(k BatchKey) bool {
	if k.ClientOrderID != "" {
		return e.clientID != ""
	}
	return e.hasID
}

// ParseBatch 解析 createMany/cancelMany 响应并与请求条目关联
// 优先按回显的 client_order_id/order_id 关联，否则在数量一致时按位置关联；
// 返回的条目数量始终等于 len(keys)，服务端未回应的条目标记为失败
func ParseBatch(endpoint string, resp *types.Response, keys []BatchKey) (*types.BatchResult, error) {
	obj, err := decodeObject(resp.Body)
	if err != nil {
		return nil, malformed(endpoint, "响应体不是 JSON 对象", resp.Body, err)
	}
	// 有条目列表时逐条报告，顶层 success=false / code 只是汇总
	items, err := orderList(obj)
	if err != nil || len(items) == 0 {
		if e, ok := extractError(obj); ok {
			return nil, rejectedWithSuccessStatus(resp, e)
		}
	}
	if err != nil {
		return nil, malformed(endpoint, err.Error(), resp.Body, nil)
	}

	entries := make([]batchEntry, len(items))
	for i, raw := range items {
		entries[i] = newBatchEntry(raw)
	}

	result := &types.BatchResult{Entries: make([]types.EntryResult, len(keys))}

	switch {
	case len(keys) > 0 && allEcho(entries, keys):
		used := make([]bool, len(entries))
		for i, k := range keys {
			idx := -1
			for j, e := range entries {
				if !used[j] && e.echoes(k) {
					idx = j
					break
				}
			}
			if idx < 0 {
				result.Entries[i] = missingEntry(i, k)
				continue
			}
			used[idx] = true
			result.Entries[i] = evaluateEntry(i, k, entries[idx])
		}
		for j, u := range used {
			if !u {
				log.WithField("endpoint", endpoint).Warnf("批量响应条目 #%d 无法关联到请求，已忽略", j)
			}
		}

	case len(entries) == len(keys):
		for i, k := range keys {
			e := entries[i]
			if e.hasEcho(k) && !e.echoes(k) {
				return nil, malformed(endpoint, "条目 #"+strconv.Itoa(i)+" 回显的 ID 与请求不一致", resp.Body, nil)
			}
			result.Entries[i] = evaluateEntry(i, k, e)
		}

	default:
		return nil, malformed(endpoint,
			"无法关联批量响应：请求 "+strconv.Itoa(len(keys))+" 条，响应 "+strconv.Itoa(len(entries))+" 条", resp.Body, nil)
	}

	return result, nil
}

func newBatchEntry(raw json.RawMessage) batchEntry {
	e := batchEntry{raw: raw}
	obj, err := decodeObject(raw)
	if err != nil {
		return e
	}
	e.obj = obj
	e.clientID = stringField(obj, respClientOrderID, respClientIDAlt)
	if id, ok, err := int64Field(obj, respOrderID, respOrderIDAlt); err == nil && ok {
		e.orderID, e.hasID = id, true
	}
	return e
}

func allEcho(entries []batchEntry, keys []BatchKey) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !e.hasEcho(keys[0]) {
			return false
		}
	}
	return true
}

func evaluateEntry(i int, k BatchKey, e batchEntry) types.EntryResult {
	r := types.EntryResult{
		Index:         i,
		ClientOrderID: k.ClientOrderID,
		OrderID:       k.OrderID,
		Raw:           e.raw,
	}
	if r.ClientOrderID == "" {
		r.ClientOrderID = e.clientID
	}

	if e.obj == nil {
		r.Error = &types.EntryError{Code: types.ErrCodeUnrecognizedBatchEntry, Message: "条目不是 JSON 对象"}
		return r
	}
	if ee, ok := extractError(e.obj); ok {
		r.Error = ee
		return r
	}
	status := types.OrderStatus(stringField(e.obj, respStatus))
	switch status {
	case types.OrderStatusRejected, types.OrderStatusCancelRejected:
		r.Error = &types.EntryError{
			Code:    types.APIErrorCode(status),
			Message: stringField(e.obj, "message", "reason"),
		}
		return r
	case types.OrderStatusCancelled, types.OrderStatusPendingCancel:
		// 撤单条目只回状态时沿用请求中的订单 ID
		if !e.hasID && k.OrderID != 0 {
			r.Success = true
			return r
		}
	}
	if !e.hasID {
		r.Error = &types.EntryError{Code: types.ErrCodeUnrecognizedBatchEntry, Message: "条目既无 order_id 也无错误信息"}
		return r
	}

	r.OrderID = e.orderID
	r.Success = true
	return r
}

func missingEntry(i int, k BatchKey) types.EntryResult {
	return types.EntryResult{
		Index:         i,
		ClientOrderID: k.ClientOrderID,
		OrderID:       k.OrderID,
		Error:         &types.EntryError{Code: types.ErrCodeMissingFromResponse, Message: "missing from response"},
	}
}

func orderList(obj object) ([]json.RawMessage, error) {
	raw, ok := obj[respOrders]
	if !ok {
		raw, ok = obj[respStatuses]
	}
	if !ok {
		return nil, errors.New("缺少 orders 字段")
	}
	if isNull(raw) {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.New("orders 不是数组")
	}
	return items, nil
}

// extractError 识别错误信封：
// {"error":"msg"}、{"error":{"code","message"}}、{"code":"X","message"} 以及 {"success":false}
func extractError(obj object) (*types.EntryError, bool) {
	code := stringField(obj, "code", "error_code", "errorCode")
	msg := stringField(obj, "message", "msg", "error_message", "errorMessage")

	if raw, ok := obj["error"]; ok && !isNull(raw) {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if s != "" {
				return &types.EntryError{Code: codeOrOther(code), Message: s}, true
			}
		}
		var inner object
		if json.Unmarshal(raw, &inner) == nil {
			return &types.EntryError{
				Code:    codeOrOther(stringField(inner, "code", "error_code", "errorCode")),
				Message: stringField(inner, "message", "msg"),
			}, true
		}
		var b bool
		if json.Unmarshal(raw, &b) == nil && b {
			return &types.EntryError{Code: codeOrOther(code), Message: msg}, true
		}
	}

	if code != "" && !isSuccessCode(code) {
		return &types.EntryError{Code: types.APIErrorCode(code), Message: msg}, true
	}

	if raw, ok := obj["success"]; ok {
		var b bool
		if json.Unmarshal(raw, &b) == nil && !b {
			return &types.EntryError{Code: codeOrOther(code), Message: msg}, true
		}
	}
	return nil, false
}

// describeFailure 非 2xx 响应体描述；非错误信封的对象仍返回 OTHER
func describeFailure(obj object) *types.EntryError {
	if e, ok := extractError(obj); ok {
		return e
	}
	return &types.EntryError{Code: types.ErrCodeOther, Message: stringField(obj, "message", "detail", "msg")}
}

func codeOrOther(code string) types.APIErrorCode {
	if code == "" {
		return types.ErrCodeOther
	}
	return types.APIErrorCode(code)
}

func isSuccessCode(code string) bool {
	switch strings.ToUpper(code) {
	case "OK", "SUCCESS", "0":
		return true
	}
	return false
}

func decodeObject(data []byte) (object, error) {
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("null")
	}
	return obj, nil
}

func stringField(obj object, keys ...string) string {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return ""
}

// int64Field 读取整数字段，兼容数字与数字字符串
func int64Field(obj object, keys ...string) (int64, bool, error) {
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok || isNull(raw) {
			continue
		}
		text := string(bytes.TrimSpace(raw))
		if strings.HasPrefix(text, `"`) {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return 0, true, err
			}
			text = strings.TrimSpace(s)
		}
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, true, errors.Wrapf(err, "字段 %s", k)
		}
		return id, true, nil
	}
	return 0, false, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func malformed(endpoint, reason string, body []byte, err error) error {
	return &types.MalformedResponseError{Endpoint: endpoint, Reason: reason, Body: body, Err: err}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
