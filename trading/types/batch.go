package types

import (
	"encoding/json"
	"fmt"
)

// EntryError 批量请求中单个条目的错误
type EntryError struct {
	Code    APIErrorCode `json:"code"`
	Message string       `json:"message"`
}

func (e *EntryError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// EntryResult 批量请求中单个条目的结果，Index 对应请求中的位置
type EntryResult struct {
	Index         int             `json:"index"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	OrderID       int64           `json:"order_id,omitempty"`
	Success       bool            `json:"success"`
	Error         *EntryError     `json:"error,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// BatchResult 批量请求结果，条目数量与请求数量一致，顺序与请求一致
type BatchResult struct {
	Entries []EntryResult `json:"entries"`
}

// Succeeded 成功条目
func (r *BatchResult) Succeeded() []EntryResult {
	out := make([]EntryResult, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Success {
			out = append(out, e)
		}
	}
	return out
}

// Failed 失败条目
func (r *BatchResult) Failed() []EntryResult {
	out := make([]EntryResult, 0)
	for _, e := range r.Entries {
		if !e.Success {
			out = append(out, e)
		}
	}
	return out
}

// OrderIDs 成功条目的订单 ID（按请求顺序）
func (r *BatchResult) OrderIDs() []int64 {
	ids := make([]int64, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Success {
			ids = append(ids, e.OrderID)
		}
	}
	return ids
}

// Err 存在失败条目时返回 *PartialBatchFailure，否则返回 nil
func (r *BatchResult) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return &PartialBatchFailure{Total: len(r.Entries), Failed: failed}
}
