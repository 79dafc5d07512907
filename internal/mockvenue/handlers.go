package mockvenue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/betbot/anboto/internal/metrics"
	"github.com/betbot/anboto/trading/types"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultFindLimit = 100
	maxFindLimit     = 1000
	maxBatchEntries  = 100
)

var openStatuses = []types.OrderStatus{
	types.OrderStatusPendingNew,
	types.OrderStatusAccepted,
	types.OrderStatusPartiallyFilled,
	types.OrderStatusPendingCancel,
	types.OrderStatusPendingPause,
	types.OrderStatusPaused,
	types.OrderStatusPendingUnpause,
}

// venueError 业务错误，映射为 HTTP 状态码与错误码
type venueError struct {
	status int
	code   types.APIErrorCode
	msg    string
}

func (e *venueError) Error() string { return string(e.code) + ": " + e.msg }

func invalidOrder(format string, args ...any) *venueError {
	return &venueError{status: http.StatusBadRequest, code: types.ErrCodeInvalidOrder, msg: fmt.Sprintf(format, args...)}
}

func systemError(err error) *venueError {
	log.Errorf("内部错误: %v", err)
	return &venueError{status: http.StatusInternalServerError, code: types.ErrCodeSystem, msg: "internal error"}
}

func (e *venueError) entry() gin.H {
	return gin.H{"code": e.code, "message": e.msg}
}

func abort(c *gin.Context, e *venueError) {
	writeError(c, e.status, e.code, e.msg)
}

type orderInput struct {
	ClientOrderID string          `json:"client_order_id"`
	Exchange      string          `json:"exchange"`
	Symbol        string          `json:"symbol"`
	AssetCategory string          `json:"asset_category"`
	Side          json.RawMessage `json:"side"`
	Quantity      json.Number     `json:"quantity"`
	Strategy      string          `json:"strategy"`
	LimitPrice    json.Number     `json:"limitPrice"`
	StartTime     *int64          `json:"startTime"`
	EndTime       *int64          `json:"endTime"`
}

func parseSide(raw json.RawMessage) (types.Side, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		side := types.Side(strings.ToUpper(s))
		return side, side.Valid()
	}
	var code int64
	if err := json.Unmarshal(raw, &code); err == nil {
		side := types.SideFromCode(code)
		return side, side.Valid()
	}
	return "", false
}

func (in orderInput) toRow(now int64) (orderRow, *venueError) {
	switch {
	case in.ClientOrderID == "":
		return orderRow{}, invalidOrder("client_order_id is required")
	case in.Symbol == "":
		return orderRow{}, invalidOrder("symbol is required")
	case in.Exchange == "":
		return orderRow{}, invalidOrder("exchange is required")
	case in.AssetCategory == "":
		return orderRow{}, invalidOrder("asset_category is required")
	case in.Strategy == "":
		return orderRow{}, invalidOrder("strategy is required")
	}
	side, ok := parseSide(in.Side)
	if !ok {
		return orderRow{}, invalidOrder("invalid side %s", string(in.Side))
	}
	qty, err := decimal.NewFromString(in.Quantity.String())
	if err != nil || !qty.IsPositive() {
		return orderRow{}, invalidOrder("invalid quantity %q", in.Quantity.String())
	}
	row := orderRow{
		ClientOrderID: in.ClientOrderID,
		Exchange:      strings.ToUpper(in.Exchange),
		Symbol:        in.Symbol,
		AssetCategory: in.AssetCategory,
		Side:          string(side),
		Quantity:      qty.String(),
		Strategy:      in.Strategy,
		Status:        string(types.OrderStatusAccepted),
		CreatedAt:     now,
	}
	if in.LimitPrice != "" {
		px, err := decimal.NewFromString(in.LimitPrice.String())
		if err != nil || !px.IsPositive() {
			return orderRow{}, invalidOrder("invalid limitPrice %q", in.LimitPrice.String())
		}
		row.LimitPrice = px.String()
	}
	if in.StartTime != nil && in.EndTime != nil && *in.EndTime <= *in.StartTime {
		return orderRow{}, invalidOrder("endTime must be after startTime")
	}
	return row, nil
}

// placeOrder 校验并写入订单
func (s *Server) placeOrder(ctx context.Context, q querier, apiKey string, raw json.RawMessage) (*orderRow, *venueError) {
	var in orderInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &venueError{status: http.StatusBadRequest, code: types.ErrCodeInvalidRequest, msg: "invalid order object"}
	}
	row, verr := in.toRow(s.clock.NowMillis())
	if verr != nil {
		return nil, verr
	}
	exists, err := clientOrderIDExists(ctx, q, apiKey, row.ClientOrderID)
	if err != nil {
		return nil, systemError(err)
	}
	if exists {
		return &orderRow{ClientOrderID: row.ClientOrderID}, invalidOrder("duplicate client_order_id %s", row.ClientOrderID)
	}
	id, err := insertOrder(ctx, q, apiKey, row, string(raw))
	if err != nil {
		return nil, systemError(err)
	}
	row.OrderID = id
	metrics.VenueOrdersPlaced.Add(1)
	return &row, nil
}

func (s *Server) handleCreate(c *gin.Context) {
	o, verr := s.placeOrder(c.Request.Context(), s.db, apiKeyOf(c), rawBodyOf(c))
	if verr != nil {
		abort(c, verr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":        o.OrderID,
		"client_order_id": o.ClientOrderID,
		"status":          o.Status,
	})
}

type createManyRequest struct {
	Orders    []json.RawMessage `json:"orders"`
	AllOrNone *bool             `json:"allOrNone"`
}

func (s *Server) handleCreateMany(c *gin.Context) {
	var req createManyRequest
	if err := json.Unmarshal(rawBodyOf(c), &req); err != nil {
		writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid json body")
		return
	}
	if len(req.Orders) == 0 || len(req.Orders) > maxBatchEntries {
		writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "orders must contain 1-100 entries")
		return
	}
	allOrNone := req.AllOrNone != nil && *req.AllOrNone

	ctx := c.Request.Context()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		abort(c, systemError(err))
		return
	}
	defer func() { _ = tx.Rollback() }()

	entries := make([]gin.H, 0, len(req.Orders))
	for i, raw := range req.Orders {
		o, verr := s.placeOrder(ctx, tx, apiKeyOf(c), raw)
		if verr != nil {
			if verr.status >= http.StatusInternalServerError {
				abort(c, verr)
				return
			}
			if allOrNone {
				abort(c, invalidOrder("order #%d rejected: %s", i, verr.msg))
				return
			}
			e := gin.H{"error": verr.entry()}
			if o != nil {
				e["client_order_id"] = o.ClientOrderID
			} else if cid := clientOrderIDOf(raw); cid != "" {
				e["client_order_id"] = cid
			}
			entries = append(entries, e)
			continue
		}
		entries = append(entries, gin.H{
			"order_id":        o.OrderID,
			"client_order_id": o.ClientOrderID,
			"status":          o.Status,
		})
	}
	if err := tx.Commit(); err != nil {
		abort(c, systemError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": s.shapeBatch(entries, "client_order_id")})
}

func clientOrderIDOf(raw json.RawMessage) string {
	var v struct {
		ClientOrderID string `json:"client_order_id"`
	}
	_ = json.Unmarshal(raw, &v)
	return v.ClientOrderID
}

type cancelRequest struct {
	OrderID       int64  `json:"order_id"`
	ClientOrderID string `json:"client_order_id"`
}

// cancelOrder 撤销未完成订单
func (s *Server) cancelOrder(ctx context.Context, q querier, apiKey string, req cancelRequest) (*orderRow, *venueError) {
	var (
		o   *orderRow
		err error
	)
	switch {
	case req.OrderID > 0:
		o, err = getOrder(ctx, q, apiKey, req.OrderID)
	case req.ClientOrderID != "":
		o, err = getOrderByClientID(ctx, q, apiKey, req.ClientOrderID)
	default:
		return nil, &venueError{status: http.StatusBadRequest, code: types.ErrCodeInvalidRequest, msg: "order_id or client_order_id is required"}
	}
	if err != nil {
		return nil, systemError(err)
	}
	if o == nil {
		return nil, &venueError{status: http.StatusNotFound, code: types.ErrCodeInvalidOrder, msg: "order not found"}
	}
	if !types.OrderStatus(o.Status).IsOpen() {
		return o, invalidOrder("order %d is not open (%s)", o.OrderID, o.Status)
	}
	if err := updateOrderStatus(ctx, q, o.OrderID, types.OrderStatusCancelled, s.clock.NowMillis()); err != nil {
		return nil, systemError(err)
	}
	o.Status = string(types.OrderStatusCancelled)
	return o, nil
}

func (s *Server) handleCancel(c *gin.Context) {
	var req cancelRequest
	if err := json.Unmarshal(rawBodyOf(c), &req); err != nil {
		writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid json body")
		return
	}
	o, verr := s.cancelOrder(c.Request.Context(), s.db, apiKeyOf(c), req)
	if verr != nil {
		abort(c, verr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":        o.OrderID,
		"client_order_id": o.ClientOrderID,
		"status":          o.Status,
	})
}

func (s *Server) handleCancelMany(c *gin.Context) {
	var req struct {
		Orders []cancelRequest `json:"orders"`
	}
	if err := json.Unmarshal(rawBodyOf(c), &req); err != nil {
		writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid json body")
		return
	}
	if len(req.Orders) == 0 || len(req.Orders) > maxBatchEntries {
		writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "orders must contain 1-100 entries")
		return
	}

	ctx := c.Request.Context()
	entries := make([]gin.H, 0, len(req.Orders))
	for _, r := range req.Orders {
		o, verr := s.cancelOrder(ctx, s.db, apiKeyOf(c), r)
		if verr != nil {
			if verr.status >= http.StatusInternalServerError {
				abort(c, verr)
				return
			}
			entries = append(entries, gin.H{"order_id": r.OrderID, "error": verr.entry()})
			continue
		}
		entries = append(entries, gin.H{"order_id": o.OrderID, "status": o.Status})
	}

	c.JSON(http.StatusOK, gin.H{"orders": s.shapeBatch(entries, "order_id")})
}

// shapeBatch 按 Quirks 调整批量响应
func (s *Server) shapeBatch(entries []gin.H, echoKey string) []gin.H {
	q := s.cfg.Quirks
	if q.OmitBatchEcho {
		for _, e := range entries {
			delete(e, echoKey)
		}
	}
	if q.ReverseBatch {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}
	if q.DropLastEntry && len(entries) > 0 {
		entries = entries[:len(entries)-1]
	}
	return entries
}

func (s *Server) handleOpen(c *gin.Context) {
	s.respondOrders(c, orderFilter{Statuses: openStatuses})
}

func (s *Server) handleByID(c *gin.Context) {
	var f orderFilter
	for _, part := range splitList(c.Query("orderIds")) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid orderIds")
			return
		}
		f.OrderIDs = append(f.OrderIDs, id)
	}
	f.ClientOrderIDs = splitList(c.Query("clientOrderIds"))
	if len(f.OrderIDs) == 0 && len(f.ClientOrderIDs) == 0 {
		writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "orderIds or clientOrderIds is required")
		return
	}
	s.respondOrders(c, f)
}

func (s *Server) handleFind(c *gin.Context) {
	f := orderFilter{Limit: defaultFindLimit}
	var err error
	if v := c.Query("startMs"); v != "" {
		if f.StartMs, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid startMs")
			return
		}
	}
	if v := c.Query("endMs"); v != "" {
		if f.EndMs, err = strconv.ParseInt(v, 10, 64); err != nil {
			writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid endMs")
			return
		}
	}
	if v := c.Query("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit <= 0 {
			writeError(c, http.StatusBadRequest, types.ErrCodeInvalidRequest, "invalid limit")
			return
		}
		if f.Limit > maxFindLimit {
			f.Limit = maxFindLimit
		}
	}
	s.respondOrders(c, f)
}

func (s *Server) respondOrders(c *gin.Context, f orderFilter) {
	orders, err := s.listOrders(c.Request.Context(), apiKeyOf(c), f)
	if err != nil {
		abort(c, systemError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
