package client

import (
	"net/http"
	"testing"

	"github.com/betbot/anboto/trading/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok200(body string) *types.Response {
	return &types.Response{StatusCode: http.StatusOK, Body: []byte(body), Message: "200 OK"}
}

func TestParseOrderID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int64
		wantErr error
	}{
		{"number", `{"order_id":12345}`, 12345, nil},
		{"string number", `{"order_id":"12345","status":"ACCEPTED"}`, 12345, nil},
		{"camel case", `{"orderId":7}`, 7, nil},
		{"missing", `{"status":"ACCEPTED"}`, 0, types.ErrMalformedResponse},
		{"not integer", `{"order_id":"abc"}`, 0, types.ErrMalformedResponse},
		{"fraction", `{"order_id":1.5}`, 0, types.ErrMalformedResponse},
		{"not json", `<html>ok</html>`, 0, types.ErrMalformedResponse},
		{"array", `[1]`, 0, types.ErrMalformedResponse},
		{"null", `null`, 0, types.ErrMalformedResponse},
		{"error envelope", `{"error":{"code":"INVALID_ORDER","message":"bad qty"}}`, 0, types.ErrAPI},
		{"auth envelope", `{"code":"INVALID_SIGNATURE","message":"nope"}`, 0, types.ErrAuthRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseOrderID(EndpointCreateOrder, ok200(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestParseOrderID_MalformedKeepsBody(t *testing.T) {
	_, err := ParseOrderID(EndpointCreateOrder, ok200(`{"unexpected":true}`))
	var me *types.MalformedResponseError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, `{"unexpected":true}`, string(me.RawBody()))
	assert.Equal(t, EndpointCreateOrder, me.Endpoint)
}

func TestParseOpenOrders(t *testing.T) {
	orders, err := ParseOpenOrders(EndpointOpenOrders, ok200(`{"orders":[{"order_id":3,"side":"BUY","status":"ACCEPTED"},{"order_id":"1","client_order_id":"c1","side":2}]}`))
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(3), orders[0].OrderID)
	assert.Equal(t, types.SideBuy, orders[0].Side)
	assert.Equal(t, types.OrderStatusAccepted, orders[0].Status)
	assert.Equal(t, int64(1), orders[1].OrderID)
	assert.Equal(t, "c1", orders[1].ClientOrderID)
	assert.Equal(t, types.SideSell, orders[1].Side)
	assert.JSONEq(t, `{"order_id":3,"side":"BUY","status":"ACCEPTED"}`, string(orders[0].Raw))

	orders, err = ParseOpenOrders(EndpointOpenOrders, ok200(`{"orders":[]}`))
	require.NoError(t, err)
	assert.Empty(t, orders)

	for _, body := range []string{`{}`, `{"orders":{}}`, `{"orders":[{"symbol":"X"}]}`, `{"orders":[1]}`} {
		_, err = ParseOpenOrders(EndpointOpenOrders, ok200(body))
		assert.ErrorIs(t, err, types.ErrMalformedResponse, body)
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  []error
		wantCode types.APIErrorCode
	}{
		{"401 any body", http.StatusUnauthorized, `oops`, []error{types.ErrAuthRejected}, ""},
		{"403 json", http.StatusForbidden, `{"error":"forbidden"}`, []error{types.ErrAuthRejected}, types.ErrCodeOther},
		{"400 auth code", http.StatusBadRequest, `{"error":{"code":"INVALID_TIMESTAMP","message":"late"}}`, []error{types.ErrAuthRejected}, types.ErrCodeInvalidTimestamp},
		{"400 api error", http.StatusBadRequest, `{"error":{"code":"INSUFFICIENT_FUNDS","message":"no money"}}`, []error{types.ErrAPI}, types.ErrCodeInsufficientFunds},
		{"500 top level code", http.StatusInternalServerError, `{"code":"SYSTEM_ERROR","message":"boom"}`, []error{types.ErrAPI}, types.ErrCodeSystem},
		{"404 detail", http.StatusNotFound, `{"detail":"Not Found"}`, []error{types.ErrAPI}, types.ErrCodeOther},
		{"502 html", http.StatusBadGateway, `<html>bad gateway</html>`, []error{types.ErrTransport, types.ErrAPI}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkResponse(http.MethodPost, EndpointCreateOrder, &types.Response{StatusCode: tt.status, Body: []byte(tt.body)})
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
			var auth *types.AuthRejectedError
			var api *types.APIError
			switch {
			case errors.As(err, &auth):
				assert.Equal(t, tt.wantCode, auth.Code)
				assert.Equal(t, tt.status, auth.StatusCode)
			case errors.As(err, &api):
				assert.Equal(t, tt.wantCode, api.Code)
				assert.Equal(t, tt.status, api.StatusCode)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}

	assert.NoError(t, checkResponse(http.MethodGet, EndpointOpenOrders, ok200(`{}`)))
}

func createKeys(ids ...string) []BatchKey {
	keys := make([]BatchKey, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, BatchKey{ClientOrderID: id})
	}
	return keys
}

func TestParseBatch_EchoCorrelation(t *testing.T) {
	body := `{"orders":[
		{"client_order_id":"c3","error":{"code":"INVALID_ORDER","message":"bad qty"}},
		{"client_order_id":"c1","order_id":11},
		{"client_order_id":"c2","order_id":"12"}
	]}`
	res, err := ParseBatch(EndpointCreateMany, ok200(body), createKeys("c1", "c2", "c3"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)

	assert.True(t, res.Entries[0].Success)
	assert.Equal(t, int64(11), res.Entries[0].OrderID)
	assert.Equal(t, "c1", res.Entries[0].ClientOrderID)
	assert.True(t, res.Entries[1].Success)
	assert.Equal(t, int64(12), res.Entries[1].OrderID)
	assert.False(t, res.Entries[2].Success)
	assert.Equal(t, types.ErrCodeInvalidOrder, res.Entries[2].Error.Code)
	assert.Equal(t, 2, res.Entries[2].Index)

	assert.Equal(t, []int64{11, 12}, res.OrderIDs())
	err = res.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPartialBatch)
}

func TestParseBatch_MissingFromResponse(t *testing.T) {
	body := `{"orders":[{"client_order_id":"c2","order_id":12}]}`
	res, err := ParseBatch(EndpointCreateMany, ok200(body), createKeys("c1", "c2"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.False(t, res.Entries[0].Success)
	assert.Equal(t, types.ErrCodeMissingFromResponse, res.Entries[0].Error.Code)
	assert.True(t, res.Entries[1].Success)
}

func TestParseBatch_Positional(t *testing.T) {
	body := `{"orders":[{"order_id":21},{"error":"rejected by exchange"},{"foo":"bar"},"junk"]}`
	res, err := ParseBatch(EndpointCreateMany, ok200(body), createKeys("a", "b", "c", "d"))
	require.NoError(t, err)
	require.Len(t, res.Entries, 4)

	assert.True(t, res.Entries[0].Success)
	assert.Equal(t, int64(21), res.Entries[0].OrderID)
	assert.Equal(t, "a", res.Entries[0].ClientOrderID)

	assert.Equal(t, types.ErrCodeOther, res.Entries[1].Error.Code)
	assert.Equal(t, "rejected by exchange", res.Entries[1].Error.Message)
	assert.Equal(t, types.ErrCodeUnrecognizedBatchEntry, res.Entries[2].Error.Code)
	assert.Equal(t, types.ErrCodeUnrecognizedBatchEntry, res.Entries[3].Error.Code)
	assert.Len(t, res.Failed(), 3)
}

func TestParseBatch_Uncorrelatable(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"length mismatch without echo", `{"orders":[{"order_id":1}]}`},
		{"echo contradicts position", `{"orders":[{"client_order_id":"x","order_id":1},{"order_id":2}]}`},
		{"missing orders", `{"result":[]}`},
		{"orders not array", `{"orders":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBatch(EndpointCreateMany, ok200(tt.body), createKeys("a", "b"))
			assert.ErrorIs(t, err, types.ErrMalformedResponse)
		})
	}
}

func TestParseBatch_Cancel(t *testing.T) {
	keys := []BatchKey{{OrderID: 1}, {OrderID: 2}, {OrderID: 3}}

	res, err := ParseBatch(EndpointCancelMany, ok200(`{"orders":[
		{"order_id":3,"status":"CANCEL_REJECTED","message":"already filled"},
		{"order_id":1,"status":"CANCELLED"},
		{"order_id":2,"error":{"code":"INVALID_ORDER","message":"not found"}}
	]}`), keys)
	require.NoError(t, err)
	assert.True(t, res.Entries[0].Success)
	assert.Equal(t, int64(1), res.Entries[0].OrderID)
	assert.Equal(t, types.ErrCodeInvalidOrder, res.Entries[1].Error.Code)
	assert.Equal(t, int64(2), res.Entries[1].OrderID)
	assert.Equal(t, types.APIErrorCode("CANCEL_REJECTED"), res.Entries[2].Error.Code)

	res, err = ParseBatch(EndpointCancelMany, ok200(`{"orders":[{"status":"CANCELLED"},{"status":"CANCELLED"},{}]}`), keys)
	require.NoError(t, err)
	assert.True(t, res.Entries[0].Success)
	assert.Equal(t, int64(2), res.Entries[1].OrderID)
	assert.Equal(t, types.ErrCodeUnrecognizedBatchEntry, res.Entries[2].Error.Code)
}

func TestParseBatch_TopLevelError(t *testing.T) {
	_, err := ParseBatch(EndpointCreateMany, ok200(`{"error":{"code":"INVALID_ORDER","message":"all or none"}}`), createKeys("a"))
	assert.ErrorIs(t, err, types.ErrAPI)
}

func TestParseBatch_TopLevelSummaryKeepsEntries(t *testing.T) {
	tests := []struct {
		name    string
		summary string
	}{
		{"success false", `"success":false,"message":"1 of 2 orders failed"`},
		{"non-success code", `"code":"PARTIAL_SUCCESS"`},
		{"error string", `"error":"some orders failed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{` + tt.summary + `,"orders":[
				{"client_order_id":"a","order_id":7},
				{"client_order_id":"b","error":{"code":"INVALID_ORDER","message":"bad qty"}}
			]}`
			res, err := ParseBatch(EndpointCreateMany, ok200(body), createKeys("a", "b"))
			require.NoError(t, err)
			require.Len(t, res.Entries, 2)
			assert.True(t, res.Entries[0].Success)
			assert.Equal(t, int64(7), res.Entries[0].OrderID)
			assert.False(t, res.Entries[1].Success)
			assert.Equal(t, types.ErrCodeInvalidOrder, res.Entries[1].Error.Code)
			assert.ErrorIs(t, res.Err(), types.ErrPartialBatch)
		})
	}

	_, err := ParseBatch(EndpointCreateMany, ok200(`{"success":false,"message":"rejected","orders":[]}`), createKeys("a"))
	assert.ErrorIs(t, err, types.ErrAPI)
}
