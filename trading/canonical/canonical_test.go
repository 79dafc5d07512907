package canonical

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBody_PreservesInsertionOrder(t *testing.T) {
	var p Params
	p.Set("client_order_id", String("1_1700000000000")).
		Set("exchange", String("BINANCE")).
		Set("symbol", String("BTC/USDT")).
		Set("quantity", Number(decimal.RequireFromString("0.001"))).
		Set("post_only", Bool(false))

	assert.Equal(t,
		`{"client_order_id":"1_1700000000000","exchange":"BINANCE","symbol":"BTC/USDT","quantity":0.001,"post_only":false}`,
		Body(p))
}

func TestBody_Nested(t *testing.T) {
	var params Params
	params.Set("duration_seconds", Int(300))

	var o1, o2 Params
	o1.Set("order_id", Int(1))
	o2.Set("order_id", Int(2))

	var p Params
	p.Set("orders", List(Object(o1), Object(o2))).
		Set("params", Object(params)).
		Set("tags", Strings("a", "b"))

	assert.Equal(t,
		`{"orders":[{"order_id":1},{"order_id":2}],"params":{"duration_seconds":300},"tags":["a","b"]}`,
		Body(p))
}

func TestBody_Empty(t *testing.T) {
	assert.Equal(t, `{}`, Body(Params{}))
}

func TestBody_StringEscaping(t *testing.T) {
	var p Params
	p.Set("note", String(`a"b<c>&d`))
	assert.Equal(t, `{"note":"a\"b<c>&d"}`, Body(p))
}

func TestSet_ReplacesInPlace(t *testing.T) {
	var p Params
	p.Set("a", Int(1)).Set("b", Int(2)).Set("a", Int(3))
	assert.Equal(t, []string{"a", "b"}, p.Keys())
	assert.Equal(t, `{"a":3,"b":2}`, Body(p))

	p.Delete("a")
	assert.Equal(t, `{"b":2}`, Body(p))
}

func TestObject_IsSnapshot(t *testing.T) {
	var inner Params
	inner.Set("x", Int(1))
	v := Object(inner)
	inner.Set("x", Int(2))

	got, ok := v.AsObject()
	require.True(t, ok)
	x, _ := got.Get("x")
	assert.Equal(t, "1", x.String())
}

func TestParams_CopiesAreIndependent(t *testing.T) {
	p := NewParams(Field{"a", Int(1)}, Field{"b", Int(2)})

	q := p
	q.Set("a", Int(99))
	assert.Equal(t, `{"a":1,"b":2}`, Body(p))
	assert.Equal(t, `{"a":99,"b":2}`, Body(q))

	r := p
	r.Delete("a")
	assert.Equal(t, `{"a":1,"b":2}`, Body(p))
	assert.Equal(t, `{"b":2}`, Body(r))

	// 追加不能写入原参数集的剩余容量
	s1 := p
	s1.Set("c", Int(3))
	s2 := p
	s2.Set("d", Int(4))
	assert.Equal(t, `{"a":1,"b":2,"c":3}`, Body(s1))
	assert.Equal(t, `{"a":1,"b":2,"d":4}`, Body(s2))
	assert.Equal(t, []string{"a", "b"}, p.Keys())
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
		wantOK bool
	}{
		{
			name:   "empty",
			params: Params{},
			want:   "",
			wantOK: false,
		},
		{
			name:   "single",
			params: NewParams(Field{"limit", Int(10)}),
			want:   "limit=10",
			wantOK: true,
		},
		{
			name: "sorted keys and list join",
			params: NewParams(
				Field{"orderIds", Ints(1, 2)},
				Field{"clientOrderIds", Strings("a", "b")},
			),
			want:   "clientOrderIds=a,b&orderIds=1,2",
			wantOK: true,
		},
		{
			name: "no escaping",
			params: NewParams(
				Field{"symbol", String("BTC/USDT")},
				Field{"active", Bool(true)},
				Field{"qty", Float(0.5)},
			),
			want:   "active=true&qty=0.5&symbol=BTC/USDT",
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Query(tt.params)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_Deterministic(t *testing.T) {
	p := NewParams(
		Field{"startMs", Int(1700000000000)},
		Field{"endMs", Int(1700000600000)},
		Field{"limit", Int(50)},
	)
	first, _ := Query(p)
	for i := 0; i < 100; i++ {
		again, _ := Query(p)
		require.Equal(t, first, again)
	}
	// 原参数集顺序不受排序影响
	assert.Equal(t, []string{"startMs", "endMs", "limit"}, p.Keys())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "-7", Int(-7).String())
	assert.Equal(t, "1.25", Number(decimal.RequireFromString("1.250")).String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, `{"k":"v"}`, Object(NewParams(Field{"k", String("v")})).String())
	assert.Equal(t, "", Value{}.String())
	assert.False(t, Value{}.IsValid())
	assert.Equal(t, "list", Strings().Kind().String())
}

func TestCheckedFloat(t *testing.T) {
	v, err := CheckedFloat(0.25)
	require.NoError(t, err)
	assert.Equal(t, "0.25", v.String())

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := CheckedFloat(f)
		assert.ErrorIs(t, err, ErrNotFinite)
	}
}
