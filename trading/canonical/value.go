package canonical

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Kind 参数值类型
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindNumber
	KindBool
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value 带类型标签的参数值（string | int | decimal | bool | 嵌套对象 | 列表）
type Value struct {
	kind Kind
	s    string
	i    int64
	d    decimal.Decimal
	b    bool
	obj  Params
	list []Value
}

// String 字符串值
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int 整数值
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Number 十进制数值，序列化为 JSON 数字（不带引号）
func Number(d decimal.Decimal) Value { return Value{kind: KindNumber, d: d} }

// ErrNotFinite NaN 或 ±Inf 无法表示为 JSON 数字
var ErrNotFinite = errors.New("canonical: number is not finite")

// Float 从 float64 构造十进制数值，f 必须是有限值（NaN/Inf 会 panic），不确定时用 CheckedFloat
func Float(f float64) Value { return Number(decimal.NewFromFloat(f)) }

// CheckedFloat 同 Float，非有限值返回 ErrNotFinite
func CheckedFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, errors.Wrapf(ErrNotFinite, "%v", f)
	}
	return Float(f), nil
}

// Bool 布尔值
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Object 嵌套对象
func Object(p Params) Value { return Value{kind: KindObject, obj: p.clone()} }

// List 列表
func List(vs ...Value) Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	return Value{kind: KindList, list: cp}
}

// Strings 字符串列表
func Strings(ss ...string) Value {
	vs := make([]Value, 0, len(ss))
	for _, s := range ss {
		vs = append(vs, String(s))
	}
	return Value{kind: KindList, list: vs}
}

// Ints 整数列表
func Ints(is ...int64) Value {
	vs := make([]Value, 0, len(is))
	for _, i := range is {
		vs = append(vs, Int(i))
	}
	return Value{kind: KindList, list: vs}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsObject 返回嵌套对象（非对象类型返回 false）
func (v Value) AsObject() (Params, bool) {
	if v.kind != KindObject {
		return Params{}, false
	}
	return v.obj, true
}

// AsList 返回列表元素（非列表类型返回 false）
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// String 值的默认字符串形式，用于查询串
// 对象按 JSON 渲染；列表按逗号拼接元素
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindNumber:
		return v.d.String()
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindObject:
		return Body(v.obj)
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, e := range v.list {
			parts = append(parts, e.String())
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}
