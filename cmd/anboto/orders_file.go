package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/types"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ordersFile 批量下单文件
//
//	all_or_none: false
//	orders:
//	  - exchange: BINANCE
//	    symbol: BTC/USDT
//	    asset_category: SPOT
//	    side: BUY
//	    quantity: "0.01"
//	    strategy: TWAP
//	    params:
//	      duration_seconds: 600
type ordersFile struct {
	AllOrNone *bool        `yaml:"all_or_none"`
	Orders    []orderEntry `yaml:"orders"`
}

type orderEntry struct {
	ClientOrderID string    `yaml:"client_order_id"`
	Exchange      string    `yaml:"exchange"`
	Symbol        string    `yaml:"symbol"`
	AssetCategory string    `yaml:"asset_category"`
	Side          string    `yaml:"side"`
	Quantity      string    `yaml:"quantity"`
	Strategy      string    `yaml:"strategy"`
	LimitPrice    string    `yaml:"limit_price"`
	StartTime     *int64    `yaml:"start_time"`
	EndTime       *int64    `yaml:"end_time"`
	Params        yaml.Node `yaml:"params"`
}

func loadOrdersFile(path string) ([]types.OrderRequest, types.CreateManyOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.CreateManyOptions{}, err
	}
	return parseOrdersFile(data)
}

func parseOrdersFile(data []byte) ([]types.OrderRequest, types.CreateManyOptions, error) {
	var f ordersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, types.CreateManyOptions{}, fmt.Errorf("解析订单文件失败: %w", err)
	}
	orders := make([]types.OrderRequest, 0, len(f.Orders))
	for i, e := range f.Orders {
		o, err := e.toRequest()
		if err != nil {
			return nil, types.CreateManyOptions{}, fmt.Errorf("orders[%d]: %w", i, err)
		}
		orders = append(orders, o)
	}
	return orders, types.CreateManyOptions{AllOrNone: f.AllOrNone}, nil
}

func (e orderEntry) toRequest() (types.OrderRequest, error) {
	qty, err := decimal.NewFromString(strings.TrimSpace(e.Quantity))
	if err != nil {
		return types.OrderRequest{}, fmt.Errorf("quantity %q: %w", e.Quantity, err)
	}
	o := types.OrderRequest{
		ClientOrderID: strings.TrimSpace(e.ClientOrderID),
		Exchange:      types.Exchange(strings.ToUpper(e.Exchange)),
		Symbol:        e.Symbol,
		AssetCategory: types.AssetCategory(strings.ToUpper(e.AssetCategory)),
		Side:          types.Side(strings.ToUpper(e.Side)),
		Quantity:      qty,
		Strategy:      types.ExecutionStrategy(strings.ToUpper(e.Strategy)),
		StartTime:     e.StartTime,
		EndTime:       e.EndTime,
	}
	if e.LimitPrice != "" {
		p, err := decimal.NewFromString(e.LimitPrice)
		if err != nil {
			return types.OrderRequest{}, fmt.Errorf("limit_price %q: %w", e.LimitPrice, err)
		}
		o.LimitPrice = &p
	}
	if !e.Params.IsZero() {
		params, err := paramsFromNode(&e.Params)
		if err != nil {
			return types.OrderRequest{}, fmt.Errorf("params: %w", err)
		}
		o.Params = params
	}
	return o, nil
}

// paramsFromNode 按文件中的键顺序转换，签名依赖字段顺序
func paramsFromNode(n *yaml.Node) (canonical.Params, error) {
	if n.Kind != yaml.MappingNode {
		return canonical.Params{}, fmt.Errorf("line %d: expected mapping", n.Line)
	}
	var p canonical.Params
	for i := 0; i+1 < len(n.Content); i += 2 {
		v, err := valueFromNode(n.Content[i+1])
		if err != nil {
			return canonical.Params{}, err
		}
		p.Set(n.Content[i].Value, v)
	}
	return p, nil
}

func valueFromNode(n *yaml.Node) (canonical.Value, error) {
	switch n.Kind {
	case yaml.MappingNode:
		p, err := paramsFromNode(n)
		if err != nil {
			return canonical.Value{}, err
		}
		return canonical.Object(p), nil
	case yaml.SequenceNode:
		vs := make([]canonical.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := valueFromNode(c)
			if err != nil {
				return canonical.Value{}, err
			}
			vs = append(vs, v)
		}
		return canonical.List(vs...), nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			i, err := strconv.ParseInt(n.Value, 0, 64)
			if err != nil {
				return canonical.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return canonical.Int(i), nil
		case "!!float":
			d, err := decimal.NewFromString(n.Value)
			if err != nil {
				return canonical.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return canonical.Number(d), nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return canonical.Value{}, err
			}
			return canonical.Bool(b), nil
		case "!!null":
			return canonical.Value{}, fmt.Errorf("line %d: null is not allowed", n.Line)
		default:
			return canonical.String(n.Value), nil
		}
	}
	return canonical.Value{}, fmt.Errorf("line %d: unsupported value", n.Line)
}
