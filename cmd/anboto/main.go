// anboto 命令行：签名下单、撤单与订单查询
//
// 用法：
//
//	anboto [-config anboto.yaml] [-env .env] <command> [flags]
//
// 凭证来自 ANBOTO_API_KEY / ANBOTO_API_SECRET，或 secret_store 配置的加密存储（见 env2badger）
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/betbot/anboto/internal/metrics"
	"github.com/betbot/anboto/pkg/config"
	"github.com/betbot/anboto/pkg/logger"
	"github.com/betbot/anboto/trading/canonical"
	"github.com/betbot/anboto/trading/client"
	"github.com/betbot/anboto/trading/types"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// 退出码
const (
	exitOK      = 0
	exitError   = 1
	exitUsage   = 2
	exitPartial = 3
	exitAuth    = 4
)

const usage = `usage: anboto [-config file] [-env file] <command> [flags]

commands:
  place        下单
  place-many   从 YAML 文件批量下单
  cancel       撤单（-id 或 -client-id）
  cancel-many  批量撤单（-ids 1,2,3）
  open         当前挂单 ID
  orders       按 ID 查询订单
  find         按时间范围查询订单
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("anboto", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", "", "配置文件路径（支持 .yaml, .yml, .json）")
	envPath := global.String("env", ".env", ".env 文件路径（不存在时忽略）")
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return exitUsage
	}

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(stderr, "加载 %s 失败: %v\n", *envPath, err)
		return exitError
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return exitCode(stderr, errors.WithMessage(err, "加载配置失败"))
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		OutputFile: cfg.Log.File,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     7,
		Compress:   true,
		JSON:       cfg.Log.JSON,
		Stdout:     stderr,
	}); err != nil {
		fmt.Fprintf(stderr, "初始化日志失败: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		if _, err := metrics.StartAsync(ctx, cfg.MetricsAddr); err != nil {
			logger.Warnf("metrics 服务启动失败: %v", err)
		} else {
			logger.Infof("metrics: http://%s/debug/vars", cfg.MetricsAddr)
		}
	}

	creds, err := cfg.Credentials()
	if err != nil {
		return exitCode(stderr, errors.WithMessage(err, "加载凭证失败"))
	}
	c, err := client.NewClient(creds, cfg.ClientOptions())
	if err != nil {
		return exitCode(stderr, errors.WithMessage(err, "初始化客户端失败"))
	}

	logger.WithField("command", rest[0]).Debugf("base_url=%s", c.BaseURL())
	cmd := &command{client: c, out: stdout, errOut: stderr}
	out, err := cmd.dispatch(ctx, rest[0], rest[1:])
	// 部分失败时仍输出逐条结果
	if err == nil || errors.Is(err, types.ErrPartialBatch) {
		if werr := writeJSON(stdout, out); werr != nil {
			fmt.Fprintf(stderr, "输出失败: %v\n", werr)
			return exitError
		}
	}
	return exitCode(stderr, err)
}

type command struct {
	client *client.Client
	out    io.Writer
	errOut io.Writer
}

var errUsage = errors.New("usage")

func (c *command) dispatch(ctx context.Context, name string, args []string) (interface{}, error) {
	switch name {
	case "place":
		return c.place(ctx, args)
	case "place-many":
		return c.placeMany(ctx, args)
	case "cancel":
		return c.cancel(ctx, args)
	case "cancel-many":
		return c.cancelMany(ctx, args)
	case "open":
		return c.open(ctx, args)
	case "orders":
		return c.orders(ctx, args)
	case "find":
		return c.find(ctx, args)
	default:
		fmt.Fprintf(c.errOut, "未知命令: %s\n\n%s", name, usage)
		return nil, errUsage
	}
}

func (c *command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.errOut)
	return fs
}

func (c *command) place(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("place")
	exchange := fs.String("exchange", string(types.ExchangeBinance), "交易所")
	symbol := fs.String("symbol", "", "交易对，例如 BTC/USDT")
	category := fs.String("category", string(types.AssetCategorySpot), "资产类别 SPOT|FUTURE|OPTION")
	side := fs.String("side", "", "BUY|SELL|SHORT_SELL")
	qty := fs.String("qty", "", "数量")
	strategy := fs.String("strategy", string(types.StrategyTWAP), "执行算法")
	limit := fs.String("limit", "", "限价（可选）")
	duration := fs.Int64("duration", 0, "执行时长（秒），写入 params.duration_seconds")
	clientID := fs.String("client-id", "", "客户端订单 ID（为空时自动生成）")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}

	quantity, err := decimal.NewFromString(*qty)
	if err != nil {
		return nil, &types.InvalidRequestError{Field: "quantity", Reason: fmt.Sprintf("%q 不是数字", *qty)}
	}
	var params canonical.Params
	if *duration > 0 {
		params.Set("duration_seconds", canonical.Int(*duration))
	}
	order := c.client.NewOrder(
		types.Exchange(strings.ToUpper(*exchange)),
		*symbol,
		types.AssetCategory(strings.ToUpper(*category)),
		types.Side(strings.ToUpper(*side)),
		quantity,
		types.ExecutionStrategy(strings.ToUpper(*strategy)),
		params,
	)
	if *clientID != "" {
		order.ClientOrderID = *clientID
	}
	if *limit != "" {
		p, err := decimal.NewFromString(*limit)
		if err != nil {
			return nil, &types.InvalidRequestError{Field: "limit_price", Reason: fmt.Sprintf("%q 不是数字", *limit)}
		}
		order.LimitPrice = &p
	}

	id, err := c.client.PlaceOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"order_id": id, "client_order_id": order.ClientOrderID}, nil
}

func (c *command) placeMany(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("place-many")
	file := fs.String("file", "", "订单文件（YAML）")
	allOrNone := fs.String("all-or-none", "", "覆盖文件中的 all_or_none（true|false）")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if *file == "" {
		fmt.Fprintln(c.errOut, "place-many 需要 -file")
		return nil, errUsage
	}
	orders, opts, err := loadOrdersFile(*file)
	if err != nil {
		return nil, &types.InvalidRequestError{Field: "file", Reason: err.Error()}
	}
	if *allOrNone != "" {
		v, err := strconv.ParseBool(*allOrNone)
		if err != nil {
			return nil, errUsage
		}
		opts.AllOrNone = &v
	}
	res, err := c.client.PlaceMany(ctx, orders, opts)
	if err != nil {
		return nil, err
	}
	return res, res.Err()
}

func (c *command) cancel(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("cancel")
	id := fs.Int64("id", 0, "订单 ID")
	clientID := fs.String("client-id", "", "客户端订单 ID")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	switch {
	case *id > 0 && *clientID != "":
		fmt.Fprintln(c.errOut, "-id 与 -client-id 只能指定一个")
		return nil, errUsage
	case *id > 0:
		return c.client.CancelOrder(ctx, *id)
	case *clientID != "":
		return c.client.CancelByClientOrderID(ctx, *clientID)
	default:
		fmt.Fprintln(c.errOut, "cancel 需要 -id 或 -client-id")
		return nil, errUsage
	}
}

func (c *command) cancelMany(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("cancel-many")
	raw := fs.String("ids", "", "订单 ID，逗号分隔")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	ids, err := parseIDs(*raw)
	if err != nil {
		return nil, &types.InvalidRequestError{Field: "ids", Reason: err.Error()}
	}
	res, err := c.client.CancelMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	return res, res.Err()
}

func (c *command) open(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("open")
	detail := fs.Bool("detail", false, "输出完整订单而不是 ID 列表")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	if *detail {
		return c.client.OpenOrders(ctx)
	}
	return c.client.ListOpenOrders(ctx)
}

func (c *command) orders(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("orders")
	rawIDs := fs.String("ids", "", "订单 ID，逗号分隔")
	rawClientIDs := fs.String("client-ids", "", "客户端订单 ID，逗号分隔")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	var ids []int64
	if *rawIDs != "" {
		var err error
		if ids, err = parseIDs(*rawIDs); err != nil {
			return nil, &types.InvalidRequestError{Field: "ids", Reason: err.Error()}
		}
	}
	return c.client.GetOrders(ctx, ids, splitList(*rawClientIDs))
}

func (c *command) find(ctx context.Context, args []string) (interface{}, error) {
	fs := c.flags("find")
	since := fs.Duration("since", 24*time.Hour, "查询最近多长时间（-start 未指定时生效）")
	start := fs.Int64("start", 0, "开始时间（毫秒）")
	end := fs.Int64("end", 0, "结束时间（毫秒）")
	limit := fs.Int("limit", 0, "最大条数")
	if err := fs.Parse(args); err != nil {
		return nil, errUsage
	}
	params := types.FindParams{StartMs: *start, EndMs: *end, Limit: *limit}
	if params.StartMs == 0 && *since > 0 {
		params.StartMs = time.Now().Add(-*since).UnixMilli()
	}
	return c.client.FindOrders(ctx, params)
}

func parseIDs(raw string) ([]int64, error) {
	parts := splitList(raw)
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q 不是订单 ID", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitCode 按错误类型映射退出码
func exitCode(stderr io.Writer, err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errUsage) {
		return exitUsage
	}
	fmt.Fprintf(stderr, "error: %v\n", err)
	switch {
	case errors.Is(err, types.ErrPartialBatch):
		return exitPartial
	case errors.Is(err, types.ErrAuthRejected):
		return exitAuth
	case errors.Is(err, types.ErrInvalidRequest), errors.Is(err, types.ErrConfiguration):
		return exitUsage
	default:
		return exitError
	}
}
