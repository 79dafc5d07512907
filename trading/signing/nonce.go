package signing

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock 提供毫秒时间戳，每次签名时取一次
type Clock interface {
	NowMillis() int64
}

// SystemClock 系统时钟
type SystemClock struct{}

func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// FixedClock 固定时间（测试用）
type FixedClock int64

func (c FixedClock) NowMillis() int64 { return int64(c) }

// ClockFunc 函数适配器
type ClockFunc func() int64

func (f ClockFunc) NowMillis() int64 { return f() }

// ClientOrderIDGenerator 生成客户端订单 ID
type ClientOrderIDGenerator interface {
	Next() string
}

// CounterIDGenerator 生成 {counter}_{epoch_millis}，同一毫秒内的并发调用依靠原子计数器区分
type CounterIDGenerator struct {
	counter atomic.Uint64
	clock   Clock
}

// NewCounterIDGenerator clock 为 nil 时使用系统时钟
func NewCounterIDGenerator(clock Clock) *CounterIDGenerator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CounterIDGenerator{clock: clock}
}

func (g *CounterIDGenerator) Next() string {
	n := g.counter.Add(1)
	return strconv.FormatUint(n, 10) + "_" + strconv.FormatInt(g.clock.NowMillis(), 10)
}

// UUIDGenerator 随机 UUIDv4
type UUIDGenerator struct{}

func (UUIDGenerator) Next() string { return uuid.NewString() }
