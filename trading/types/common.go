package types

// Side 订单方向
type Side string

const (
	SideBuy       Side = "BUY"
	SideSell      Side = "SELL"
	SideShortSell Side = "SHORT_SELL"
)

// Code 数字编码（旧版 API 以数字传输方向）
func (s Side) Code() int64 {
	switch s {
	case SideBuy:
		return 1
	case SideSell:
		return 2
	case SideShortSell:
		return 3
	default:
		return 0
	}
}

func (s Side) Valid() bool { return s.Code() != 0 }

// SideFromCode 数字编码转方向，未知编码返回空
func SideFromCode(code int64) Side {
	switch code {
	case 1:
		return SideBuy
	case 2:
		return SideSell
	case 3:
		return SideShortSell
	}
	return ""
}

// SideFormat 方向字段的传输格式
type SideFormat string

const (
	SideFormatString  SideFormat = "string"
	SideFormatNumeric SideFormat = "numeric"
)

// AssetCategory 资产类别
type AssetCategory string

const (
	AssetCategorySpot   AssetCategory = "SPOT"
	AssetCategoryFuture AssetCategory = "FUTURE"
	AssetCategoryOption AssetCategory = "OPTION"
)

// Exchange 执行所在交易所
type Exchange string

const (
	ExchangeBinance Exchange = "BINANCE"
	ExchangeHuobi   Exchange = "HUOBI"
	ExchangeGateio  Exchange = "GATEIO"
	ExchangeKraken  Exchange = "KRAKEN"
	ExchangeKucoin  Exchange = "KUCOIN"
	ExchangeOKX     Exchange = "OKX"
	ExchangeBybit   Exchange = "BYBIT"
	ExchangeBitget  Exchange = "BITGET"
)

// ExecutionStrategy 执行算法
type ExecutionStrategy string

const (
	StrategyTWAP     ExecutionStrategy = "TWAP"
	StrategyVWAP     ExecutionStrategy = "VWAP"
	StrategyIceberg  ExecutionStrategy = "ICEBERG"
	StrategyMarket   ExecutionStrategy = "MARKET"
	StrategyLimit    ExecutionStrategy = "LIMIT"
	StrategyStopLoss ExecutionStrategy = "STOP_LOSS"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPendingNew      OrderStatus = "PENDING_NEW"
	OrderStatusAccepted        OrderStatus = "ACCEPTED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPendingCancel   OrderStatus = "PENDING_CANCEL"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusPendingPause    OrderStatus = "PENDING_PAUSE"
	OrderStatusPaused          OrderStatus = "PAUSED"
	OrderStatusPendingUnpause  OrderStatus = "PENDING_UNPAUSE"
	OrderStatusExpired         OrderStatus = "EXPIRED"
	OrderStatusCancelRejected  OrderStatus = "CANCEL_REJECTED"
)

// IsOpen 订单是否仍在执行中
func (s OrderStatus) IsOpen() bool {
	switch s {
	case OrderStatusPendingNew, OrderStatusAccepted, OrderStatusPartiallyFilled,
		OrderStatusPendingCancel, OrderStatusPendingPause, OrderStatusPaused, OrderStatusPendingUnpause:
		return true
	}
	return false
}

// APIErrorCode 服务端错误码
type APIErrorCode string

const (
	ErrCodeOther                  APIErrorCode = "OTHER"
	ErrCodeQuantityExceed         APIErrorCode = "QUANTITY_EXCEED"
	ErrCodeAuthentication         APIErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeInsufficientFunds      APIErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeRateLimitExceeded      APIErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeDDoSProtection         APIErrorCode = "DDOS_PROTECTION"
	ErrCodeExchangeNotAvailable   APIErrorCode = "EXCHANGE_NOT_AVAILABLE"
	ErrCodeNetwork                APIErrorCode = "NETWORK_ERROR"
	ErrCodeInvalidOrder           APIErrorCode = "INVALID_ORDER"
	ErrCodeExchange               APIErrorCode = "EXCHANGE_ERROR"
	ErrCodeEMSInstancesDown       APIErrorCode = "EMS_INSTANCES_DOWN"
	ErrCodeSlippageExceeded       APIErrorCode = "SLIPPAGE_EXCEEDED"
	ErrCodeExpiryReached          APIErrorCode = "EXPIRY_REACHED"
	ErrCodeMaxFeePerGasTooLow     APIErrorCode = "MAX_FEE_PER_GAS_IS_TOO_LOW"
	ErrCodeParentOrderTerminated  APIErrorCode = "PARENT_ORDER_WAS_TERMINATED"
	ErrCodeMaxPriorityFeeTooLow   APIErrorCode = "MAX_PRIORITY_FEE_PER_GAS_IS_TOO_LOW"
	ErrCodeInvalidSignature       APIErrorCode = "INVALID_SIGNATURE"
	ErrCodeInvalidAPIKey          APIErrorCode = "INVALID_API_KEY"
	ErrCodeInvalidTimestamp       APIErrorCode = "INVALID_TIMESTAMP"
	ErrCodeSystem                 APIErrorCode = "SYSTEM_ERROR"
	ErrCodeInvalidRequest         APIErrorCode = "INVALID_REQUEST"
	ErrCodeMissingFromResponse    APIErrorCode = "MISSING_FROM_RESPONSE"
	ErrCodeUnrecognizedBatchEntry APIErrorCode = "UNRECOGNIZED_ENTRY"
)

// IsAuthFailure 签名/时间戳/密钥相关错误，必须重新生成时间戳并重签
func (c APIErrorCode) IsAuthFailure() bool {
	switch c {
	case ErrCodeAuthentication, ErrCodeInvalidSignature, ErrCodeInvalidAPIKey, ErrCodeInvalidTimestamp:
		return true
	}
	return false
}
