package client

// 服务地址（包含 /api/v2/trading 前缀）
const (
	DefaultBaseURL = "https://api.anboto.xyz/api/v2/trading"
	TestnetBaseURL = "https://api.testnet.anboto.xyz/api/v2/trading"
)

// API 端点常量
const (
	// Order endpoints
	EndpointCreateOrder = "/order/create"
	EndpointCancelOrder = "/order/cancel"
	EndpointCreateMany  = "/order/createMany"
	EndpointCancelMany  = "/order/cancelMany"
	EndpointOpenOrders  = "/order/open"
	EndpointOrdersByID  = "/order/byId"
	EndpointFindOrders  = "/order/find"
)
