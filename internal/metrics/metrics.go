package metrics

import "expvar"

// 签名请求计数器，通过 /debug/vars 暴露
var (
	RequestsSent        = expvar.NewInt("anboto_requests_sent")
	TransportErrors     = expvar.NewInt("anboto_transport_errors")
	AuthRejects         = expvar.NewInt("anboto_auth_rejects")
	APIErrors           = expvar.NewInt("anboto_api_errors")
	MalformedResponses  = expvar.NewInt("anboto_malformed_responses")
	BatchEntriesFailed  = expvar.NewInt("anboto_batch_entries_failed")
	BatchEntriesSuccess = expvar.NewInt("anboto_batch_entries_succeeded")

	// 以下由 mock venue 使用
	VenueAuthFailures = expvar.NewInt("venue_auth_failures")
	VenueOrdersPlaced = expvar.NewInt("venue_orders_placed")
)
