package constants

const (
	HeaderForwardedByKey = "X-Forwarded-By"
	HeaderUserIDKey      = "X-User-ID"
	HeaderRequestIDKey   = "X-Request-ID"
	HeaderWSTicketKey    = "X-WS-Ticket"
)

const GatewayServiceName = "OnlineJudge-Live"
