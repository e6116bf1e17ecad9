package httpapi

const (
	logMsgRequest       = "http request"
	logMsgRequestFailed = "http request failed"
	logMsgRateLimited   = "http request rate limited"
	logMsgCatchUpFailed = "projection catch-up after command failed"

	logAttrMethod        = "method"
	logAttrPath          = "path"
	logAttrStatus        = "status"
	logAttrBytes         = "bytes"
	logAttrDurationMS    = "duration_ms"
	logAttrRequestID     = "request_id"
	logAttrClient        = "client"
	logAttrReservationID = "reservation_id"
	logAttrError         = "error"
)
