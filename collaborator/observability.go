package collaborator

// Log messages.
const (
	logMsgNotificationFailed = "status change notification failed"
	logMsgStatusChanged      = "reservation status changed"
)

// Log attribute keys.
const (
	logAttrReservationID = "reservation_id"
	logAttrOldStatus     = "old_status"
	logAttrNewStatus     = "new_status"
	logAttrError         = "error"
)
