package reservation

const (
	operationBook          = "book"
	operationUpdate        = "update"
	operationCancel        = "cancel"
	operationJoinWaitlist  = "join_waitlist"
	operationLeaveWaitlist = "leave_waitlist"
	operationAdminCancel   = "admin_cancel"
	operationAdminLeave    = "admin_remove_waitlist"
	operationAuthenticate  = "authenticate_manager"
	operationCreateManager = "create_manager"
	operationNotify        = "notify"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	fieldName      = "name"
	fieldPhone     = "phone"
	fieldPartySize = "party_size"
	fieldDate      = "date"
	fieldTime      = "time"
	fieldLoginID   = "login_id"
	fieldPassword  = "password"

	dateLayout      = "2006-01-02"
	slotLabelLayout = "03:04 PM"

	firstSlotMinutes = 11*60 + 30
	lastSlotMinutes  = 20*60 + 30
	slotStepMinutes  = 30

	minimumPartySize = 1
	firstPosition    = 1
)
