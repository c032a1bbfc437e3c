package models

// 信号名称，业务层通过 util.Sig() 发布，监听器在 internal/listeners 注册
const (
	SigUserCheckedIn    = "user.checked_in"
	SigUserExpired      = "user.expired"
	SigReminderDue      = "user.reminder_due"
	SigRelationChanged  = "relation.changed"
	SigPingSent         = "ping.sent"
	SigPingResponded    = "ping.responded"
	SigPingCleared      = "ping.cleared"
	SigAlertActivated   = "alert.activated"
	SigAlertDeactivated = "alert.deactivated"
	SigStatusChanged    = "status.changed"
)
