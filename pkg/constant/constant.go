package constant

// gin.Context 键名
const (
	DbField      = "db"
	UserField    = "user"
	SessionField = "session"
	LangField    = "lang"
)

// 会话键名
const (
	SessionUserID = "user_id"
)
