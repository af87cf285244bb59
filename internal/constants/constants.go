package constants

import "time"

// Session
const (
	SessionCookieName = "tms_session"
	SessionKeyUserID  = "user_id"
	SessionKeyRole    = "user_role"
	SessionKeyFlash   = "flash_messages"
)

// Auth
const (
	MinPasswordLength = 6
	ResetTokenTTL     = time.Hour
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
