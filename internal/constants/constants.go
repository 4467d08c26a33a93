package constants

import "time"

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUserRole = "user_role"
)

// Authentication
const (
	MinPasswordLength = 8
	TokenLifetime     = 7 * 24 * time.Hour
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Dashboard
const RecentTasksLimit = 10

// Uploads
const MaxUploadSizeBytes = 5 << 20
