package constants

// contextKey is unexported so values stored by this package cannot collide
// with keys from other packages that use the same string.
type contextKey string

const (
	HeaderXDeviceID  = "X-Device-Id"
	HeaderXUserID    = "X-User-Id"
	HeaderXUserEmail = "X-User-Email"

	ContextKeyDeviceID  contextKey = "device_id"
	ContextKeyUserID    contextKey = "user_id"
	ContextKeyUserEmail contextKey = "user_email"
)
