package middleware

// Context keys used to store request metadata.
const (
	ContextKeySubject   = "subject"
	ContextKeyEmail     = "operator_email"
	ContextKeyRole      = "role"
	ContextKeyRequestID = "request_id"
)
