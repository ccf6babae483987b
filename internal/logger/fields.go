package logger

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID = "user_id"

	// Chat
	FieldSessionID = "session_id"
	FieldProvider  = "provider"
	FieldJobID     = "job_id"
	FieldJobType   = "job_type"

	FieldService = "service"

	FieldLogType = "log_type"
	LogTypeAudit = "audit"

	FieldAction = "action"
)

const headerRequestID = "X-Request-ID"
