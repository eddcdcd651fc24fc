package model

import "time"

// RequestLogLevel is the severity of a request log entry
type RequestLogLevel string

const (
	RequestLogInfo  RequestLogLevel = "info"
	RequestLogError RequestLogLevel = "error"
)

// RequestLog is an audit record of one API request
type RequestLog struct {
	ID        string          `json:"id"`
	Level     RequestLogLevel `json:"level"`
	Message   string          `json:"message"`
	Method    string          `json:"method"`
	Endpoint  string          `json:"endpoint"`
	Status    int             `json:"status"`
	ActorID   *string         `json:"actor_id,omitempty"`
	CreatedOn time.Time       `json:"created_on"`
}

// Request log query limits
const (
	DefaultRequestLogLimit = 100
	MaxRequestLogLimit     = 1000
)
