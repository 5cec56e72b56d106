package common

type ErrorResponse struct {
	Code    string `json:"code"`    // AppError code
	Message string `json:"message"` // user-friendly message
	TraceID string `json:"traceId"`
}
