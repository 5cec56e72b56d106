package common

// APIResponse represents the structure of a standard admin API response.
type APIResponse struct {
	TraceID string         `json:"traceId"`
	Data    map[string]any `json:"data"`
}
