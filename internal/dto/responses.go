package dto

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	TraceID string `json:"traceId,omitempty"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}
