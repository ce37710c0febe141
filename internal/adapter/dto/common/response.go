package common

// SuccessResponse is the JSON envelope of successful API calls
type SuccessResponse struct {
	Code    int         `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the JSON envelope of failed API calls
type ErrorResponse struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
}
