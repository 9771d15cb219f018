package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// HealthCheckResponse returns the health check response struct, hopefully with alive equals true
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
