package dto

import "time"

// APIResponse is the envelope of every successful response
type APIResponse struct {
	Success   bool        `json:"success" example:"true"`
	Message   string      `json:"message,omitempty" example:"Operation completed successfully"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

// NewAPIResponse wraps data in a success envelope
func NewAPIResponse(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data, Timestamp: time.Now()}
}

// NewMessageResponse creates a success envelope with a message and empty data
func NewMessageResponse(message string) APIResponse {
	return APIResponse{Success: true, Message: message, Data: struct{}{}, Timestamp: time.Now()}
}

// WithMessage sets the message of a success envelope
func (r APIResponse) WithMessage(message string) APIResponse {
	r.Message = message
	return r
}
