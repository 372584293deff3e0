package model

// ErrorResponse is the JSON body of every failed API call. Code is a stable
// reason such as "not_connected" or "user_rejected".
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
