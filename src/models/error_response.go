package models

// ErrorResponse is the body of every non-2xx reply. Errors carries per-field
// messages for validation failures.
type ErrorResponse struct {
	Status  int      `json:"status"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}
