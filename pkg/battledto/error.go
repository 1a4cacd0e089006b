package battledto

// Error codes carried in API error responses. Stable; clients branch on them.
const (
	CodeNotFound         = "not_found"
	CodeForbidden        = "forbidden"
	CodeInvalidState     = "invalid_state"
	CodeInvalidTarget    = "invalid_target"
	CodeDuplicateRequest = "duplicate_request"
	CodeDuplicatePlay    = "duplicate_play"
	CodeInsufficientDeck = "insufficient_deck"
	CodeUnavailable      = "unavailable"
	CodeBadRequest       = "bad_request"
)

// ErrorResponse is the JSON error envelope. Retryable marks transient store
// failures; invalid_state means the caller should refetch, not retry blindly.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e ErrorResponse) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "battle service error"
}
