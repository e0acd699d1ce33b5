package api

// Stable wire error kinds. These are part of the public contract and must not
// change between releases.
const (
	KindInvalidInput       = "invalid_input"
	KindUnauthenticated    = "unauthenticated"
	KindForbidden          = "forbidden"
	KindNotFound           = "not_found"
	KindOverlap            = "overlap"
	KindAlreadyParticipant = "already_participant"
	KindExpelled           = "expelled"
	KindInternal           = "internal"
)

// ErrorResponse is the uniform error body. Only "message" is user-visible;
// "details" is present for invalid_input (field messages) and overlap
// (conflicting renovation).
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// OverlapDetails identifies the renovation blocking the requested date range.
type OverlapDetails struct {
	ConflictID string `json:"conflict_id"`
	IniDate    string `json:"ini_date"`
	FinDate    string `json:"fin_date"`
}
