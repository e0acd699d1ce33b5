package models

// Caller is the authenticated identity attached to every request by the auth
// middleware. It is a plain value; handlers and services never look at raw
// token claims.
type Caller struct {
	UID     string `json:"uid"`
	IsAdmin bool   `json:"is_admin"`
}
