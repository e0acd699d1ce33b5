package models

// CreateRenovationRequest represents the request body for creating a renovation.
// creator_uid is never taken from the body; it is injected from the caller.
type CreateRenovationRequest struct {
	RefugeID        string `json:"refuge_id" binding:"required"`
	IniDate         string `json:"ini_date" binding:"required"`
	FinDate         string `json:"fin_date" binding:"required"`
	Description     string `json:"description" binding:"required"`
	MaterialsNeeded string `json:"materials_needed,omitempty"`
	GroupLink       string `json:"group_link" binding:"required"`
}

// UpdateRenovationRequest represents the request body for patching a renovation.
// Pointers distinguish "not provided" from "set to empty" (materials_needed may
// legitimately be cleared). id, creator_uid, refuge_id and both rosters are
// immutable and therefore absent here.
type UpdateRenovationRequest struct {
	IniDate         *string `json:"ini_date,omitempty"`
	FinDate         *string `json:"fin_date,omitempty"`
	Description     *string `json:"description,omitempty"`
	MaterialsNeeded *string `json:"materials_needed,omitempty"`
	GroupLink       *string `json:"group_link,omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (r *UpdateRenovationRequest) Empty() bool {
	return r.IniDate == nil && r.FinDate == nil && r.Description == nil &&
		r.MaterialsNeeded == nil && r.GroupLink == nil
}
