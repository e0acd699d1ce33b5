package core

import (
	"errors"
	"fmt"

	"refugios-backend-go/internal/models"
)

// Custom errors for the RenovationService. Handlers match these with
// errors.Is / errors.As and map them to the stable wire error kinds.
var (
	ErrRenovationNotFound  = errors.New("renovation not found")
	ErrParticipantNotFound = errors.New("participant not found in this renovation")
	ErrForbidden           = errors.New("caller does not have permission for this action")
	ErrCreatorCannotJoin   = errors.New("the creator cannot join their own renovation")
	ErrInvalidInput        = errors.New("invalid input")
	ErrOverlap             = errors.New("another renovation at this refuge overlaps the requested dates")
	ErrAlreadyParticipant  = errors.New("user is already a participant of this renovation")
	ErrExpelled            = errors.New("user was expelled from this renovation and cannot re-join")
)

// OverlapError reports a temporal conflict and carries the conflicting
// renovation so clients can explain which event is in the way.
type OverlapError struct {
	Conflict *models.Renovation
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v: conflicting renovation %s (%s to %s)",
		ErrOverlap, e.Conflict.ID, e.Conflict.IniDate, e.Conflict.FinDate)
}

// Is makes errors.Is(err, ErrOverlap) succeed for OverlapError values.
func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}
