package core

import (
	"context"

	"refugios-backend-go/internal/models"
)

// RenovationService exposes the renovation use cases. Every mutation takes
// the authenticated caller; authorization happens here, not in handlers.
type RenovationService interface {
	Create(ctx context.Context, caller models.Caller, req models.CreateRenovationRequest) (*models.Renovation, error)
	GetByID(ctx context.Context, id string) (*models.Renovation, error)
	ListActive(ctx context.Context) ([]*models.Renovation, error)
	ListByRefuge(ctx context.Context, refugeID string, activeOnly bool) ([]*models.Renovation, error)
	Update(ctx context.Context, caller models.Caller, id string, req models.UpdateRenovationRequest) (*models.Renovation, error)
	Delete(ctx context.Context, caller models.Caller, id string) error
	AddParticipant(ctx context.Context, caller models.Caller, id string) (*models.Renovation, error)
	RemoveParticipant(ctx context.Context, caller models.Caller, id, participantUID string) (*models.Renovation, error)

	// AnonymizeByCreator and PurgeUserFromParticipations serve the external
	// user-deletion workflow; they are not reachable over this module's HTTP
	// surface.
	AnonymizeByCreator(ctx context.Context, uid string) (int, error)
	PurgeUserFromParticipations(ctx context.Context, uid string) (int, error)
}
