package db

import (
	"context"
	"errors"

	"refugios-backend-go/internal/models"
)

// Storage-level sentinel errors. The service layer translates these into its
// own error kinds; they never reach handlers directly.
var (
	ErrNotFound           = errors.New("document not found")
	ErrAlreadyParticipant = errors.New("user is already a participant")
	ErrExpelled           = errors.New("user was expelled from this renovation")
	ErrNotParticipant     = errors.New("user is not a participant")
)

// RenovationRepository defines persistence, query and cache coherence for
// renovation documents. Methods taking a `today` civil date use it to scope
// active queries and to key date-bound cache entries.
type RenovationRepository interface {
	// Create persists a new renovation and returns its assigned ID.
	Create(ctx context.Context, renovation *models.Renovation) (string, error)
	GetByID(ctx context.Context, id string) (*models.Renovation, error)
	ListActive(ctx context.Context, today string) ([]*models.Renovation, error)
	ListByRefuge(ctx context.Context, refugeID string, activeOnly bool, today string) ([]*models.Renovation, error)
	// CheckOverlap returns the first active renovation at the refuge whose
	// closed [iniDate, finDate] interval intersects [ini, fin], skipping
	// excludeID. Nil means no conflict. Advisory only: there is no
	// cross-document transaction between the probe and a later write.
	CheckOverlap(ctx context.Context, refugeID, ini, fin, excludeID, today string) (*models.Renovation, error)
	Update(ctx context.Context, id, refugeID string, patch *models.UpdateRenovationRequest) error
	// Delete removes the document and returns its prior state so the caller
	// can rebalance per-user counters.
	Delete(ctx context.Context, id string) (*models.Renovation, error)
	AddParticipant(ctx context.Context, id, uid string) (*models.Renovation, error)
	// RemoveParticipant takes the uid off the roster; when expulsion is true
	// the uid is also appended to expelledUids in the same transaction.
	RemoveParticipant(ctx context.Context, id, uid string, expulsion bool) (*models.Renovation, error)
	// AnonymizeByCreator rewrites creatorUid to the platform sentinel on every
	// renovation owned by uid. Returns the number of rewritten documents.
	AnonymizeByCreator(ctx context.Context, uid string) (int, error)
	// PurgeUserFromParticipations removes uid from participantsUids wherever
	// it appears. expelledUids is left untouched. Returns the number of
	// modified documents.
	PurgeUserFromParticipations(ctx context.Context, uid string) (int, error)
}

// UserCounterRepository maintains the per-user "participated renovations"
// counter owned by the external user component. Updates are best-effort;
// callers must not roll back roster changes on counter failure.
type UserCounterRepository interface {
	IncrementParticipations(ctx context.Context, uid string, delta int) error
}
