package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"refugios-backend-go/internal/clock"
	"refugios-backend-go/internal/db"
	"refugios-backend-go/internal/models"
)

// renovationService implements RenovationService.
type renovationService struct {
	repo    db.RenovationRepository
	counter db.UserCounterRepository
	clock   clock.Clock
	logger  *zap.Logger
}

// NewRenovationService creates a RenovationService instance.
func NewRenovationService(
	repo db.RenovationRepository,
	counter db.UserCounterRepository,
	clk clock.Clock,
	logger *zap.Logger,
) (RenovationService, error) {
	if repo == nil {
		return nil, errors.New("renovation repository is required")
	}
	if counter == nil {
		return nil, errors.New("user counter repository is required")
	}
	if clk == nil {
		return nil, errors.New("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &renovationService{repo: repo, counter: counter, clock: clk, logger: logger}, nil
}

// Create validates the request, probes for overlaps at the refuge and
// persists the new renovation with the caller as creator.
func (s *renovationService) Create(ctx context.Context, caller models.Caller, req models.CreateRenovationRequest) (*models.Renovation, error) {
	today := s.clock.Today()

	renovation := &models.Renovation{
		CreatorUID:      caller.UID,
		RefugeID:        strings.TrimSpace(req.RefugeID),
		IniDate:         req.IniDate,
		FinDate:         req.FinDate,
		Description:     req.Description,
		MaterialsNeeded: req.MaterialsNeeded,
		GroupLink:       req.GroupLink,
		ParticipantsUID: []string{},
		ExpelledUID:     []string{},
	}
	if err := renovation.Validate(today); err != nil {
		return nil, err
	}

	conflict, err := s.repo.CheckOverlap(ctx, renovation.RefugeID, renovation.IniDate, renovation.FinDate, "", today)
	if err != nil {
		return nil, fmt.Errorf("overlap probe failed for refuge %q: %w", renovation.RefugeID, err)
	}
	if conflict != nil {
		return nil, &OverlapError{Conflict: conflict}
	}

	if _, err := s.repo.Create(ctx, renovation); err != nil {
		return nil, fmt.Errorf("failed to persist renovation: %w", err)
	}

	s.bumpCounter(ctx, caller.UID, 1, renovation.ID)
	return renovation, nil
}

func (s *renovationService) GetByID(ctx context.Context, id string) (*models.Renovation, error) {
	renovation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrRenovationNotFound
		}
		return nil, fmt.Errorf("failed to get renovation %q: %w", id, err)
	}
	return renovation, nil
}

func (s *renovationService) ListActive(ctx context.Context) ([]*models.Renovation, error) {
	list, err := s.repo.ListActive(ctx, s.clock.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to list active renovations: %w", err)
	}
	return list, nil
}

func (s *renovationService) ListByRefuge(ctx context.Context, refugeID string, activeOnly bool) ([]*models.Renovation, error) {
	list, err := s.repo.ListByRefuge(ctx, refugeID, activeOnly, s.clock.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to list renovations for refuge %q: %w", refugeID, err)
	}
	return list, nil
}

// Update applies a creator-only field patch. When either date changes, the
// effective pair is re-validated and the overlap probe runs with the
// renovation's own id excluded.
func (s *renovationService) Update(ctx context.Context, caller models.Caller, id string, req models.UpdateRenovationRequest) (*models.Renovation, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.CreatorUID != caller.UID {
		return nil, ErrForbidden
	}
	if req.Empty() {
		return existing, nil
	}

	if err := s.validatePatch(&req, existing); err != nil {
		return nil, err
	}

	if req.IniDate != nil || req.FinDate != nil {
		ini, fin := existing.IniDate, existing.FinDate
		if req.IniDate != nil {
			ini = *req.IniDate
		}
		if req.FinDate != nil {
			fin = *req.FinDate
		}
		conflict, err := s.repo.CheckOverlap(ctx, existing.RefugeID, ini, fin, id, s.clock.Today())
		if err != nil {
			return nil, fmt.Errorf("overlap probe failed for refuge %q: %w", existing.RefugeID, err)
		}
		if conflict != nil {
			return nil, &OverlapError{Conflict: conflict}
		}
	}

	if err := s.repo.Update(ctx, id, existing.RefugeID, &req); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrRenovationNotFound
		}
		return nil, fmt.Errorf("failed to update renovation %q: %w", id, err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the renovation and rebalances the creator's and every
// participant's counter.
func (s *renovationService) Delete(ctx context.Context, caller models.Caller, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.CreatorUID != caller.UID {
		return ErrForbidden
	}

	prior, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrRenovationNotFound
		}
		return fmt.Errorf("failed to delete renovation %q: %w", id, err)
	}

	s.bumpCounter(ctx, prior.CreatorUID, -1, id)
	for _, uid := range prior.ParticipantsUID {
		s.bumpCounter(ctx, uid, -1, id)
	}
	return nil
}

// AddParticipant joins the caller to the roster. Creators cannot join their
// own renovation; expelled users are permanently rejected.
func (s *renovationService) AddParticipant(ctx context.Context, caller models.Caller, id string) (*models.Renovation, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.CreatorUID == caller.UID {
		return nil, ErrCreatorCannotJoin
	}

	updated, err := s.repo.AddParticipant(ctx, id, caller.UID)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, ErrRenovationNotFound
		case errors.Is(err, db.ErrExpelled):
			return nil, ErrExpelled
		case errors.Is(err, db.ErrAlreadyParticipant):
			return nil, ErrAlreadyParticipant
		default:
			return nil, fmt.Errorf("failed to add participant to renovation %q: %w", id, err)
		}
	}

	s.bumpCounter(ctx, caller.UID, 1, id)
	return updated, nil
}

// RemoveParticipant handles both self-leave and creator expulsion. An
// expulsion (creator removing someone else) permanently blacklists the uid.
func (s *renovationService) RemoveParticipant(ctx context.Context, caller models.Caller, id, participantUID string) (*models.Renovation, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	selfLeave := caller.UID == participantUID
	byCreator := caller.UID == existing.CreatorUID
	if !selfLeave && !byCreator {
		return nil, ErrForbidden
	}
	isExpulsion := byCreator && !selfLeave

	updated, err := s.repo.RemoveParticipant(ctx, id, participantUID, isExpulsion)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrNotFound):
			return nil, ErrRenovationNotFound
		case errors.Is(err, db.ErrNotParticipant):
			return nil, ErrParticipantNotFound
		default:
			return nil, fmt.Errorf("failed to remove participant from renovation %q: %w", id, err)
		}
	}

	s.bumpCounter(ctx, participantUID, -1, id)
	return updated, nil
}

// AnonymizeByCreator rewrites the creator identity to the platform sentinel
// on every renovation owned by uid. Called by the user-deletion workflow.
func (s *renovationService) AnonymizeByCreator(ctx context.Context, uid string) (int, error) {
	count, err := s.repo.AnonymizeByCreator(ctx, uid)
	if err != nil {
		return count, fmt.Errorf("failed to anonymize renovations of user %q: %w", uid, err)
	}
	return count, nil
}

// PurgeUserFromParticipations removes uid from every roster. Expulsion
// records survive the purge.
func (s *renovationService) PurgeUserFromParticipations(ctx context.Context, uid string) (int, error) {
	count, err := s.repo.PurgeUserFromParticipations(ctx, uid)
	if err != nil {
		return count, fmt.Errorf("failed to purge participations of user %q: %w", uid, err)
	}
	return count, nil
}

// validatePatch checks the patched fields. Date rules: a patched pair must
// satisfy ini < fin; a patched ini_date must additionally not be in the past.
// An untouched ini_date of an already started renovation stays valid.
func (s *renovationService) validatePatch(req *models.UpdateRenovationRequest, existing *models.Renovation) error {
	fields := map[string]string{}

	if req.IniDate != nil && !clock.ValidDate(*req.IniDate) {
		fields["ini_date"] = "ini_date must be a YYYY-MM-DD date"
	}
	if req.FinDate != nil && !clock.ValidDate(*req.FinDate) {
		fields["fin_date"] = "fin_date must be a YYYY-MM-DD date"
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		fields["description"] = "description must not be empty"
	}
	if req.GroupLink != nil && !models.ValidAbsoluteURL(*req.GroupLink) {
		fields["group_link"] = "group_link must be an absolute URL"
	}

	if len(fields) == 0 && (req.IniDate != nil || req.FinDate != nil) {
		ini, fin := existing.IniDate, existing.FinDate
		if req.IniDate != nil {
			ini = *req.IniDate
		}
		if req.FinDate != nil {
			fin = *req.FinDate
		}
		if ini >= fin {
			fields["ini_date"] = "ini_date must be strictly before fin_date"
		}
		if req.IniDate != nil && *req.IniDate < s.clock.Today() {
			fields["ini_date"] = "ini_date must not be in the past"
		}
	}

	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// bumpCounter updates a user's participation counter. Counter state is
// eventually consistent: a failure is logged and swallowed, never rolled
// back into the primary write.
func (s *renovationService) bumpCounter(ctx context.Context, uid string, delta int, renovationID string) {
	if err := s.counter.IncrementParticipations(ctx, uid, delta); err != nil {
		s.logger.Warn("Participation counter update failed",
			zap.String("uid", uid),
			zap.Int("delta", delta),
			zap.String("renovation_id", renovationID),
			zap.Error(err))
	}
}
