package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"refugios-backend-go/internal/cache"
	"refugios-backend-go/internal/models"
)

const renovationsCollection = "renovations"

// rosterTxMaxAttempts bounds retries of the participant read-modify-write
// transactions on contention.
const rosterTxMaxAttempts = 3

// firestoreRenovationRepository implements RenovationRepository on Firestore
// with a cache-aside layer: reads consult the cache first, every write
// invalidates the detail key plus the list and refuge prefixes.
type firestoreRenovationRepository struct {
	client    *firestore.Client
	cache     cache.Cache
	logger    *zap.Logger
	detailTTL time.Duration
	listTTL   time.Duration
}

// NewFirestoreRenovationRepository creates a RenovationRepository backed by
// Firestore and the given cache.
func NewFirestoreRenovationRepository(
	client *firestore.Client,
	c cache.Cache,
	logger *zap.Logger,
	detailTTL, listTTL time.Duration,
) RenovationRepository {
	if detailTTL <= 0 {
		detailTTL = cache.DefaultDetailTTL
	}
	if listTTL <= 0 {
		listTTL = cache.DefaultListTTL
	}
	return &firestoreRenovationRepository{
		client:    client,
		cache:     c,
		logger:    logger,
		detailTTL: detailTTL,
		listTTL:   listTTL,
	}
}

// Create persists the full document, including the empty rosters, and
// invalidates the list and refuge caches.
func (r *firestoreRenovationRepository) Create(ctx context.Context, renovation *models.Renovation) (string, error) {
	if renovation.ParticipantsUID == nil {
		renovation.ParticipantsUID = []string{}
	}
	if renovation.ExpelledUID == nil {
		renovation.ExpelledUID = []string{}
	}

	docRef := r.client.Collection(renovationsCollection).NewDoc()
	renovation.ID = docRef.ID

	if _, err := docRef.Create(ctx, renovation); err != nil {
		return "", fmt.Errorf("failed to create renovation: %w", err)
	}

	if err := r.invalidate(ctx, renovation.ID, renovation.RefugeID); err != nil {
		return "", err
	}
	return docRef.ID, nil
}

// GetByID is cache-first with store fallback; misses populate the cache.
func (r *firestoreRenovationRepository) GetByID(ctx context.Context, id string) (*models.Renovation, error) {
	key := cache.RenovationDetailKey(id)
	if cached, ok := r.cacheGet(ctx, key); ok {
		var renovation models.Renovation
		if err := json.Unmarshal([]byte(cached), &renovation); err == nil {
			return &renovation, nil
		}
		// Undecodable entry: drop it and fall through to the store.
		_ = r.cache.Delete(ctx, key)
	}

	renovation, err := r.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cachePut(ctx, key, renovation, r.detailTTL)
	return renovation, nil
}

// ListActive returns renovations with iniDate >= today ordered ascending.
// The cache key embeds today's date so entries retire at midnight.
func (r *firestoreRenovationRepository) ListActive(ctx context.Context, today string) ([]*models.Renovation, error) {
	key := cache.ActiveListKey(today)
	if cached, ok := r.cacheGet(ctx, key); ok {
		var list []*models.Renovation
		if err := json.Unmarshal([]byte(cached), &list); err == nil {
			return list, nil
		}
		_ = r.cache.Delete(ctx, key)
	}

	query := r.client.Collection(renovationsCollection).
		Where("iniDate", ">=", today).
		OrderBy("iniDate", firestore.Asc)
	list, err := r.runQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active renovations: %w", err)
	}
	r.cachePut(ctx, key, list, r.listTTL)
	return list, nil
}

// ListByRefuge returns the refuge's renovations, optionally only active ones.
func (r *firestoreRenovationRepository) ListByRefuge(ctx context.Context, refugeID string, activeOnly bool, today string) ([]*models.Renovation, error) {
	key := cache.RefugeListKey(refugeID, activeOnly)
	if cached, ok := r.cacheGet(ctx, key); ok {
		var list []*models.Renovation
		if err := json.Unmarshal([]byte(cached), &list); err == nil {
			return list, nil
		}
		_ = r.cache.Delete(ctx, key)
	}

	list, err := r.queryRefuge(ctx, refugeID, activeOnly, today)
	if err != nil {
		return nil, err
	}
	r.cachePut(ctx, key, list, r.listTTL)
	return list, nil
}

// CheckOverlap probes the store directly (never the cache) so the advisory
// answer is as fresh as a single query allows.
func (r *firestoreRenovationRepository) CheckOverlap(ctx context.Context, refugeID, ini, fin, excludeID, today string) (*models.Renovation, error) {
	candidates, err := r.queryRefuge(ctx, refugeID, true, today)
	if err != nil {
		return nil, err
	}
	for _, candidate := range candidates {
		if candidate.ID == excludeID {
			continue
		}
		if candidate.OverlapsRange(ini, fin) {
			return candidate, nil
		}
	}
	return nil, nil
}

// Update applies a field-level patch and invalidates all affected cache keys.
func (r *firestoreRenovationRepository) Update(ctx context.Context, id, refugeID string, patch *models.UpdateRenovationRequest) error {
	updates := []firestore.Update{
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	}
	if patch.IniDate != nil {
		updates = append(updates, firestore.Update{Path: "iniDate", Value: *patch.IniDate})
	}
	if patch.FinDate != nil {
		updates = append(updates, firestore.Update{Path: "finDate", Value: *patch.FinDate})
	}
	if patch.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *patch.Description})
	}
	if patch.MaterialsNeeded != nil {
		updates = append(updates, firestore.Update{Path: "materialsNeeded", Value: *patch.MaterialsNeeded})
	}
	if patch.GroupLink != nil {
		updates = append(updates, firestore.Update{Path: "groupLink", Value: *patch.GroupLink})
	}

	if _, err := r.client.Collection(renovationsCollection).Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update renovation %q: %w", id, err)
	}
	return r.invalidate(ctx, id, refugeID)
}

// Delete removes the document and returns its prior state for counter
// rebalancing.
func (r *firestoreRenovationRepository) Delete(ctx context.Context, id string) (*models.Renovation, error) {
	prior, err := r.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := r.client.Collection(renovationsCollection).Doc(id).Delete(ctx); err != nil {
		return nil, fmt.Errorf("failed to delete renovation %q: %w", id, err)
	}
	if err := r.invalidate(ctx, id, prior.RefugeID); err != nil {
		return nil, err
	}
	return prior, nil
}

// AddParticipant appends uid to the roster inside a transaction. Rejections:
// ErrNotFound, ErrExpelled, ErrAlreadyParticipant.
func (r *firestoreRenovationRepository) AddParticipant(ctx context.Context, id, uid string) (*models.Renovation, error) {
	docRef := r.client.Collection(renovationsCollection).Doc(id)
	var result *models.Renovation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		renovation, err := snapToRenovation(snap)
		if err != nil {
			return err
		}
		if renovation.IsExpelled(uid) {
			return ErrExpelled
		}
		if renovation.HasParticipant(uid) {
			return ErrAlreadyParticipant
		}
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "participantsUids", Value: firestore.ArrayUnion(uid)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}); err != nil {
			return err
		}
		renovation.ParticipantsUID = append(renovation.ParticipantsUID, uid)
		result = renovation
		return nil
	}, firestore.MaxAttempts(rosterTxMaxAttempts))
	if err != nil {
		return nil, err
	}

	if err := r.invalidate(ctx, id, result.RefugeID); err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveParticipant takes uid off the roster; an expulsion additionally
// records the uid in expelledUids atomically with the removal.
func (r *firestoreRenovationRepository) RemoveParticipant(ctx context.Context, id, uid string, expulsion bool) (*models.Renovation, error) {
	docRef := r.client.Collection(renovationsCollection).Doc(id)
	var result *models.Renovation

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return ErrNotFound
			}
			return err
		}
		renovation, err := snapToRenovation(snap)
		if err != nil {
			return err
		}
		if !renovation.HasParticipant(uid) {
			return ErrNotParticipant
		}
		updates := []firestore.Update{
			{Path: "participantsUids", Value: firestore.ArrayRemove(uid)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		}
		if expulsion {
			updates = append(updates, firestore.Update{Path: "expelledUids", Value: firestore.ArrayUnion(uid)})
		}
		if err := tx.Update(docRef, updates); err != nil {
			return err
		}

		remaining := make([]string, 0, len(renovation.ParticipantsUID))
		for _, p := range renovation.ParticipantsUID {
			if p != uid {
				remaining = append(remaining, p)
			}
		}
		renovation.ParticipantsUID = remaining
		if expulsion && !renovation.IsExpelled(uid) {
			renovation.ExpelledUID = append(renovation.ExpelledUID, uid)
		}
		result = renovation
		return nil
	}, firestore.MaxAttempts(rosterTxMaxAttempts))
	if err != nil {
		return nil, err
	}

	if err := r.invalidate(ctx, id, result.RefugeID); err != nil {
		return nil, err
	}
	return result, nil
}

// AnonymizeByCreator rewrites creatorUid to the platform sentinel on every
// renovation owned by uid. Documents are kept; participants are unaffected.
func (r *firestoreRenovationRepository) AnonymizeByCreator(ctx context.Context, uid string) (int, error) {
	query := r.client.Collection(renovationsCollection).Where("creatorUid", "==", uid)
	owned, err := r.runQuery(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query renovations of creator %q: %w", uid, err)
	}

	count := 0
	for _, renovation := range owned {
		_, err := r.client.Collection(renovationsCollection).Doc(renovation.ID).Update(ctx, []firestore.Update{
			{Path: "creatorUid", Value: models.AnonymizedCreatorUID},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
		if err != nil {
			return count, fmt.Errorf("failed to anonymize renovation %q: %w", renovation.ID, err)
		}
		if err := r.invalidate(ctx, renovation.ID, renovation.RefugeID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// PurgeUserFromParticipations drops uid from every roster it appears on.
// expelledUids is deliberately left untouched.
func (r *firestoreRenovationRepository) PurgeUserFromParticipations(ctx context.Context, uid string) (int, error) {
	query := r.client.Collection(renovationsCollection).Where("participantsUids", "array-contains", uid)
	joined, err := r.runQuery(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to query participations of user %q: %w", uid, err)
	}

	count := 0
	for _, renovation := range joined {
		_, err := r.client.Collection(renovationsCollection).Doc(renovation.ID).Update(ctx, []firestore.Update{
			{Path: "participantsUids", Value: firestore.ArrayRemove(uid)},
			{Path: "updatedAt", Value: firestore.ServerTimestamp},
		})
		if err != nil {
			return count, fmt.Errorf("failed to purge user %q from renovation %q: %w", uid, renovation.ID, err)
		}
		if err := r.invalidate(ctx, renovation.ID, renovation.RefugeID); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// fetch reads one document from the store, bypassing the cache.
func (r *firestoreRenovationRepository) fetch(ctx context.Context, id string) (*models.Renovation, error) {
	snap, err := r.client.Collection(renovationsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get renovation %q: %w", id, err)
	}
	return snapToRenovation(snap)
}

// queryRefuge runs the (refugeId, iniDate) composite-index query.
func (r *firestoreRenovationRepository) queryRefuge(ctx context.Context, refugeID string, activeOnly bool, today string) ([]*models.Renovation, error) {
	query := r.client.Collection(renovationsCollection).Where("refugeId", "==", refugeID)
	if activeOnly {
		query = query.Where("iniDate", ">=", today)
	}
	list, err := r.runQuery(ctx, query.OrderBy("iniDate", firestore.Asc))
	if err != nil {
		return nil, fmt.Errorf("failed to list renovations for refuge %q: %w", refugeID, err)
	}
	return list, nil
}

func (r *firestoreRenovationRepository) runQuery(ctx context.Context, query firestore.Query) ([]*models.Renovation, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	list := []*models.Renovation{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		renovation, err := snapToRenovation(snap)
		if err != nil {
			r.logger.Warn("Skipping undecodable renovation document",
				zap.String("doc_id", snap.Ref.ID), zap.Error(err))
			continue
		}
		list = append(list, renovation)
	}
	return list, nil
}

// invalidate drops the detail key plus the list and refuge prefixes. Every
// mutation path must go through here before reporting success.
func (r *firestoreRenovationRepository) invalidate(ctx context.Context, id, refugeID string) error {
	if err := r.cache.Delete(ctx, cache.RenovationDetailKey(id)); err != nil {
		return fmt.Errorf("failed to invalidate detail cache for %q: %w", id, err)
	}
	if err := r.cache.DeleteByPrefix(ctx, cache.ListPrefix()); err != nil {
		return fmt.Errorf("failed to invalidate list cache: %w", err)
	}
	if err := r.cache.DeleteByPrefix(ctx, cache.RefugePrefix(refugeID)); err != nil {
		return fmt.Errorf("failed to invalidate refuge cache for %q: %w", refugeID, err)
	}
	return nil
}

func (r *firestoreRenovationRepository) cacheGet(ctx context.Context, key string) (string, bool) {
	val, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		// A broken cache degrades to store reads; it never fails the request.
		r.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return val, ok
}

func (r *firestoreRenovationRepository) cachePut(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	encoded, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := r.cache.Set(ctx, key, string(encoded), ttl); err != nil {
		r.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func snapToRenovation(snap *firestore.DocumentSnapshot) (*models.Renovation, error) {
	var renovation models.Renovation
	if err := snap.DataTo(&renovation); err != nil {
		return nil, fmt.Errorf("failed to decode renovation %q: %w", snap.Ref.ID, err)
	}
	renovation.ID = snap.Ref.ID
	if renovation.ParticipantsUID == nil {
		renovation.ParticipantsUID = []string{}
	}
	if renovation.ExpelledUID == nil {
		renovation.ExpelledUID = []string{}
	}
	return &renovation, nil
}
