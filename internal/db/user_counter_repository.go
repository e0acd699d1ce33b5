package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const usersCollection = "users"

// participationsField is the per-user counter of renovations the user
// currently appears in as creator or participant. The user profile document
// itself is owned by the external user component; this adapter only touches
// the counter field.
const participationsField = "participatedRenovations"

// firestoreUserCounterRepository implements UserCounterRepository on the
// users collection.
type firestoreUserCounterRepository struct {
	client *firestore.Client
}

// NewFirestoreUserCounterRepository creates a UserCounterRepository backed by
// Firestore.
func NewFirestoreUserCounterRepository(client *firestore.Client) UserCounterRepository {
	return &firestoreUserCounterRepository{client: client}
}

// IncrementParticipations adds delta to the user's counter atomically. A
// missing user document gets the field seeded with delta; the rest of the
// profile is left for the user component to fill in.
func (r *firestoreUserCounterRepository) IncrementParticipations(ctx context.Context, uid string, delta int) error {
	docRef := r.client.Collection(usersCollection).Doc(uid)
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: participationsField, Value: firestore.Increment(delta)},
	})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to increment counter for user %q: %w", uid, err)
	}

	_, err = docRef.Set(ctx, map[string]interface{}{participationsField: delta}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to seed counter for user %q: %w", uid, err)
	}
	return nil
}
