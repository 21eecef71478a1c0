package presence

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	onlineTTL       = 300 * time.Second
	availabilityTTL = 3600 * time.Second
)

// Store is the ephemeral key-value collaborator backing presence
// records. Implementations must expire keys after the given TTL.
type Store interface {
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Tracker maintains short-lived liveness records per user. All
// operations are best-effort: a failing store degrades to a no-op with
// a logged warning and never surfaces an error to connection handling.
type Tracker struct {
	log             *log.Logger
	store           Store
	onlineTTL       time.Duration
	availabilityTTL time.Duration
}

func NewTracker(logger *log.Logger, store Store) *Tracker {
	return &Tracker{
		log:             logger,
		store:           store,
		onlineTTL:       onlineTTL,
		availabilityTTL: availabilityTTL,
	}
}

func onlineKey(userId int) string {
	return fmt.Sprintf("user:%d:online", userId)
}

func availabilityKey(userId int) string {
	return fmt.Sprintf("user:%d:available", userId)
}

// MarkOnline sets the user's liveness record. Re-invocation refreshes
// the TTL.
func (t *Tracker) MarkOnline(ctx context.Context, userId int) {
	if err := t.store.SetWithTTL(ctx, onlineKey(userId), "true", t.onlineTTL); err != nil {
		t.log.Printf("warning: mark online for user %d: %v", userId, err)
	}
}

// MarkOffline removes the liveness record immediately. Used on graceful
// disconnect; abrupt disconnects lapse via TTL instead.
func (t *Tracker) MarkOffline(ctx context.Context, userId int) {
	if err := t.store.Delete(ctx, onlineKey(userId)); err != nil {
		t.log.Printf("warning: mark offline for user %d: %v", userId, err)
	}
}

// SetAvailability records an arbitrary availability status token under
// a longer TTL. It does not touch the online record.
func (t *Tracker) SetAvailability(ctx context.Context, userId int, status string) {
	if err := t.store.SetWithTTL(ctx, availabilityKey(userId), status, t.availabilityTTL); err != nil {
		t.log.Printf("warning: set availability for user %d: %v", userId, err)
	}
}

// IsOnline reports whether a non-expired liveness record exists. An
// unreachable store reads as offline.
func (t *Tracker) IsOnline(ctx context.Context, userId int) bool {
	ok, err := t.store.Exists(ctx, onlineKey(userId))
	if err != nil {
		t.log.Printf("warning: presence lookup for user %d: %v", userId, err)
		return false
	}
	return ok
}
