package onboarding

import (
	"context"
	"time"
)

// Keys persisted in the session store.
const (
	KeyStep        = "onboardingStep"
	KeyEmail       = "onboardingEmail"
	KeyFormData    = "onboardingFormData"
	KeyProfile     = "userProfile"
	KeyCurrentUser = "currentUser"
	KeyCompleting  = "onboardingCompleting"
)

// WorkingKeys are cleared on abandon and on successful completion.
var WorkingKeys = []string{KeyStep, KeyEmail, KeyFormData}

// Store is a string key-value store scoped to one browser session.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

// Locker is implemented by stores that can hold a short-lived exclusive lock.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// StoreProvider opens the store belonging to a session id.
type StoreProvider interface {
	ForSession(sessionID string) Store
}
