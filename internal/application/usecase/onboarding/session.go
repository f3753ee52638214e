package onboarding

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/internal/domain/user"
	"github.com/khoahotran/fittrack/pkg/logger"
)

// SessionState is a read-only view of everything a session has persisted.
type SessionState struct {
	SessionID   string              `json:"sessionId"`
	Step        *int                `json:"step,omitempty"`
	Started     bool                `json:"started"`
	FormData    onboarding.FormData `json:"formData"`
	Profile     *profile.Profile    `json:"profile,omitempty"`
	CurrentUser *user.CurrentUser   `json:"currentUser,omitempty"`
}

// Inspect loads a session without touching it. Malformed values are reported as absent.
func (s *Service) Inspect(ctx context.Context, sessionID string) (*SessionState, error) {
	log := s.logger.With(zap.String("session_id", sessionID))
	store := s.stores.ForSession(sessionID)
	forms := formStore{store: store, logger: log}

	state := &SessionState{
		SessionID: sessionID,
		Started:   forms.started(ctx),
		FormData:  forms.loadForm(ctx).Redacted(),
	}

	if raw, ok, err := store.Get(ctx, onboarding.KeyStep); err != nil {
		return nil, err
	} else if ok {
		if n, err := strconv.Atoi(raw); err == nil {
			state.Step = &n
		}
	}

	var p profile.Profile
	if s.readJSON(ctx, store, log, onboarding.KeyProfile, &p) {
		p.RefreshAge(s.clock())
		state.Profile = &p
	}
	var cu user.CurrentUser
	if s.readJSON(ctx, store, log, onboarding.KeyCurrentUser, &cu) {
		state.CurrentUser = &cu
	}
	return state, nil
}

// Reset removes the working keys of a session, as abandoning from step 1 would.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	forms := formStore{store: s.stores.ForSession(sessionID), logger: s.logger}
	return forms.clearWorking(ctx)
}

func (s *Service) readJSON(ctx context.Context, store onboarding.Store, log logger.Logger, key string, v any) bool {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Warn("Failed to read session key", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		log.Warn("Malformed session value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
