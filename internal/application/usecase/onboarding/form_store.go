package onboarding

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/logger"
)

// formStore reads and writes the wizard's working keys. Read failures never surface:
// they are logged and treated as "no prior data".
type formStore struct {
	store  onboarding.Store
	logger logger.Logger
}

func (s formStore) loadForm(ctx context.Context) onboarding.FormData {
	var form onboarding.FormData

	raw, ok, err := s.store.Get(ctx, onboarding.KeyFormData)
	if err != nil {
		s.logger.Warn("Failed to read onboarding form data", zap.String("key", onboarding.KeyFormData), zap.Error(err))
		return form
	}
	if !ok || raw == "" {
		return form
	}

	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		s.logger.Warn("Malformed onboarding form data, starting empty", zap.String("key", onboarding.KeyFormData), zap.Error(err))
		return onboarding.FormData{}
	}
	return form
}

func (s formStore) saveForm(ctx context.Context, form onboarding.FormData) error {
	b, err := json.Marshal(form)
	if err != nil {
		return apperror.NewInternal("failed to marshal onboarding form", err)
	}
	if err := s.store.Set(ctx, onboarding.KeyFormData, string(b)); err != nil {
		return apperror.NewInternal("failed to persist onboarding form", err)
	}
	return nil
}

func (s formStore) saveStep(ctx context.Context, step onboarding.Step) error {
	if err := s.store.Set(ctx, onboarding.KeyStep, strconv.Itoa(int(step))); err != nil {
		return apperror.NewInternal("failed to persist onboarding step", err)
	}
	return nil
}

func (s formStore) saveStartedMarker(ctx context.Context, email string) error {
	if err := s.store.Set(ctx, onboarding.KeyEmail, email); err != nil {
		return apperror.NewInternal("failed to persist onboarding marker", err)
	}
	return nil
}

func (s formStore) started(ctx context.Context) bool {
	email, ok, err := s.store.Get(ctx, onboarding.KeyEmail)
	if err != nil {
		s.logger.Warn("Failed to read onboarding marker", zap.String("key", onboarding.KeyEmail), zap.Error(err))
		return false
	}
	return ok && email != ""
}

func (s formStore) clearWorking(ctx context.Context) error {
	if err := s.store.Remove(ctx, onboarding.WorkingKeys...); err != nil {
		return apperror.NewInternal("failed to clear onboarding state", err)
	}
	return nil
}

func (s formStore) putJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return apperror.NewInternal("failed to marshal "+key, err)
	}
	if err := s.store.Set(ctx, key, string(b)); err != nil {
		return apperror.NewInternal("failed to persist "+key, err)
	}
	return nil
}
