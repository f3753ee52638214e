package profile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/pkg/logger"
)

// SyncProfileUseCase copies the profile produced by onboarding into the server-side store.
type SyncProfileUseCase struct {
	profileRepo profile.Repository
	logger      logger.Logger
}

func NewSyncProfileUseCase(repo profile.Repository, log logger.Logger) *SyncProfileUseCase {
	return &SyncProfileUseCase{profileRepo: repo, logger: log}
}

func (uc *SyncProfileUseCase) Execute(ctx context.Context, evt onboarding.CompletedEvent) error {
	if evt.EventType != onboarding.EventTypeCompleted {
		uc.logger.Warn("Skipping unknown onboarding event", zap.String("event_type", evt.EventType))
		return nil
	}

	p := evt.Profile
	p.UserID = evt.UserID
	if p.Email == "" {
		p.Email = evt.Email
	}
	if p.FitnessGoal == "" {
		p.FitnessGoal = profile.DefaultGoal
	}

	if err := uc.profileRepo.Upsert(ctx, &p); err != nil {
		return fmt.Errorf("sync profile %s: %w", evt.UserID, err)
	}
	uc.logger.Info("Profile synced", zap.String("user_id", evt.UserID.String()))
	return nil
}
