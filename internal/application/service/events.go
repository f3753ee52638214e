package service

import (
	"context"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
)

type EventPublisher interface {
	PublishOnboardingCompleted(ctx context.Context, event onboarding.CompletedEvent) error
}
