package onboarding

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/fittrack/internal/domain/profile"
)

const EventTypeCompleted = "onboarding.completed"

type CompletedEvent struct {
	EventType   string          `json:"event_type"`
	UserID      uuid.UUID       `json:"user_id"`
	Email       string          `json:"email"`
	Profile     profile.Profile `json:"profile"`
	CompletedAt time.Time       `json:"completed_at"`
}
