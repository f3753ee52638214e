package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Goal string

const (
	GoalLose     Goal = "Lose"
	GoalMaintain Goal = "Maintain"
	GoalGain     Goal = "Gain"
)

const DefaultGoal = GoalMaintain

const DateLayout = "2006-01-02"

var ErrInvalidGoal = errors.New("fitness goal must be one of Lose, Maintain, Gain")

func ParseGoal(raw string) (Goal, error) {
	switch g := Goal(raw); g {
	case GoalLose, GoalMaintain, GoalGain:
		return g, nil
	}
	return "", ErrInvalidGoal
}

// Profile is the durable result of onboarding. It outlives the wizard's working data.
type Profile struct {
	UserID       uuid.UUID `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DateOfBirth  string    `json:"dateOfBirth"`
	Age          int       `json:"age"`
	HeightFeet   int       `json:"heightFeet"`
	HeightInches int       `json:"heightInches"`
	WeightPounds float64   `json:"weightPounds"`
	FitnessGoal  Goal      `json:"fitnessGoal"`
	AvatarURL    *string   `json:"avatarUrl,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BirthDate parses DateOfBirth; the zero time is returned for an empty or malformed value.
func (p *Profile) BirthDate() time.Time {
	t, err := time.Parse(DateLayout, p.DateOfBirth)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RefreshAge recomputes Age against now.
func (p *Profile) RefreshAge(now time.Time) {
	if dob := p.BirthDate(); !dob.IsZero() {
		p.Age = AgeOn(dob, now)
	}
}

// AgeOn returns the number of whole years between dob and now.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	// ClearAvatar unsets avatar_url; Upsert never clears it.
	ClearAvatar(ctx context.Context, userID uuid.UUID) error
}
