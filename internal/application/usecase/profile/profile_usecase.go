package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	onboardingUC "github.com/khoahotran/fittrack/internal/application/usecase/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/pkg/apperror"
)

type ProfileUseCase struct {
	profileRepo profile.Repository
	now         func() time.Time
}

func NewProfileUseCase(repo profile.Repository) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: repo,
		now:         time.Now,
	}
}

type GetProfileInput struct {
	UserID uuid.UUID
}

type GetProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteGetProfile(ctx context.Context, input GetProfileInput) (*GetProfileOutput, error) {
	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("get profile failed: %w", err)
	}
	p.RefreshAge(uc.now())
	return &GetProfileOutput{Profile: p}, nil
}

// UpdateProfileInput carries raw strings for the body metrics so the same
// rules as onboarding completion apply. Empty fields are left unchanged.
type UpdateProfileInput struct {
	UserID       uuid.UUID
	Name         string
	HeightFeet   string
	HeightInches string
	WeightPounds string
	FitnessGoal  string
}

type UpdateProfileOutput struct {
	Profile *profile.Profile
}

func (uc *ProfileUseCase) ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput) (*UpdateProfileOutput, error) {
	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("update profile failed: %w", err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		p.Name = name
	}

	if input.HeightFeet != "" || input.HeightInches != "" {
		rawFeet, rawInches := input.HeightFeet, input.HeightInches
		if rawFeet == "" {
			rawFeet = fmt.Sprint(p.HeightFeet)
		}
		if rawInches == "" {
			rawInches = fmt.Sprint(p.HeightInches)
		}
		feet, inches, err := onboardingUC.ParseHeight(rawFeet, rawInches)
		if err != nil {
			return nil, apperror.NewUnprocessable(err.Error(), err)
		}
		p.HeightFeet, p.HeightInches = feet, inches
	}

	if input.WeightPounds != "" {
		weight, err := onboardingUC.ParseWeight(input.WeightPounds)
		if err != nil {
			return nil, apperror.NewUnprocessable(err.Error(), err)
		}
		p.WeightPounds = weight
	}

	if input.FitnessGoal != "" {
		goal, err := profile.ParseGoal(input.FitnessGoal)
		if err != nil {
			return nil, apperror.NewUnprocessable("invalid fitness goal", err)
		}
		p.FitnessGoal = goal
	}

	now := uc.now()
	p.UpdatedAt = now.UTC()
	p.RefreshAge(now)

	if err := uc.profileRepo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile failed: %w", err)
	}

	return &UpdateProfileOutput{Profile: p}, nil
}
