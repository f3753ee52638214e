package http

import (
	"time"

	"github.com/khoahotran/fittrack/internal/application/service"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/internal/domain/user"
)

// Onboarding DTOs

type OnboardingStateDTO struct {
	Step          int                    `json:"step"`
	StepName      string                 `json:"stepName"`
	TotalSteps    int                    `json:"totalSteps"`
	Location      string                 `json:"location"`
	Redirect      bool                   `json:"redirect"`
	FormData      onboarding.FormData    `json:"formData"`
	Notifications []service.Notification `json:"notifications"`
	Completed     bool                   `json:"completed"`
	Error         string                 `json:"error,omitempty"`
	User          *user.CurrentUser      `json:"user,omitempty"`
	Profile       *ProfileDTO            `json:"profile,omitempty"`
	AccessToken   string                 `json:"accessToken,omitempty"`
}

type UpdateFieldsRequest struct {
	Field  string            `json:"field"`
	Value  string            `json:"value"`
	Fields map[string]string `json:"fields"`
}

// Auth DTOs

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Profile DTOs

type ProfileDTO struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	DateOfBirth  string    `json:"dateOfBirth"`
	Age          int       `json:"age"`
	HeightFeet   int       `json:"heightFeet"`
	HeightInches int       `json:"heightInches"`
	WeightPounds float64   `json:"weightPounds"`
	FitnessGoal  string    `json:"fitnessGoal"`
	AvatarURL    *string   `json:"avatarUrl,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UpdateProfileRequest struct {
	Name         string `json:"name"`
	HeightFeet   string `json:"heightFeet"`
	HeightInches string `json:"heightInches"`
	WeightPounds string `json:"weightPounds"`
	FitnessGoal  string `json:"fitnessGoal" binding:"omitempty,oneof=Lose Maintain Gain"`
}

func ToProfileDTO(p *profile.Profile) ProfileDTO {
	return ProfileDTO{
		UserID:       p.UserID.String(),
		Name:         p.Name,
		Email:        p.Email,
		DateOfBirth:  p.DateOfBirth,
		Age:          p.Age,
		HeightFeet:   p.HeightFeet,
		HeightInches: p.HeightInches,
		WeightPounds: p.WeightPounds,
		FitnessGoal:  string(p.FitnessGoal),
		AvatarURL:    p.AvatarURL,
		UpdatedAt:    p.UpdatedAt,
	}
}
