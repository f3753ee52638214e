package auth

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/domain/user"
	"github.com/khoahotran/fittrack/pkg/auth"
	"github.com/khoahotran/fittrack/pkg/logger"
)

const minPasswordLength = 6

// RegisterUseCase is the account service consumed by onboarding completion.
type RegisterUseCase struct {
	userRepo user.Repository
	logger   logger.Logger
	hash     func(string) (string, error)
	now      func() time.Time
}

func NewRegisterUseCase(repo user.Repository, log logger.Logger) *RegisterUseCase {
	return &RegisterUseCase{
		userRepo: repo,
		logger:   log,
		hash:     auth.HashPassword,
		now:      time.Now,
	}
}

func (uc *RegisterUseCase) CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error) {
	ctx, span := tracer.Start(ctx, "CreateAccount")
	defer span.End()

	normalized := user.NormalizeEmail(email)
	if normalized == "" {
		return uuid.Nil, user.NewAccountError(user.FailureInvalidEmail, "invalid email address", nil)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return uuid.Nil, user.NewAccountError(user.FailureWeakPassword, "password should be at least 6 characters", nil)
	}

	hash, err := uc.hash(password)
	if err != nil {
		span.RecordError(err)
		return uuid.Nil, user.NewAccountError(user.FailureOther, "", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        normalized,
		PasswordHash: hash,
		CreatedAt:    uc.now().UTC(),
	}
	if err := uc.userRepo.Create(ctx, u); err != nil {
		span.RecordError(err)
		if errors.Is(err, user.ErrEmailTaken) {
			return uuid.Nil, user.NewAccountError(user.FailureEmailInUse, "email already registered", err)
		}
		uc.logger.Error("Failed to create account", err, zap.String("email", normalized))
		return uuid.Nil, user.NewAccountError(user.FailureOther, "", err)
	}

	span.SetAttributes(attribute.String("user_id", u.ID.String()))
	uc.logger.Info("Account created", zap.String("user_id", u.ID.String()))
	return u.ID, nil
}
