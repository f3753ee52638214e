package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/application/service"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/internal/domain/user"
	"github.com/khoahotran/fittrack/pkg/apperror"
)

// ErrCompletionInProgress maps to 409 through apperror.ToHTTPStatus.
var ErrCompletionInProgress = apperror.NewAppError(apperror.ErrConflict, "Onboarding completion already in progress", "", nil)

const (
	MsgEmailInUse     = "This email address is already in use."
	MsgWeakPassword   = "Password is too weak."
	MsgInvalidEmail   = "The email address is not valid."
	MsgAccountGeneric = "Failed to create account. Please try again."
)

// Completion is what a successful final step produces.
type Completion struct {
	User       user.CurrentUser
	Profile    profile.Profile
	RedirectTo string
}

// AccountErrorMessage maps an account-service failure onto the text shown to the user.
func AccountErrorMessage(err error) string {
	switch user.KindOf(err) {
	case user.FailureEmailInUse:
		return MsgEmailInUse
	case user.FailureWeakPassword:
		return MsgWeakPassword
	case user.FailureInvalidEmail:
		return MsgInvalidEmail
	}
	var accErr *user.AccountError
	if errors.As(err, &accErr) && accErr.Message != "" {
		return accErr.Message
	}
	return MsgAccountGeneric
}

// Complete validates the whole form, creates the account and stores the profile.
// Nothing is written or cleared unless every step before it succeeded.
func (w *Wizard) Complete(ctx context.Context) (*Completion, error) {
	ctx, span := tracer.Start(ctx, "Complete")
	defer span.End()

	now := w.svc.clock()

	validated, err := w.validate(ctx, now)
	if err != nil {
		return nil, err
	}

	if locker, ok := w.store.(onboarding.Locker); ok {
		release, acquired, err := locker.TryLock(ctx, onboarding.KeyCompleting, w.svc.lockTTL)
		if err != nil {
			span.RecordError(err)
			return nil, apperror.NewInternal("failed to lock onboarding completion", err)
		}
		if !acquired {
			w.notify(ctx, "Sign-up in progress", "Your account is already being created.", service.SeverityInfo)
			return nil, ErrCompletionInProgress
		}
		defer release()
	}

	// A request that held the lock before us may have completed and cleared the session.
	if !w.forms.started(ctx) {
		w.logger.Info("Onboarding already completed by another request")
		w.notify(ctx, "Sign-up in progress", "Your account has already been created.", service.SeverityInfo)
		return nil, ErrCompletionInProgress
	}
	if fresh := w.forms.loadForm(ctx); fresh != w.form {
		w.form = fresh
		if validated, err = w.validate(ctx, now); err != nil {
			return nil, err
		}
	}

	userID, err := w.svc.accounts.CreateAccount(ctx, validated.Email, validated.Password)
	if err != nil {
		span.RecordError(err)
		w.logger.Warn("Account creation failed", zap.String("kind", string(user.KindOf(err))), zap.Error(err))
		msg := AccountErrorMessage(err)
		w.notify(ctx, "Sign-up failed", msg, service.SeverityError)
		return nil, apperror.NewUnprocessable(msg, err)
	}
	span.SetAttributes(attribute.String("user_id", userID.String()))

	p := profile.Profile{
		UserID:       userID,
		Name:         validated.Name,
		Email:        accountEmail(validated.Email),
		DateOfBirth:  validated.DateOfBirth.Format(profile.DateLayout),
		Age:          validated.Age,
		HeightFeet:   validated.HeightFeet,
		HeightInches: validated.HeightInches,
		WeightPounds: validated.WeightPounds,
		FitnessGoal:  profile.DefaultGoal,
		UpdatedAt:    now.UTC(),
	}
	current := user.CurrentUser{ID: userID, Email: p.Email}

	if err := w.forms.putJSON(ctx, onboarding.KeyProfile, p); err != nil {
		w.logger.Error("Account created but profile not stored", err, zap.String("user_id", userID.String()))
		return nil, err
	}
	if err := w.forms.putJSON(ctx, onboarding.KeyCurrentUser, current); err != nil {
		w.logger.Error("Account created but current user not stored", err, zap.String("user_id", userID.String()))
		return nil, err
	}
	if err := w.forms.clearWorking(ctx); err != nil {
		return nil, err
	}

	w.form = onboarding.FormData{}
	w.position = onboarding.StepSignup

	w.notify(ctx, "Account created", fmt.Sprintf("Welcome, %s!", p.Name), service.SeveritySuccess)
	w.nav.Replace(w.svc.paths.Home)
	w.logger.Info("Onboarding completed", zap.String("user_id", userID.String()))

	w.publishCompleted(ctx, current, p)

	return &Completion{User: current, Profile: p, RedirectTo: w.svc.paths.Home}, nil
}

func (w *Wizard) validate(ctx context.Context, now time.Time) (*Validated, error) {
	validated, err := Validate(w.form, now)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("validation_rule", string(vErr.Rule)))
			w.notify(ctx, vErr.Title, vErr.Description, service.SeverityError)
			return nil, apperror.NewUnprocessable(vErr.Title, err)
		}
		return nil, err
	}
	return validated, nil
}

// accountEmail is the address as the account service stores it.
func accountEmail(email string) string {
	if normalized := user.NormalizeEmail(email); normalized != "" {
		return normalized
	}
	return email
}

func (w *Wizard) publishCompleted(ctx context.Context, current user.CurrentUser, p profile.Profile) {
	if w.svc.publisher == nil {
		return
	}
	evt := onboarding.CompletedEvent{
		EventType:   onboarding.EventTypeCompleted,
		UserID:      current.ID,
		Email:       current.Email,
		Profile:     p,
		CompletedAt: p.UpdatedAt,
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := w.svc.publisher.PublishOnboardingCompleted(bg, evt); err != nil {
			w.logger.Error("Failed to publish onboarding completed event", err, zap.String("user_id", current.ID.String()))
		}
	}()
}

func (w *Wizard) notify(ctx context.Context, title, description string, severity service.Severity) {
	if w.notifier == nil {
		return
	}
	w.notifier.Notify(ctx, service.Notification{Title: title, Description: description, Severity: severity})
}
