package onboarding

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/application/service"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/pkg/logger"
)

var tracer = otel.Tracer("onboarding_usecase")

// AccountCreator registers credentials and returns the new account id.
// Failures should be *user.AccountError so they map onto fixed messages.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password string) (uuid.UUID, error)
}

type Paths struct {
	Entry      string
	Home       string
	StepPrefix string
}

// ForStep is the canonical URL of a step.
func (p Paths) ForStep(step onboarding.Step) string {
	return strings.TrimSuffix(p.StepPrefix, "/") + "/" + step.String()
}

type Options struct {
	Paths          Paths
	CompletionLock time.Duration
	Clock          func() time.Time
}

// Service holds the collaborators shared by every session's wizard.
type Service struct {
	stores    onboarding.StoreProvider
	accounts  AccountCreator
	publisher service.EventPublisher
	logger    logger.Logger
	paths     Paths
	lockTTL   time.Duration
	clock     func() time.Time
}

func NewService(stores onboarding.StoreProvider, accounts AccountCreator, publisher service.EventPublisher, log logger.Logger, opts Options) *Service {
	if opts.Paths.Entry == "" {
		opts.Paths.Entry = "/"
	}
	if opts.Paths.Home == "" {
		opts.Paths.Home = "/dashboard"
	}
	if opts.Paths.StepPrefix == "" {
		opts.Paths.StepPrefix = "/onboarding"
	}
	if opts.CompletionLock <= 0 {
		opts.CompletionLock = 30 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		stores:    stores,
		accounts:  accounts,
		publisher: publisher,
		logger:    log,
		paths:     opts.Paths,
		lockTTL:   opts.CompletionLock,
		clock:     opts.Clock,
	}
}

func (s *Service) Paths() Paths { return s.paths }

// Open binds a wizard to one session. Call Mount before using it.
func (s *Service) Open(sessionID string, nav service.Navigator, notifier service.Notifier) *Wizard {
	log := s.logger.With(zap.String("session_id", sessionID))
	store := s.stores.ForSession(sessionID)
	return &Wizard{
		svc:      s,
		store:    store,
		forms:    formStore{store: store, logger: log},
		nav:      nav,
		notifier: notifier,
		logger:   log,
		position: onboarding.StepSignup,
	}
}

// Wizard is the per-session state machine: signup -> personal-info -> profile.
type Wizard struct {
	svc      *Service
	store    onboarding.Store
	forms    formStore
	nav      service.Navigator
	notifier service.Notifier
	logger   logger.Logger

	position onboarding.Step
	form     onboarding.FormData
}

func (w *Wizard) Position() onboarding.Step { return w.position }

func (w *Wizard) FormData() onboarding.FormData { return w.form }

// Mount restores persisted answers and reconciles the position with the URL segment.
func (w *Wizard) Mount(ctx context.Context, segment string) error {
	w.form = w.forms.loadForm(ctx)
	return w.SyncFromURL(ctx, segment)
}

// SyncFromURL is the URL -> state direction. A segment that does not name the resolved
// step (invalid, or guarded) is rewritten through the navigator.
func (w *Wizard) SyncFromURL(ctx context.Context, segment string) error {
	target := onboarding.ParseStep(segment)
	if target > onboarding.StepSignup && !w.forms.started(ctx) {
		w.logger.Debug("Onboarding not started, redirecting to first step", zap.Int("requested_step", int(target)))
		target = onboarding.StepSignup
	}

	w.position = target
	if err := w.forms.saveStep(ctx, target); err != nil {
		return err
	}

	if n, err := strconv.Atoi(strings.TrimSpace(segment)); err != nil || onboarding.Step(n) != target {
		w.nav.Replace(w.svc.paths.ForStep(target))
	}
	return nil
}

// SyncToURL is the state -> URL direction.
func (w *Wizard) SyncToURL(ctx context.Context) error {
	if err := w.forms.saveStep(ctx, w.position); err != nil {
		return err
	}
	w.nav.Replace(w.svc.paths.ForStep(w.position))
	return nil
}

func (w *Wizard) setPosition(ctx context.Context, step onboarding.Step) error {
	w.position = onboarding.Clamp(int(step))
	return w.SyncToURL(ctx)
}

// UpdateField stores one answer. Typing an email on the first step marks onboarding as started.
func (w *Wizard) UpdateField(ctx context.Context, field onboarding.Field, value string) error {
	if err := w.form.Set(field, value); err != nil {
		return err
	}
	if err := w.forms.saveForm(ctx, w.form); err != nil {
		return err
	}
	if field == onboarding.FieldEmail && w.position.IsFirst() {
		return w.forms.saveStartedMarker(ctx, value)
	}
	return nil
}

// Next advances one step. On the last step it completes onboarding instead.
func (w *Wizard) Next(ctx context.Context) (*Completion, error) {
	if w.position.IsLast() {
		return w.Complete(ctx)
	}
	return nil, w.setPosition(ctx, w.position+1)
}

// Back moves one step back; from the first step it abandons onboarding.
func (w *Wizard) Back(ctx context.Context) error {
	if w.position.IsFirst() {
		return w.Abandon(ctx)
	}
	return w.setPosition(ctx, w.position-1)
}

// Abandon wipes the working keys and leaves the wizard.
func (w *Wizard) Abandon(ctx context.Context) error {
	if err := w.forms.clearWorking(ctx); err != nil {
		return err
	}
	w.form = onboarding.FormData{}
	w.position = onboarding.StepSignup
	w.nav.Replace(w.svc.paths.Entry)
	w.logger.Info("Onboarding abandoned")
	return nil
}
