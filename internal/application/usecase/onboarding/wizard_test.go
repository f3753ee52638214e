package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/fittrack/adapters/persistence"
	"github.com/khoahotran/fittrack/internal/application/service"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/internal/domain/user"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/logger"
)

type recordingNavigator struct {
	paths []string
}

func (n *recordingNavigator) Replace(path string) { n.paths = append(n.paths, path) }

func (n *recordingNavigator) last() string {
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

type collectingNotifier struct {
	items []service.Notification
}

func (n *collectingNotifier) Notify(_ context.Context, item service.Notification) {
	n.items = append(n.items, item)
}

type stubAccounts struct {
	mu      sync.Mutex
	calls   int
	id      uuid.UUID
	err     error
	gotArgs [2]string
}

func (s *stubAccounts) CreateAccount(_ context.Context, email, password string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotArgs = [2]string{email, password}
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return s.id, nil
}

type chanPublisher struct {
	events chan onboarding.CompletedEvent
}

func (p *chanPublisher) PublishOnboardingCompleted(_ context.Context, evt onboarding.CompletedEvent) error {
	p.events <- evt
	return nil
}

type WizardTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    *persistence.MemoryStore
	accounts  *stubAccounts
	publisher *chanPublisher
	svc       *Service
	nav       *recordingNavigator
	notifier  *collectingNotifier
}

func TestWizard(t *testing.T) {
	suite.Run(t, new(WizardTestSuite))
}

func (s *WizardTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.stores = persistence.NewMemoryStore()
	s.accounts = &stubAccounts{id: uuid.New()}
	s.publisher = &chanPublisher{events: make(chan onboarding.CompletedEvent, 1)}
	s.svc = NewService(s.stores, s.accounts, s.publisher, logger.NewNop(), Options{
		Paths:          Paths{Entry: "/", Home: "/dashboard", StepPrefix: "/onboarding"},
		CompletionLock: time.Minute,
		Clock:          func() time.Time { return fixedNow },
	})
	s.nav = &recordingNavigator{}
	s.notifier = &collectingNotifier{}
}

func (s *WizardTestSuite) session() onboarding.Store {
	return s.stores.ForSession("sid-1")
}

func (s *WizardTestSuite) open() *Wizard {
	return s.svc.Open("sid-1", s.nav, s.notifier)
}

func (s *WizardTestSuite) stored(key string) (string, bool) {
	v, ok, err := s.session().Get(s.ctx, key)
	s.Require().NoError(err)
	return v, ok
}

// fill mounts a wizard, types the whole form and walks it to the last step.
func (s *WizardTestSuite) fill(form onboarding.FormData) *Wizard {
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	for _, f := range []onboarding.Field{
		onboarding.FieldEmail, onboarding.FieldPassword, onboarding.FieldName,
		onboarding.FieldBirthMonth, onboarding.FieldBirthDay, onboarding.FieldBirthYear,
		onboarding.FieldHeightFeet, onboarding.FieldHeightInches, onboarding.FieldWeightPounds,
	} {
		s.Require().NoError(w.UpdateField(s.ctx, f, form.Get(f)))
	}
	_, err := w.Next(s.ctx)
	s.Require().NoError(err)
	_, err = w.Next(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(onboarding.StepProfile, w.Position())
	return w
}

func (s *WizardTestSuite) TestMount_InvalidSegmentsResolveToFirstStep() {
	for _, seg := range []string{"", "0", "4", "-2", "abc", "1.5"} {
		s.nav.paths = nil
		w := s.open()
		s.Require().NoError(w.Mount(s.ctx, seg))

		s.Equal(onboarding.StepSignup, w.Position(), "segment %q", seg)
		s.Equal("/onboarding/1", s.nav.last(), "segment %q", seg)
		v, _ := s.stored(onboarding.KeyStep)
		s.Equal("1", v)
	}
}

func (s *WizardTestSuite) TestMount_GuardRedirectsWhenNotStarted() {
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "3"))

	s.Equal(onboarding.StepSignup, w.Position())
	s.Equal("/onboarding/1", s.nav.last())
}

func (s *WizardTestSuite) TestMount_DeepLinkAllowedOnceStarted() {
	s.Require().NoError(s.session().Set(s.ctx, onboarding.KeyEmail, "a@b.co"))

	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "3"))

	s.Equal(onboarding.StepProfile, w.Position())
	s.Empty(s.nav.paths, "a canonical URL must not be rewritten")
	v, _ := s.stored(onboarding.KeyStep)
	s.Equal("3", v)
}

func (s *WizardTestSuite) TestSyncFromURL_ReconcilesExternalChange() {
	s.Require().NoError(s.session().Set(s.ctx, onboarding.KeyEmail, "a@b.co"))
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "3"))

	s.Require().NoError(w.SyncFromURL(s.ctx, "2"))
	s.Equal(onboarding.StepPersonalInfo, w.Position())
	v, _ := s.stored(onboarding.KeyStep)
	s.Equal("2", v)
	s.Empty(s.nav.paths)
}

func (s *WizardTestSuite) TestSyncToURL_PushesStateOut() {
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	w.position = onboarding.StepPersonalInfo

	s.Require().NoError(w.SyncToURL(s.ctx))
	s.Equal("/onboarding/2", s.nav.last())
	v, _ := s.stored(onboarding.KeyStep)
	s.Equal("2", v)
}

func (s *WizardTestSuite) TestNextAndBack_UpdateURLAndStore() {
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	s.Require().NoError(w.UpdateField(s.ctx, onboarding.FieldEmail, "a@b.co"))

	completion, err := w.Next(s.ctx)
	s.Require().NoError(err)
	s.Nil(completion)
	s.Equal(onboarding.StepPersonalInfo, w.Position())
	s.Equal("/onboarding/2", s.nav.last())
	v, _ := s.stored(onboarding.KeyStep)
	s.Equal("2", v)

	s.Require().NoError(w.Back(s.ctx))
	s.Equal(onboarding.StepSignup, w.Position())
	s.Equal("/onboarding/1", s.nav.last())
	v, _ = s.stored(onboarding.KeyStep)
	s.Equal("1", v)
}

func (s *WizardTestSuite) TestBackFromFirstStep_Abandons() {
	s.Require().NoError(s.session().Set(s.ctx, onboarding.KeyProfile, `{"name":"old"}`))
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	s.Require().NoError(w.UpdateField(s.ctx, onboarding.FieldEmail, "a@b.co"))
	s.Require().NoError(w.UpdateField(s.ctx, onboarding.FieldName, "Ana"))

	s.Require().NoError(w.Back(s.ctx))

	s.Equal("/", s.nav.last())
	for _, key := range onboarding.WorkingKeys {
		_, ok := s.stored(key)
		s.False(ok, "key %s should be cleared", key)
	}
	_, ok := s.stored(onboarding.KeyProfile)
	s.True(ok, "profile is not part of the working state")
	s.Equal(onboarding.FormData{}, w.FormData())
}

func (s *WizardTestSuite) TestFormData_RoundTripsThroughStore() {
	form := validForm()
	w := s.fill(form)
	s.Equal(form, w.FormData())

	reloaded := s.open()
	s.Require().NoError(reloaded.Mount(s.ctx, "3"))
	if diff := cmp.Diff(form, reloaded.FormData()); diff != "" {
		s.Failf("form data mismatch after reload", "(-want +got):\n%s", diff)
	}
	s.Equal(onboarding.StepProfile, reloaded.Position())
}

func (s *WizardTestSuite) TestFormData_MalformedJSONFallsBackToEmpty() {
	s.Require().NoError(s.session().Set(s.ctx, onboarding.KeyFormData, `{"email": 42,`))

	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	s.Equal(onboarding.FormData{}, w.FormData())
}

func (s *WizardTestSuite) TestUpdateField_StartedMarkerOnlyFromFirstStep() {
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	s.Require().NoError(w.UpdateField(s.ctx, onboarding.FieldEmail, "first@b.co"))

	marker, ok := s.stored(onboarding.KeyEmail)
	s.True(ok)
	s.Equal("first@b.co", marker)

	_, err := w.Next(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(w.UpdateField(s.ctx, onboarding.FieldEmail, "second@b.co"))

	marker, _ = s.stored(onboarding.KeyEmail)
	s.Equal("first@b.co", marker)
	s.Equal("second@b.co", w.FormData().Email)
}

func (s *WizardTestSuite) TestUpdateField_UnknownField() {
	w := s.open()
	s.Require().NoError(w.Mount(s.ctx, "1"))
	s.ErrorIs(w.UpdateField(s.ctx, onboarding.Field("shoeSize"), "11"), onboarding.ErrUnknownField)
}

func (s *WizardTestSuite) TestComplete_EndToEnd() {
	w := s.fill(validForm())

	completion, err := w.Next(s.ctx)
	s.Require().NoError(err)
	s.Require().NotNil(completion)

	s.Equal(1, s.accounts.calls)
	s.Equal([2]string{"runner@example.com", "secret1"}, s.accounts.gotArgs)
	s.Equal("/dashboard", s.nav.last())
	s.Equal("/dashboard", completion.RedirectTo)

	raw, ok := s.stored(onboarding.KeyProfile)
	s.Require().True(ok)
	var p profile.Profile
	s.Require().NoError(json.Unmarshal([]byte(raw), &p))
	s.Equal(s.accounts.id, p.UserID)
	s.Equal("1990-02-28", p.DateOfBirth)
	s.Equal(36, p.Age)
	s.Equal(5, p.HeightFeet)
	s.Equal(7, p.HeightInches)
	s.Equal(142.5, p.WeightPounds)
	s.Equal(profile.GoalMaintain, p.FitnessGoal)

	raw, ok = s.stored(onboarding.KeyCurrentUser)
	s.Require().True(ok)
	var cu user.CurrentUser
	s.Require().NoError(json.Unmarshal([]byte(raw), &cu))
	s.Equal(user.CurrentUser{ID: s.accounts.id, Email: "runner@example.com"}, cu)

	for _, key := range onboarding.WorkingKeys {
		_, ok := s.stored(key)
		s.False(ok, "key %s should be cleared", key)
	}

	s.Require().NotEmpty(s.notifier.items)
	last := s.notifier.items[len(s.notifier.items)-1]
	s.Equal(service.SeveritySuccess, last.Severity)

	select {
	case evt := <-s.publisher.events:
		s.Equal(onboarding.EventTypeCompleted, evt.EventType)
		s.Equal(s.accounts.id, evt.UserID)
		s.Equal(p.Name, evt.Profile.Name)
	case <-time.After(time.Second):
		s.Fail("onboarding completed event was not published")
	}
}

func (s *WizardTestSuite) TestComplete_InvalidCalendarDateSkipsAccountCreation() {
	form := validForm()
	form.BirthMonth, form.BirthDay, form.BirthYear = "2", "30", "1990"
	w := s.fill(form)

	completion, err := w.Next(s.ctx)
	s.Nil(completion)
	s.Equal(RuleBirthDateInvalid, ruleOf(s.T(), err))
	s.Equal(0, s.accounts.calls)

	s.Require().Len(s.notifier.items, 1)
	s.Equal(service.SeverityError, s.notifier.items[0].Severity)
	s.Equal("Invalid date", s.notifier.items[0].Title)

	_, ok := s.stored(onboarding.KeyFormData)
	s.True(ok)
	_, ok = s.stored(onboarding.KeyProfile)
	s.False(ok)
	s.Equal(onboarding.StepProfile, w.Position())
}

func (s *WizardTestSuite) TestComplete_EmailInUseKeepsWorkingState() {
	s.accounts.err = user.NewAccountError(user.FailureEmailInUse, "taken", nil)
	w := s.fill(validForm())
	pathsBefore := len(s.nav.paths)

	_, err := w.Next(s.ctx)
	s.Require().Error(err)
	s.Equal(user.FailureEmailInUse, user.KindOf(err))

	s.Require().Len(s.notifier.items, 1)
	s.Equal(MsgEmailInUse, s.notifier.items[0].Description)
	s.Len(s.nav.paths, pathsBefore, "no navigation on failure")

	for _, key := range onboarding.WorkingKeys {
		_, ok := s.stored(key)
		s.True(ok, "key %s should survive a failed completion", key)
	}
	_, ok := s.stored(onboarding.KeyCurrentUser)
	s.False(ok)

	s.accounts.err = nil
	completion, err := w.Next(s.ctx)
	s.Require().NoError(err, "retry without re-entering data")
	s.NotNil(completion)
	s.Equal(2, s.accounts.calls)
}

func (s *WizardTestSuite) TestComplete_RejectsConcurrentAttempt() {
	w := s.fill(validForm())

	locker := s.session().(onboarding.Locker)
	release, ok, err := locker.TryLock(s.ctx, onboarding.KeyCompleting, time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)
	defer release()

	_, err = w.Next(s.ctx)
	s.ErrorIs(err, ErrCompletionInProgress)
	s.Equal(0, s.accounts.calls)
}

func (s *WizardTestSuite) TestComplete_StaleRequestAfterSuccessDoesNotCreateAgain() {
	stale := s.fill(validForm())

	first := s.open()
	s.Require().NoError(first.Mount(s.ctx, "3"))
	_, err := first.Next(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, s.accounts.calls)

	completion, err := stale.Next(s.ctx)
	s.ErrorIs(err, ErrCompletionInProgress)
	s.Equal(http.StatusConflict, apperror.ToHTTPStatus(err))
	s.Nil(completion)
	s.Equal(1, s.accounts.calls)

	raw, ok := s.stored(onboarding.KeyCurrentUser)
	s.Require().True(ok)
	s.Contains(raw, s.accounts.id.String())
}

func (s *WizardTestSuite) TestComplete_UsesLatestStoredAnswers() {
	w := s.fill(validForm())

	other := s.open()
	s.Require().NoError(other.Mount(s.ctx, "3"))
	s.Require().NoError(other.UpdateField(s.ctx, onboarding.FieldName, "Ana Updated"))

	completion, err := w.Next(s.ctx)
	s.Require().NoError(err)
	s.Equal("Ana Updated", completion.Profile.Name)
}

func (s *WizardTestSuite) TestComplete_StoresNormalizedEmail() {
	form := validForm()
	form.Email = " Runner@Example.COM "
	w := s.fill(form)

	completion, err := w.Next(s.ctx)
	s.Require().NoError(err)
	s.Equal("runner@example.com", completion.Profile.Email)
	s.Equal("runner@example.com", completion.User.Email)

	raw, ok := s.stored(onboarding.KeyCurrentUser)
	s.Require().True(ok)
	var cu user.CurrentUser
	s.Require().NoError(json.Unmarshal([]byte(raw), &cu))
	s.Equal("runner@example.com", cu.Email)
}

func TestAccountErrorMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{user.NewAccountError(user.FailureEmailInUse, "x", nil), MsgEmailInUse},
		{user.NewAccountError(user.FailureWeakPassword, "x", nil), MsgWeakPassword},
		{user.NewAccountError(user.FailureInvalidEmail, "x", nil), MsgInvalidEmail},
		{user.NewAccountError(user.FailureOther, "quota exceeded", nil), "quota exceeded"},
		{user.NewAccountError(user.FailureOther, "", nil), MsgAccountGeneric},
		{errors.New("dial tcp: refused"), MsgAccountGeneric},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AccountErrorMessage(tc.err))
	}
}

func TestService_InspectAndReset(t *testing.T) {
	ctx := context.Background()
	stores := persistence.NewMemoryStore()
	svc := NewService(stores, &stubAccounts{}, nil, logger.NewNop(), Options{Clock: func() time.Time { return fixedNow }})

	w := svc.Open("s", &recordingNavigator{}, &collectingNotifier{})
	require.NoError(t, w.Mount(ctx, "1"))
	require.NoError(t, w.UpdateField(ctx, onboarding.FieldEmail, "a@b.co"))
	require.NoError(t, w.UpdateField(ctx, onboarding.FieldPassword, "hunter2"))

	state, err := svc.Inspect(ctx, "s")
	require.NoError(t, err)
	assert.True(t, state.Started)
	require.NotNil(t, state.Step)
	assert.Equal(t, 1, *state.Step)
	assert.Equal(t, "*******", state.FormData.Password)
	assert.Nil(t, state.Profile)

	require.NoError(t, svc.Reset(ctx, "s"))
	state, err = svc.Inspect(ctx, "s")
	require.NoError(t, err)
	assert.False(t, state.Started)
	assert.Nil(t, state.Step)
}
