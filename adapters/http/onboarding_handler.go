package http

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/application/service"
	onboardingUC "github.com/khoahotran/fittrack/internal/application/usecase/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/onboarding"
	"github.com/khoahotran/fittrack/internal/domain/user"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/auth"
	"github.com/khoahotran/fittrack/pkg/logger"
)

// requestNavigator remembers the last location the wizard replaced during one request.
type requestNavigator struct {
	location string
}

func (n *requestNavigator) Replace(path string) { n.location = path }

// requestNotifier buffers toasts so they can be returned in the response body.
type requestNotifier struct {
	items []service.Notification
}

func (n *requestNotifier) Notify(_ context.Context, note service.Notification) {
	n.items = append(n.items, note)
}

type OnboardingHandler struct {
	onboarding *onboardingUC.Service
	jwtSvc     *auth.JWTService
	logger     logger.Logger
}

func NewOnboardingHandler(svc *onboardingUC.Service, jwtSvc *auth.JWTService, log logger.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		onboarding: svc,
		jwtSvc:     jwtSvc,
		logger:     log,
	}
}

type wizardRequest struct {
	wizard *onboardingUC.Wizard
	nav    *requestNavigator
	notes  *requestNotifier
}

func (h *OnboardingHandler) mount(c *gin.Context) (*wizardRequest, bool) {
	sid, ok := GetSessionIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewInternal("session id not found in context", nil))
		return nil, false
	}
	req := &wizardRequest{nav: &requestNavigator{}, notes: &requestNotifier{}}
	req.wizard = h.onboarding.Open(sid, req.nav, req.notes)
	if err := req.wizard.Mount(c.Request.Context(), c.Param("step")); err != nil {
		c.Error(err)
		return nil, false
	}
	return req, true
}

func (h *OnboardingHandler) state(req *wizardRequest) OnboardingStateDTO {
	step := req.wizard.Position()
	dto := OnboardingStateDTO{
		Step:          int(step),
		StepName:      step.Name(),
		TotalSteps:    onboarding.TotalSteps,
		Location:      h.onboarding.Paths().ForStep(step),
		FormData:      req.wizard.FormData().Redacted(),
		Notifications: req.notes.items,
	}
	if dto.Notifications == nil {
		dto.Notifications = []service.Notification{}
	}
	if req.nav.location != "" {
		dto.Location = req.nav.location
		dto.Redirect = true
	}
	return dto
}

// GetStep mounts the wizard at the requested segment and reports where the client should be.
func (h *OnboardingHandler) GetStep(c *gin.Context) {
	req, ok := h.mount(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.state(req))
}

func (h *OnboardingHandler) UpdateFields(c *gin.Context) {
	var body UpdateFieldsRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for onboarding fields", err))
		return
	}

	updates := make(map[string]string, len(body.Fields)+1)
	for k, v := range body.Fields {
		updates[k] = v
	}
	if body.Field != "" {
		updates[body.Field] = body.Value
	}
	if len(updates) == 0 {
		c.Error(apperror.NewInvalidInput("no fields to update", nil))
		return
	}

	names := make([]string, 0, len(updates))
	for k := range updates {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make([]onboarding.Field, 0, len(names))
	for _, name := range names {
		field, err := onboarding.ParseField(name)
		if err != nil {
			c.Error(apperror.NewInvalidInput("unknown field: "+name, err))
			return
		}
		fields = append(fields, field)
	}

	req, ok := h.mount(c)
	if !ok {
		return
	}

	for i, field := range fields {
		if err := req.wizard.UpdateField(c.Request.Context(), field, updates[names[i]]); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, h.state(req))
}

func (h *OnboardingHandler) Next(c *gin.Context) {
	req, ok := h.mount(c)
	if !ok {
		return
	}

	completion, err := req.wizard.Next(c.Request.Context())
	if err != nil {
		h.renderFailure(c, req, err)
		return
	}

	dto := h.state(req)
	if completion != nil {
		dto.Completed = true
		dto.Location = completion.RedirectTo
		dto.Redirect = true
		current := completion.User
		dto.User = &current
		p := ToProfileDTO(&completion.Profile)
		dto.Profile = &p
		dto.AccessToken = h.issueToken(current)
	}
	c.JSON(http.StatusOK, dto)
}

func (h *OnboardingHandler) Back(c *gin.Context) {
	req, ok := h.mount(c)
	if !ok {
		return
	}
	if err := req.wizard.Back(c.Request.Context()); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, h.state(req))
}

func (h *OnboardingHandler) renderFailure(c *gin.Context, req *wizardRequest, err error) {
	dto := h.state(req)

	var vErr *onboardingUC.ValidationError
	var accErr *user.AccountError
	switch {
	case errors.As(err, &vErr):
		dto.Error = string(vErr.Rule)
	case errors.As(err, &accErr):
		dto.Error = string(accErr.Kind)
	case errors.Is(err, onboardingUC.ErrCompletionInProgress):
		dto.Error = "completion-in-progress"
	default:
		c.Error(err)
		return
	}
	c.JSON(apperror.ToHTTPStatus(err), dto)
}

func (h *OnboardingHandler) issueToken(u user.CurrentUser) string {
	if h.jwtSvc == nil {
		return ""
	}
	token, err := h.jwtSvc.GenerateToken(u.ID, u.Email)
	if err != nil {
		h.logger.Warn("Failed to issue token after onboarding", zap.String("user_id", u.ID.String()), zap.Error(err))
		return ""
	}
	return token
}
