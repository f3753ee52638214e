package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/fittrack/internal/application/usecase/profile"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/logger"
)

const maxAvatarBytes = 5 << 20

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	avatarUseCase  *profileUC.UploadAvatarUseCase
	removeUseCase  *profileUC.RemoveAvatarUseCase
	logger         logger.Logger
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, avatarUC *profileUC.UploadAvatarUseCase, removeUC *profileUC.RemoveAvatarUseCase, log logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		avatarUseCase:  avatarUC,
		removeUseCase:  removeUC,
		logger:         log,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	output, err := h.profileUseCase.ExecuteGetProfile(c.Request.Context(), profileUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for profile update", err))
		return
	}

	input := profileUC.UpdateProfileInput{
		UserID:       userID,
		Name:         req.Name,
		HeightFeet:   req.HeightFeet,
		HeightInches: req.HeightInches,
		WeightPounds: req.WeightPounds,
		FitnessGoal:  req.FitnessGoal,
	}
	output, err := h.profileUseCase.ExecuteUpdateProfile(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ToProfileDTO(output.Profile))
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.Error(apperror.NewInvalidInput("avatar must be 5MB or smaller", nil))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("cannot open uploaded file", err))
		return
	}
	defer file.Close()

	output, err := h.avatarUseCase.Execute(c.Request.Context(), profileUC.UploadAvatarInput{UserID: userID, File: file})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatarUrl": output.AvatarURL})
}

func (h *ProfileHandler) RemoveAvatar(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	if err := h.removeUseCase.Execute(c.Request.Context(), profileUC.RemoveAvatarInput{UserID: userID}); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
