package profile

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/fittrack/internal/application/service"
	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/logger"
)

const avatarName = "avatar"

func avatarFolder(userID uuid.UUID) string {
	return fmt.Sprintf("users/%s", userID.String())
}

type UploadAvatarUseCase struct {
	profileRepo profile.Repository
	uploader    service.Uploader
	logger      logger.Logger
}

func NewUploadAvatarUseCase(repo profile.Repository, uploader service.Uploader, log logger.Logger) *UploadAvatarUseCase {
	return &UploadAvatarUseCase{profileRepo: repo, uploader: uploader, logger: log}
}

type UploadAvatarInput struct {
	UserID uuid.UUID
	File   io.Reader
}

type UploadAvatarOutput struct {
	AvatarURL string
}

func (uc *UploadAvatarUseCase) Execute(ctx context.Context, input UploadAvatarInput) (*UploadAvatarOutput, error) {
	if uc.uploader == nil {
		return nil, apperror.NewInternal("avatar storage is not configured", nil)
	}

	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	url, err := uc.uploader.Upload(ctx, input.File, avatarFolder(input.UserID), avatarName)
	if err != nil {
		return nil, apperror.NewInternal("failed to upload avatar", err)
	}

	p.AvatarURL = &url
	if err := uc.profileRepo.Upsert(ctx, p); err != nil {
		uc.logger.Warn("Avatar uploaded but profile not updated", zap.String("user_id", input.UserID.String()), zap.Error(err))
		return nil, err
	}
	return &UploadAvatarOutput{AvatarURL: url}, nil
}

type RemoveAvatarUseCase struct {
	profileRepo profile.Repository
	uploader    service.Uploader
	logger      logger.Logger
}

func NewRemoveAvatarUseCase(repo profile.Repository, uploader service.Uploader, log logger.Logger) *RemoveAvatarUseCase {
	return &RemoveAvatarUseCase{profileRepo: repo, uploader: uploader, logger: log}
}

type RemoveAvatarInput struct {
	UserID uuid.UUID
}

// Execute deletes the stored image first so a failed delete leaves the profile pointing at it.
func (uc *RemoveAvatarUseCase) Execute(ctx context.Context, input RemoveAvatarInput) error {
	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if p.AvatarURL == nil {
		return apperror.NewNotFound("avatar", input.UserID.String())
	}
	if uc.uploader == nil {
		return apperror.NewInternal("avatar storage is not configured", nil)
	}

	if err := uc.uploader.Delete(ctx, avatarFolder(input.UserID)+"/"+avatarName); err != nil {
		return apperror.NewInternal("failed to delete avatar", err)
	}

	if err := uc.profileRepo.ClearAvatar(ctx, input.UserID); err != nil {
		uc.logger.Warn("Avatar deleted but profile not updated", zap.String("user_id", input.UserID.String()), zap.Error(err))
		return err
	}
	uc.logger.Info("Avatar removed", zap.String("user_id", input.UserID.String()))
	return nil
}
