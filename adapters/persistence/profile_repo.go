package persistence

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/logger"
)

type postgresProfileRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresProfileRepo(db *pgxpool.Pool, logger logger.Logger) profile.Repository {
	return &postgresProfileRepo{db: db, logger: logger}
}

func (r *postgresProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	sql, args, err := psql.Select(
		"user_id", "name", "email", "date_of_birth", "height_feet", "height_inches",
		"weight_pounds", "fitness_goal", "avatar_url", "updated_at",
	).From("profiles").Where("user_id = ?", userID).ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build select profile query", err)
	}

	p := &profile.Profile{}
	var goal string
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&p.UserID,
		&p.Name,
		&p.Email,
		&p.DateOfBirth,
		&p.HeightFeet,
		&p.HeightInches,
		&p.WeightPounds,
		&goal,
		&p.AvatarURL,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("profile", userID.String())
		}
		return nil, apperror.NewInternal("failed to query profile", err)
	}
	p.FitnessGoal = profile.Goal(goal)
	return p, nil
}

func (r *postgresProfileRepo) Upsert(ctx context.Context, p *profile.Profile) error {
	sql, args, err := psql.Insert("profiles").
		Columns(
			"user_id", "name", "email", "date_of_birth", "height_feet", "height_inches",
			"weight_pounds", "fitness_goal", "avatar_url", "updated_at",
		).
		Values(
			p.UserID, p.Name, p.Email, p.DateOfBirth, p.HeightFeet, p.HeightInches,
			p.WeightPounds, string(p.FitnessGoal), p.AvatarURL, p.UpdatedAt,
		).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			date_of_birth = EXCLUDED.date_of_birth,
			height_feet = EXCLUDED.height_feet,
			height_inches = EXCLUDED.height_inches,
			weight_pounds = EXCLUDED.weight_pounds,
			fitness_goal = EXCLUDED.fitness_goal,
			avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
			updated_at = EXCLUDED.updated_at`).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build upsert profile query", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return apperror.NewInternal("failed to upsert profile", err)
	}
	return nil
}

func (r *postgresProfileRepo) ClearAvatar(ctx context.Context, userID uuid.UUID) error {
	sql, args, err := psql.Update("profiles").
		Set("avatar_url", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build clear avatar query", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewInternal("failed to clear avatar", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("profile", userID.String())
	}
	return nil
}
