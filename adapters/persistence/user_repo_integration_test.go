package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/khoahotran/fittrack/internal/domain/profile"
	"github.com/khoahotran/fittrack/internal/domain/user"
	"github.com/khoahotran/fittrack/pkg/apperror"
	"github.com/khoahotran/fittrack/pkg/logger"
)

type AccountRepoIntegrationTestSuite struct {
	suite.Suite
	dbPool      *pgxpool.Pool
	pgContainer *postgres.PostgresContainer
	userRepo    user.Repository
	profileRepo profile.Repository
}

func (s *AccountRepoIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(1*time.Minute),
		),
	)
	if err != nil {
		s.T().Fatalf("Failed to start postgres container: %s", err)
	}
	s.pgContainer = pgContainer

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		s.T().Fatalf("Failed to get connection string: %s", err)
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		s.T().Fatalf("Failed to create migrate instance: %s", err)
	}
	if err := m.Up(); err != nil {
		s.T().Fatalf("Failed to run migrations: %s", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		s.T().Fatalf("Failed to create pgxpool: %s", err)
	}
	s.dbPool = pool

	log := logger.NewNop()
	s.userRepo = NewPostgresUserRepo(s.dbPool, log)
	s.profileRepo = NewPostgresProfileRepo(s.dbPool, log)
}

func (s *AccountRepoIntegrationTestSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(context.Background()); err != nil {
			s.T().Fatalf("Failed to terminate postgres container: %s", err)
		}
	}
}

func TestAccountRepoIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	suite.Run(t, new(AccountRepoIntegrationTestSuite))
}

func (s *AccountRepoIntegrationTestSuite) newUser(email string) *user.User {
	return &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "hashedpassword",
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *AccountRepoIntegrationTestSuite) Test_Create_And_Find() {
	ctx := context.Background()
	u := s.newUser("lifter@example.com")

	s.Require().NoError(s.userRepo.Create(ctx, u))

	byEmail, err := s.userRepo.FindByEmail(ctx, u.Email)
	s.NoError(err)
	s.Equal(u.ID, byEmail.ID)

	byID, err := s.userRepo.FindByID(ctx, u.ID)
	s.NoError(err)
	s.Equal(u.Email, byID.Email)

	_, err = s.userRepo.FindByEmail(ctx, "ghost@example.com")
	s.ErrorIs(err, user.ErrUserNotFound)
}

func (s *AccountRepoIntegrationTestSuite) Test_Create_DuplicateEmail() {
	ctx := context.Background()
	s.Require().NoError(s.userRepo.Create(ctx, s.newUser("twice@example.com")))

	err := s.userRepo.Create(ctx, s.newUser("twice@example.com"))
	s.ErrorIs(err, user.ErrEmailTaken)
}

func (s *AccountRepoIntegrationTestSuite) Test_Profile_Upsert() {
	ctx := context.Background()
	u := s.newUser("profile@example.com")
	s.Require().NoError(s.userRepo.Create(ctx, u))

	_, err := s.profileRepo.GetByUserID(ctx, u.ID)
	s.ErrorIs(err, apperror.ErrNotFound)

	p := &profile.Profile{
		UserID:       u.ID,
		Name:         "Sam",
		Email:        u.Email,
		DateOfBirth:  "1990-05-04",
		HeightFeet:   5,
		HeightInches: 10,
		WeightPounds: 170.5,
		FitnessGoal:  profile.GoalMaintain,
		UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.profileRepo.Upsert(ctx, p))

	p.FitnessGoal = profile.GoalLose
	p.WeightPounds = 165
	s.Require().NoError(s.profileRepo.Upsert(ctx, p))

	got, err := s.profileRepo.GetByUserID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(profile.GoalLose, got.FitnessGoal)
	s.Equal(165.0, got.WeightPounds)
	s.Equal("1990-05-04", got.DateOfBirth)
	s.Nil(got.AvatarURL)

	url := "https://cdn.example.com/users/avatar.png"
	p.AvatarURL = &url
	s.Require().NoError(s.profileRepo.Upsert(ctx, p))
	s.Require().NoError(s.profileRepo.ClearAvatar(ctx, u.ID))

	got, err = s.profileRepo.GetByUserID(ctx, u.ID)
	s.Require().NoError(err)
	s.Nil(got.AvatarURL)

	s.ErrorIs(s.profileRepo.ClearAvatar(ctx, uuid.New()), apperror.ErrNotFound)
}
