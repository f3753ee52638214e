package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khoahotran/fittrack/adapters/persistence"
	authUC "github.com/khoahotran/fittrack/internal/application/usecase/auth"
	onboardingUC "github.com/khoahotran/fittrack/internal/application/usecase/onboarding"
	"github.com/khoahotran/fittrack/internal/config"
	"github.com/khoahotran/fittrack/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "onboardctl",
	Short:         "onboardctl inspects onboarding sessions and manages accounts",
	Long:          "onboardctl is an operator tool for FitTrack: read or clear a browser's onboarding session and create accounts directly.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "Directory holding config.yaml and .env")
}

func loadConfig() (config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.NewZapLogger(cfg.App.Env), nil
}

// withOnboarding is swapped out in tests.
var withOnboarding = func(fn func(svc *onboardingUC.Service) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	client, err := persistence.NewRedisClient(cfg, log)
	if err != nil {
		return err
	}
	defer client.Close()

	store := persistence.NewRedisSessionStore(client, cfg.Redis.KeyPrefix, log)
	return fn(onboardingUC.NewService(store, nil, nil, log, onboardingUC.Options{}))
}

// withAccounts is swapped out in tests.
var withAccounts = func(fn func(accounts onboardingUC.AccountCreator) error) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()

	pool, err := persistence.NewPostgresPool(cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(authUC.NewRegisterUseCase(persistence.NewPostgresUserRepo(pool, log), log))
}
