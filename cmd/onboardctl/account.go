package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	onboardingUC "github.com/khoahotran/fittrack/internal/application/usecase/onboarding"
)

var (
	accountEmail    string
	accountPassword string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account without going through onboarding",
	RunE: func(cmd *cobra.Command, args []string) error {
		if accountPassword == "" {
			accountPassword = os.Getenv("ACCOUNT_PASSWORD")
		}
		if accountEmail == "" || accountPassword == "" {
			return errors.New("--email and --password (or ACCOUNT_PASSWORD) are required")
		}
		return withAccounts(func(accounts onboardingUC.AccountCreator) error {
			id, err := accounts.CreateAccount(cmd.Context(), accountEmail, accountPassword)
			if err != nil {
				return fmt.Errorf("%s: %w", onboardingUC.AccountErrorMessage(err), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s)\n", id, accountEmail)
			return nil
		})
	},
}

func init() {
	accountCreateCmd.Flags().StringVar(&accountEmail, "email", "", "Account email")
	accountCreateCmd.Flags().StringVar(&accountPassword, "password", "", "Account password")
	accountCmd.AddCommand(accountCreateCmd)
	rootCmd.AddCommand(accountCmd)
}
