package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	onboardingUC "github.com/khoahotran/fittrack/internal/application/usecase/onboarding"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear onboarding sessions",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the persisted onboarding state of a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOnboarding(func(svc *onboardingUC.Service) error {
			state, err := svc.Inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		})
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <session-id>",
	Short: "Discard a session's in-progress onboarding answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOnboarding(func(svc *onboardingUC.Service) error {
			if err := svc.Reset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared onboarding session %s\n", args[0])
			return nil
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionShowCmd, sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}
