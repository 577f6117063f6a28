package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	eventFlag string
	rootCmd   = &cobra.Command{
		Use:   "matchctl",
		Short: "CLI client for the matching service REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Matching service base URL")
	rootCmd.PersistentFlags().StringVarP(&eventFlag, "event", "e", "", "Event ID (required)")

	runMatchingCmd := &cobra.Command{
		Use:   "run-matching",
		Short: "Score the event roster and propose matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventFlag == "" {
				return fmt.Errorf("--event required")
			}
			return runMatching(apiFlag, eventFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(runMatchingCmd)

	runZonesCmd := &cobra.Command{
		Use:   "run-zones",
		Short: "Cluster the event roster into meeting zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			if eventFlag == "" {
				return fmt.Errorf("--event required")
			}
			return runZones(apiFlag, eventFlag, force, os.Stdout)
		},
	}
	runZonesCmd.Flags().BoolP("force", "f", false, "Recompute even when the current set is fresh")
	rootCmd.AddCommand(runZonesCmd)

	matchesCmd := &cobra.Command{
		Use:   "matches",
		Short: "List a participant's matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			participant, _ := cmd.Flags().GetString("participant")
			if eventFlag == "" || participant == "" {
				return fmt.Errorf("--event and --participant required")
			}
			return listMatches(apiFlag, eventFlag, participant, os.Stdout)
		},
	}
	matchesCmd.Flags().StringP("participant", "p", "", "Participant ID (required)")
	rootCmd.AddCommand(matchesCmd)

	zonesCmd := &cobra.Command{
		Use:   "zones",
		Short: "List the event's meeting zones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventFlag == "" {
				return fmt.Errorf("--event required")
			}
			return listZones(apiFlag, eventFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(zonesCmd)

	expireCmd := &cobra.Command{
		Use:   "expire",
		Short: "Sweep the event's overdue pending matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventFlag == "" {
				return fmt.Errorf("--event required")
			}
			return expireMatches(apiFlag, eventFlag, os.Stdout)
		},
	}
	rootCmd.AddCommand(expireCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
