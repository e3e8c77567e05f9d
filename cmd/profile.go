package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the candidate profile",
	Long:  "Show or fill in the candidate details required before an interview can begin",
}

var showProfileCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current candidate profile",
	Run: func(cmd *cobra.Command, args []string) {
		snap := mustEngine(cmd).Snapshot()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			data, _ := json.MarshalIndent(snap.Profile, "", "  ")
			fmt.Println(string(data))
			return
		}

		fmt.Println(titleStyle.Render("Candidate Profile"))
		printProfile(snap.Profile)
		if snap.Profile != nil && len(snap.Profile.MissingFields) > 0 {
			fmt.Printf("\nStill needed: %v\n", snap.Profile.MissingFields)
		}
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set",
	Short: "Set candidate profile fields",
	Example: `  mockly profile set --name "Ada Lovelace" --email ada@example.com --phone "+44 20 7946 0000"
  mockly profile set --phone 5550102030`,
	Run: func(cmd *cobra.Command, args []string) {
		fields := map[string]string{}
		for _, name := range []string{models.FieldName, models.FieldEmail, models.FieldPhone, "role"} {
			if value, _ := cmd.Flags().GetString(name); value != "" {
				fields[name] = value
			}
		}
		if len(fields) == 0 {
			fmt.Println("Nothing to update. Use --name, --email, --phone or --role.")
			return
		}

		snap, err := applyProfileFields(cmd, fields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error updating profile: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("✓ Profile updated")
		printProfile(snap.Profile)
		if snap.Stage == models.StageReadyToStart {
			fmt.Println("\nReady to start. Run 'mockly interview' to begin.")
		}
	},
}

// applyProfileFields completes the active profile, or starts a new candidate when there is none to complete
func applyProfileFields(cmd *cobra.Command, fields map[string]string) (interview.Snapshot, error) {
	engine := mustEngine(cmd)
	snap := engine.Snapshot()
	if snap.Session != nil && snap.Stage != models.StageCompleted {
		return engine.CompleteProfile(cmd.Context(), fields)
	}

	profile, err := session.MergeProfile(models.CandidateProfile{}, fields)
	if err != nil {
		return interview.Snapshot{}, err
	}
	return engine.IngestProfile(cmd.Context(), profile)
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(setProfileCmd)

	showProfileCmd.Flags().Bool("json", false, "Print the profile as JSON")

	setProfileCmd.Flags().String(models.FieldName, "", "Full name")
	setProfileCmd.Flags().String(models.FieldEmail, "", "Email address")
	setProfileCmd.Flags().String(models.FieldPhone, "", "Phone number")
	setProfileCmd.Flags().String("role", "", "Target role")
}
