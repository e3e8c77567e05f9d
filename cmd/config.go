package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khrees2412/mockly/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update configuration settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg := config.AppConfig

		fmt.Println(titleStyle.Render("Configuration"))
		fmt.Printf("%s %s\n", labelStyle.Render("Config File:"), config.GetConfigPath())
		fmt.Printf("%s %s\n", labelStyle.Render("AI Provider:"), cfg.AIProvider)
		fmt.Printf("%s %s\n", labelStyle.Render("Default Model:"), cfg.DefaultModel)
		fmt.Printf("%s %s\n", labelStyle.Render("Listen Address:"), cfg.ListenAddr)
		fmt.Printf("%s %s\n", labelStyle.Render("Resume Storage:"), cfg.BlobBackend)
		if cfg.BlobBackend == "s3" {
			fmt.Printf("%s %s (%s)\n", labelStyle.Render("Bucket:"), cfg.BucketName, cfg.AWSRegion)
		}
		if cfg.QuestionBankFile != "" {
			fmt.Printf("%s %s\n", labelStyle.Render("Question Bank:"), cfg.QuestionBankFile)
		}

		// Only report whether secrets are set
		secrets := []struct {
			label string
			value string
		}{
			{"OpenAI Key:", cfg.OpenAIKey},
			{"Anthropic Key:", cfg.AnthropicKey},
			{"Gemini Key:", cfg.GeminiKey},
			{"AWS Credentials:", cfg.AWSAccessKey},
		}
		for _, s := range secrets {
			status := "✗ Not configured"
			if s.value != "" {
				status = "✓ Configured"
			}
			fmt.Printf("%s %s\n", labelStyle.Render(s.label), status)
		}

		plan := cfg.Interview
		fmt.Printf("\n%s\n", labelStyle.Render("Interview"))
		fmt.Printf("  Questions: %d\n", plan.TotalQuestions)
		fmt.Printf("  Pattern: %v\n", plan.DifficultyPattern)
		for _, d := range plan.DifficultyPattern {
			fmt.Printf("  %s: %ds\n", d, plan.TimerByDifficulty[d])
		}
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a configuration value",
	Example: `  mockly config set --key openai_key --value sk-...
  mockly config set --key ai_provider --value anthropic
  mockly config set --key default_model --value gpt-4o
  mockly config set --key blob_backend --value s3`,
	Run: func(cmd *cobra.Command, args []string) {
		key, _ := cmd.Flags().GetString("key")
		value, _ := cmd.Flags().GetString("value")

		if key == "" || value == "" {
			fmt.Println("Both --key and --value are required")
			return
		}

		// An invalid file can still be read and repaired
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		if err := config.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error updating config: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("✓ Configuration updated: %s\n", key)

		// Reload config
		if err := config.Initialize(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not reload config: %v\n", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)

	// Flags for set command
	setConfigCmd.Flags().String("key", "", "Configuration key")
	setConfigCmd.Flags().String("value", "", "Configuration value")
}
