package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khrees2412/mockly/internal/app"
	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/internal/logx"
)

var rootCmd = &cobra.Command{
	Use:   "mockly",
	Short: "AI-assisted mock interview sessions",
	Long: `Mockly runs timed mock interviews. It reads a resume, fills in missing contact details,
asks a sequence of questions with per-question countdowns, scores every answer and archives
the finished interview.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logx.SetDebug(true)
		}

		// config commands must work even when the config is invalid
		if cmd.Parent() == configCmd {
			return nil
		}

		// Initialize app with all dependencies
		application, err := app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		cmd.SetContext(app.WithApp(cmd.Context(), application))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if a, ok := app.FromContext(cmd.Context()); ok {
			return a.Close()
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// mustApp returns the application stored by PersistentPreRunE
func mustApp(cmd *cobra.Command) *app.App {
	a, ok := app.FromContext(cmd.Context())
	if !ok {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), app.ErrNotInitialized)
		os.Exit(1)
	}
	return a
}

// mustEngine returns the interview engine of the application stored by PersistentPreRunE
func mustEngine(cmd *cobra.Command) *interview.Engine {
	engine, err := app.EngineFromContext(cmd.Context())
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
	return engine
}
