package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/khrees2412/mockly/internal/resume"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Manage the candidate resume",
}

var uploadResumeCmd = &cobra.Command{
	Use:   "upload <file-path>",
	Short: "Upload a PDF or DOCX resume and start a new session from it",
	Args:  cobra.ExactArgs(1),
	Example: `  mockly resume upload ~/Documents/resume.pdf
  mockly resume upload ./cv.docx`,
	Run: func(cmd *cobra.Command, args []string) {
		filePath := args[0]

		info, err := os.Stat(filePath)
		if os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "File not found: %s\n", filePath)
			os.Exit(1)
		}
		if err == nil && info.Size() > resume.MaxSize {
			fmt.Fprintf(os.Stderr, "Resume is larger than %d MB\n", resume.MaxSize>>20)
			os.Exit(1)
		}

		data, err := os.ReadFile(filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
			os.Exit(1)
		}

		snap, err := mustEngine(cmd).UploadResume(cmd.Context(), filepath.Base(filePath), data, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing resume: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("✓ Resume uploaded")
		printProfile(snap.Profile)
		if len(snap.Profile.MissingFields) > 0 {
			fmt.Printf("\nStill needed: %v. Run 'mockly profile set' or 'mockly interview'.\n", snap.Profile.MissingFields)
		}
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
	resumeCmd.AddCommand(uploadResumeCmd)
}
