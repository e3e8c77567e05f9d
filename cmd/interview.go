package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khrees2412/mockly/internal/app"
	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/pkg/models"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run an interactive mock interview in the terminal",
	Long: `Walk through the whole interview: upload a resume or enter your details, then answer
each question before its timer runs out. Type your answer over one or more lines and submit
with an empty line. Commands: /pause, /resume, /reset, /status, /quit.`,
	Run: func(cmd *cobra.Command, args []string) {
		runInterview(cmd.Context(), mustEngine(cmd))
	},
}

// lineReader delivers stdin lines on a channel so input can be multiplexed with timer events
func lineReader(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func runInterview(ctx context.Context, engine *interview.Engine) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := lineReader(os.Stdin)
	ticks := make(chan interview.TickResult, 8)
	ticker := interview.NewTicker(engine, interview.DefaultTickInterval, func(res interview.TickResult) {
		select {
		case ticks <- res:
		default:
		}
	})
	go ticker.Run(ctx)

	fmt.Println(titleStyle.Render("Mockly Interview"))
	prompted := models.Stage("")

	for {
		snap := engine.Snapshot()
		if snap.Stage != prompted {
			if !promptForStage(snap) {
				return
			}
			prompted = snap.Stage
		}

		select {
		case <-ctx.Done():
			return
		case res := <-ticks:
			handleTick(res)
			if res.AutoSubmitted != nil {
				prompted = ""
			}
		case line, ok := <-lines:
			if !ok {
				return
			}
			quit, reprompt := handleLine(ctx, engine, snap, line)
			if quit {
				return
			}
			if reprompt {
				prompted = ""
			}
		}
	}
}

// promptForStage prints what the candidate should do next. It returns false once there is nothing left to do.
func promptForStage(snap interview.Snapshot) bool {
	switch snap.Stage {
	case models.StageResumeUpload:
		fmt.Println("Enter the path to your resume (PDF or DOCX), or press Enter to type your details.")
	case models.StageProfileCompletion:
		fmt.Printf("Please provide your %s.\n", snap.Profile.MissingFields[0])
	case models.StageReadyToStart:
		printProfile(snap.Profile)
		fmt.Println("\nPress Enter to begin the interview.")
	case models.StageQuestioning:
		fmt.Println()
		printQuestion(snap)
		fmt.Println(mutedStyle.Render("Submit with an empty line."))
	case models.StagePaused:
		fmt.Println("Interview paused. Type /resume to continue.")
	case models.StageCompleted:
		if snap.Session != nil && snap.Session.Summary != nil {
			printSummary(*snap.Session.Summary)
		}
		fmt.Println("\nInterview complete. Type /reset to start over or /quit to leave.")
	}
	fmt.Print("> ")
	return true
}

func handleTick(res interview.TickResult) {
	if res.AutoSubmitted != nil {
		fmt.Println("\n" + errorStyle.Render("Time is up.") + " Your answer was submitted automatically.")
		printSubmitResult(*res.AutoSubmitted)
		return
	}
	if res.QuestionID != "" && (res.RemainingSeconds == 30 || res.RemainingSeconds == 10) {
		fmt.Printf("\n%s\n> ", mutedStyle.Render(fmt.Sprintf("%s left", formatSeconds(res.RemainingSeconds))))
	}
}

// handleLine applies one line of input. It reports whether to quit and whether the stage prompt should be shown again.
func handleLine(ctx context.Context, engine *interview.Engine, snap interview.Snapshot, line string) (quit, reprompt bool) {
	trimmed := strings.TrimSpace(line)

	switch trimmed {
	case "/quit", "/q":
		return true, false
	case "/status":
		printSnapshot(engine.Snapshot())
		return false, true
	case "/pause":
		_, err := engine.Pause(ctx)
		report(err)
		return false, true
	case "/resume":
		_, err := engine.Resume(ctx)
		report(err)
		return false, true
	case "/reset":
		engine.ResetSession(ctx)
		fmt.Println("Session reset.")
		return false, true
	}

	var err error
	switch snap.Stage {
	case models.StageResumeUpload:
		if trimmed == "" {
			_, err = engine.IngestProfile(ctx, models.CandidateProfile{})
			break
		}
		var data []byte
		data, err = os.ReadFile(trimmed)
		if err == nil {
			_, err = engine.UploadResume(ctx, filepath.Base(trimmed), data, "")
		}
	case models.StageProfileCompletion:
		if trimmed == "" {
			return false, true
		}
		_, err = engine.CompleteProfile(ctx, map[string]string{snap.Profile.MissingFields[0]: trimmed})
	case models.StageReadyToStart:
		fmt.Println("Preparing your questions...")
		_, err = engine.BeginInterview(ctx)
	case models.StageQuestioning:
		return false, answerLine(ctx, engine, snap, line)
	case models.StagePaused:
		fmt.Println("Interview paused. Type /resume to continue.")
	case models.StageCompleted:
		return false, false
	}

	report(err)
	return false, true
}

// answerLine appends a line to the draft, or submits the draft on an empty line.
// Both target the question in snap, so a timer that already moved on makes them fail.
func answerLine(ctx context.Context, engine *interview.Engine, snap interview.Snapshot, line string) bool {
	draft, questionID := "", ""
	if snap.Session != nil {
		draft = snap.Session.Draft
	}
	if snap.CurrentQuestion != nil {
		questionID = snap.CurrentQuestion.ID
	}

	if strings.TrimSpace(line) != "" {
		if draft != "" {
			draft += "\n"
		}
		report(engine.SaveDraft(ctx, questionID, draft+line))
		fmt.Print("> ")
		return false
	}

	if strings.TrimSpace(draft) == "" {
		fmt.Print("Type your answer first.\n> ")
		return false
	}

	fmt.Println("Evaluating...")
	res, err := engine.SubmitAnswer(ctx, questionID, draft)
	if err != nil {
		report(err)
		return true
	}
	printSubmitResult(res)
	return true
}

func printSubmitResult(res interview.SubmitResult) {
	fmt.Printf("%s %.1f/10\n", labelStyle.Render("Score:"), res.Record.Score)
	if res.Record.Feedback != "" {
		fmt.Println(valueStyle.Render(res.Record.Feedback))
	}
	if res.Status == interview.StatusCompleted && res.Archive != nil {
		fmt.Printf("\n%s %s\n", labelStyle.Render("Archived as:"), res.Archive.CandidateID)
	}
}

func report(err error) {
	if err == nil {
		return
	}
	switch app.Kind(err) {
	case app.KindValidation, app.KindState, app.KindParse:
		fmt.Println(errorStyle.Render("!"), err)
	case app.KindReset:
		fmt.Println("The session was reset while that was in progress.")
	default:
		fmt.Println(errorStyle.Render("Error:"), err)
	}
}

func init() {
	rootCmd.AddCommand(interviewCmd)
}
