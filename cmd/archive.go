package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khrees2412/mockly/pkg/models"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Browse completed interviews",
}

var listArchiveCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived candidates",
	Example: `  mockly archive list --sort score --order desc
  mockly archive list --q example.com`,
	Run: func(cmd *cobra.Command, args []string) {
		sortBy, _ := cmd.Flags().GetString("sort")
		order, _ := cmd.Flags().GetString("order")
		search, _ := cmd.Flags().GetString("q")

		if order != "asc" && order != "desc" {
			fmt.Fprintln(os.Stderr, "--order must be asc or desc")
			os.Exit(1)
		}

		records, err := mustEngine(cmd).ListArchives(cmd.Context(), models.ArchiveQuery{
			SortBy:     sortBy,
			Descending: order == "desc",
			Search:     search,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing archive: %v\n", err)
			os.Exit(1)
		}

		if len(records) == 0 {
			fmt.Println("No archived interviews yet. Run 'mockly interview' to complete one.")
			return
		}

		fmt.Println(titleStyle.Render(fmt.Sprintf("Archive (%d)", len(records))))
		for _, r := range records {
			fmt.Printf("%s  %-24s %-28s %s  %s\n",
				labelStyle.Render(fmt.Sprintf("%4.1f", r.FinalScore)),
				truncateText(r.Name, 24),
				truncateText(r.Email, 28),
				r.CompletedAt.Local().Format("2006-01-02 15:04"),
				mutedStyle.Render(r.CandidateID))
		}
	},
}

var showArchiveCmd = &cobra.Command{
	Use:   "show <candidate-id>",
	Short: "Show one archived interview",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		record, err := mustEngine(cmd).GetArchive(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading archive: %v\n", err)
			os.Exit(1)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, _ := json.MarshalIndent(record, "", "  ")
			fmt.Println(string(data))
			return
		}

		fmt.Println(titleStyle.Render(record.Name))
		printField("Email:", record.Email)
		printField("Phone:", record.Phone)
		printField("Completed:", record.CompletedAt.Local().Format("Jan 2, 2006 15:04"))

		answers := make(map[string]models.AnswerRecord, len(record.Answers))
		for _, a := range record.Answers {
			answers[a.QuestionID] = a
		}

		for i, q := range record.Questions {
			fmt.Printf("\n%s %s\n", labelStyle.Render(fmt.Sprintf("Q%d", i+1)), mutedStyle.Render("["+string(q.Difficulty)+"]"))
			fmt.Println(q.Prompt)
			a, ok := answers[q.ID]
			if !ok {
				fmt.Println(mutedStyle.Render("  not answered"))
				continue
			}
			suffix := ""
			if a.AutoSubmitted {
				suffix = " (auto-submitted)"
			}
			fmt.Printf("  %s %.1f/10 in %s%s\n", labelStyle.Render("Score:"), a.Score, formatSeconds(a.ElapsedSeconds), suffix)
			fmt.Printf("  %s\n", truncateText(a.Answer, 200))
			if a.Feedback != "" {
				fmt.Printf("  %s\n", valueStyle.Render(a.Feedback))
			}
		}

		fmt.Println()
		printSummary(record.Summary)
	},
}

var statsArchiveCmd = &cobra.Command{
	Use:   "stats",
	Short: "View score statistics across archived interviews",
	Run: func(cmd *cobra.Command, args []string) {
		records, err := mustEngine(cmd).ListArchives(cmd.Context(), models.ArchiveQuery{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing archive: %v\n", err)
			os.Exit(1)
		}

		if len(records) == 0 {
			fmt.Println("No archived interviews yet.")
			return
		}

		stats := calculateStats(records)

		fmt.Println(titleStyle.Render("Interview Statistics"))

		fmt.Printf("\n%s\n", labelStyle.Render("Overview"))
		fmt.Printf("  Candidates: %d\n", stats.Total)
		fmt.Printf("  Average Score: %.1f\n", stats.AverageScore)
		fmt.Printf("  Best Score: %.1f\n", stats.BestScore)
		fmt.Printf("  Auto-submitted Answers: %d of %d\n", stats.AutoSubmitted, stats.Answers)

		fmt.Printf("\n%s\n", labelStyle.Render("Average by Difficulty"))
		for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard} {
			if n := stats.countByDifficulty[d]; n > 0 {
				fmt.Printf("  %s: %.1f (%d answers)\n", d, stats.scoreByDifficulty[d]/float64(n), n)
			}
		}

		fmt.Printf("\n%s\n", labelStyle.Render("Score Bands"))
		for _, band := range scoreBands {
			count := stats.Bands[band.label]
			percentage := float64(count) / float64(stats.Total) * 100
			fmt.Printf("  %s: %d (%.1f%%)\n", band.label, count, percentage)
		}
	},
}

type Stats struct {
	Total         int
	AverageScore  float64
	BestScore     float64
	Answers       int
	AutoSubmitted int
	Bands         map[string]int

	scoreByDifficulty map[models.Difficulty]float64
	countByDifficulty map[models.Difficulty]int
}

var scoreBands = []struct {
	label string
	min   float64
}{
	{"strong (8-10)", 8},
	{"solid (6-8)", 6},
	{"developing (4-6)", 4},
	{"weak (0-4)", 0},
}

func calculateStats(records []models.CandidateArchiveRecord) Stats {
	stats := Stats{
		Bands:             make(map[string]int),
		scoreByDifficulty: make(map[models.Difficulty]float64),
		countByDifficulty: make(map[models.Difficulty]int),
	}
	stats.Total = len(records)

	sum := 0.0
	for _, r := range records {
		sum += r.FinalScore
		if r.FinalScore > stats.BestScore {
			stats.BestScore = r.FinalScore
		}
		for _, band := range scoreBands {
			if r.FinalScore >= band.min {
				stats.Bands[band.label]++
				break
			}
		}

		difficulty := make(map[string]models.Difficulty, len(r.Questions))
		for _, q := range r.Questions {
			difficulty[q.ID] = q.Difficulty
		}
		for _, a := range r.Answers {
			stats.Answers++
			if a.AutoSubmitted {
				stats.AutoSubmitted++
			}
			d := difficulty[a.QuestionID]
			stats.scoreByDifficulty[d] += a.Score
			stats.countByDifficulty[d]++
		}
	}
	if stats.Total > 0 {
		stats.AverageScore = sum / float64(stats.Total)
	}
	return stats
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(listArchiveCmd)
	archiveCmd.AddCommand(showArchiveCmd)
	archiveCmd.AddCommand(statsArchiveCmd)

	listArchiveCmd.Flags().String("sort", models.SortByScore, "Sort by score, name or date")
	listArchiveCmd.Flags().String("order", "desc", "Sort order: asc or desc")
	listArchiveCmd.Flags().String("q", "", "Filter by name, email or summary text")

	showArchiveCmd.Flags().Bool("json", false, "Print the full record as JSON")
}
