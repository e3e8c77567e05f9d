package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/khrees2412/mockly/internal/interview"
	"github.com/khrees2412/mockly/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginTop(1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

func printField(label, value string) {
	if value == "" {
		value = mutedStyle.Render("(missing)")
	}
	fmt.Printf("%s %s\n", labelStyle.Render(label), valueStyle.Render(value))
}

func printProfile(p *models.CandidateProfile) {
	if p == nil {
		fmt.Println(mutedStyle.Render("No candidate yet."))
		return
	}
	printField("Name:", p.Name)
	printField("Email:", p.Email)
	printField("Phone:", p.Phone)
	if p.Role != "" {
		printField("Role:", p.Role)
	}
	if p.ResumeName != "" {
		printField("Resume:", p.ResumeName)
	}
}

func printSnapshot(snap interview.Snapshot) {
	fmt.Println(titleStyle.Render("Session"))
	printField("Stage:", string(snap.Stage))
	printProfile(snap.Profile)
	if snap.CurrentQuestion != nil {
		fmt.Println()
		printQuestion(snap)
	}
	if snap.Session != nil && snap.Session.Summary != nil {
		printSummary(*snap.Session.Summary)
	}
}

func printQuestion(snap interview.Snapshot) {
	q := snap.CurrentQuestion
	fmt.Printf("%s %s\n",
		labelStyle.Render(fmt.Sprintf("Question %d/%d", snap.Position, snap.Total)),
		mutedStyle.Render(fmt.Sprintf("[%s, %s left]", q.Difficulty, formatSeconds(snap.Remaining))))
	fmt.Println(valueStyle.Render(q.Prompt))
}

func printSummary(s models.InterviewSummary) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Final score: %.1f/10", s.FinalScore)))
	if s.Summary != "" {
		fmt.Println(s.Summary)
	}
	if len(s.Strengths) > 0 {
		fmt.Printf("\n%s\n", labelStyle.Render("Strengths"))
		for _, item := range s.Strengths {
			fmt.Printf("  • %s\n", item)
		}
	}
	if len(s.Improvements) > 0 {
		fmt.Printf("\n%s\n", labelStyle.Render("To improve"))
		for _, item := range s.Improvements {
			fmt.Printf("  • %s\n", item)
		}
	}
}

func formatSeconds(total int) string {
	if total < 0 {
		total = 0
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func truncateText(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
