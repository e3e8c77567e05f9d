package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/khrees2412/mockly/pkg/models"
	"gopkg.in/yaml.v3"
)

// DefaultTimeLimitSeconds applies when a plan has no timer for a difficulty
const DefaultTimeLimitSeconds = 60

// BankEntry is one fallback question
type BankEntry struct {
	Prompt   string `yaml:"prompt"`
	Guidance string `yaml:"guidance"`
}

// QuestionBank holds the fixed fallback questions per difficulty
type QuestionBank map[models.Difficulty][]BankEntry

// DefaultBank is the built-in fallback question bank
func DefaultBank() QuestionBank {
	return QuestionBank{
		models.DifficultyEasy: {
			{Prompt: "What is the difference between let, const and var in JavaScript?", Guidance: "Cover scoping, hoisting and reassignment."},
			{Prompt: "Explain what a REST API is and name the common HTTP methods.", Guidance: "Mention resources, statelessness and idempotency."},
			{Prompt: "What are props and state in a React component?", Guidance: "Contrast ownership and mutability."},
		},
		models.DifficultyMedium: {
			{Prompt: "How does the Node.js event loop handle asynchronous I/O?", Guidance: "Mention the call stack, callback queue and libuv."},
			{Prompt: "How would you manage shared state across a large React application?", Guidance: "Compare context, reducers and external stores."},
			{Prompt: "How do you design database indexes for a read-heavy API?", Guidance: "Discuss selectivity, composite indexes and write cost."},
		},
		models.DifficultyHard: {
			{Prompt: "Design a rate limiter for a public API serving millions of users.", Guidance: "Cover algorithms, distributed state and failure modes."},
			{Prompt: "How would you diagnose and fix a memory leak in a long-running Node.js service?", Guidance: "Mention heap snapshots, profiling and common leak sources."},
			{Prompt: "Design a real-time collaborative editor backend.", Guidance: "Discuss conflict resolution, transport and persistence."},
		},
	}
}

// LoadBank reads a YAML question bank keyed by difficulty
func LoadBank(path string) (QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank %s: %w", path, err)
	}

	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("failed to parse question bank: %w", err)
	}
	if len(bank) == 0 {
		return nil, fmt.Errorf("question bank %s is empty", path)
	}
	return bank, nil
}

// ValidatePlan checks a plan can produce at least one timed question
func ValidatePlan(plan models.InterviewPlan) error {
	if plan.TotalQuestions <= 0 {
		return &ValidationError{Field: "total_questions", Reason: "must be greater than 0"}
	}
	if len(plan.DifficultyPattern) == 0 {
		return &ValidationError{Field: "difficulty_pattern", Reason: "must not be empty"}
	}
	for i, d := range plan.DifficultyPattern {
		switch d {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			return &ValidationError{Field: "difficulty_pattern", Reason: fmt.Sprintf("position %d has unknown difficulty %q", i, d)}
		}
		if plan.TimerByDifficulty[d] <= 0 {
			return &ValidationError{Field: "timer_by_difficulty", Reason: fmt.Sprintf("no positive timer for %q", d)}
		}
	}
	return nil
}

// Difficulties expands a plan into one difficulty per question position, cycling the pattern
func Difficulties(plan models.InterviewPlan) []models.Difficulty {
	if len(plan.DifficultyPattern) == 0 {
		return nil
	}
	total := plan.TotalQuestions
	if total <= 0 {
		total = len(plan.DifficultyPattern)
	}
	out := make([]models.Difficulty, total)
	for i := range out {
		out[i] = plan.DifficultyPattern[i%len(plan.DifficultyPattern)]
	}
	return out
}

func timeLimit(plan models.InterviewPlan, d models.Difficulty) int {
	if secs, ok := plan.TimerByDifficulty[d]; ok && secs > 0 {
		return secs
	}
	return DefaultTimeLimitSeconds
}

// FallbackQuestions builds the deterministic plan. The question at position i uses bank entry
// i mod len(bank[difficulty]), so the same plan and bank always produce the same prompts.
func FallbackQuestions(plan models.InterviewPlan, bank QuestionBank, newID func() string) []models.InterviewQuestion {
	difficulties := Difficulties(plan)
	out := make([]models.InterviewQuestion, 0, len(difficulties))

	for i, d := range difficulties {
		q := models.InterviewQuestion{
			ID:               newID(),
			Difficulty:       d,
			TimeLimitSeconds: timeLimit(plan, d),
		}
		if entries := bank[d]; len(entries) > 0 {
			entry := entries[i%len(entries)]
			q.Prompt = entry.Prompt
			q.Guidance = entry.Guidance
		} else {
			q.Prompt = fmt.Sprintf("Walk me through a %s technical problem you solved recently.", d)
		}
		out = append(out, q)
	}
	return out
}

// NormalizeQuestions fills defaults into generated questions. Questions without a prompt are dropped,
// missing ids and difficulties are assigned, and explicit time limits are kept.
func NormalizeQuestions(generated []models.InterviewQuestion, plan models.InterviewPlan, newID func() string) []models.InterviewQuestion {
	difficulties := Difficulties(plan)
	seenIDs := map[string]bool{}
	out := make([]models.InterviewQuestion, 0, len(generated))

	for _, q := range generated {
		q.Prompt = strings.TrimSpace(q.Prompt)
		if q.Prompt == "" {
			continue
		}
		if plan.TotalQuestions > 0 && len(out) >= plan.TotalQuestions {
			break
		}

		position := len(out)
		switch q.Difficulty {
		case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			q.Difficulty = ""
		}
		if q.Difficulty == "" && position < len(difficulties) {
			q.Difficulty = difficulties[position]
		}
		if q.Difficulty == "" {
			q.Difficulty = models.DifficultyMedium
		}
		if q.TimeLimitSeconds <= 0 {
			q.TimeLimitSeconds = timeLimit(plan, q.Difficulty)
		}
		if q.ID == "" || seenIDs[q.ID] {
			q.ID = newID()
		}
		seenIDs[q.ID] = true
		out = append(out, q)
	}
	return out
}
