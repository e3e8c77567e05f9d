package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/khrees2412/mockly/pkg/models"
)

// DefaultTimeout bounds a single model call
const DefaultTimeout = 45 * time.Second

const interviewerSystem = `You are a senior engineer conducting a timed technical interview for a full-stack (React/Node.js) role.
Be fair and concise. Always reply with a single JSON object and nothing else.`

// Service implements the interview AI operations on top of a Completer.
// Any transport or parse failure is returned as an error so the caller can fall back.
type Service struct {
	llm     Completer
	timeout time.Duration
}

// NewService creates a Service. A zero timeout uses DefaultTimeout.
func NewService(llm Completer, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{llm: llm, timeout: timeout}
}

func (s *Service) complete(ctx context.Context, prompt string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.llm.Complete(ctx, interviewerSystem, prompt)
	if err != nil {
		return err
	}
	return decodeJSON(reply, out)
}

type generatedQuestion struct {
	Prompt     string `json:"prompt"`
	Difficulty string `json:"difficulty"`
	Guidance   string `json:"guidance"`
}

// GenerateQuestions asks the model for a question plan matching the difficulty pattern
func (s *Service) GenerateQuestions(ctx context.Context, profile models.CandidateProfile, plan models.InterviewPlan) ([]models.InterviewQuestion, error) {
	var reply struct {
		Questions []generatedQuestion `json:"questions"`
	}
	if err := s.complete(ctx, buildQuestionPrompt(profile, plan), &reply); err != nil {
		return nil, err
	}

	questions := make([]models.InterviewQuestion, 0, len(reply.Questions))
	for _, q := range reply.Questions {
		questions = append(questions, models.InterviewQuestion{
			Prompt:     strings.TrimSpace(q.Prompt),
			Difficulty: models.Difficulty(strings.ToLower(strings.TrimSpace(q.Difficulty))),
			Guidance:   strings.TrimSpace(q.Guidance),
		})
	}
	return questions, nil
}

// EvaluateAnswer asks the model to score one answer out of 10
func (s *Service) EvaluateAnswer(ctx context.Context, question models.InterviewQuestion, answer string, transcript []models.ChatMessage) (*models.Evaluation, error) {
	var eval models.Evaluation
	if err := s.complete(ctx, buildEvaluationPrompt(question, answer, transcript), &eval); err != nil {
		return nil, err
	}
	if eval.Score < 0 || eval.Score > 10 {
		return nil, fmt.Errorf("evaluation score %v out of range", eval.Score)
	}
	eval.Feedback = strings.TrimSpace(eval.Feedback)
	return &eval, nil
}

// Summarize asks the model for the final assessment
func (s *Service) Summarize(ctx context.Context, profile models.CandidateProfile, questions []models.InterviewQuestion, answers []models.AnswerRecord) (*models.InterviewSummary, error) {
	var summary models.InterviewSummary
	if err := s.complete(ctx, buildSummaryPrompt(profile, questions, answers), &summary); err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary.Summary) == "" {
		return nil, fmt.Errorf("summary reply has no summary text")
	}
	return &summary, nil
}

// decodeJSON unmarshals the outermost JSON object of a model reply, tolerating code fences and prose
func decodeJSON(reply string, out any) error {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model reply")
	}
	if err := json.Unmarshal([]byte(reply[start:end+1]), out); err != nil {
		return fmt.Errorf("failed to parse model reply: %w", err)
	}
	return nil
}

// buildQuestionPrompt creates the prompt for question generation
func buildQuestionPrompt(profile models.CandidateProfile, plan models.InterviewPlan) string {
	pattern := make([]string, 0, plan.TotalQuestions)
	for i := 0; i < plan.TotalQuestions && len(plan.DifficultyPattern) > 0; i++ {
		pattern = append(pattern, string(plan.DifficultyPattern[i%len(plan.DifficultyPattern)]))
	}

	role := profile.Role
	if role == "" {
		role = "Full Stack Engineer (React/Node.js)"
	}

	return fmt.Sprintf(`Write %d interview questions for the candidate below.

Candidate:
- Name: %s
- Role: %s
- Resume excerpt: %s

Difficulties, in order: %s

Each question must be answerable in a few minutes of typing. Reply as:
{"questions": [{"prompt": "...", "difficulty": "easy|medium|hard", "guidance": "what a strong answer covers"}]}`,
		plan.TotalQuestions,
		profile.Name,
		role,
		truncate(profile.ResumeText, 1500),
		strings.Join(pattern, ", "),
	)
}

// buildEvaluationPrompt creates the prompt for scoring one answer
func buildEvaluationPrompt(q models.InterviewQuestion, answer string, transcript []models.ChatMessage) string {
	var history strings.Builder
	for _, m := range lastMessages(transcript, 6) {
		fmt.Fprintf(&history, "%s: %s\n", m.Role, truncate(m.Body, 300))
	}

	return fmt.Sprintf(`Score the candidate's answer from 0 to 10.

Question (%s, %d seconds): %s
Guidance: %s

Answer:
%s

Recent conversation:
%s
Reply as: {"score": 7.5, "feedback": "two or three sentences"}`,
		q.Difficulty, q.TimeLimitSeconds, q.Prompt, q.Guidance, answer, history.String())
}

// buildSummaryPrompt creates the prompt for the final assessment
func buildSummaryPrompt(profile models.CandidateProfile, questions []models.InterviewQuestion, answers []models.AnswerRecord) string {
	byID := make(map[string]models.AnswerRecord, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	var body strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&body, "%d. [%s] %s\n", i+1, q.Difficulty, q.Prompt)
		if a, ok := byID[q.ID]; ok {
			fmt.Fprintf(&body, "   Answer (%ds, score %.1f): %s\n", a.ElapsedSeconds, a.Score, truncate(a.Answer, 600))
		} else {
			body.WriteString("   No answer recorded\n")
		}
	}

	return fmt.Sprintf(`Summarize the interview of %s.

%s
Reply as: {"final_score": 0-10, "summary": "one paragraph", "strengths": ["..."], "improvements": ["..."]}`,
		profile.Name, body.String())
}

func lastMessages(in []models.ChatMessage, n int) []models.ChatMessage {
	if len(in) <= n {
		return in
	}
	return in[len(in)-n:]
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
