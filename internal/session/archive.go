package session

import (
	"time"

	"github.com/khrees2412/mockly/pkg/models"
)

// Fallback summary text used when the summarizer is unavailable
var (
	GenericSummary      = "Interview completed. The AI reviewer was unavailable, so this summary is based on the offline evaluator's per-question scores."
	GenericStrengths    = []string{"Completed every question in the interview", "Communicated answers within the time limits"}
	GenericImprovements = []string{"Add more concrete technical detail and examples", "Explain trade-offs and reasoning behind decisions"}
)

// missingScore substitutes for a question that has no recorded answer
const missingScore = 5.0

// OrderedQuestions returns the plan's questions in their fixed order
func OrderedQuestions(s models.InterviewSession) []models.InterviewQuestion {
	out := make([]models.InterviewQuestion, 0, len(s.QuestionOrder))
	for _, id := range s.QuestionOrder {
		if q, ok := s.Questions[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// OrderedAnswers returns the recorded answers following the question order
func OrderedAnswers(s models.InterviewSession) []models.AnswerRecord {
	out := make([]models.AnswerRecord, 0, len(s.Answers))
	for _, id := range s.QuestionOrder {
		if a, ok := s.Answers[id]; ok {
			out = append(out, a)
		}
	}
	return out
}

// FallbackSummary averages the per-question scores, counting unanswered questions as 5
func FallbackSummary(s models.InterviewSession) models.InterviewSummary {
	total := 0.0
	for _, id := range s.QuestionOrder {
		if a, ok := s.Answers[id]; ok {
			total += a.Score
		} else {
			total += missingScore
		}
	}

	score := 0.0
	if n := len(s.QuestionOrder); n > 0 {
		score = total / float64(n)
	}

	return models.InterviewSummary{
		FinalScore:   ClampScore(score),
		Summary:      GenericSummary,
		Strengths:    append([]string(nil), GenericStrengths...),
		Improvements: append([]string(nil), GenericImprovements...),
	}
}

// BuildArchiveRecord snapshots a completed session. The record is a value copy and shares
// no containers with the live session.
func BuildArchiveRecord(profile models.CandidateProfile, in models.InterviewSession, now time.Time) (models.CandidateArchiveRecord, error) {
	if !IsTerminal(in.Stage) || in.Summary == nil {
		return models.CandidateArchiveRecord{}, stateErr("archive", in.Stage, "interview has no final summary")
	}
	if profile.ID == "" {
		return models.CandidateArchiveRecord{}, &ValidationError{Field: "candidate_id", Reason: "must not be empty"}
	}

	s := Clone(in)
	return models.CandidateArchiveRecord{
		CandidateID: profile.ID,
		SessionID:   s.ID,
		Name:        profile.Name,
		Email:       profile.Email,
		Phone:       profile.Phone,
		Role:        profile.Role,
		ResumeKey:   profile.ResumeKey,
		FinalScore:  s.Summary.FinalScore,
		Summary:     *s.Summary,
		Questions:   OrderedQuestions(s),
		Answers:     OrderedAnswers(s),
		Transcript:  s.Transcript,
		CompletedAt: now,
	}, nil
}
