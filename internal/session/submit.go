package session

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/khrees2412/mockly/pkg/models"
)

// Submission is an answer that has been accepted for evaluation but not yet recorded
type Submission struct {
	QuestionID     string
	Question       models.InterviewQuestion
	Answer         string
	Blank          bool
	AutoSubmitted  bool
	StartedAt      time.Time
	SubmittedAt    time.Time
	ElapsedSeconds int
}

// BeginSubmission validates an answer, freezes the active timer, marks the question as submitted
// and appends the candidate's transcript entry. Once it succeeds no further submission is accepted
// for the question, whichever of the timer or the candidate got there first.
// questionID is the question the answer was given for; empty means the active one.
func BeginSubmission(in models.InterviewSession, questionID, raw string, autoSubmitted bool, now time.Time) (models.InterviewSession, Submission, error) {
	if in.Stage != models.StageQuestioning || in.CurrentQuestionID == "" {
		return in, Submission{}, stateErr("submit answer", in.Stage, "no active question")
	}
	if err := checkTarget("submit answer", in, questionID); err != nil {
		return in, Submission{}, err
	}

	qid := in.CurrentQuestionID
	if _, answered := in.Answers[qid]; answered || in.Submitted[qid] {
		return in, Submission{}, stateErr("submit answer", in.Stage, "an answer was already submitted for this question")
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" && !autoSubmitted {
		return in, Submission{}, &ValidationError{Field: "answer", Reason: "answer must not be empty"}
	}

	body := trimmed
	if trimmed == "" {
		body = AutoSubmitPlaceholder
	}

	s := Clone(in)
	q := s.Questions[qid]
	t := FreezeTimer(s.Timers[qid])
	s.Timers[qid] = t
	s.Submitted[qid] = true
	s.Draft = ""

	meta := map[string]string{"question_id": qid}
	if autoSubmitted {
		meta["auto_submitted"] = "true"
	}
	s.Transcript = append(s.Transcript, message(models.RoleCandidate, body, now, meta))

	return s, Submission{
		QuestionID:     qid,
		Question:       q,
		Answer:         body,
		Blank:          trimmed == "",
		AutoSubmitted:  autoSubmitted,
		StartedAt:      t.StartedAt,
		SubmittedAt:    now,
		ElapsedSeconds: ElapsedSeconds(q.TimeLimitSeconds, t.RemainingSeconds),
	}, nil
}

// checkTarget rejects an action aimed at a question that is no longer the active one
func checkTarget(op string, in models.InterviewSession, questionID string) error {
	if questionID == "" || questionID == in.CurrentQuestionID {
		return nil
	}
	return stateErr(op, in.Stage, fmt.Sprintf("question %s is no longer active", questionID))
}

// RecordAnswer writes the immutable answer record for a submission and appends the evaluator's feedback
func RecordAnswer(in models.InterviewSession, sub Submission, eval models.Evaluation, now time.Time) (models.InterviewSession, models.AnswerRecord, error) {
	if in.Stage != models.StageQuestioning || in.CurrentQuestionID != sub.QuestionID {
		return in, models.AnswerRecord{}, stateErr("record answer", in.Stage, "question is no longer active")
	}
	if !in.Submitted[sub.QuestionID] {
		return in, models.AnswerRecord{}, stateErr("record answer", in.Stage, "question has no pending submission")
	}
	if _, exists := in.Answers[sub.QuestionID]; exists {
		return in, models.AnswerRecord{}, stateErr("record answer", in.Stage, "answer already recorded")
	}

	eval.Score = ClampScore(eval.Score)
	record := models.AnswerRecord{
		QuestionID:     sub.QuestionID,
		Answer:         sub.Answer,
		StartedAt:      sub.StartedAt,
		SubmittedAt:    sub.SubmittedAt,
		ElapsedSeconds: sub.ElapsedSeconds,
		AutoSubmitted:  sub.AutoSubmitted,
		Score:          eval.Score,
		Feedback:       eval.Feedback,
	}

	s := Clone(in)
	s.Answers[sub.QuestionID] = record
	s.Transcript = append(s.Transcript, message(models.RoleAssistant,
		fmt.Sprintf("Score: %.1f/10. %s", eval.Score, eval.Feedback), now,
		map[string]string{
			"question_id": sub.QuestionID,
			"score":       fmt.Sprintf("%.1f", eval.Score),
		}))
	return s, record, nil
}

// Advance activates the next question in order, or completes the session after the final answer.
// It reports whether the session completed.
func Advance(in models.InterviewSession, now time.Time) (models.InterviewSession, bool, error) {
	if in.Stage != models.StageQuestioning || in.CurrentQuestionID == "" {
		return in, false, stateErr("advance", in.Stage, "no active question")
	}
	if _, answered := in.Answers[in.CurrentQuestionID]; !answered {
		return in, false, stateErr("advance", in.Stage, "current question has not been answered")
	}

	s := Clone(in)
	if next, ok := NextQuestionID(s); ok {
		if err := transition(&s, "advance", models.StageQuestioning); err != nil {
			return in, false, err
		}
		return activate(s, next, now), false, nil
	}

	if err := transition(&s, "complete", models.StageCompleted); err != nil {
		return in, false, err
	}
	for id, t := range s.Timers {
		s.Timers[id] = FreezeTimer(t)
	}
	s.CurrentQuestionID = ""
	return s, true, nil
}

// SetSummary attaches the final summary to a completed session. It may only happen once.
func SetSummary(in models.InterviewSession, summary models.InterviewSummary, now time.Time) (models.InterviewSession, error) {
	if !IsTerminal(in.Stage) {
		return in, stateErr("finalize", in.Stage, "interview is not completed")
	}
	if in.Summary != nil {
		return in, stateErr("finalize", in.Stage, "summary already set")
	}

	s := Clone(in)
	summary = cloneSummary(summary)
	summary.FinalScore = ClampScore(summary.FinalScore)
	s.Summary = &summary
	rounded := int(math.Round(summary.FinalScore))
	s.Transcript = append(s.Transcript, message(models.RoleSystem,
		fmt.Sprintf("Interview complete. Final score: %d/10.", rounded), now,
		map[string]string{"final_score": fmt.Sprintf("%d", rounded)}))
	return s, nil
}

// ClampScore bounds a score to [0, 10]
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(10, v))
}

// RecoverPending reopens the current question when a submission was accepted but never recorded,
// which happens when the process stops during evaluation. The countdown continues from where it froze.
func RecoverPending(in models.InterviewSession, now time.Time) models.InterviewSession {
	qid := in.CurrentQuestionID
	if in.Stage != models.StageQuestioning || qid == "" || !in.Submitted[qid] {
		return in
	}
	if _, answered := in.Answers[qid]; answered {
		return in
	}

	s := Clone(in)
	delete(s.Submitted, qid)
	s.Timers[qid] = ResumeTimer(s.Timers[qid], now)
	s.Transcript = append(s.Transcript, message(models.RoleSystem,
		"The previous answer was not evaluated. Please submit it again.", now,
		map[string]string{"question_id": qid}))
	return s
}
