package interview

import (
	"context"
	"errors"
	"fmt"

	"github.com/khrees2412/mockly/internal/matcher"
	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

// SubmitAnswer runs the answer pipeline for the active question: freeze and mark the question,
// evaluate, record, then advance or finalize. A blank manual answer is rejected.
// questionID is the question the candidate was answering; empty means the active one, and a
// question that is no longer active is rejected with a StateError.
func (e *Engine) SubmitAnswer(ctx context.Context, questionID, text string) (SubmitResult, error) {
	return e.submit(ctx, questionID, text, false)
}

func (e *Engine) submit(ctx context.Context, questionID, text string, auto bool) (SubmitResult, error) {
	// writes must land even if the caller goes away while the evaluator runs
	store := context.WithoutCancel(ctx)

	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return SubmitResult{}, &session.StateError{Op: "submit answer", Stage: models.StageResumeUpload, Reason: "no session"}
	}
	s, sub, err := session.BeginSubmission(e.current.session, questionID, text, auto, e.now())
	if err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}
	e.current.session = s
	e.persistLocked(store)
	epoch := e.epoch
	transcript := session.Clone(s).Transcript
	e.mu.Unlock()

	e.metrics.Submission(auto)
	eval := e.evaluate(ctx, sub, transcript)
	e.metrics.AnswerScore(eval.Score)

	e.mu.Lock()
	if e.epoch != epoch || e.current == nil {
		e.mu.Unlock()
		e.log.Info("discarding evaluation of question %s for a reset session", sub.QuestionID)
		return SubmitResult{}, session.ErrSessionReset
	}

	now := e.now()
	s, record, err := session.RecordAnswer(e.current.session, sub, eval, now)
	if err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}
	s, completed, err := session.Advance(s, now)
	if err != nil {
		e.mu.Unlock()
		return SubmitResult{}, err
	}
	e.current.session = s
	e.persistLocked(store)

	if !completed {
		next := s.Questions[s.CurrentQuestionID]
		e.mu.Unlock()
		return SubmitResult{Status: StatusContinue, Record: record, NextQuestion: &next}, nil
	}
	e.mu.Unlock()

	e.metrics.Completed()
	archived, err := e.Finalize(ctx)
	if err != nil {
		if errors.Is(err, session.ErrSessionReset) {
			return SubmitResult{}, err
		}
		e.log.Error("failed to finalize session: %v", err)
		return SubmitResult{Status: StatusCompleted, Record: record}, nil
	}
	return SubmitResult{Status: StatusCompleted, Record: record, Archive: &archived}, nil
}

// evaluate asks the AI to score a submission, using the offline scorer when it is unavailable.
// A blank answer always scores 1.
func (e *Engine) evaluate(ctx context.Context, sub session.Submission, transcript []models.ChatMessage) models.Evaluation {
	raw := sub.Answer
	if sub.Blank {
		raw = ""
	}

	result, err := guard(func() (*models.Evaluation, error) {
		return e.ai.EvaluateAnswer(ctx, sub.Question, sub.Answer, transcript)
	})
	if err == nil && result == nil {
		err = fmt.Errorf("empty evaluation")
	}
	if err != nil {
		e.log.Warn("evaluation of question %s unavailable, using offline scoring: %v", sub.QuestionID, err)
		e.metrics.Fallback("evaluate")
		return matcher.FallbackEvaluation(sub.Question.Difficulty, raw)
	}

	eval := *result
	eval.Score = session.ClampScore(eval.Score)
	if sub.Blank {
		eval.Score = 1
	}
	if eval.Feedback == "" {
		eval.Feedback = matcher.OfflineFeedback
	}
	return eval
}

// Finalize summarizes a completed session and upserts its archive record. It is idempotent:
// the summary is produced once and repeated calls rewrite the same candidate's record.
// Archive write failures are logged and leave the session completed; Restore finalizes again.
// Only the summary request observes ctx cancellation.
func (e *Engine) Finalize(ctx context.Context) (models.CandidateArchiveRecord, error) {
	store := context.WithoutCancel(ctx)

	e.mu.Lock()
	if e.current == nil || e.current.session.Stage != models.StageCompleted {
		stage := models.StageResumeUpload
		if e.current != nil {
			stage = e.current.session.Stage
		}
		e.mu.Unlock()
		return models.CandidateArchiveRecord{}, &session.StateError{Op: "finalize", Stage: stage, Reason: "interview is not complete"}
	}

	if e.current.session.Summary == nil {
		epoch := e.epoch
		profile := e.current.profile
		s := session.Clone(e.current.session)
		e.mu.Unlock()

		summary := e.summarize(ctx, profile, s)

		e.mu.Lock()
		if e.epoch != epoch || e.current == nil {
			e.mu.Unlock()
			e.log.Info("discarding summary for a reset session")
			return models.CandidateArchiveRecord{}, session.ErrSessionReset
		}
		// a concurrent finalize may have installed the summary already
		if e.current.session.Summary == nil {
			summarized, err := session.SetSummary(e.current.session, summary, e.now())
			if err != nil {
				e.mu.Unlock()
				return models.CandidateArchiveRecord{}, err
			}
			e.current.session = summarized
			e.persistLocked(store)
		}
	}

	record, err := session.BuildArchiveRecord(e.current.profile, e.current.session, e.now())
	e.mu.Unlock()
	if err != nil {
		return models.CandidateArchiveRecord{}, err
	}

	if err := e.archive.UpsertArchive(store, record); err != nil {
		e.log.Error("failed to archive candidate %s: %v", record.CandidateID, err)
		return record, fmt.Errorf("failed to archive candidate: %w", err)
	}
	e.log.Info("archived candidate %s with final score %.1f", record.CandidateID, record.FinalScore)
	return record, nil
}

func (e *Engine) summarize(ctx context.Context, profile models.CandidateProfile, s models.InterviewSession) models.InterviewSummary {
	questions := session.OrderedQuestions(s)
	answers := session.OrderedAnswers(s)

	result, err := guard(func() (*models.InterviewSummary, error) {
		return e.ai.Summarize(ctx, profile, questions, answers)
	})
	if err == nil && result == nil {
		err = fmt.Errorf("empty summary")
	}
	if err != nil {
		e.log.Warn("summary unavailable, using the computed summary: %v", err)
		e.metrics.Fallback("summarize")
		return session.FallbackSummary(s)
	}

	summary := *result
	summary.FinalScore = session.ClampScore(summary.FinalScore)
	if summary.Summary == "" {
		summary.Summary = session.GenericSummary
	}
	return summary
}

// TickTimer advances the active countdown and auto-submits the draft, or the placeholder,
// the first time the timer expires for a question.
func (e *Engine) TickTimer(ctx context.Context) (TickResult, error) {
	result, due := e.tick()
	if due == nil {
		return result, nil
	}
	return e.autoSubmit(ctx, result, *due)
}

// expiredQuestion is a question whose timer ran out and which still needs its auto-submission
type expiredQuestion struct {
	questionID string
	draft      string
}

// tick applies one countdown step and claims the one-shot auto-submission when the timer expired
func (e *Engine) tick() (TickResult, *expiredQuestion) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return TickResult{}, nil
	}
	s, tick := session.Tick(e.current.session, e.now())
	e.current.session = s
	result := TickResult{QuestionID: tick.QuestionID, RemainingSeconds: tick.RemainingSeconds}

	if !tick.Expired || e.autoFired[tick.QuestionID] {
		return result, nil
	}
	e.autoFired[tick.QuestionID] = true
	return result, &expiredQuestion{questionID: tick.QuestionID, draft: s.Draft}
}

// autoSubmit submits for the expired question only. It does nothing once that question was
// answered or the interview moved past it.
func (e *Engine) autoSubmit(ctx context.Context, result TickResult, due expiredQuestion) (TickResult, error) {
	e.log.Debug("timer expired for question %s, auto-submitting", due.questionID)
	submitted, err := e.submit(ctx, due.questionID, due.draft, true)
	if err != nil {
		if errors.Is(err, session.ErrState) {
			e.log.Debug("auto-submission for question %s skipped: %v", due.questionID, err)
			return result, nil
		}
		return result, err
	}
	result.AutoSubmitted = &submitted
	return result, nil
}
