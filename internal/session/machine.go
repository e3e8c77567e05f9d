// Package session implements the interview session lifecycle as pure functions.
// Every function takes the current session by value and returns a new one; inputs are never mutated.
package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/khrees2412/mockly/pkg/models"
)

// AutoSubmitPlaceholder is the answer body recorded when the timer expires with nothing typed
const AutoSubmitPlaceholder = "[No answer submitted before the timer expired]"

// validTransitions defines the forward-only stage machine. Reset is handled separately by New.
var validTransitions = map[models.Stage][]models.Stage{
	models.StageResumeUpload:      {models.StageProfileCompletion},
	models.StageProfileCompletion: {models.StageReadyToStart},
	models.StageReadyToStart:      {models.StageQuestioning},
	models.StageQuestioning: {
		models.StageQuestioning, // non-final answer
		models.StagePaused,
		models.StageCompleted, // final answer
	},
	models.StagePaused:    {models.StageQuestioning},
	models.StageCompleted: {},
}

// IsValidTransition checks a stage transition against the machine
func IsValidTransition(from, to models.Stage) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist except reset
func IsTerminal(stage models.Stage) bool {
	return stage == models.StageCompleted
}

func transition(s *models.InterviewSession, op string, to models.Stage) error {
	if !IsValidTransition(s.Stage, to) {
		return stateErr(op, s.Stage, fmt.Sprintf("cannot move to %q", to))
	}
	s.Stage = to
	return nil
}

// New returns a fresh session in the initial stage
func New(id string, now time.Time) models.InterviewSession {
	return models.InterviewSession{
		ID:         id,
		Stage:      models.StageResumeUpload,
		Questions:  map[string]models.InterviewQuestion{},
		Answers:    map[string]models.AnswerRecord{},
		Timers:     map[string]models.QuestionTimerState{},
		Transcript: []models.ChatMessage{},
		Submitted:  map[string]bool{},
		CreatedAt:  now,
	}
}

// Clone deep-copies a session so the copy shares no mutable containers with the original
func Clone(s models.InterviewSession) models.InterviewSession {
	out := s
	out.Questions = make(map[string]models.InterviewQuestion, len(s.Questions))
	for k, v := range s.Questions {
		out.Questions[k] = v
	}
	out.QuestionOrder = append([]string(nil), s.QuestionOrder...)
	out.Answers = make(map[string]models.AnswerRecord, len(s.Answers))
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	out.Timers = make(map[string]models.QuestionTimerState, len(s.Timers))
	for k, v := range s.Timers {
		out.Timers[k] = v
	}
	out.Transcript = cloneTranscript(s.Transcript)
	out.Submitted = make(map[string]bool, len(s.Submitted))
	for k, v := range s.Submitted {
		out.Submitted[k] = v
	}
	if s.Summary != nil {
		summary := cloneSummary(*s.Summary)
		out.Summary = &summary
	}
	return out
}

func cloneTranscript(in []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(in))
	for i, msg := range in {
		out[i] = msg
		if msg.Metadata != nil {
			out[i].Metadata = make(map[string]string, len(msg.Metadata))
			for k, v := range msg.Metadata {
				out[i].Metadata[k] = v
			}
		}
	}
	return out
}

func cloneSummary(in models.InterviewSummary) models.InterviewSummary {
	in.Strengths = append([]string(nil), in.Strengths...)
	in.Improvements = append([]string(nil), in.Improvements...)
	return in
}

// Normalize fills fields missing from a persisted document with their initial-state values
// and drops references that would break the session invariants.
func Normalize(s models.InterviewSession) models.InterviewSession {
	out := Clone(s)
	if _, ok := validTransitions[out.Stage]; !ok {
		out.Stage = models.StageResumeUpload
	}

	order := out.QuestionOrder[:0]
	for _, id := range out.QuestionOrder {
		if _, ok := out.Questions[id]; ok {
			order = append(order, id)
		}
	}
	out.QuestionOrder = order

	if out.CurrentQuestionID != "" {
		if _, ok := out.Questions[out.CurrentQuestionID]; !ok {
			out.CurrentQuestionID = ""
		}
	}

	// at most one timer may run: the current question's
	for id, t := range out.Timers {
		if t.IsRunning && (id != out.CurrentQuestionID || out.Stage != models.StageQuestioning) {
			out.Timers[id] = FreezeTimer(t)
		}
	}

	if out.Summary != nil && !IsTerminal(out.Stage) {
		out.Summary = nil
	}
	return out
}

func message(role, body string, now time.Time, meta map[string]string) models.ChatMessage {
	return models.ChatMessage{Role: role, Body: body, Timestamp: now, Metadata: meta}
}

// ApplyProfile moves the session through profile ingestion. The session enters profile completion
// and advances to ready-to-start automatically once no required field is missing.
func ApplyProfile(in models.InterviewSession, profile models.CandidateProfile, now time.Time) (models.InterviewSession, error) {
	s := Clone(in)

	switch s.Stage {
	case models.StageResumeUpload:
		if err := transition(&s, "ingest profile", models.StageProfileCompletion); err != nil {
			return in, err
		}
		greeting := "Profile received."
		if profile.Name != "" {
			greeting = fmt.Sprintf("Welcome, %s. Your profile was received.", profile.Name)
		}
		s.Transcript = append(s.Transcript, message(models.RoleSystem, greeting, now, nil))
	case models.StageProfileCompletion, models.StageReadyToStart:
	default:
		return in, stateErr("update profile", s.Stage, "interview already started")
	}

	if s.Stage == models.StageProfileCompletion {
		if len(profile.MissingFields) > 0 {
			s.Transcript = append(s.Transcript, message(models.RoleAssistant,
				fmt.Sprintf("Before we begin, please provide your %s.", strings.Join(profile.MissingFields, ", ")),
				now, map[string]string{"missing_fields": strings.Join(profile.MissingFields, ",")}))
			return s, nil
		}
		if err := transition(&s, "complete profile", models.StageReadyToStart); err != nil {
			return in, err
		}
		s.Transcript = append(s.Transcript, message(models.RoleSystem, "Profile complete. Ready to start the interview.", now, nil))
	}
	return s, nil
}

// Start installs the question plan and activates the first question
func Start(in models.InterviewSession, questions []models.InterviewQuestion, now time.Time) (models.InterviewSession, error) {
	if in.Stage != models.StageReadyToStart {
		return in, stateErr("begin", in.Stage, "session is not ready to start")
	}
	if in.CurrentQuestionID != "" {
		return in, stateErr("begin", in.Stage, "a question is already active")
	}
	if len(questions) == 0 {
		return in, &ValidationError{Field: "questions", Reason: "question plan is empty"}
	}

	s := Clone(in)
	s.Questions = make(map[string]models.InterviewQuestion, len(questions))
	s.QuestionOrder = make([]string, 0, len(questions))
	for _, q := range questions {
		if _, dup := s.Questions[q.ID]; dup || q.ID == "" {
			return in, &ValidationError{Field: "questions", Reason: fmt.Sprintf("invalid or duplicate question id %q", q.ID)}
		}
		s.Questions[q.ID] = q
		s.QuestionOrder = append(s.QuestionOrder, q.ID)
	}

	if err := transition(&s, "begin", models.StageQuestioning); err != nil {
		return in, err
	}
	s.Transcript = append(s.Transcript, message(models.RoleSystem,
		fmt.Sprintf("Interview started: %d questions.", len(questions)), now, nil))
	return activate(s, s.QuestionOrder[0], now), nil
}

// activate makes qid the current question with a fresh timer cycle and prompt message
func activate(s models.InterviewSession, qid string, now time.Time) models.InterviewSession {
	for id, t := range s.Timers {
		if t.IsRunning {
			s.Timers[id] = FreezeTimer(t)
		}
	}

	q := s.Questions[qid]
	s.CurrentQuestionID = qid
	s.Timers[qid] = StartTimer(q.TimeLimitSeconds, now)
	s.Draft = ""

	position := indexOf(s.QuestionOrder, qid) + 1
	s.Transcript = append(s.Transcript, message(models.RoleAssistant,
		fmt.Sprintf("Question %d/%d (%s, %ds): %s", position, len(s.QuestionOrder), q.Difficulty, q.TimeLimitSeconds, q.Prompt),
		now, map[string]string{
			"question_id": qid,
			"difficulty":  string(q.Difficulty),
			"time_limit":  fmt.Sprintf("%d", q.TimeLimitSeconds),
		}))
	return s
}

func indexOf(order []string, id string) int {
	for i, v := range order {
		if v == id {
			return i
		}
	}
	return -1
}

// NextQuestionID returns the question after the current one in the fixed order
func NextQuestionID(s models.InterviewSession) (string, bool) {
	i := indexOf(s.QuestionOrder, s.CurrentQuestionID)
	if i < 0 || i+1 >= len(s.QuestionOrder) {
		return "", false
	}
	return s.QuestionOrder[i+1], true
}

// TickResult describes what a tick did to the active question
type TickResult struct {
	QuestionID       string
	RemainingSeconds int
	// Expired is set when the timer is terminal and no submission has begun for its question
	Expired bool
}

// Tick advances the active question's countdown
func Tick(in models.InterviewSession, now time.Time) (models.InterviewSession, TickResult) {
	if in.Stage != models.StageQuestioning || in.CurrentQuestionID == "" {
		return in, TickResult{}
	}

	qid := in.CurrentQuestionID
	t, ok := in.Timers[qid]
	if !ok {
		return in, TickResult{QuestionID: qid}
	}

	s := in
	if t.IsRunning {
		s = Clone(in)
		t = AdvanceTimer(t, now)
		s.Timers[qid] = t
	}

	_, answered := s.Answers[qid]
	return s, TickResult{
		QuestionID:       qid,
		RemainingSeconds: t.RemainingSeconds,
		Expired:          TimerExpired(t) && !answered && !s.Submitted[qid],
	}
}

// SaveDraft stores the in-progress answer for the current question.
// questionID names the question the draft was written for; empty means the current one.
func SaveDraft(in models.InterviewSession, questionID, text string) (models.InterviewSession, error) {
	if in.Stage != models.StageQuestioning && in.Stage != models.StagePaused {
		return in, stateErr("save draft", in.Stage, "no interview in progress")
	}
	if in.CurrentQuestionID == "" || in.Submitted[in.CurrentQuestionID] {
		return in, stateErr("save draft", in.Stage, "no question accepting answers")
	}
	if err := checkTarget("save draft", in, questionID); err != nil {
		return in, err
	}
	s := Clone(in)
	s.Draft = text
	return s, nil
}

// Pause freezes the running countdown without making it terminal
func Pause(in models.InterviewSession, now time.Time) (models.InterviewSession, error) {
	if in.Stage != models.StageQuestioning || in.CurrentQuestionID == "" {
		return in, stateErr("pause", in.Stage, "no active question")
	}
	qid := in.CurrentQuestionID
	if in.Submitted[qid] || !in.Timers[qid].IsRunning {
		return in, stateErr("pause", in.Stage, "question timer is not running")
	}

	s := Clone(in)
	if err := transition(&s, "pause", models.StagePaused); err != nil {
		return in, err
	}
	s.Timers[qid] = FreezeTimer(s.Timers[qid])
	s.Transcript = append(s.Transcript, message(models.RoleSystem, "Interview paused.", now, nil))
	return s, nil
}

// Resume restarts the countdown paused by Pause
func Resume(in models.InterviewSession, now time.Time) (models.InterviewSession, error) {
	if in.Stage != models.StagePaused {
		return in, stateErr("resume", in.Stage, "interview is not paused")
	}
	s := Clone(in)
	if err := transition(&s, "resume", models.StageQuestioning); err != nil {
		return in, err
	}
	if qid := s.CurrentQuestionID; qid != "" {
		s.Timers[qid] = ResumeTimer(s.Timers[qid], now)
	}
	s.Transcript = append(s.Transcript, message(models.RoleSystem, "Interview resumed.", now, nil))
	return s, nil
}
