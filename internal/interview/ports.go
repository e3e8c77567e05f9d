package interview

import (
	"context"

	"github.com/khrees2412/mockly/pkg/models"
)

// AIService generates, evaluates and summarizes. A nil result or an error means "unavailable"
// and is always replaced by the deterministic fallback.
type AIService interface {
	GenerateQuestions(ctx context.Context, profile models.CandidateProfile, plan models.InterviewPlan) ([]models.InterviewQuestion, error)
	EvaluateAnswer(ctx context.Context, question models.InterviewQuestion, answer string, transcript []models.ChatMessage) (*models.Evaluation, error)
	Summarize(ctx context.Context, profile models.CandidateProfile, questions []models.InterviewQuestion, answers []models.AnswerRecord) (*models.InterviewSummary, error)
}

// ArchiveStore keeps one archive record per candidate. GetArchive returns an error wrapping
// session.ErrNotFound for an unknown candidate.
type ArchiveStore interface {
	UpsertArchive(ctx context.Context, record models.CandidateArchiveRecord) error
	ListArchives(ctx context.Context, q models.ArchiveQuery) ([]models.CandidateArchiveRecord, error)
	GetArchive(ctx context.Context, candidateID string) (*models.CandidateArchiveRecord, error)
}

// SessionStore persists the live session document
type SessionStore interface {
	SaveSessionDocument(ctx context.Context, doc models.SessionDocument) error
	LoadSessionDocument(ctx context.Context) (*models.SessionDocument, error)
}

// BlobStore holds uploaded resume bytes
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ResumeParser extracts profile fields from a resume file
type ResumeParser interface {
	Parse(ctx context.Context, data []byte, mimeHint string) (models.CandidateProfile, error)
}

// Status reports where the pipeline left the session
type Status string

const (
	StatusContinue  Status = "continue"
	StatusCompleted Status = "completed"
)

// SubmitResult is the outcome of one answer submission
type SubmitResult struct {
	Status       Status                         `json:"status"`
	Record       models.AnswerRecord            `json:"record"`
	NextQuestion *models.InterviewQuestion      `json:"next_question,omitempty"`
	Archive      *models.CandidateArchiveRecord `json:"archive,omitempty"`
}

// BeginResult is the outcome of a begin action. Started is false when begin was a no-op.
type BeginResult struct {
	Started  bool                      `json:"started"`
	Stage    models.Stage              `json:"stage"`
	Question *models.InterviewQuestion `json:"question,omitempty"`
}

// TickResult is the outcome of one timer tick
type TickResult struct {
	QuestionID       string        `json:"question_id,omitempty"`
	RemainingSeconds int           `json:"remaining_seconds"`
	AutoSubmitted    *SubmitResult `json:"auto_submitted,omitempty"`
}

// Snapshot is a read-only copy of the engine state for rendering
type Snapshot struct {
	Stage           models.Stage              `json:"stage"`
	Profile         *models.CandidateProfile  `json:"profile,omitempty"`
	Session         *models.InterviewSession  `json:"session,omitempty"`
	CurrentQuestion *models.InterviewQuestion `json:"current_question,omitempty"`
	Position        int                       `json:"position"`
	Total           int                       `json:"total"`
	Remaining       int                       `json:"remaining_seconds"`
}
