package models

import "time"

// Stage is a discrete phase of an interview session's lifecycle
type Stage string

const (
	StageResumeUpload      Stage = "resume-upload"
	StageProfileCompletion Stage = "profile-completion"
	StageReadyToStart      Stage = "ready-to-start"
	StageQuestioning       Stage = "questioning"
	StagePaused            Stage = "paused"
	StageCompleted         Stage = "completed"
)

// Difficulty of an interview question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Sender roles for transcript messages
const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleCandidate = "candidate"
)

// Required profile fields
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// CandidateProfile holds the candidate's identity and contact details
type CandidateProfile struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	Role          string   `json:"role"`
	ResumeKey     string   `json:"resume_key,omitempty"`
	ResumeName    string   `json:"resume_name,omitempty"`
	ResumeText    string   `json:"resume_text,omitempty"`
	MissingFields []string `json:"missing_fields"`
}

// InterviewQuestion is one question of a session's plan
type InterviewQuestion struct {
	ID               string     `json:"id"`
	Prompt           string     `json:"prompt"`
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
	Guidance         string     `json:"guidance,omitempty"`
}

// QuestionTimerState is the countdown state for one question
type QuestionTimerState struct {
	RemainingSeconds int       `json:"remaining_seconds"`
	IsRunning        bool      `json:"is_running"`
	StartedAt        time.Time `json:"started_at"`
	LastTickAt       time.Time `json:"last_tick_at"`
}

// AnswerRecord is the immutable result of answering one question
type AnswerRecord struct {
	QuestionID     string    `json:"question_id"`
	Answer         string    `json:"answer"`
	StartedAt      time.Time `json:"started_at"`
	SubmittedAt    time.Time `json:"submitted_at"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	AutoSubmitted  bool      `json:"auto_submitted"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
}

// ChatMessage is one transcript entry
type ChatMessage struct {
	Role      string            `json:"role"` // system, assistant, candidate
	Body      string            `json:"body"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// InterviewSummary is the final assessment of a completed session
type InterviewSummary struct {
	FinalScore   float64  `json:"final_score"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// InterviewSession is the live state of the single active interview
type InterviewSession struct {
	ID                string                        `json:"id"`
	Stage             Stage                         `json:"stage"`
	CurrentQuestionID string                        `json:"current_question_id,omitempty"`
	Questions         map[string]InterviewQuestion  `json:"questions"`
	QuestionOrder     []string                      `json:"question_order"`
	Answers           map[string]AnswerRecord       `json:"answers"`
	Timers            map[string]QuestionTimerState `json:"timers"`
	Transcript        []ChatMessage                 `json:"transcript"`
	Summary           *InterviewSummary             `json:"summary,omitempty"`
	Draft             string                        `json:"draft,omitempty"`
	// Submitted marks questions for which a submission has begun
	Submitted map[string]bool `json:"submitted"`
	CreatedAt time.Time       `json:"created_at"`
}

// Evaluation is a scored answer returned by an evaluator
type Evaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// InterviewPlan configures question generation
type InterviewPlan struct {
	TotalQuestions    int                `json:"total_questions" mapstructure:"total_questions"`
	DifficultyPattern []Difficulty       `json:"difficulty_pattern" mapstructure:"difficulty_pattern"`
	TimerByDifficulty map[Difficulty]int `json:"timer_by_difficulty" mapstructure:"timer_by_difficulty"`
}

// CandidateArchiveRecord is an immutable snapshot of a completed interview
type CandidateArchiveRecord struct {
	CandidateID string              `json:"candidate_id"`
	SessionID   string              `json:"session_id"`
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Phone       string              `json:"phone"`
	Role        string              `json:"role"`
	ResumeKey   string              `json:"resume_key,omitempty"`
	FinalScore  float64             `json:"final_score"`
	Summary     InterviewSummary    `json:"summary"`
	Questions   []InterviewQuestion `json:"questions"`
	Answers     []AnswerRecord      `json:"answers"`
	Transcript  []ChatMessage       `json:"transcript"`
	CompletedAt time.Time           `json:"completed_at"`
}

// SessionDocumentVersion is the current persisted layout
const SessionDocumentVersion = 1

// SessionDocument is the persisted form of the active session
type SessionDocument struct {
	Version int               `json:"version"`
	Profile *CandidateProfile `json:"profile,omitempty"`
	Session *InterviewSession `json:"session,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// Archive sort keys
const (
	SortByScore = "score"
	SortByName  = "name"
	SortByDate  = "date"
)

// ArchiveQuery orders and filters the archive listing
type ArchiveQuery struct {
	SortBy     string `json:"sort_by"`
	Descending bool   `json:"descending"`
	Search     string `json:"search"`
}
