// Package interview drives a single interview session: profile intake, question sequencing,
// the timed answer pipeline and finalization into the candidate archive.
package interview

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khrees2412/mockly/internal/logx"
	"github.com/khrees2412/mockly/internal/metrics"
	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

// Options configures an Engine. AI and Archive are required; every other collaborator is optional.
type Options struct {
	AI      AIService
	Archive ArchiveStore
	Store   SessionStore
	Blobs   BlobStore
	Parser  ResumeParser
	Plan    models.InterviewPlan
	Bank    session.QuestionBank
	Metrics metrics.Recorder
	Logger  *logx.Logger
	Clock   func() time.Time
	NewID   func() string
}

// sessionContext is the explicit state threaded through every pipeline stage
type sessionContext struct {
	profile models.CandidateProfile
	session models.InterviewSession
}

// Engine owns the active session. All mutations are serialized; AI calls run with the lock
// released and their results are discarded if the session was reset in the meantime.
type Engine struct {
	ai      AIService
	archive ArchiveStore
	store   SessionStore
	blobs   BlobStore
	parser  ResumeParser
	plan    models.InterviewPlan
	bank    session.QuestionBank
	metrics metrics.Recorder
	log     *logx.Logger
	now     func() time.Time
	newID   func() string

	mu        sync.Mutex
	current   *sessionContext
	epoch     uint64
	starting  bool
	autoFired map[string]bool
}

// New creates an Engine
func New(opts Options) (*Engine, error) {
	if opts.AI == nil {
		return nil, fmt.Errorf("interview engine requires an AI service")
	}
	if opts.Archive == nil {
		return nil, fmt.Errorf("interview engine requires an archive store")
	}
	if err := session.ValidatePlan(opts.Plan); err != nil {
		return nil, fmt.Errorf("invalid interview plan: %w", err)
	}

	e := &Engine{
		ai:        opts.AI,
		archive:   opts.Archive,
		store:     opts.Store,
		blobs:     opts.Blobs,
		parser:    opts.Parser,
		plan:      opts.Plan,
		bank:      opts.Bank,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		now:       opts.Clock,
		newID:     opts.NewID,
		autoFired: make(map[string]bool),
	}
	if e.bank == nil {
		e.bank = session.DefaultBank()
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop{}
	}
	if e.log == nil {
		e.log = logx.NewLogger("interview")
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = func() string { return uuid.New().String() }
	}
	return e, nil
}

// Plan returns the configured interview plan
func (e *Engine) Plan() models.InterviewPlan {
	return e.plan
}

// Restore loads the persisted session document, if any, and normalizes it
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	doc, err := e.store.LoadSessionDocument(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if doc == nil || doc.Session == nil {
		return nil
	}
	if doc.Version > models.SessionDocumentVersion {
		return fmt.Errorf("unsupported session document version %d", doc.Version)
	}

	restored := &sessionContext{session: session.RecoverPending(session.Normalize(*doc.Session), e.now())}
	if doc.Profile != nil {
		restored.profile = *doc.Profile
		restored.profile.MissingFields = session.MissingFields(restored.profile)
	}

	e.mu.Lock()
	e.current = restored
	e.epoch++
	e.starting = false
	e.autoFired = make(map[string]bool)
	e.mu.Unlock()
	e.log.Info("restored session %s in stage %s", restored.session.ID, restored.session.Stage)

	if e.needsArchive(ctx, restored) {
		if _, err := e.Finalize(ctx); err != nil {
			e.log.Warn("restored session %s is still unarchived: %v", restored.session.ID, err)
		}
	}
	return nil
}

// needsArchive reports whether a completed session is missing its summary or archive record
func (e *Engine) needsArchive(ctx context.Context, c *sessionContext) bool {
	if c.session.Stage != models.StageCompleted {
		return false
	}
	if c.session.Summary == nil || c.profile.ID == "" {
		return true
	}
	rec, err := e.archive.GetArchive(ctx, c.profile.ID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			e.log.Warn("failed to check archive for candidate %s: %v", c.profile.ID, err)
		}
		return true
	}
	return rec.SessionID != c.session.ID
}

// Snapshot returns a deep copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	if e.current == nil {
		return Snapshot{Stage: models.StageResumeUpload}
	}

	profile := e.current.profile
	profile.MissingFields = append([]string(nil), profile.MissingFields...)
	s := session.Clone(e.current.session)

	snap := Snapshot{
		Stage:   s.Stage,
		Profile: &profile,
		Session: &s,
		Total:   len(s.QuestionOrder),
	}
	if q, ok := s.Questions[s.CurrentQuestionID]; ok {
		snap.CurrentQuestion = &q
		snap.Remaining = s.Timers[q.ID].RemainingSeconds
		for i, id := range s.QuestionOrder {
			if id == q.ID {
				snap.Position = i + 1
			}
		}
	}
	return snap
}

// IngestProfile starts a new session for the given profile
func (e *Engine) IngestProfile(ctx context.Context, profile models.CandidateProfile) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		switch e.current.session.Stage {
		case models.StageQuestioning, models.StagePaused:
			return Snapshot{}, &session.StateError{Op: "ingest profile", Stage: e.current.session.Stage, Reason: "reset the interview in progress first"}
		}
	}

	if profile.ID == "" {
		profile.ID = e.newID()
	}
	profile.MissingFields = session.MissingFields(profile)

	now := e.now()
	s, err := session.ApplyProfile(session.New(e.newID(), now), profile, now)
	if err != nil {
		return Snapshot{}, err
	}

	if stale := e.disposableResumeLocked(); stale != "" && stale != profile.ResumeKey {
		defer e.deleteBlob(ctx, stale)
	}
	e.replaceLocked(&sessionContext{profile: profile, session: s})
	e.persistLocked(ctx)
	e.log.Info("started session %s for candidate %s", s.ID, profile.ID)
	return e.snapshotLocked(), nil
}

// UploadResume stores the resume, extracts the profile and starts a session from it.
// The stored blob is removed again if extraction or ingestion fails.
func (e *Engine) UploadResume(ctx context.Context, filename string, data []byte, mimeType string) (Snapshot, error) {
	if e.parser == nil || e.blobs == nil {
		return Snapshot{}, fmt.Errorf("resume upload is not configured")
	}
	if len(data) == 0 {
		return Snapshot{}, &session.ValidationError{Field: "file", Reason: "resume file is empty"}
	}

	key := "resumes/" + e.newID() + strings.ToLower(filepath.Ext(filename))
	if err := e.blobs.Put(ctx, key, data, mimeType); err != nil {
		return Snapshot{}, fmt.Errorf("failed to store resume: %w", err)
	}

	profile, err := e.parser.Parse(ctx, data, mimeType)
	if err != nil {
		e.deleteBlob(ctx, key)
		return Snapshot{}, err
	}
	profile.ResumeKey = key
	profile.ResumeName = filepath.Base(filename)

	snap, err := e.IngestProfile(ctx, profile)
	if err != nil {
		e.deleteBlob(ctx, key)
		return Snapshot{}, err
	}
	return snap, nil
}

// CompleteProfile merges candidate-supplied fields and advances once nothing is missing
func (e *Engine) CompleteProfile(ctx context.Context, fields map[string]string) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return Snapshot{}, &session.StateError{Op: "complete profile", Stage: models.StageResumeUpload, Reason: "no session"}
	}

	profile, err := session.MergeProfile(e.current.profile, fields)
	if err != nil {
		return Snapshot{}, err
	}
	if profile.ID == "" {
		profile.ID = e.newID()
	}
	s, err := session.ApplyProfile(e.current.session, profile, e.now())
	if err != nil {
		return Snapshot{}, err
	}

	e.current.profile = profile
	e.current.session = s
	e.persistLocked(ctx)
	return e.snapshotLocked(), nil
}

// BeginInterview generates the question plan and activates the first question.
// It is a no-op when the interview has already begun or is being started.
func (e *Engine) BeginInterview(ctx context.Context) (BeginResult, error) {
	e.mu.Lock()
	if e.current == nil {
		e.mu.Unlock()
		return BeginResult{}, &session.StateError{Op: "begin", Stage: models.StageResumeUpload, Reason: "no session"}
	}
	stage := e.current.session.Stage
	switch {
	case stage == models.StageQuestioning || stage == models.StagePaused || stage == models.StageCompleted:
		e.mu.Unlock()
		return BeginResult{Stage: stage}, nil
	case stage != models.StageReadyToStart:
		e.mu.Unlock()
		return BeginResult{}, &session.StateError{Op: "begin", Stage: stage, Reason: "profile is incomplete"}
	case e.starting:
		e.mu.Unlock()
		return BeginResult{Stage: stage}, nil
	}
	e.starting = true
	epoch := e.epoch
	profile := e.current.profile
	e.mu.Unlock()

	questions := e.sequence(ctx, profile)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.epoch != epoch || e.current == nil {
		e.log.Info("discarding generated questions for a reset session")
		return BeginResult{}, session.ErrSessionReset
	}
	e.starting = false

	s, err := session.Start(e.current.session, questions, e.now())
	if err != nil {
		return BeginResult{}, err
	}
	e.current.session = s
	e.persistLocked(ctx)

	q := s.Questions[s.CurrentQuestionID]
	return BeginResult{Started: true, Stage: s.Stage, Question: &q}, nil
}

// sequence asks the AI for a question plan, falling back to the bank on failure or an empty result
func (e *Engine) sequence(ctx context.Context, profile models.CandidateProfile) []models.InterviewQuestion {
	generated, err := guard(func() ([]models.InterviewQuestion, error) {
		return e.ai.GenerateQuestions(ctx, profile, e.plan)
	})
	if err == nil {
		if questions := session.NormalizeQuestions(generated, e.plan, e.newID); len(questions) > 0 {
			return questions
		}
		err = fmt.Errorf("no usable questions returned")
	}

	e.log.Warn("question generation unavailable, using the question bank: %v", err)
	e.metrics.Fallback("generate")
	return session.FallbackQuestions(e.plan, e.bank, e.newID)
}

// SaveDraft stores the candidate's in-progress answer for questionID, or for the active question when empty
func (e *Engine) SaveDraft(ctx context.Context, questionID, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return &session.StateError{Op: "save draft", Stage: models.StageResumeUpload, Reason: "no session"}
	}
	s, err := session.SaveDraft(e.current.session, questionID, text)
	if err != nil {
		return err
	}
	e.current.session = s
	e.persistLocked(ctx)
	return nil
}

// Pause freezes the active question's countdown
func (e *Engine) Pause(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return Snapshot{}, &session.StateError{Op: "pause", Stage: models.StageResumeUpload, Reason: "no session"}
	}
	now := e.now()
	ticked, _ := session.Tick(e.current.session, now)
	s, err := session.Pause(ticked, now)
	if err != nil {
		return Snapshot{}, err
	}
	e.current.session = s
	e.persistLocked(ctx)
	return e.snapshotLocked(), nil
}

// Resume restarts a paused countdown
func (e *Engine) Resume(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return Snapshot{}, &session.StateError{Op: "resume", Stage: models.StageResumeUpload, Reason: "no session"}
	}
	s, err := session.Resume(e.current.session, e.now())
	if err != nil {
		return Snapshot{}, err
	}
	e.current.session = s
	e.persistLocked(ctx)
	return e.snapshotLocked(), nil
}

// ResetSession replaces the session with a fresh one and deletes the stored resume unless it was
// archived. Outstanding AI calls are ignored when they return.
func (e *Engine) ResetSession(ctx context.Context) Snapshot {
	e.mu.Lock()
	resumeKey := e.disposableResumeLocked()
	fresh := session.New(e.newID(), e.now())
	e.replaceLocked(&sessionContext{session: fresh})
	e.persistLocked(ctx)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if resumeKey != "" {
		e.deleteBlob(ctx, resumeKey)
	}
	e.log.Info("session reset, new session %s", fresh.ID)
	return snap
}

// ListArchives returns archived interviews ordered and filtered by q
func (e *Engine) ListArchives(ctx context.Context, q models.ArchiveQuery) ([]models.CandidateArchiveRecord, error) {
	return e.archive.ListArchives(ctx, q)
}

// GetArchive returns the archived interview for a candidate
func (e *Engine) GetArchive(ctx context.Context, candidateID string) (*models.CandidateArchiveRecord, error) {
	if strings.TrimSpace(candidateID) == "" {
		return nil, &session.ValidationError{Field: "candidate_id", Reason: "must not be empty"}
	}
	return e.archive.GetArchive(ctx, candidateID)
}

// disposableResumeLocked returns the stored resume of the current session unless an archive record refers to it
func (e *Engine) disposableResumeLocked() string {
	if e.current == nil || e.current.session.Stage == models.StageCompleted {
		return ""
	}
	return e.current.profile.ResumeKey
}

// replaceLocked installs a new session context and invalidates in-flight work
func (e *Engine) replaceLocked(next *sessionContext) {
	e.current = next
	e.epoch++
	e.starting = false
	e.autoFired = make(map[string]bool)
}

func (e *Engine) persistLocked(ctx context.Context) {
	if e.store == nil || e.current == nil {
		return
	}
	profile := e.current.profile
	s := session.Clone(e.current.session)
	doc := models.SessionDocument{
		Version: models.SessionDocumentVersion,
		Profile: &profile,
		Session: &s,
		SavedAt: e.now(),
	}
	if err := e.store.SaveSessionDocument(ctx, doc); err != nil {
		e.log.Error("failed to persist session %s: %v", s.ID, err)
	}
}

func (e *Engine) deleteBlob(ctx context.Context, key string) {
	if e.blobs == nil {
		return
	}
	if err := e.blobs.Delete(ctx, key); err != nil {
		e.log.Warn("failed to delete resume %s: %v", key, err)
	}
}

// guard runs an AI call and turns a panic into an error so the fallback path takes over
func guard[T any](call func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ai call panicked: %v", r)
		}
	}()
	return call()
}
