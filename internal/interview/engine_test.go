package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khrees2412/mockly/internal/matcher"
	"github.com/khrees2412/mockly/internal/session"
	"github.com/khrees2412/mockly/pkg/models"
)

var errUnavailable = errors.New("provider unavailable")

// fakeAI fails every call unless a hook is set
type fakeAI struct {
	generate  func(ctx context.Context) ([]models.InterviewQuestion, error)
	evaluate  func(ctx context.Context, q models.InterviewQuestion, answer string) (*models.Evaluation, error)
	summarize func(ctx context.Context) (*models.InterviewSummary, error)
}

func (f *fakeAI) GenerateQuestions(ctx context.Context, _ models.CandidateProfile, _ models.InterviewPlan) ([]models.InterviewQuestion, error) {
	if f.generate == nil {
		return nil, errUnavailable
	}
	return f.generate(ctx)
}

func (f *fakeAI) EvaluateAnswer(ctx context.Context, q models.InterviewQuestion, answer string, _ []models.ChatMessage) (*models.Evaluation, error) {
	if f.evaluate == nil {
		return nil, errUnavailable
	}
	return f.evaluate(ctx, q, answer)
}

func (f *fakeAI) Summarize(ctx context.Context, _ models.CandidateProfile, _ []models.InterviewQuestion, _ []models.AnswerRecord) (*models.InterviewSummary, error) {
	if f.summarize == nil {
		return nil, errUnavailable
	}
	return f.summarize(ctx)
}

type memArchive struct {
	mu      sync.Mutex
	records map[string]models.CandidateArchiveRecord
	upserts int
	err     error
}

func newMemArchive() *memArchive {
	return &memArchive{records: map[string]models.CandidateArchiveRecord{}}
}

func (m *memArchive) UpsertArchive(ctx context.Context, rec models.CandidateArchiveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.err != nil {
		return m.err
	}
	m.records[rec.CandidateID] = rec
	return nil
}

func (m *memArchive) ListArchives(context.Context, models.ArchiveQuery) ([]models.CandidateArchiveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CandidateArchiveRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *memArchive) GetArchive(_ context.Context, id string) (*models.CandidateArchiveRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &r, nil
}

type memSessionStore struct {
	mu  sync.Mutex
	doc *models.SessionDocument
}

func (m *memSessionStore) SaveSessionDocument(ctx context.Context, doc models.SessionDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	m.doc = &doc
	return nil
}

func (m *memSessionStore) saved() models.SessionDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return models.SessionDocument{}
	}
	return *m.doc
}

func (m *memSessionStore) LoadSessionDocument(context.Context) (*models.SessionDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc, nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, session.ErrNotFound
	}
	return data, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBlobs) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeParser struct {
	profile models.CandidateProfile
	err     error
}

func (f fakeParser) Parse(context.Context, []byte, string) (models.CandidateProfile, error) {
	return f.profile, f.err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type countingMetrics struct {
	mu        sync.Mutex
	auto      int
	manual    int
	fallbacks map[string]int
	completed int
}

func (c *countingMetrics) Submission(auto bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if auto {
		c.auto++
	} else {
		c.manual++
	}
}

func (c *countingMetrics) Fallback(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallbacks[op]++
}

func (c *countingMetrics) Completed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed++
}

func (c *countingMetrics) AnswerScore(float64) {}

type harness struct {
	engine  *Engine
	ai      *fakeAI
	archive *memArchive
	store   *memSessionStore
	blobs   *memBlobs
	clock   *fakeClock
	metrics *countingMetrics
}

func twoQuestionPlan() models.InterviewPlan {
	return models.InterviewPlan{
		TotalQuestions:    2,
		DifficultyPattern: []models.Difficulty{models.DifficultyEasy, models.DifficultyHard},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyEasy: 20, models.DifficultyHard: 120},
	}
}

func newHarness(t *testing.T, plan models.InterviewPlan, parser ResumeParser) *harness {
	t.Helper()
	h := &harness{
		ai:      &fakeAI{},
		archive: newMemArchive(),
		store:   &memSessionStore{},
		blobs:   &memBlobs{objects: map[string][]byte{}},
		clock:   &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		metrics: &countingMetrics{fallbacks: map[string]int{}},
	}

	var mu sync.Mutex
	n := 0
	engine, err := New(Options{
		AI:      h.ai,
		Archive: h.archive,
		Store:   h.store,
		Blobs:   h.blobs,
		Parser:  parser,
		Plan:    plan,
		Metrics: h.metrics,
		Clock:   h.clock.Now,
		NewID: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	require.NoError(t, err)
	h.engine = engine
	return h
}

func completeProfile() models.CandidateProfile {
	return models.CandidateProfile{ID: "cand-1", Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+1 555 010 2030"}
}

func (h *harness) start(t *testing.T) BeginResult {
	t.Helper()
	ctx := context.Background()
	snap, err := h.engine.IngestProfile(ctx, completeProfile())
	require.NoError(t, err)
	require.Equal(t, models.StageReadyToStart, snap.Stage)

	result, err := h.engine.BeginInterview(ctx)
	require.NoError(t, err)
	require.True(t, result.Started)
	return result
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Archive: newMemArchive(), Plan: twoQuestionPlan()})
	assert.Error(t, err)

	_, err = New(Options{AI: &fakeAI{}, Plan: twoQuestionPlan()})
	assert.Error(t, err)

	_, err = New(Options{AI: &fakeAI{}, Archive: newMemArchive()})
	assert.ErrorIs(t, err, session.ErrValidation)
}

func TestOfflineInterviewEndToEnd(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	ctx := context.Background()

	begin := h.start(t)
	bank := session.DefaultBank()
	assert.Equal(t, bank[models.DifficultyEasy][0].Prompt, begin.Question.Prompt)
	assert.Equal(t, 20, begin.Question.TimeLimitSeconds)

	first := "I lean on React state and async API calls with a cache in front"
	h.clock.Advance(5 * time.Second)
	result, err := h.engine.SubmitAnswer(ctx, "", first)
	require.NoError(t, err)
	assert.Equal(t, StatusContinue, result.Status)
	assert.Equal(t, matcher.FallbackScore(models.DifficultyEasy, first), result.Record.Score)
	assert.Equal(t, matcher.OfflineFeedback, result.Record.Feedback)
	require.NotNil(t, result.NextQuestion)
	assert.Equal(t, models.DifficultyHard, result.NextQuestion.Difficulty)
	assert.Equal(t, bank[models.DifficultyHard][1].Prompt, result.NextQuestion.Prompt)

	second := "Shard the database, add an index and put a queue in front for latency"
	result, err = h.engine.SubmitAnswer(ctx, "", second)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	require.NotNil(t, result.Archive)

	wantFinal := (matcher.FallbackScore(models.DifficultyEasy, first) + matcher.FallbackScore(models.DifficultyHard, second)) / 2
	assert.InDelta(t, wantFinal, result.Archive.FinalScore, 1e-9)
	assert.Equal(t, session.GenericSummary, result.Archive.Summary.Summary)
	assert.Len(t, result.Archive.Answers, 2)
	assert.Equal(t, "cand-1", result.Archive.CandidateID)

	snap := h.engine.Snapshot()
	assert.Equal(t, models.StageCompleted, snap.Stage)
	require.NotNil(t, snap.Session.Summary)
	last := snap.Session.Transcript[len(snap.Session.Transcript)-1]
	assert.Equal(t, models.RoleSystem, last.Role)

	assert.Len(t, h.archive.records, 1)
	assert.Equal(t, 1, h.metrics.fallbacks["generate"])
	assert.Equal(t, 2, h.metrics.fallbacks["evaluate"])
	assert.Equal(t, 1, h.metrics.fallbacks["summarize"])
	assert.Equal(t, 2, h.metrics.manual)
	assert.Equal(t, 1, h.metrics.completed)

	// nothing more can be submitted
	_, err = h.engine.SubmitAnswer(ctx, "", "late answer")
	assert.ErrorIs(t, err, session.ErrState)
}

func TestGeneratedQuestionsAreUsed(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.ai.generate = func(context.Context) ([]models.InterviewQuestion, error) {
		return []models.InterviewQuestion{
			{Prompt: "What does useEffect do?", Difficulty: models.DifficultyEasy},
			{Prompt: "   "},
			{Prompt: "Design a rate limiter", Difficulty: models.DifficultyHard},
		}, nil
	}
	h.ai.evaluate = func(_ context.Context, _ models.InterviewQuestion, _ string) (*models.Evaluation, error) {
		return &models.Evaluation{Score: 8, Feedback: "Clear"}, nil
	}

	begin := h.start(t)
	assert.Equal(t, "What does useEffect do?", begin.Question.Prompt)
	assert.Equal(t, 20, begin.Question.TimeLimitSeconds)

	result, err := h.engine.SubmitAnswer(context.Background(), "", "It runs side effects after render")
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.Record.Score)
	assert.Equal(t, "Clear", result.Record.Feedback)
	assert.Equal(t, "Design a rate limiter", result.NextQuestion.Prompt)
	assert.Equal(t, 0, h.metrics.fallbacks["generate"])
}

func TestEmptyGenerationFallsBack(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.ai.generate = func(context.Context) ([]models.InterviewQuestion, error) {
		return nil, nil
	}
	begin := h.start(t)
	assert.Equal(t, session.DefaultBank()[models.DifficultyEasy][0].Prompt, begin.Question.Prompt)
	assert.Equal(t, 1, h.metrics.fallbacks["generate"])
}

func TestBeginInterviewGuards(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	ctx := context.Background()

	_, err := h.engine.BeginInterview(ctx)
	assert.ErrorIs(t, err, session.ErrState)

	profile := completeProfile()
	profile.Phone = ""
	snap, err := h.engine.IngestProfile(ctx, profile)
	require.NoError(t, err)
	assert.Equal(t, models.StageProfileCompletion, snap.Stage)
	assert.Equal(t, []string{models.FieldPhone}, snap.Profile.MissingFields)

	_, err = h.engine.BeginInterview(ctx)
	assert.ErrorIs(t, err, session.ErrState)

	snap, err = h.engine.CompleteProfile(ctx, map[string]string{"phone": "+1 555 010 2030"})
	require.NoError(t, err)
	assert.Equal(t, models.StageReadyToStart, snap.Stage)

	first, err := h.engine.BeginInterview(ctx)
	require.NoError(t, err)
	assert.True(t, first.Started)

	again, err := h.engine.BeginInterview(ctx)
	require.NoError(t, err)
	assert.False(t, again.Started)
	assert.Equal(t, models.StageQuestioning, again.Stage)
	assert.Equal(t, first.Question.ID, h.engine.Snapshot().CurrentQuestion.ID)
}

func TestCompleteProfileRejectsUnknownField(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	ctx := context.Background()
	profile := completeProfile()
	profile.Email = ""
	_, err := h.engine.IngestProfile(ctx, profile)
	require.NoError(t, err)

	_, err = h.engine.CompleteProfile(ctx, map[string]string{"shoe_size": "44"})
	assert.ErrorIs(t, err, session.ErrValidation)
	assert.Equal(t, models.StageProfileCompletion, h.engine.Snapshot().Stage)
}

func TestBlankManualAnswerIsRejected(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)

	before := h.engine.Snapshot()
	_, err := h.engine.SubmitAnswer(context.Background(), "", "   \n\t")
	assert.ErrorIs(t, err, session.ErrValidation)

	after := h.engine.Snapshot()
	assert.Equal(t, before.Session, after.Session)
	assert.True(t, after.Session.Timers[after.CurrentQuestion.ID].IsRunning)
}

func TestElapsedSecondsFromTimer(t *testing.T) {
	plan := models.InterviewPlan{
		TotalQuestions:    1,
		DifficultyPattern: []models.Difficulty{models.DifficultyMedium},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyMedium: 60},
	}
	h := newHarness(t, plan, nil)
	h.start(t)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		h.clock.Advance(time.Second)
		tick, err := h.engine.TickTimer(ctx)
		require.NoError(t, err)
		require.Nil(t, tick.AutoSubmitted)
	}
	assert.Equal(t, 45, h.engine.Snapshot().Remaining)

	result, err := h.engine.SubmitAnswer(ctx, "", "Memoize the selector")
	require.NoError(t, err)
	assert.Equal(t, 15, result.Record.ElapsedSeconds)
	assert.False(t, result.Record.AutoSubmitted)
}

func TestTimerCatchesUpAfterStall(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)

	h.clock.Advance(7*time.Second + 600*time.Millisecond)
	tick, err := h.engine.TickTimer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 13, tick.RemainingSeconds)
}

func TestExpiryAutoSubmitsDraftOnce(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	ctx := context.Background()

	require.NoError(t, h.engine.SaveDraft(ctx, "", "Hooks let function components use state"))

	h.clock.Advance(25 * time.Second)
	tick, err := h.engine.TickTimer(ctx)
	require.NoError(t, err)
	require.NotNil(t, tick.AutoSubmitted)
	record := tick.AutoSubmitted.Record
	assert.True(t, record.AutoSubmitted)
	assert.Equal(t, "Hooks let function components use state", record.Answer)
	assert.Equal(t, 20, record.ElapsedSeconds)
	assert.Equal(t, StatusContinue, tick.AutoSubmitted.Status)

	// the next question's timer is fresh and nothing fires again for the first one
	tick, err = h.engine.TickTimer(ctx)
	require.NoError(t, err)
	assert.Nil(t, tick.AutoSubmitted)
	assert.Equal(t, 1, h.metrics.auto)
	assert.Len(t, h.engine.Snapshot().Session.Answers, 1)
}

func TestExpiredTimerLosesToManualSubmit(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	ctx := context.Background()
	first := h.engine.Snapshot().CurrentQuestion.ID
	require.NoError(t, h.engine.SaveDraft(ctx, first, "draft for the first question"))

	h.clock.Advance(21 * time.Second)
	result, due := h.engine.tick()
	require.NotNil(t, due)
	assert.Equal(t, first, due.questionID)

	// the candidate submits between the expiry and the auto-submission
	submitted, err := h.engine.SubmitAnswer(ctx, first, "my own answer")
	require.NoError(t, err)
	require.NotNil(t, submitted.NextQuestion)
	second := submitted.NextQuestion.ID

	result, err = h.engine.autoSubmit(ctx, result, *due)
	require.NoError(t, err)
	assert.Nil(t, result.AutoSubmitted)

	snap := h.engine.Snapshot()
	assert.Equal(t, models.StageQuestioning, snap.Stage)
	assert.Equal(t, second, snap.CurrentQuestion.ID)
	require.Len(t, snap.Session.Answers, 1)
	assert.Equal(t, "my own answer", snap.Session.Answers[first].Answer)
	assert.NotContains(t, snap.Session.Answers, second)
	assert.Equal(t, 0, h.metrics.auto)
	assert.Equal(t, 1, h.metrics.manual)
}

func TestStaleQuestionIDIsRejected(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	ctx := context.Background()
	first := h.engine.Snapshot().CurrentQuestion.ID

	h.clock.Advance(21 * time.Second)
	tick, err := h.engine.TickTimer(ctx)
	require.NoError(t, err)
	require.NotNil(t, tick.AutoSubmitted)

	// a client still showing the first question cannot write into the second
	err = h.engine.SaveDraft(ctx, first, "late thought")
	assert.ErrorIs(t, err, session.ErrState)
	_, err = h.engine.SubmitAnswer(ctx, first, "late answer")
	assert.ErrorIs(t, err, session.ErrState)

	snap := h.engine.Snapshot()
	assert.Empty(t, snap.Session.Draft)
	assert.Len(t, snap.Session.Answers, 1)
	assert.NotEqual(t, first, snap.CurrentQuestion.ID)
}

func TestExpiryWithoutDraftScoresOne(t *testing.T) {
	plan := models.InterviewPlan{
		TotalQuestions:    1,
		DifficultyPattern: []models.Difficulty{models.DifficultyHard},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyHard: 30},
	}
	h := newHarness(t, plan, nil)
	h.ai.evaluate = func(_ context.Context, _ models.InterviewQuestion, answer string) (*models.Evaluation, error) {
		return &models.Evaluation{Score: 9, Feedback: "generous"}, nil
	}
	h.start(t)
	ctx := context.Background()

	h.clock.Advance(31 * time.Second)
	tick, err := h.engine.TickTimer(ctx)
	require.NoError(t, err)
	require.NotNil(t, tick.AutoSubmitted)
	assert.Equal(t, session.AutoSubmitPlaceholder, tick.AutoSubmitted.Record.Answer)
	assert.Equal(t, 1.0, tick.AutoSubmitted.Record.Score)
	assert.Equal(t, StatusCompleted, tick.AutoSubmitted.Status)

	h.clock.Advance(time.Second)
	tick, err = h.engine.TickTimer(ctx)
	require.NoError(t, err)
	assert.Nil(t, tick.AutoSubmitted)
	assert.Len(t, h.archive.records, 1)
}

func TestManualSubmitDuringEvaluationIsRejected(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	h.ai.evaluate = func(context.Context, models.InterviewQuestion, string) (*models.Evaluation, error) {
		close(started)
		<-release
		return &models.Evaluation{Score: 6, Feedback: "ok"}, nil
	}
	h.start(t)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := h.engine.SubmitAnswer(ctx, "", "first attempt")
		done <- err
	}()
	<-started

	_, err := h.engine.SubmitAnswer(ctx, "", "second attempt")
	assert.ErrorIs(t, err, session.ErrState)

	// the timer cannot fire an auto-submit for a question already submitted
	h.clock.Advance(time.Minute)
	tick, err := h.engine.TickTimer(ctx)
	require.NoError(t, err)
	assert.Nil(t, tick.AutoSubmitted)

	close(release)
	require.NoError(t, <-done)
	snap := h.engine.Snapshot()
	require.Len(t, snap.Session.Answers, 1)
	for _, a := range snap.Session.Answers {
		assert.Equal(t, "first attempt", a.Answer)
	}
}

func TestResetDiscardsInFlightEvaluation(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	h.ai.evaluate = func(context.Context, models.InterviewQuestion, string) (*models.Evaluation, error) {
		close(started)
		<-release
		return &models.Evaluation{Score: 7, Feedback: "late"}, nil
	}
	h.start(t)
	ctx := context.Background()
	oldID := h.engine.Snapshot().Session.ID

	done := make(chan error, 1)
	go func() {
		_, err := h.engine.SubmitAnswer(ctx, "", "an answer")
		done <- err
	}()
	<-started

	snap := h.engine.ResetSession(ctx)
	assert.Equal(t, models.StageResumeUpload, snap.Stage)
	assert.NotEqual(t, oldID, snap.Session.ID)

	close(release)
	assert.ErrorIs(t, <-done, session.ErrSessionReset)

	after := h.engine.Snapshot()
	assert.Equal(t, snap.Session.ID, after.Session.ID)
	assert.Empty(t, after.Session.Answers)
	assert.Empty(t, after.Session.Transcript)
	assert.Empty(t, h.archive.records)
}

func TestResetDuringGenerationDiscardsQuestions(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	h.ai.generate = func(context.Context) ([]models.InterviewQuestion, error) {
		close(started)
		<-release
		return []models.InterviewQuestion{{Prompt: "stale"}}, nil
	}
	ctx := context.Background()
	_, err := h.engine.IngestProfile(ctx, completeProfile())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.engine.BeginInterview(ctx)
		done <- err
	}()
	<-started

	h.engine.ResetSession(ctx)
	close(release)
	assert.ErrorIs(t, <-done, session.ErrSessionReset)
	assert.Equal(t, models.StageResumeUpload, h.engine.Snapshot().Stage)

	// a new profile starts a fresh session that can begin normally
	h.ai.generate = nil
	h.start(t)
}

func TestFinalizeIsIdempotent(t *testing.T) {
	plan := models.InterviewPlan{
		TotalQuestions:    1,
		DifficultyPattern: []models.Difficulty{models.DifficultyEasy},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyEasy: 20},
	}
	h := newHarness(t, plan, nil)
	h.ai.summarize = func(context.Context) (*models.InterviewSummary, error) {
		return &models.InterviewSummary{FinalScore: 12, Summary: "Strong"}, nil
	}
	h.start(t)
	ctx := context.Background()

	result, err := h.engine.SubmitAnswer(ctx, "", "Use React.memo for expensive components")
	require.NoError(t, err)
	require.NotNil(t, result.Archive)
	assert.Equal(t, 10.0, result.Archive.FinalScore)

	again, err := h.engine.Finalize(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Archive.SessionID, again.SessionID)
	assert.Equal(t, "Strong", again.Summary.Summary)
	assert.Len(t, h.archive.records, 1)
	assert.Equal(t, 2, h.archive.upserts)

	summaries := 0
	for _, m := range h.engine.Snapshot().Session.Transcript {
		if _, ok := m.Metadata["final_score"]; ok {
			summaries++
		}
	}
	assert.Equal(t, 1, summaries)
}

func TestFinalizeRequiresCompletedSession(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	_, err := h.engine.Finalize(context.Background())
	assert.ErrorIs(t, err, session.ErrState)
}

func TestArchiveFailureLeavesSessionCompleted(t *testing.T) {
	plan := models.InterviewPlan{
		TotalQuestions:    1,
		DifficultyPattern: []models.Difficulty{models.DifficultyEasy},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyEasy: 20},
	}
	h := newHarness(t, plan, nil)
	h.archive.err = errors.New("disk full")
	h.start(t)

	result, err := h.engine.SubmitAnswer(context.Background(), "", "answer")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Nil(t, result.Archive)

	snap := h.engine.Snapshot()
	assert.Equal(t, models.StageCompleted, snap.Stage)
	assert.NotNil(t, snap.Session.Summary)
}

func TestCancelledCallerStillArchives(t *testing.T) {
	plan := models.InterviewPlan{
		TotalQuestions:    1,
		DifficultyPattern: []models.Difficulty{models.DifficultyEasy},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyEasy: 20},
	}
	h := newHarness(t, plan, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.ai.evaluate = func(context.Context, models.InterviewQuestion, string) (*models.Evaluation, error) {
		// the client disconnects while the answer is being scored
		cancel()
		return &models.Evaluation{Score: 7, Feedback: "solid"}, nil
	}
	h.start(t)

	result, err := h.engine.SubmitAnswer(ctx, "", "Memoize the selector")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	require.NotNil(t, result.Archive)
	assert.Len(t, h.archive.records, 1)

	doc := h.store.saved()
	require.NotNil(t, doc.Session)
	assert.Equal(t, models.StageCompleted, doc.Session.Stage)
	assert.NotNil(t, doc.Session.Summary)
}

func TestRestoreArchivesUnarchivedSession(t *testing.T) {
	plan := models.InterviewPlan{
		TotalQuestions:    1,
		DifficultyPattern: []models.Difficulty{models.DifficultyEasy},
		TimerByDifficulty: map[models.Difficulty]int{models.DifficultyEasy: 20},
	}
	h := newHarness(t, plan, nil)
	h.archive.err = errors.New("disk full")
	h.start(t)
	ctx := context.Background()

	result, err := h.engine.SubmitAnswer(ctx, "", "answer")
	require.NoError(t, err)
	require.Nil(t, result.Archive)
	require.Empty(t, h.archive.records)

	h.archive.err = nil
	restored, err := New(Options{
		AI:      h.ai,
		Archive: h.archive,
		Store:   h.store,
		Plan:    plan,
		Clock:   h.clock.Now,
	})
	require.NoError(t, err)
	require.NoError(t, restored.Restore(ctx))

	rec, err := h.archive.GetArchive(ctx, "cand-1")
	require.NoError(t, err)
	assert.Equal(t, h.engine.Snapshot().Session.ID, rec.SessionID)

	// an archived session is not written again
	upserts := h.archive.upserts
	require.NoError(t, restored.Restore(ctx))
	assert.Equal(t, upserts, h.archive.upserts)
}

func TestAIPanicFallsBack(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.ai.evaluate = func(context.Context, models.InterviewQuestion, string) (*models.Evaluation, error) {
		panic("malformed reply")
	}
	h.start(t)

	result, err := h.engine.SubmitAnswer(context.Background(), "", "testing")
	require.NoError(t, err)
	assert.Equal(t, matcher.OfflineFeedback, result.Record.Feedback)
}

func TestPauseAndResume(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	ctx := context.Background()

	h.clock.Advance(5 * time.Second)
	snap, err := h.engine.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StagePaused, snap.Stage)
	assert.Equal(t, 15, snap.Remaining)

	h.clock.Advance(time.Hour)
	tick, err := h.engine.TickTimer(ctx)
	require.NoError(t, err)
	assert.Nil(t, tick.AutoSubmitted)

	_, err = h.engine.SubmitAnswer(ctx, "", "while paused")
	assert.ErrorIs(t, err, session.ErrState)

	snap, err = h.engine.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StageQuestioning, snap.Stage)
	assert.Equal(t, 15, snap.Remaining)

	h.clock.Advance(2 * time.Second)
	tick, err = h.engine.TickTimer(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, tick.RemainingSeconds)
}

func TestUploadResume(t *testing.T) {
	parsed := models.CandidateProfile{Name: "Ada Lovelace", Email: "ada@example.com"}
	parsed.MissingFields = session.MissingFields(parsed)
	h := newHarness(t, twoQuestionPlan(), fakeParser{profile: parsed})
	ctx := context.Background()

	snap, err := h.engine.UploadResume(ctx, "Ada CV.PDF", []byte("%PDF-1.7"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, models.StageProfileCompletion, snap.Stage)
	assert.Equal(t, []string{models.FieldPhone}, snap.Profile.MissingFields)
	assert.Regexp(t, `^resumes/id-\d+\.pdf$`, snap.Profile.ResumeKey)
	assert.Equal(t, 1, h.blobs.len())

	h.engine.ResetSession(ctx)
	assert.Equal(t, 0, h.blobs.len())
}

func TestUploadResumeParseFailureRemovesBlob(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), fakeParser{err: fmt.Errorf("%w: garbled", session.ErrParse)})

	_, err := h.engine.UploadResume(context.Background(), "cv.pdf", []byte("%PDF-1.7"), "application/pdf")
	assert.ErrorIs(t, err, session.ErrParse)
	assert.Equal(t, 0, h.blobs.len())
	assert.Equal(t, models.StageResumeUpload, h.engine.Snapshot().Stage)
}

func TestIngestDuringInterviewIsRejected(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	_, err := h.engine.IngestProfile(context.Background(), completeProfile())
	assert.ErrorIs(t, err, session.ErrState)
}

func TestRestoreFromStore(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)
	ctx := context.Background()
	require.NoError(t, h.engine.SaveDraft(ctx, "", "half an answer"))
	before := h.engine.Snapshot()

	restored, err := New(Options{
		AI:      h.ai,
		Archive: h.archive,
		Store:   h.store,
		Plan:    twoQuestionPlan(),
		Clock:   h.clock.Now,
	})
	require.NoError(t, err)
	require.NoError(t, restored.Restore(ctx))

	after := restored.Snapshot()
	assert.Equal(t, before.Session.ID, after.Session.ID)
	assert.Equal(t, models.StageQuestioning, after.Stage)
	assert.Equal(t, "half an answer", after.Session.Draft)
	assert.Equal(t, before.CurrentQuestion.ID, after.CurrentQuestion.ID)
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t, twoQuestionPlan(), nil)
	h.start(t)

	snap := h.engine.Snapshot()
	snap.Session.Transcript[0].Body = "tampered"
	snap.Session.Questions[snap.CurrentQuestion.ID] = models.InterviewQuestion{}

	fresh := h.engine.Snapshot()
	assert.NotEqual(t, "tampered", fresh.Session.Transcript[0].Body)
	assert.NotEmpty(t, fresh.Session.Questions[fresh.CurrentQuestion.ID].Prompt)
}
