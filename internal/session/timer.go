package session

import (
	"time"

	"github.com/khrees2412/mockly/pkg/models"
)

// StartTimer activates a countdown for a question
func StartTimer(limitSeconds int, now time.Time) models.QuestionTimerState {
	if limitSeconds < 0 {
		limitSeconds = 0
	}
	return models.QuestionTimerState{
		RemainingSeconds: limitSeconds,
		IsRunning:        limitSeconds > 0,
		StartedAt:        now,
		LastTickAt:       now,
	}
}

// AdvanceTimer applies one tick. The whole wall-clock gap since the last tick is consumed,
// floored at one second, so late or coalesced ticks never under-count.
func AdvanceTimer(t models.QuestionTimerState, now time.Time) models.QuestionTimerState {
	if !t.IsRunning {
		return t
	}

	elapsed := int(now.Sub(t.LastTickAt) / time.Second)
	if elapsed < 1 {
		elapsed = 1
	}

	t.RemainingSeconds = max(0, t.RemainingSeconds-elapsed)
	t.LastTickAt = now
	t.IsRunning = t.RemainingSeconds > 0
	return t
}

// FreezeTimer stops the countdown and keeps the remaining time
func FreezeTimer(t models.QuestionTimerState) models.QuestionTimerState {
	t.IsRunning = false
	return t
}

// ResumeTimer restarts a frozen, non-terminal countdown without charging the frozen interval
func ResumeTimer(t models.QuestionTimerState, now time.Time) models.QuestionTimerState {
	if t.RemainingSeconds <= 0 {
		return t
	}
	t.IsRunning = true
	t.LastTickAt = now
	return t
}

// TimerExpired reports whether a countdown reached zero. Expired timers only restart via a new activation.
func TimerExpired(t models.QuestionTimerState) bool {
	return !t.IsRunning && t.RemainingSeconds == 0
}

// ElapsedSeconds is the time spent on a question, clamped to [0, limit]
func ElapsedSeconds(limitSeconds, remainingSeconds int) int {
	elapsed := limitSeconds - remainingSeconds
	if elapsed < 0 {
		return 0
	}
	if elapsed > limitSeconds {
		return max(0, limitSeconds)
	}
	return elapsed
}
