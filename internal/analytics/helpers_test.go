package analytics

import "time"

// fixedNow is Wednesday 2024-01-10 at noon UTC.
var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func testEngine() *Engine {
	return NewEngine(WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func event(visitor, date string, anon bool, p Payload) AnalyticsEvent {
	return AnalyticsEvent{
		VisitorID:   visitor,
		Date:        date,
		Timestamp:   date + "T10:00:00Z",
		IsAnonymous: anon,
		Payload:     p,
	}
}

func completed(visitor, date string, anon bool, diff Difficulty, solved bool) AnalyticsEvent {
	return event(visitor, date, anon, PuzzleCompleted{Difficulty: diff, Solved: solved})
}

func solvedOutcome(tries int) *AttemptOutcome {
	return &AttemptOutcome{Solved: true, TriesUsed: tries}
}
