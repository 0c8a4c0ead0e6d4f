package store

import (
	"context"
	"errors"
	"os"
	"testing"

	"chainstats/internal/analytics"
	"chainstats/internal/logger"
)

// getTestStore uses TEST_DATABASE_URL (postgres) when set, otherwise an
// in-memory sqlite database.
func getTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	driver, dsn := "sqlite3", ":memory:"
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		driver, dsn = "postgres", url
	}
	s, err := Connect(ctx, driver, dsn, logger.Nop())
	if err != nil {
		t.Skipf("database unavailable (%s): %v", driver, err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}
	t.Cleanup(func() {
		s.db.Exec("DELETE FROM analytics_events")
		s.db.Exec("DELETE FROM players")
		s.Close()
	})
	return s
}

func TestConnect(t *testing.T) {
	s := getTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestMigrate_Twice(t *testing.T) {
	s := getTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Errorf("second Migrate() error: %v", err)
	}
}

func TestUpsertPlayer(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()

	p := analytics.PlayerRecord{
		ID:          "550e8400-e29b-41d4-a716-446655440000",
		DisplayName: "Alice",
		CreatedAt:   "2024-01-01T09:00:00Z",
		TotalScore:  300,
		DailyResults: map[string]analytics.DayResult{
			"2024-01-01": {Easy: &analytics.AttemptOutcome{Solved: true, TriesUsed: 1}},
		},
	}
	if err := s.UpsertPlayer(ctx, p); err != nil {
		t.Fatalf("UpsertPlayer() error: %v", err)
	}

	p.DisplayName = "Alice Updated"
	p.CurrentStreak = 2
	p.DailyResults["2024-01-02"] = analytics.DayResult{Hard: &analytics.AttemptOutcome{TriesUsed: 3}}
	if err := s.UpsertPlayer(ctx, p); err != nil {
		t.Fatalf("UpsertPlayer() update error: %v", err)
	}

	players, err := s.LoadPlayers(ctx)
	if err != nil {
		t.Fatalf("LoadPlayers() error: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("got %d players, want 1", len(players))
	}
	got := players[0]
	if got.DisplayName != "Alice Updated" {
		t.Errorf("name = %q, want %q", got.DisplayName, "Alice Updated")
	}
	if got.CurrentStreak != 2 || got.TotalScore != 300 {
		t.Errorf("streak %d score %d", got.CurrentStreak, got.TotalScore)
	}
	if len(got.DailyResults) != 2 || got.DailyResults["2024-01-01"].Easy == nil || !got.DailyResults["2024-01-01"].Easy.Solved {
		t.Errorf("DailyResults = %+v", got.DailyResults)
	}
}

func TestLoadPlayers_SkipsBadJSON(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()

	if err := s.UpsertPlayer(ctx, analytics.PlayerRecord{ID: "good"}); err != nil {
		t.Fatalf("UpsertPlayer() error: %v", err)
	}
	if _, err := s.db.Exec(s.db.Rebind("INSERT INTO players (id, daily_results) VALUES (?, ?)"), "broken", "{not json"); err != nil {
		t.Fatalf("inserting broken row: %v", err)
	}

	players, err := s.LoadPlayers(ctx)
	if err != nil {
		t.Fatalf("LoadPlayers() error: %v", err)
	}
	if len(players) != 1 || players[0].ID != "good" {
		t.Errorf("players = %+v, want only the readable row", players)
	}
}

func TestInsertAndLoadEvents(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()

	solved := true
	moves := 5
	id, err := s.InsertEvent(ctx, analytics.RawEvent{
		VisitorID:   "v1",
		Event:       "puzzle_completed",
		Date:        "2024-01-02",
		Timestamp:   "2024-01-02T10:00:00Z",
		IsAnonymous: true,
		Difficulty:  "hard",
		Solved:      &solved,
		MovesCount:  &moves,
	})
	if err != nil {
		t.Fatalf("InsertEvent() error: %v", err)
	}
	if id == "" {
		t.Error("InsertEvent() returned empty ID")
	}
	if _, err := s.InsertEvent(ctx, analytics.RawEvent{
		VisitorID: "v1", Event: "session_start", Date: "2024-01-01", Timestamp: "2024-01-01T08:00:00Z",
	}); err != nil {
		t.Fatalf("InsertEvent() error: %v", err)
	}
	if _, err := s.InsertEvent(ctx, analytics.RawEvent{VisitorID: "v2", Event: "retired_event", Date: "2024-01-03"}); err != nil {
		t.Fatalf("InsertEvent() error: %v", err)
	}

	events, err := s.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents() error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (unknown type skipped)", len(events))
	}
	if events[0].Type() != analytics.EventSessionStart {
		t.Errorf("first event = %s, want session_start (ordered by date)", events[0].Type())
	}
	p, ok := events[1].Payload.(analytics.PuzzleCompleted)
	if !ok {
		t.Fatalf("payload = %T, want PuzzleCompleted", events[1].Payload)
	}
	if !p.Solved || p.Difficulty != analytics.DifficultyHard || p.MovesCount == nil || *p.MovesCount != 5 {
		t.Errorf("payload = %+v", p)
	}
	if !events[1].IsAnonymous {
		t.Error("IsAnonymous should round-trip")
	}
}

func TestInsertEvent_DuplicateID(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()

	ev := analytics.RawEvent{ID: "evt-1", VisitorID: "v1", Event: "session_start", Date: "2024-01-01", Timestamp: "2024-01-01T08:00:00Z"}
	id, err := s.InsertEvent(ctx, ev)
	if err != nil {
		t.Fatalf("InsertEvent() error: %v", err)
	}
	if id != "evt-1" {
		t.Errorf("InsertEvent() id = %q, want evt-1", id)
	}

	ev.Event = "signup_completed"
	id, err = s.InsertEvent(ctx, ev)
	if !errors.Is(err, ErrDuplicateEvent) {
		t.Fatalf("second InsertEvent() error = %v, want ErrDuplicateEvent", err)
	}
	if id != "evt-1" {
		t.Errorf("second InsertEvent() id = %q, want evt-1", id)
	}

	raw, err := s.LoadRawEvents(ctx)
	if err != nil {
		t.Fatalf("LoadRawEvents() error: %v", err)
	}
	if len(raw) != 1 {
		t.Fatalf("got %d events, want 1", len(raw))
	}
	if raw[0].ID != "evt-1" || raw[0].Event != "session_start" {
		t.Errorf("stored event = %+v, want the first insert", raw[0])
	}

	events, err := s.LoadEvents(ctx)
	if err != nil {
		t.Fatalf("LoadEvents() error: %v", err)
	}
	if len(events) != 1 || events[0].ID != "evt-1" {
		t.Errorf("LoadEvents() = %+v, want one event with id evt-1", events)
	}
}
