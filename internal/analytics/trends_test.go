package analytics

import "testing"

func TestWinRateTrend_ZeroFilledAndFiltered(t *testing.T) {
	e := testEngine()
	events := []AnalyticsEvent{
		completed("anon", "2024-01-09", true, DifficultyEasy, true),
		completed("anon", "2024-01-09", true, DifficultyHard, false),
		completed("member", "2024-01-09", true, DifficultyEasy, true),
		event("member", "2024-01-09", false, SignupCompleted{}),
		completed("anon", "2023-11-01", true, DifficultyEasy, true),
	}
	ds := e.NewDataset(nil, events)

	trend := e.WinRateTrend(ds, Range7Days, FilterAnonymous)
	if len(trend.Points) != 7 {
		t.Fatalf("got %d points, want 7", len(trend.Points))
	}
	if trend.Points[0].Date != "2024-01-04" || trend.Points[6].Date != "2024-01-10" {
		t.Errorf("series spans %q..%q", trend.Points[0].Date, trend.Points[6].Date)
	}
	jan9 := trend.Points[5]
	if jan9.Played != 2 || jan9.Solved != 1 || jan9.WinRate != 50 {
		t.Errorf("Jan 9 = %+v", jan9)
	}
	if c := jan9.ByDifficulty[DifficultyHard]; c.Played != 1 || c.WinRate != 0 {
		t.Errorf("Jan 9 hard = %+v", c)
	}
	if c := jan9.ByDifficulty[DifficultyEasy]; c.WinRate != 100 {
		t.Errorf("Jan 9 easy = %+v", c)
	}
	for i, p := range trend.Points {
		if i != 5 && (p.Played != 0 || p.WinRate != 0 || len(p.ByDifficulty) != 4) {
			t.Errorf("point %s should be zero-filled, got %+v", p.Date, p)
		}
	}

	signed := e.WinRateTrend(ds, Range7Days, FilterSignedUp)
	if signed.Points[5].Played != 1 {
		t.Errorf("signedUp Jan 9 played = %d, want 1", signed.Points[5].Played)
	}

	all := e.WinRateTrend(ds, RangeAll, FilterAll)
	if all.Points[0].Date != "2023-11-01" {
		t.Errorf("all-time series starts %q, want earliest event date", all.Points[0].Date)
	}
}

func TestEngagementTrend(t *testing.T) {
	e := testEngine()
	events := []AnalyticsEvent{
		event("v1", "2024-01-10", true, SessionStart{}),
		event("v1", "2024-01-10", true, PuzzleStarted{Difficulty: DifficultyEasy}),
		completed("v1", "2024-01-10", true, DifficultyEasy, true),
		completed("v1", "2024-01-10", true, DifficultyHard, true),
		event("v1", "2024-01-10", true, ShareClicked{}),
		event("v2", "2024-01-10", true, SessionStart{}),
		event("v3", "2024-01-10", false, SignupCompleted{}),
	}
	trend := e.EngagementTrend(e.NewDataset(nil, events), RangeToday, FilterAll)
	if len(trend.Points) != 1 {
		t.Fatalf("got %d points, want 1", len(trend.Points))
	}
	p := trend.Points[0]
	if p.Visitors != 3 || p.PuzzlePlayers != 1 || p.PuzzlesStarted != 1 || p.PuzzlesCompleted != 2 {
		t.Errorf("point = %+v", p)
	}
	if p.Signups != 1 || p.Shares != 1 || p.AvgPuzzles != 2 {
		t.Errorf("point = %+v", p)
	}

	anon := e.EngagementTrend(e.NewDataset(nil, events), RangeToday, FilterAnonymous)
	if anon.Points[0].Visitors != 2 || anon.Points[0].Signups != 0 {
		t.Errorf("anonymous point = %+v", anon.Points[0])
	}
}

func TestActivityTrend(t *testing.T) {
	e := testEngine()
	players := []PlayerRecord{
		{ID: "p1", CreatedAt: "2024-01-09T08:00:00Z", DailyResults: map[string]DayResult{
			"2024-01-09": {Easy: solvedOutcome(1), Hard: &AttemptOutcome{TriesUsed: 5}},
			"2024-01-10": {Bonus: solvedOutcome(2)},
		}},
		{ID: "p2", CreatedAt: "2023-06-01T08:00:00Z", DailyResults: map[string]DayResult{
			"2024-01-10": {Impossible: solvedOutcome(3)},
		}},
	}
	trend := e.ActivityTrend(e.NewDataset(players, nil), Range7Days)
	if len(trend.Points) != 7 {
		t.Fatalf("got %d points, want 7", len(trend.Points))
	}
	jan9, jan10 := trend.Points[5], trend.Points[6]
	if jan9.ActivePlayers != 1 || jan9.NewPlayers != 1 || jan9.PuzzlesPlayed != 2 || jan9.PuzzlesSolved != 1 {
		t.Errorf("Jan 9 = %+v", jan9)
	}
	if jan10.ActivePlayers != 2 || jan10.NewPlayers != 0 || jan10.PuzzlesPlayed != 2 {
		t.Errorf("Jan 10 = %+v", jan10)
	}
}
