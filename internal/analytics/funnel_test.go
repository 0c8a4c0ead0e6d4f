package analytics

import "testing"

func TestConversionFunnel(t *testing.T) {
	e := testEngine()
	events := []AnalyticsEvent{
		event("v1", "2024-01-09", true, SessionStart{}),
		event("v1", "2024-01-09", true, PuzzleStarted{Difficulty: DifficultyEasy}),
		event("v1", "2024-01-09", true, PuzzleStarted{Difficulty: DifficultyHard}),
		completed("v1", "2024-01-09", true, DifficultyEasy, true),
		event("v1", "2024-01-09", true, ShareClicked{Difficulty: DifficultyEasy}),
		event("v1", "2024-01-09", true, ShareCopied{Difficulty: DifficultyEasy}),
		event("v2", "2024-01-08", true, SessionStart{}),
		event("v3", "2024-01-08", true, SignupPromptShown{PuzzlesPlayedBefore: intPtr(4)}),
		event("v3", "2024-01-08", false, SignupCompleted{PuzzlesPlayedBefore: intPtr(4)}),
		event("v4", "2024-01-07", true, SignupPromptShown{}),
		event("v4", "2024-01-07", false, SignupCompleted{}),
		event("old", "2023-12-01", true, SignupCompleted{PuzzlesPlayedBefore: intPtr(0)}),
	}
	f := e.ConversionFunnel(e.NewDataset(nil, events), Range7Days)

	if f.UniqueVisitors != 4 {
		t.Errorf("UniqueVisitors = %d, want 4", f.UniqueVisitors)
	}
	if f.PuzzlePlayers != 1 || f.PuzzlesStarted != 2 || f.PuzzlesCompleted != 1 {
		t.Errorf("puzzle counts = %d/%d/%d", f.PuzzlePlayers, f.PuzzlesStarted, f.PuzzlesCompleted)
	}
	if f.VisitorToPlayerRate != 25 {
		t.Errorf("VisitorToPlayerRate = %d, want 25", f.VisitorToPlayerRate)
	}
	if f.CompletionRate != 50 {
		t.Errorf("CompletionRate = %d, want 50", f.CompletionRate)
	}
	if f.SignupsCompleted != 2 || f.PromptToSignupRate != 100 {
		t.Errorf("signups = %d rate %d", f.SignupsCompleted, f.PromptToSignupRate)
	}
	if f.AvgPuzzlesBeforeSignup != 4 {
		t.Errorf("AvgPuzzlesBeforeSignup = %v, want 4 (missing field excluded)", f.AvgPuzzlesBeforeSignup)
	}
	if f.PuzzlesBeforeSignup != (SignupTimingDistribution{ThreeToFive: 1}) {
		t.Errorf("PuzzlesBeforeSignup = %+v", f.PuzzlesBeforeSignup)
	}
	if f.ShareRate != 100 || f.ShareCopyRate != 100 {
		t.Errorf("share rates = %d/%d", f.ShareRate, f.ShareCopyRate)
	}

	all := e.ConversionFunnel(e.NewDataset(nil, events), RangeAll)
	if all.UniqueVisitors != 5 || all.PuzzlesBeforeSignup.Zero != 1 {
		t.Errorf("all-time funnel = %+v", all)
	}
}

func TestSignupTimingDistribution(t *testing.T) {
	var d SignupTimingDistribution
	for _, n := range []int{0, 1, 2, 3, 5, 6, 10, 11, 40} {
		d.add(n)
	}
	want := SignupTimingDistribution{Zero: 1, OneToTwo: 2, ThreeToFive: 2, SixToTen: 2, TenPlus: 2}
	if d != want {
		t.Errorf("distribution = %+v, want %+v", d, want)
	}
}
