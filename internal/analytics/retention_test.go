package analytics

import (
	"fmt"
	"testing"
)

func TestRetention_ScenarioB(t *testing.T) {
	e := testEngine()
	events := []AnalyticsEvent{
		completed("V1", "2024-01-01", true, DifficultyEasy, true),
		completed("V1", "2024-01-08", true, DifficultyEasy, true),
	}
	m := e.Retention(e.NewDataset(nil, events), FilterAnonymous)

	if len(m.Cohorts) != 1 {
		t.Fatalf("got %d cohorts, want 1", len(m.Cohorts))
	}
	c := m.Cohorts[0]
	if c.WeekStart != "2024-01-01" {
		t.Errorf("WeekStart = %q, want 2024-01-01", c.WeekStart)
	}
	if c.Label != "Week of Jan 1" {
		t.Errorf("Label = %q", c.Label)
	}
	if c.NewPlayers != 1 {
		t.Errorf("NewPlayers = %d, want 1", c.NewPlayers)
	}
	if c.D7Retained != 100 {
		t.Errorf("D7Retained = %d, want 100", c.D7Retained)
	}
	if c.D1Retained != 0 {
		t.Errorf("D1Retained = %d, want 0", c.D1Retained)
	}
}

func TestReturnWindows(t *testing.T) {
	tests := []struct {
		dates []string
		want  visitorReturn
	}{
		{[]string{"2024-01-01", "2024-01-02", "2024-01-06", "2024-01-21"}, visitorReturn{d1: true, d7: true, d28: true}},
		{[]string{"2024-01-01", "2024-01-02"}, visitorReturn{d1: true}},
		{[]string{"2024-01-01", "2024-01-03"}, visitorReturn{d7: true}},
		{[]string{"2024-01-01", "2024-01-08"}, visitorReturn{d7: true}},
		{[]string{"2024-01-01", "2024-01-09"}, visitorReturn{d28: true}},
		{[]string{"2024-01-01", "2024-01-29"}, visitorReturn{d28: true}},
		{[]string{"2024-01-01", "2024-01-30"}, visitorReturn{}},
		{[]string{"2024-01-01"}, visitorReturn{}},
	}
	for _, tt := range tests {
		if got := returnWindows(tt.dates); got != tt.want {
			t.Errorf("returnWindows(%v) = %+v, want %+v", tt.dates, got, tt.want)
		}
	}
}

func TestHasStreak(t *testing.T) {
	if !hasStreak([]string{"2024-01-01", "2024-01-03", "2024-01-04", "2024-01-05"}) {
		t.Error("3 consecutive days after a gap should count as a streak")
	}
	if hasStreak([]string{"2024-01-01", "2024-01-02", "2024-01-04", "2024-01-05"}) {
		t.Error("two pairs of consecutive days are not a streak")
	}
	if hasStreak([]string{"2024-01-01", "2024-01-02"}) {
		t.Error("two days are not a streak")
	}
}

func TestRetention_FiltersAndOverall(t *testing.T) {
	e := testEngine()
	events := []AnalyticsEvent{
		// anon: two puzzles on day one, back the next day and the day after
		completed("anon", "2024-01-01", true, DifficultyEasy, true),
		completed("anon", "2024-01-01", true, DifficultyHard, true),
		completed("anon", "2024-01-02", true, DifficultyEasy, true),
		completed("anon", "2024-01-03", true, DifficultyEasy, true),
		// once: never returns
		completed("once", "2024-01-04", true, DifficultyEasy, false),
		// member signs up; later completions still count toward retention
		completed("member", "2023-12-27", true, DifficultyEasy, true),
		event("member", "2023-12-27", true, SignupCompleted{}),
		completed("member", "2024-01-06", false, DifficultyEasy, true),
		// browser never completes a puzzle
		event("browser", "2024-01-05", true, PuzzleStarted{Difficulty: DifficultyEasy}),
	}
	ds := e.NewDataset(nil, events)

	all := e.Retention(ds, FilterAll)
	if all.Overall.Players != 3 {
		t.Fatalf("Overall.Players = %d, want 3", all.Overall.Players)
	}
	if all.Overall.D1Retained != 33 || all.Overall.D7Retained != 33 || all.Overall.D28Retained != 33 {
		t.Errorf("Overall = %+v", all.Overall)
	}
	if all.StreakPlayers != 1 {
		t.Errorf("StreakPlayers = %d, want 1", all.StreakPlayers)
	}
	if all.ReturningPlayers != 2 || all.ReturnRate != 67 {
		t.Errorf("returning = %d rate %d", all.ReturningPlayers, all.ReturnRate)
	}
	if all.AvgPuzzlesBeforeReturn != 1.5 {
		t.Errorf("AvgPuzzlesBeforeReturn = %v, want 1.5", all.AvgPuzzlesBeforeReturn)
	}
	if len(all.Cohorts) != 2 || all.Cohorts[0].WeekStart != "2024-01-01" || all.Cohorts[1].WeekStart != "2023-12-25" {
		t.Errorf("cohorts = %+v", all.Cohorts)
	}
	if all.Cohorts[0].NewPlayers != 2 || all.Cohorts[0].D1Retained != 50 {
		t.Errorf("newest cohort = %+v", all.Cohorts[0])
	}

	signed := e.Retention(ds, FilterSignedUp)
	if signed.Overall.Players != 1 || signed.Overall.D28Count != 1 {
		t.Errorf("signedUp overall = %+v", signed.Overall)
	}

	anon := e.Retention(ds, "bogus")
	if anon.Filter != FilterAll || anon.Overall.Players != 3 {
		t.Errorf("invalid filter should behave like all, got %+v", anon.Overall)
	}
}

func TestRetention_CohortCap(t *testing.T) {
	e := testEngine()
	var events []AnalyticsEvent
	for week := 0; week < 10; week++ {
		date := addDays("2023-10-30", week*7)
		events = append(events, completed(fmt.Sprintf("v%d", week), date, true, DifficultyEasy, true))
	}
	m := e.Retention(e.NewDataset(nil, events), FilterAll)
	if len(m.Cohorts) != 8 {
		t.Fatalf("got %d cohorts, want 8", len(m.Cohorts))
	}
	if m.Cohorts[0].WeekStart != "2024-01-01" {
		t.Errorf("newest cohort = %q, want 2024-01-01", m.Cohorts[0].WeekStart)
	}
	if m.Overall.Players != 10 {
		t.Errorf("Overall.Players = %d, want all 10 visitors", m.Overall.Players)
	}
}

func TestRetention_MalformedCompletionDate(t *testing.T) {
	e := testEngine()
	events := []AnalyticsEvent{
		completed("v1", "2024-01-02", true, DifficultyEasy, true),
		completed("v1", "01/05/2024", true, DifficultyHard, true),
		completed("v2", "2024-01-03", true, DifficultyEasy, true),
		completed("v2", "not-a-date", true, DifficultyEasy, false),
	}
	ds := e.NewDataset(nil, events)
	m := e.Retention(ds, FilterAll)

	if len(m.Cohorts) != 1 {
		t.Fatalf("got %d cohorts, want 1", len(m.Cohorts))
	}
	if c := m.Cohorts[0]; c.WeekStart != "2024-01-01" || c.Players != 2 {
		t.Errorf("cohort = %+v, want week 2024-01-01 with 2 players", c)
	}
	if m.ReturningPlayers != 0 || m.ReturnRate != 0 || m.AvgPuzzlesBeforeReturn != 0 {
		t.Errorf("returning = %d rate = %d avg = %v, want all zero",
			m.ReturningPlayers, m.ReturnRate, m.AvgPuzzlesBeforeReturn)
	}

	v, ok := ds.Visitors.Visitor("v1")
	if !ok {
		t.Fatal("v1 missing from index")
	}
	if len(v.CompletionDates) != 1 || v.CompletionDates[0] != "2024-01-02" {
		t.Errorf("CompletionDates = %v, want [2024-01-02]", v.CompletionDates)
	}
	if v.Anonymous.PuzzlesPlayed != 2 {
		t.Errorf("PuzzlesPlayed = %d, want 2 (lifetime tally keeps undated completions)", v.Anonymous.PuzzlesPlayed)
	}
}
