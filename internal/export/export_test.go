package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"chainstats/internal/analytics"
	"chainstats/internal/dashboard"

	"github.com/xuri/excelize/v2"
)

type staticLoader struct {
	players []analytics.PlayerRecord
	events  []analytics.AnalyticsEvent
}

func (l staticLoader) LoadPlayers(ctx context.Context) ([]analytics.PlayerRecord, error) {
	return l.players, nil
}

func (l staticLoader) LoadEvents(ctx context.Context) ([]analytics.AnalyticsEvent, error) {
	return l.events, nil
}

func testSnapshot(t *testing.T) *dashboard.Snapshot {
	t.Helper()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	engine := analytics.NewEngine(analytics.WithClock(func() time.Time { return now }), analytics.WithLocation(time.UTC))
	completed := func(visitor, date string, solved bool) analytics.AnalyticsEvent {
		return analytics.AnalyticsEvent{
			VisitorID: visitor, Date: date, Timestamp: date + "T10:00:00Z", IsAnonymous: true,
			Payload: analytics.PuzzleCompleted{Difficulty: analytics.DifficultyEasy, Solved: solved, PuzzleID: "easy-42"},
		}
	}
	loader := staticLoader{
		players: []analytics.PlayerRecord{
			{ID: "p1", TotalScore: 300, DailyResults: map[string]analytics.DayResult{
				"2024-01-10": {Easy: &analytics.AttemptOutcome{Solved: true, TriesUsed: 1}},
			}},
		},
		events: []analytics.AnalyticsEvent{
			completed("v1", "2024-01-09", true),
			completed("v1", "2024-01-10", true),
			completed("v2", "2024-01-10", false),
		},
	}
	svc := dashboard.NewService(loader, engine)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap, err := svc.Snapshot(dashboard.NewParams("7days", "all"))
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func TestMetrics(t *testing.T) {
	snap := testSnapshot(t)
	got := make(map[string]string)
	for _, m := range Metrics(snap) {
		got[m.Section+"."+m.Name] = m.Value
	}

	checks := map[string]string{
		"snapshot.range":          "7days",
		"overview.totalUsers":     "1",
		"funnel.puzzlesCompleted": "3",
		"funnel.uniqueVisitors":   "2",
		"retention.d1Retained":    "50",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %q, want %q", k, got[k], want)
		}
	}
	if _, ok := got["overview.bonusFastestTime"]; ok {
		t.Error("bonusFastestTime should be omitted without timed bonus outcomes")
	}
}

func TestWriteCSV(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, snap); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("got %d records, want header plus rows", len(records))
	}
	if h := records[0]; h[0] != "section" || h[1] != "metric" || h[2] != "value" {
		t.Errorf("header = %v", h)
	}

	var puzzleCompletions string
	days := 0
	for _, r := range records[1:] {
		if len(r) != 3 {
			t.Fatalf("record %v has %d fields, want 3", r, len(r))
		}
		if r[0] == "puzzle:easy-42" && r[1] == "completions" {
			puzzleCompletions = r[2]
		}
		if r[1] == "winRate" && strings.HasPrefix(r[0], "trend:") {
			days++
		}
	}
	if puzzleCompletions != "3" {
		t.Errorf("puzzle completions = %q, want 3", puzzleCompletions)
	}
	if days != 7 {
		t.Errorf("trend days = %d, want 7", days)
	}
}

func TestWriteXLSX(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, snap); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{SheetOverview, SheetRetention, SheetPuzzles, SheetTrends}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	rows, err := f.GetRows(SheetPuzzles)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("puzzle rows = %d, want header plus 1", len(rows))
	}
	if rows[1][0] != "easy-42" || rows[1][2] != "3" || rows[1][4] != "67" {
		t.Errorf("puzzle row = %v", rows[1])
	}

	trends, err := f.GetRows(SheetTrends)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(trends) != 8 {
		t.Errorf("trend rows = %d, want header plus 7 days", len(trends))
	}
	if last := trends[len(trends)-1]; last[0] != "2024-01-10" || last[2] != "2" {
		t.Errorf("last trend row = %v", last)
	}

	cohorts, err := f.GetRows(SheetRetention)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(cohorts) != 2 || cohorts[1][0] != "2024-01-08" {
		t.Errorf("cohort rows = %v", cohorts)
	}
}
