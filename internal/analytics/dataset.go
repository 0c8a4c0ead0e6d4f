package analytics

import (
	"sort"
	"time"
)

// VisitorSummary is the per-visitor slice of the event log. Treat it as
// read-only; it is shared by every calculator using the same Dataset.
type VisitorSummary struct {
	VisitorID string
	Converted bool
	Events    []AnalyticsEvent

	FirstSeen time.Time
	LastSeen  time.Time
	HasSeen   bool

	// Completion activity, regardless of the anonymous flag.
	CompletionDates   []string
	CompletionsByDate map[string]int

	// Activity recorded while the visitor was anonymous.
	Anonymous VisitorActivity
}

// FirstCompletion returns the earliest date with a completed puzzle, or "".
func (v *VisitorSummary) FirstCompletion() string {
	if len(v.CompletionDates) == 0 {
		return ""
	}
	return v.CompletionDates[0]
}

// VisitorActivity is a visitor's anonymous puzzle tally as reported by the
// segmentation views.
type VisitorActivity struct {
	VisitorID          string             `json:"visitorId"`
	PuzzlesStarted     int                `json:"puzzlesStarted"`
	PuzzlesPlayed      int                `json:"puzzlesPlayed"`
	PuzzlesSolved      int                `json:"puzzlesSolved"`
	SolvedByDifficulty map[Difficulty]int `json:"solvedByDifficulty,omitempty"`
	LastSeen           string             `json:"lastSeen,omitempty"`
	ConvertedToSignup  bool               `json:"convertedToSignup"`
	EstimatedScore     int                `json:"estimatedScore"`
}

// VisitorIndex groups the event log by visitor.
type VisitorIndex struct {
	byID    map[string]*VisitorSummary
	ordered []*VisitorSummary
}

func (ix *VisitorIndex) Visitor(id string) (*VisitorSummary, bool) {
	v, ok := ix.byID[id]
	return v, ok
}

// Visitors returns every visitor ordered by id.
func (ix *VisitorIndex) Visitors() []*VisitorSummary {
	return ix.ordered
}

func (ix *VisitorIndex) Len() int {
	return len(ix.ordered)
}

// Converted reports whether the visitor ever completed a signup.
func (ix *VisitorIndex) Converted(id string) bool {
	v, ok := ix.byID[id]
	return ok && v.Converted
}

// BuildVisitorIndex classifies events by visitor and conversion state.
func (e *Engine) BuildVisitorIndex(events []AnalyticsEvent) *VisitorIndex {
	ix := &VisitorIndex{byID: make(map[string]*VisitorSummary)}
	dates := make(map[string]map[string]bool)

	for _, ev := range events {
		v, ok := ix.byID[ev.VisitorID]
		if !ok {
			v = &VisitorSummary{
				VisitorID:         ev.VisitorID,
				CompletionsByDate: make(map[string]int),
				Anonymous:         VisitorActivity{VisitorID: ev.VisitorID},
			}
			ix.byID[ev.VisitorID] = v
			dates[ev.VisitorID] = make(map[string]bool)
		}
		v.Events = append(v.Events, ev)

		if ts, ok := e.parseTimestamp(ev.Timestamp); ok {
			if !v.HasSeen || ts.Before(v.FirstSeen) {
				v.FirstSeen = ts
			}
			if !v.HasSeen || ts.After(v.LastSeen) {
				v.LastSeen = ts
			}
			v.HasSeen = true
		}

		switch p := ev.Payload.(type) {
		case SignupCompleted:
			v.Converted = true
		case PuzzleStarted:
			if ev.IsAnonymous {
				v.Anonymous.PuzzlesStarted++
			}
		case PuzzleCompleted:
			if validKey(ev.Date) {
				dates[ev.VisitorID][ev.Date] = true
				v.CompletionsByDate[ev.Date]++
			}
			if ev.IsAnonymous {
				v.Anonymous.PuzzlesPlayed++
				if p.Solved {
					v.Anonymous.PuzzlesSolved++
					if p.Difficulty != "" {
						if v.Anonymous.SolvedByDifficulty == nil {
							v.Anonymous.SolvedByDifficulty = make(map[Difficulty]int)
						}
						v.Anonymous.SolvedByDifficulty[p.Difficulty]++
					}
				}
			}
		}
	}

	ix.ordered = make([]*VisitorSummary, 0, len(ix.byID))
	for id, v := range ix.byID {
		v.CompletionDates = sortedKeys(dates[id])
		v.Anonymous.ConvertedToSignup = v.Converted
		if v.HasSeen {
			v.Anonymous.LastSeen = v.LastSeen.Format(time.RFC3339)
		}
		ix.ordered = append(ix.ordered, v)
	}
	sort.Slice(ix.ordered, func(i, j int) bool {
		return ix.ordered[i].VisitorID < ix.ordered[j].VisitorID
	})
	return ix
}

// Dataset is one immutable snapshot of both input tables plus the indices
// derived from them. Build it once per snapshot and share it between calculators.
type Dataset struct {
	Players  []PlayerRecord
	Activity []PlayerActivity
	Events   []AnalyticsEvent
	Visitors *VisitorIndex

	earliestPlayerKey string
	earliestEventKey  string
}

func (e *Engine) NewDataset(players []PlayerRecord, events []AnalyticsEvent) *Dataset {
	ds := &Dataset{
		Players:  players,
		Activity: make([]PlayerActivity, len(players)),
		Events:   events,
		Visitors: e.BuildVisitorIndex(events),
	}
	for i, p := range players {
		a := e.ExtractActivity(p)
		ds.Activity[i] = a
		if len(a.ActiveDates) > 0 && (ds.earliestPlayerKey == "" || a.ActiveDates[0] < ds.earliestPlayerKey) {
			ds.earliestPlayerKey = a.ActiveDates[0]
		}
	}
	keys := make([]string, len(events))
	for i, ev := range events {
		keys[i] = ev.Date
	}
	ds.earliestEventKey = earliestKey(keys)
	return ds
}

// EarliestPlayerDate is the first active date across player records.
func (ds *Dataset) EarliestPlayerDate() string { return ds.earliestPlayerKey }

// EarliestEventDate is the first date in the event log.
func (ds *Dataset) EarliestEventDate() string { return ds.earliestEventKey }
