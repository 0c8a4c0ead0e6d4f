package analytics

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

const (
	EventSessionStart         EventType = "session_start"
	EventPuzzleStarted        EventType = "puzzle_started"
	EventPuzzleCompleted      EventType = "puzzle_completed"
	EventSignupPromptShown    EventType = "signup_prompt_shown"
	EventSignupCompleted      EventType = "signup_completed"
	EventShareClicked         EventType = "share_clicked"
	EventShareCopied          EventType = "share_copied"
	EventBadgeViewed          EventType = "badge_viewed"
	EventBadgeUnlocked        EventType = "badge_unlocked"
	EventBonusRoundStarted    EventType = "bonus_round_started"
	EventArchivePuzzleStarted EventType = "archive_puzzle_started"
	EventThemeChanged         EventType = "theme_changed"
	EventExplanationViewed    EventType = "explanation_viewed"
)

// Payload is the type-specific part of an event. Each variant carries only the
// fields that apply to its event type.
type Payload interface {
	EventType() EventType
}

type SessionStart struct{}

type PuzzleStarted struct {
	Difficulty Difficulty
	PuzzleID   string
}

type PuzzleCompleted struct {
	Difficulty       Difficulty
	Solved           bool
	PuzzleID         string
	TimeSpentSeconds *float64
	MovesCount       *int
}

type SignupPromptShown struct {
	PuzzlesPlayedBefore *int
}

type SignupCompleted struct {
	PuzzlesPlayedBefore *int
}

type ShareClicked struct {
	Difficulty Difficulty
	PuzzleID   string
}

type ShareCopied struct {
	Difficulty Difficulty
	PuzzleID   string
}

type BadgeViewed struct {
	BadgeID     string
	WasUnlocked bool
}

type BadgeUnlocked struct {
	BadgeID string
}

type BonusRoundStarted struct {
	PuzzleID string
}

type ArchivePuzzleStarted struct {
	Difficulty Difficulty
	PuzzleID   string
	DaysAgo    *int
}

type ThemeChanged struct {
	NewTheme string
}

type ExplanationViewed struct {
	Difficulty Difficulty
	PuzzleID   string
}

func (SessionStart) EventType() EventType         { return EventSessionStart }
func (PuzzleStarted) EventType() EventType        { return EventPuzzleStarted }
func (PuzzleCompleted) EventType() EventType      { return EventPuzzleCompleted }
func (SignupPromptShown) EventType() EventType    { return EventSignupPromptShown }
func (SignupCompleted) EventType() EventType      { return EventSignupCompleted }
func (ShareClicked) EventType() EventType         { return EventShareClicked }
func (ShareCopied) EventType() EventType          { return EventShareCopied }
func (BadgeViewed) EventType() EventType          { return EventBadgeViewed }
func (BadgeUnlocked) EventType() EventType        { return EventBadgeUnlocked }
func (BonusRoundStarted) EventType() EventType    { return EventBonusRoundStarted }
func (ArchivePuzzleStarted) EventType() EventType { return EventArchivePuzzleStarted }
func (ThemeChanged) EventType() EventType         { return EventThemeChanged }
func (ExplanationViewed) EventType() EventType    { return EventExplanationViewed }

// AnalyticsEvent is one normalized entry of the event log. ID is the log id
// when the event came from storage or a client supplied one.
type AnalyticsEvent struct {
	ID          string
	VisitorID   string
	Date        string
	Timestamp   string
	IsAnonymous bool
	Payload     Payload
}

func (e AnalyticsEvent) Type() EventType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

// RawEvent is the flat wire form of an event as stored and posted by clients.
// Every payload field is optional regardless of the event type.
type RawEvent struct {
	ID                  string   `json:"id,omitempty"`
	VisitorID           string   `json:"visitorId"`
	Event               string   `json:"event"`
	Date                string   `json:"date"`
	Timestamp           string   `json:"timestamp"`
	IsAnonymous         bool     `json:"isAnonymous"`
	Difficulty          string   `json:"difficulty,omitempty"`
	Solved              *bool    `json:"solved,omitempty"`
	PuzzleID            string   `json:"puzzleId,omitempty"`
	TimeSpentSeconds    *float64 `json:"timeSpentSeconds,omitempty"`
	MovesCount          *int     `json:"movesCount,omitempty"`
	PuzzlesPlayedBefore *int     `json:"puzzlesPlayedBefore,omitempty"`
	BadgeID             string   `json:"badgeId,omitempty"`
	WasUnlocked         *bool    `json:"wasUnlocked,omitempty"`
	DaysAgo             *int     `json:"daysAgo,omitempty"`
	NewTheme            string   `json:"newTheme,omitempty"`
}

// NormalizeReport counts raw events dropped during normalization.
type NormalizeReport struct {
	Accepted       int `json:"accepted"`
	UnknownType    int `json:"unknownType"`
	MissingVisitor int `json:"missingVisitor"`
	BadDate        int `json:"badDate"`
}

func (r NormalizeReport) Skipped() int {
	return r.UnknownType + r.MissingVisitor + r.BadDate
}

// NormalizeEvents converts raw events into typed events. Events with an unknown
// type, no visitor or an unusable date are skipped; the input order is kept.
// An event without a valid date takes the UTC calendar date of its timestamp;
// Engine.NormalizeEvents uses the engine's location instead.
func NormalizeEvents(raw []RawEvent) ([]AnalyticsEvent, NormalizeReport) {
	return normalizeAll(raw, time.UTC)
}

// NormalizeEvents is the package NormalizeEvents with timestamp fallback dates
// taken in the engine's location.
func (e *Engine) NormalizeEvents(raw []RawEvent) ([]AnalyticsEvent, NormalizeReport) {
	return normalizeAll(raw, e.loc)
}

func normalizeAll(raw []RawEvent, loc *time.Location) ([]AnalyticsEvent, NormalizeReport) {
	var report NormalizeReport
	out := make([]AnalyticsEvent, 0, len(raw))
	for _, r := range raw {
		ev, ok := normalizeOne(r, loc, &report)
		if !ok {
			continue
		}
		report.Accepted++
		out = append(out, ev)
	}
	return out, report
}

// Normalize converts a single raw event, returning an *InvalidEventError when
// NormalizeEvents would skip it. Fallback dates are UTC.
func Normalize(r RawEvent) (AnalyticsEvent, error) {
	return normalizeSingle(r, time.UTC)
}

// Normalize converts a single raw event with fallback dates in the engine's
// location.
func (e *Engine) Normalize(r RawEvent) (AnalyticsEvent, error) {
	return normalizeSingle(r, e.loc)
}

func normalizeSingle(r RawEvent, loc *time.Location) (AnalyticsEvent, error) {
	var report NormalizeReport
	ev, ok := normalizeOne(r, loc, &report)
	if ok {
		return ev, nil
	}
	reason := "unknown event type"
	switch {
	case report.MissingVisitor > 0:
		reason = "missing visitorId"
	case report.BadDate > 0:
		reason = "unparseable date"
	}
	return AnalyticsEvent{}, &InvalidEventError{Event: r.Event, Reason: reason}
}

func normalizeOne(r RawEvent, loc *time.Location, report *NormalizeReport) (AnalyticsEvent, bool) {
	if r.VisitorID == "" {
		report.MissingVisitor++
		return AnalyticsEvent{}, false
	}
	date := r.Date
	if _, err := time.Parse(dateKeyLayout, date); err != nil {
		// Fall back to the timestamp's calendar date in loc.
		ts, terr := time.Parse(time.RFC3339Nano, r.Timestamp)
		if terr != nil {
			report.BadDate++
			return AnalyticsEvent{}, false
		}
		date = ts.In(loc).Format(dateKeyLayout)
	}
	payload := payloadFor(r)
	if payload == nil {
		report.UnknownType++
		return AnalyticsEvent{}, false
	}
	return AnalyticsEvent{
		ID:          r.ID,
		VisitorID:   r.VisitorID,
		Date:        date,
		Timestamp:   r.Timestamp,
		IsAnonymous: r.IsAnonymous,
		Payload:     payload,
	}, true
}

func payloadFor(r RawEvent) Payload {
	diff := Difficulty(r.Difficulty)
	if !diff.valid() {
		diff = ""
	}
	switch EventType(r.Event) {
	case EventSessionStart:
		return SessionStart{}
	case EventPuzzleStarted:
		return PuzzleStarted{Difficulty: diff, PuzzleID: r.PuzzleID}
	case EventPuzzleCompleted:
		return PuzzleCompleted{
			Difficulty:       diff,
			Solved:           r.Solved != nil && *r.Solved,
			PuzzleID:         r.PuzzleID,
			TimeSpentSeconds: r.TimeSpentSeconds,
			MovesCount:       r.MovesCount,
		}
	case EventSignupPromptShown:
		return SignupPromptShown{PuzzlesPlayedBefore: r.PuzzlesPlayedBefore}
	case EventSignupCompleted:
		return SignupCompleted{PuzzlesPlayedBefore: r.PuzzlesPlayedBefore}
	case EventShareClicked:
		return ShareClicked{Difficulty: diff, PuzzleID: r.PuzzleID}
	case EventShareCopied:
		return ShareCopied{Difficulty: diff, PuzzleID: r.PuzzleID}
	case EventBadgeViewed:
		return BadgeViewed{BadgeID: r.BadgeID, WasUnlocked: r.WasUnlocked != nil && *r.WasUnlocked}
	case EventBadgeUnlocked:
		return BadgeUnlocked{BadgeID: r.BadgeID}
	case EventBonusRoundStarted:
		return BonusRoundStarted{PuzzleID: r.PuzzleID}
	case EventArchivePuzzleStarted:
		return ArchivePuzzleStarted{Difficulty: diff, PuzzleID: r.PuzzleID, DaysAgo: r.DaysAgo}
	case EventThemeChanged:
		return ThemeChanged{NewTheme: r.NewTheme}
	case EventExplanationViewed:
		return ExplanationViewed{Difficulty: diff, PuzzleID: r.PuzzleID}
	}
	return nil
}

// Raw flattens the event back into its wire form.
func (e AnalyticsEvent) Raw() RawEvent {
	r := RawEvent{
		ID:          e.ID,
		VisitorID:   e.VisitorID,
		Event:       string(e.Type()),
		Date:        e.Date,
		Timestamp:   e.Timestamp,
		IsAnonymous: e.IsAnonymous,
	}
	switch p := e.Payload.(type) {
	case PuzzleStarted:
		r.Difficulty, r.PuzzleID = string(p.Difficulty), p.PuzzleID
	case PuzzleCompleted:
		solved := p.Solved
		r.Difficulty, r.PuzzleID, r.Solved = string(p.Difficulty), p.PuzzleID, &solved
		r.TimeSpentSeconds, r.MovesCount = p.TimeSpentSeconds, p.MovesCount
	case SignupPromptShown:
		r.PuzzlesPlayedBefore = p.PuzzlesPlayedBefore
	case SignupCompleted:
		r.PuzzlesPlayedBefore = p.PuzzlesPlayedBefore
	case ShareClicked:
		r.Difficulty, r.PuzzleID = string(p.Difficulty), p.PuzzleID
	case ShareCopied:
		r.Difficulty, r.PuzzleID = string(p.Difficulty), p.PuzzleID
	case BadgeViewed:
		unlocked := p.WasUnlocked
		r.BadgeID, r.WasUnlocked = p.BadgeID, &unlocked
	case BadgeUnlocked:
		r.BadgeID = p.BadgeID
	case BonusRoundStarted:
		r.PuzzleID = p.PuzzleID
	case ArchivePuzzleStarted:
		r.Difficulty, r.PuzzleID, r.DaysAgo = string(p.Difficulty), p.PuzzleID, p.DaysAgo
	case ThemeChanged:
		r.NewTheme = p.NewTheme
	case ExplanationViewed:
		r.Difficulty, r.PuzzleID = string(p.Difficulty), p.PuzzleID
	}
	return r
}

func (e AnalyticsEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Raw())
}

func (e *AnalyticsEvent) UnmarshalJSON(data []byte) error {
	var r RawEvent
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	ev, err := Normalize(r)
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// InvalidEventError reports a raw event that cannot be normalized.
type InvalidEventError struct {
	Event  string
	Reason string
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid analytics event %q: %s", e.Event, e.Reason)
}
