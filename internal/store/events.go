package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chainstats/internal/analytics"

	"github.com/google/uuid"
)

type eventRow struct {
	ID          string `db:"id"`
	VisitorID   string `db:"visitor_id"`
	Event       string `db:"event"`
	Date        string `db:"event_date"`
	Timestamp   string `db:"event_ts"`
	IsAnonymous bool   `db:"is_anonymous"`
	Payload     string `db:"payload"`
}

// ErrDuplicateEvent is returned by InsertEvent when the log already holds an
// event with the same id. The stored event is left untouched.
var ErrDuplicateEvent = errors.New("event already recorded")

// InsertEvent appends a raw event to the log and returns its id, generating
// one when the event has none.
func (s *Store) InsertEvent(ctx context.Context, ev analytics.RawEvent) (string, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return "", fmt.Errorf("encoding event payload: %w", err)
	}
	row := eventRow{
		ID:          ev.ID,
		VisitorID:   ev.VisitorID,
		Event:       ev.Event,
		Date:        ev.Date,
		Timestamp:   ev.Timestamp,
		IsAnonymous: ev.IsAnonymous,
		Payload:     string(payload),
	}
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO analytics_events (id, visitor_id, event, event_date, event_ts, is_anonymous, payload)
		VALUES (:id, :visitor_id, :event, :event_date, :event_ts, :is_anonymous, :payload)
		ON CONFLICT (id) DO NOTHING
	`, row)
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("inserting event: %w", err)
	}
	if n == 0 {
		return ev.ID, ErrDuplicateEvent
	}
	return ev.ID, nil
}

// LoadRawEvents returns the event log in its flat form, oldest first. Rows with
// an unreadable payload are logged and left out.
func (s *Store) LoadRawEvents(ctx context.Context) ([]analytics.RawEvent, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, visitor_id, event, event_date, event_ts, is_anonymous, payload
		FROM analytics_events ORDER BY event_date, event_ts, id
	`); err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	out := make([]analytics.RawEvent, 0, len(rows))
	for _, r := range rows {
		var ev analytics.RawEvent
		if err := json.Unmarshal([]byte(r.Payload), &ev); err != nil {
			s.log.Warn("skipping event with bad payload", "event_id", r.ID, "error", err)
			continue
		}
		ev.ID, ev.VisitorID, ev.Event = r.ID, r.VisitorID, r.Event
		ev.Date, ev.Timestamp, ev.IsAnonymous = r.Date, r.Timestamp, r.IsAnonymous
		out = append(out, ev)
	}
	return out, nil
}

// LoadEvents returns the normalized event log. Events that cannot be
// normalized are counted and logged, never fatal.
func (s *Store) LoadEvents(ctx context.Context) ([]analytics.AnalyticsEvent, error) {
	raw, err := s.LoadRawEvents(ctx)
	if err != nil {
		return nil, err
	}
	events, report := analytics.NormalizeEvents(raw)
	if report.Skipped() > 0 {
		s.log.Warn("skipped malformed events",
			"unknown_type", report.UnknownType,
			"missing_visitor", report.MissingVisitor,
			"bad_date", report.BadDate)
	}
	return events, nil
}
