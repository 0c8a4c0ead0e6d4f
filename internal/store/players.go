package store

import (
	"context"
	"encoding/json"
	"fmt"

	"chainstats/internal/analytics"
)

type playerRow struct {
	ID            string `db:"id"`
	Email         string `db:"email"`
	DisplayName   string `db:"display_name"`
	CreatedAt     string `db:"created_at"`
	TotalScore    int    `db:"total_score"`
	CurrentStreak int    `db:"current_streak"`
	MaxStreak     int    `db:"max_streak"`
	DailyResults  string `db:"daily_results"`
}

func (s *Store) UpsertPlayer(ctx context.Context, p analytics.PlayerRecord) error {
	results := p.DailyResults
	if results == nil {
		results = map[string]analytics.DayResult{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encoding daily results for %s: %w", p.ID, err)
	}
	row := playerRow{
		ID:            p.ID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		CreatedAt:     p.CreatedAt,
		TotalScore:    p.TotalScore,
		CurrentStreak: p.CurrentStreak,
		MaxStreak:     p.MaxStreak,
		DailyResults:  string(raw),
	}
	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO players (id, email, display_name, created_at, total_score, current_streak, max_streak, daily_results)
		VALUES (:id, :email, :display_name, :created_at, :total_score, :current_streak, :max_streak, :daily_results)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			created_at = excluded.created_at,
			total_score = excluded.total_score,
			current_streak = excluded.current_streak,
			max_streak = excluded.max_streak,
			daily_results = excluded.daily_results
	`, row)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

// LoadPlayers returns every saved player record. A row whose daily results do
// not decode is logged and left out.
func (s *Store) LoadPlayers(ctx context.Context) ([]analytics.PlayerRecord, error) {
	var rows []playerRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, email, display_name, created_at, total_score, current_streak, max_streak, daily_results
		FROM players ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("loading players: %w", err)
	}

	players := make([]analytics.PlayerRecord, 0, len(rows))
	for _, r := range rows {
		var results map[string]analytics.DayResult
		if err := json.Unmarshal([]byte(r.DailyResults), &results); err != nil {
			s.log.Warn("skipping player with bad daily results", "player", r.ID, "error", err)
			continue
		}
		players = append(players, analytics.PlayerRecord{
			ID:            r.ID,
			Email:         r.Email,
			DisplayName:   r.DisplayName,
			CreatedAt:     r.CreatedAt,
			TotalScore:    r.TotalScore,
			CurrentStreak: r.CurrentStreak,
			MaxStreak:     r.MaxStreak,
			DailyResults:  results,
		})
	}
	return players, nil
}
