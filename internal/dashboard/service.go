package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chainstats/internal/analytics"
	"chainstats/internal/logger"

	"github.com/google/uuid"
)

var (
	ErrForbidden       = errors.New("operator is not allowed to view analytics")
	ErrDataUnavailable = errors.New("data unavailable")
)

// Loader fetches the raw tables. store.Store satisfies it.
type Loader interface {
	LoadPlayers(ctx context.Context) ([]analytics.PlayerRecord, error)
	LoadEvents(ctx context.Context) ([]analytics.AnalyticsEvent, error)
}

// Params selects the windowed and filtered views of a snapshot.
type Params struct {
	Range  analytics.TimeRange  `json:"range"`
	Filter analytics.UserFilter `json:"filter"`
}

func NewParams(rng, filter string) Params {
	return Params{
		Range:  analytics.ParseTimeRange(rng),
		Filter: analytics.ParseUserFilter(filter),
	}
}

// Snapshot is every calculator's output for one loaded dataset and one set of
// parameters.
type Snapshot struct {
	ID          string    `json:"id"`
	GeneratedAt time.Time `json:"generatedAt"`
	LoadedAt    time.Time `json:"loadedAt"`
	Params      Params    `json:"params"`
	Players     int       `json:"players"`
	Events      int       `json:"events"`

	Overview        analytics.AggregateMetrics      `json:"overview"`
	Funnel          analytics.FunnelMetrics         `json:"funnel"`
	Anonymous       analytics.AnonymousSegmentation `json:"anonymous"`
	Retention       analytics.RetentionMetrics      `json:"retention"`
	Puzzles         analytics.PuzzleQuality         `json:"puzzles"`
	Engagement      analytics.EngagementMetrics     `json:"engagement"`
	Features        analytics.FeatureUsage          `json:"features"`
	WinRateTrend    analytics.WinRateTrend          `json:"winRateTrend"`
	EngagementTrend analytics.EngagementTrend       `json:"engagementTrend"`
	ActivityTrend   analytics.ActivityTrend         `json:"activityTrend"`
}

// Status describes the dataset currently served.
type Status struct {
	Loaded    bool      `json:"loaded"`
	LoadedAt  time.Time `json:"loadedAt"`
	Players   int       `json:"players"`
	Events    int       `json:"events"`
	LastError string    `json:"lastError,omitempty"`
}

type Option func(*Service)

func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

func WithScorer(score analytics.Scorer) Option {
	return func(s *Service) { s.score = score }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// Service owns the loaded dataset. Calculators run against an immutable
// Dataset, so snapshots are cached per Params until the next Refresh.
type Service struct {
	loader Loader
	engine *analytics.Engine
	policy Policy
	score  analytics.Scorer
	log    *logger.Logger

	// refreshMu serializes reloads so a slow load never replaces a newer one.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	ds       *analytics.Dataset
	loadedAt time.Time
	lastErr  error
	cache    map[Params]*Snapshot
}

func NewService(loader Loader, engine *analytics.Engine, opts ...Option) *Service {
	s := &Service{
		loader: loader,
		engine: engine,
		log:    logger.Nop(),
		cache:  make(map[Params]*Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Component("dashboard")
	return s
}

func (s *Service) Engine() *analytics.Engine {
	return s.engine
}

// Authorize returns ErrForbidden unless the policy admits operator. With no
// policy configured nobody is admitted.
func (s *Service) Authorize(operator string) error {
	if s.policy == nil || !s.policy.Allow(operator) {
		return ErrForbidden
	}
	return nil
}

// Refresh reloads both tables. On failure the previously loaded dataset, if
// any, keeps being served. Concurrent calls run one after another.
func (s *Service) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	players, err := s.loader.LoadPlayers(ctx)
	if err != nil {
		return s.failRefresh(fmt.Errorf("loading players: %w", err))
	}
	events, err := s.loader.LoadEvents(ctx)
	if err != nil {
		return s.failRefresh(fmt.Errorf("loading events: %w", err))
	}

	ds := s.engine.NewDataset(players, events)

	s.mu.Lock()
	s.ds = ds
	s.loadedAt = time.Now()
	s.lastErr = nil
	s.cache = make(map[Params]*Snapshot)
	s.mu.Unlock()

	s.log.Info("dataset refreshed", "players", len(players), "events", len(events), "visitors", ds.Visitors.Len())
	return nil
}

func (s *Service) failRefresh(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.log.Error("refresh failed", "error", err)
	return err
}

func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{Loaded: s.ds != nil, LoadedAt: s.loadedAt}
	if s.ds != nil {
		st.Players = len(s.ds.Players)
		st.Events = len(s.ds.Events)
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// Dataset returns the current dataset, or ErrDataUnavailable before the first
// successful Refresh.
func (s *Service) Dataset() (*analytics.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ds == nil {
		if s.lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, s.lastErr)
		}
		return nil, ErrDataUnavailable
	}
	return s.ds, nil
}

// Snapshot runs every calculator for p. Results are cached until the next
// Refresh; callers must not modify the returned value.
func (s *Service) Snapshot(p Params) (*Snapshot, error) {
	p = NewParams(string(p.Range), string(p.Filter))

	s.mu.RLock()
	ds, loadedAt := s.ds, s.loadedAt
	cached := s.cache[p]
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	if ds == nil {
		_, err := s.Dataset()
		return nil, err
	}

	snap := s.build(ds, p)
	snap.LoadedAt = loadedAt

	s.mu.Lock()
	// a Refresh may have landed while building; only cache for the same dataset
	if s.ds == ds {
		if existing := s.cache[p]; existing != nil {
			snap = existing
		} else {
			s.cache[p] = snap
		}
	}
	s.mu.Unlock()
	return snap, nil
}

func (s *Service) build(ds *analytics.Dataset, p Params) *Snapshot {
	e := s.engine
	return &Snapshot{
		ID:              uuid.NewString(),
		GeneratedAt:     time.Now(),
		Params:          p,
		Players:         len(ds.Players),
		Events:          len(ds.Events),
		Overview:        e.AggregateMetrics(ds),
		Funnel:          e.ConversionFunnel(ds, p.Range),
		Anonymous:       e.AnonymousSegmentation(ds, s.score),
		Retention:       e.Retention(ds, p.Filter),
		Puzzles:         e.PuzzleQuality(ds, p.Range),
		Engagement:      e.Engagement(ds, p.Range),
		Features:        e.FeatureUsage(ds),
		WinRateTrend:    e.WinRateTrend(ds, p.Range, p.Filter),
		EngagementTrend: e.EngagementTrend(ds, p.Range, p.Filter),
		ActivityTrend:   e.ActivityTrend(ds, p.Range),
	}
}
