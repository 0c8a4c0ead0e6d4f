package server

import (
	"context"
	"fmt"
	"net/http"

	"chainstats/internal/analytics"
	"chainstats/internal/broadcast"
	"chainstats/internal/config"
	"chainstats/internal/dashboard"
	"chainstats/internal/events"
	"chainstats/internal/logger"
	"chainstats/internal/scheduler"
	"chainstats/internal/store"
	"chainstats/internal/wshub"
)

func Run() error {
	appCfg := config.Load()

	log, err := logger.New(appCfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Connect(ctx, appCfg.DatabaseDriver, appCfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connecting store: %w", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating store: %w", err)
	}

	engine := analytics.NewEngine(analytics.WithLocation(appCfg.Location()))
	svc := dashboard.NewService(st, engine,
		dashboard.WithPolicy(dashboard.NewOperatorSet(appCfg.AdminEmails)),
		dashboard.WithScorer(dashboard.BaseScorer(appCfg.Points)),
		dashboard.WithLogger(log),
	)
	if len(appCfg.AdminEmails) == 0 {
		log.Warn("ADMIN_EMAILS is empty, every admin request will be refused")
	}

	bus := events.NewBus()
	sched := scheduler.New(svc, bus, appCfg.Location(), appCfg.RefreshMinutes, log)

	srv := &Server{
		Dashboard:   svc,
		Store:       st,
		Refresher:   sched,
		Hub:         wshub.NewHub(log),
		Broadcaster: broadcast.NewBroadcaster(bus),
		Log:         log.Component("server"),
	}
	go srv.forwardRefreshes(ctx, srv.Broadcaster.Subscribe())

	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	addr := "0.0.0.0:" + appCfg.Port
	srv.Log.Info("server listening", "url", "http://localhost:"+appCfg.Port)
	return http.ListenAndServe(addr, srv.Routes())
}

// Routes builds the request multiplexer for every endpoint.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/events", s.handleIngestEvent)

	mux.HandleFunc("GET /admin/api/snapshot", s.admin(s.handleSnapshot))
	mux.HandleFunc("GET /admin/api/overview", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Overview })))
	mux.HandleFunc("GET /admin/api/funnel", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Funnel })))
	mux.HandleFunc("GET /admin/api/anonymous", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Anonymous })))
	mux.HandleFunc("GET /admin/api/retention", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Retention })))
	mux.HandleFunc("GET /admin/api/puzzles", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Puzzles })))
	mux.HandleFunc("GET /admin/api/engagement", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Engagement })))
	mux.HandleFunc("GET /admin/api/features", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.Features })))
	mux.HandleFunc("GET /admin/api/trends/winrate", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.WinRateTrend })))
	mux.HandleFunc("GET /admin/api/trends/engagement", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.EngagementTrend })))
	mux.HandleFunc("GET /admin/api/trends/activity", s.admin(s.snapshotPart(func(snap *dashboard.Snapshot) interface{} { return snap.ActivityTrend })))
	mux.HandleFunc("GET /admin/api/status", s.admin(s.handleStatus))
	mux.HandleFunc("POST /admin/api/refresh", s.admin(s.handleRefresh))

	mux.HandleFunc("GET /admin/export.xlsx", s.admin(s.handleExportXLSX))
	mux.HandleFunc("GET /admin/export.csv", s.admin(s.handleExportCSV))

	mux.HandleFunc("GET /admin/live", s.admin(s.handleLive))
	mux.HandleFunc("GET /admin/events", s.admin(s.handleEvents))
	return mux
}
