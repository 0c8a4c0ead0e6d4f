package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chainstats/internal/analytics"
	"chainstats/internal/broadcast"
	"chainstats/internal/dashboard"
	"chainstats/internal/export"
	"chainstats/internal/logger"
	"chainstats/internal/store"
	"chainstats/internal/wshub"
)

const (
	operatorCookie = "operator_email"
	operatorHeader = "X-Operator-Email"

	maxEventBytes = 64 << 10
)

// Storage is the part of store.Store the handlers write to.
type Storage interface {
	InsertEvent(ctx context.Context, ev analytics.RawEvent) (string, error)
	Ping(ctx context.Context) error
}

// Refresher triggers an immediate reload. scheduler.Scheduler satisfies it.
type Refresher interface {
	RunNow(ctx context.Context) error
}

type Server struct {
	Dashboard   *dashboard.Service
	Store       Storage   // nil disables ingestion
	Refresher   Refresher // nil falls back to Dashboard.Refresh
	Hub         *wshub.Hub
	Broadcaster *broadcast.Broadcaster
	Log         *logger.Logger
}

// operator resolves the authenticated operator from the operator_email cookie,
// or the X-Operator-Email header when no cookie is set.
func operator(r *http.Request) string {
	if c, err := r.Cookie(operatorCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(operatorHeader)
}

func (s *Server) logger() *logger.Logger {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// admin refuses requests from operators the dashboard policy does not allow.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Dashboard.Authorize(operator(r)); err != nil {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

func paramsFrom(r *http.Request) dashboard.Params {
	q := r.URL.Query()
	return dashboard.NewParams(q.Get("range"), q.Get("filter"))
}

// snapshot writes the error response itself and reports false when no
// snapshot can be served.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*dashboard.Snapshot, bool) {
	snap, err := s.Dashboard.Snapshot(paramsFrom(r))
	if err != nil {
		if errors.Is(err, dashboard.ErrDataUnavailable) {
			writeError(w, http.StatusServiceUnavailable, dashboard.ErrDataUnavailable.Error())
			return nil, false
		}
		s.logger().Error("snapshot failed", "error", err)
		writeError(w, http.StatusInternalServerError, "snapshot failed")
		return nil, false
	}
	return snap, true
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// snapshotPart serves one calculator's section of the snapshot.
func (s *Server) snapshotPart(part func(*dashboard.Snapshot) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := s.snapshot(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, part(snap))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Dashboard.Status())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var err error
	if s.Refresher != nil {
		err = s.Refresher.RunNow(r.Context())
	} else {
		err = s.Dashboard.Refresh(r.Context())
	}
	if err != nil {
		s.logger().Warn("manual refresh failed", "operator", operator(r), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, struct {
			Error  string           `json:"error"`
			Status dashboard.Status `json:"status"`
		}{"refresh failed", s.Dashboard.Status()})
		return
	}
	writeJSON(w, http.StatusOK, s.Dashboard.Status())
}

func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "event storage unavailable")
		return
	}

	var raw analytics.RawEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes)).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if raw.Timestamp == "" {
		raw.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	if raw.Date == "" {
		raw.Date = s.Dashboard.Engine().Today()
	}

	ev, err := s.Dashboard.Engine().Normalize(raw)
	if err != nil {
		var invalid *analytics.InvalidEventError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.Store.InsertEvent(r.Context(), ev.Raw())
	if errors.Is(err, store.ErrDuplicateEvent) {
		writeJSON(w, http.StatusOK, map[string]string{"id": id})
		return
	}
	if err != nil {
		s.logger().Error("storing event failed", "event", raw.Event, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store event")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func exportName(snap *dashboard.Snapshot, ext string) string {
	return fmt.Sprintf("chainstats-%s-%s.%s", snap.GeneratedAt.Format("20060102-1504"), snap.Params.Range, ext)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, snap); err != nil {
		s.logger().Error("xlsx export failed", "error", err)
		http.Error(w, "Error building export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(snap, "xlsx")+`"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, snap); err != nil {
		s.logger().Error("csv export failed", "error", err)
		http.Error(w, "Error building export", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportName(snap, "csv")+`"`)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.Dashboard.Status()
	if s.Store != nil {
		if err := s.Store.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "db_error",
				"error":  err.Error(),
			})
			return
		}
	}
	status := "ok"
	if !st.Loaded {
		status = "loading"
	} else if st.LastError != "" {
		status = "stale"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"loaded":   st.Loaded,
		"loadedAt": st.LoadedAt,
	})
}

// lines splits multi-line event data for the SSE wire format.
func lines(s string) []string {
	return strings.Split(s, "\n")
}
