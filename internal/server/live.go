package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"chainstats/internal/broadcast"
	"chainstats/internal/dashboard"
	"chainstats/internal/wshub"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const clientSendBuffer = 16

// pushSnapshot sends a client the snapshot for its current view, or the reason
// it cannot be computed.
func (s *Server) pushSnapshot(c *wshub.Client) {
	v := c.View()
	snap, err := s.Dashboard.Snapshot(dashboard.NewParams(v.Range, v.Filter))
	if err != nil {
		s.Hub.SendTo(c.ID, wshub.ServerMessage{Type: wshub.TypeError, Error: err.Error()})
		return
	}
	s.Hub.SendTo(c.ID, wshub.ServerMessage{Type: wshub.TypeSnapshot, Snapshot: snap})
}

// forwardRefreshes pushes a fresh snapshot to every live client after each
// successful refresh. Failed refreshes only notify; clients keep their data.
func (s *Server) forwardRefreshes(ctx context.Context, ch chan broadcast.Message) {
	defer s.Broadcaster.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			switch msg.Event {
			case broadcast.EventRefresh:
				for _, c := range s.Hub.Clients() {
					s.pushSnapshot(c)
				}
			case broadcast.EventRefreshFailed:
				s.Hub.Broadcast(wshub.ServerMessage{Type: wshub.TypeError, Error: "refresh failed"})
			}
		}
	}
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger().Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	q := r.URL.Query()
	client := &wshub.Client{
		ID:       uuid.New().String(),
		Operator: operator(r),
		Conn:     conn,
		Send:     make(chan []byte, clientSendBuffer),
	}
	client.SetView(wshub.View{Range: q.Get("range"), Filter: q.Get("filter")})

	s.Hub.Register(client)
	defer s.Hub.Unregister(client.ID)
	s.logger().Info("live client connected", "client", client.ID, "operator", client.Operator)

	ctx := r.Context()
	go client.WritePump(ctx)
	s.pushSnapshot(client)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			s.logger().Debug("live client disconnected", "client", client.ID, "error", err)
			return
		}
		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Hub.SendTo(client.ID, wshub.ServerMessage{Type: wshub.TypeError, Error: "invalid message"})
			continue
		}
		if msg.Type == wshub.TypeView {
			client.SetView(wshub.View{Range: msg.Range, Filter: msg.Filter})
			s.pushSnapshot(client)
		}
	}
}

// handleEvents streams refresh notices as server-sent events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgChan := s.Broadcaster.Subscribe()
	defer s.Broadcaster.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-msgChan:
			fmt.Fprintf(w, "event: %s\n", msg.Event)
			for _, line := range lines(msg.Data) {
				fmt.Fprintf(w, "data: %s\n", line)
			}
			fmt.Fprint(w, "\n")
			flusher.Flush()
		}
	}
}
