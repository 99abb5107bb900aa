package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strategos-ai/orchestrator/internal/workflow"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // secured by a fronting proxy in prod
}

// handleStream pushes a workflow's activity log over a websocket as
// entries append. The backlog is replayed first; the connection closes
// when the workflow reaches a terminal state. Polling stays the primary
// contract, this is additive.
func (h *WorkflowHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Subscribe before the backlog snapshot so no entry falls between;
	// overlap is deduplicated by entry sequence number.
	ch, cancel, err := h.executor.Watch(id, 256)
	if err != nil {
		if errors.Is(err, workflow.ErrNotFound) {
			sendError(w, h.logger, http.StatusNotFound, "workflow not found")
			return
		}
		sendError(w, h.logger, http.StatusInternalServerError, "stream setup failed")
		return
	}
	defer cancel()

	snap, err := h.executor.GetStatus(id)
	if err != nil {
		sendError(w, h.logger, http.StatusInternalServerError, "stream setup failed")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var lastSeq uint64
	for _, entry := range snap.ActivityLog {
		if err := conn.WriteJSON(entry); err != nil {
			return
		}
		lastSeq = entry.Seq
	}

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	// Reader pump: discard client messages, notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case entry, ok := <-ch:
			if !ok {
				// Terminal state reached; say goodbye cleanly.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "workflow finished"),
					time.Now().Add(5*time.Second))
				return
			}
			if entry.Seq <= lastSeq {
				continue
			}
			lastSeq = entry.Seq
			if err := conn.WriteJSON(entry); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}
}
