package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strategos-ai/orchestrator/internal/workflow"
)

func dialStream(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/workflows/" + id + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v (resp %v)", url, err, resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestStreamReplaysBacklogAndFollowsLive(t *testing.T) {
	runner := newGatedRunner()
	mux, _ := newTestMux(t, runner)
	server := httptest.NewServer(mux)
	defer server.Close()

	id, rec := submitWorkflow(t, mux, `{"company": "Acme Corp"}`)
	if id == "" {
		t.Fatalf("submit returned %d", rec.Code)
	}

	// Let the runner log its research entry before connecting so the
	// stream has a backlog to replay.
	waitForStatus(t, mux, id, workflow.StatusRunning)

	conn := dialStream(t, server, id)
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var entries []workflow.ActivityEntry
	readOne := func() bool {
		var entry workflow.ActivityEntry
		if err := conn.ReadJSON(&entry); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return false
			}
			t.Fatalf("read stream: %v", err)
		}
		entries = append(entries, entry)
		return true
	}

	// The input and research entries arrive first, via backlog replay or
	// the live channel depending on timing.
	for len(entries) < 2 {
		if !readOne() {
			t.Fatalf("stream closed after %d entries", len(entries))
		}
	}

	// Live tail: completion appends a final entry, then the server
	// closes the connection.
	close(runner.release)
	for readOne() {
	}

	if len(entries) < 3 {
		t.Fatalf("received %d entries, want at least 3", len(entries))
	}
	for i, entry := range entries {
		if entry.Seq != uint64(i+1) {
			t.Errorf("entry %d has seq %d, want %d", i, entry.Seq, i+1)
		}
	}
	last := entries[len(entries)-1]
	if last.Stage != workflow.StageOutput {
		t.Errorf("final entry stage = %s, want output", last.Stage)
	}
}

func TestStreamUnknownWorkflow(t *testing.T) {
	mux, _ := newTestMux(t, newGatedRunner())
	server := httptest.NewServer(mux)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/workflows/nope/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial to unknown workflow succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("handshake response = %v, want 404", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}
}
