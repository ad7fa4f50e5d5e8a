package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ledgerhttp "votex/contexts/election-core/vote-ledger/transport/http"
	contractsv1 "votex/contracts/gen/events/v1"
	"votex/internal/platform/messaging"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func dialResultsStream(t *testing.T, baseURL string, sessionID string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/v1/sessions/" + sessionID + "/results/stream"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	return conn
}

func readResults(t *testing.T, conn *websocket.Conn) ledgerhttp.ResultsResponse {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var resp ledgerhttp.ResultsResponse
	if err := wsjson.Read(ctx, conn, &resp); err != nil {
		t.Fatalf("read results: %v", err)
	}
	return resp
}

func TestResultsStreamPushesUpdatesUntilClosed(t *testing.T) {
	server := newTestServer()
	createPoll(t, server)
	ts := httptest.NewServer(server.mux)
	defer ts.Close()

	conn := dialResultsStream(t, ts.URL, "poll-1")
	defer func() { _ = conn.CloseNow() }()

	initial := readResults(t, conn)
	if initial.SessionID != "poll-1" || initial.VoterCount != 0 || !initial.Active {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	rr := doJSON(t, server, http.MethodPost, "/v1/sessions/poll-1/votes", "voter-1", `{"choices":["Option B"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if err := server.ledger.Relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay: %v", err)
	}

	updated := readResults(t, conn)
	if updated.VoterCount != 1 || updated.Tallies[1] != 1 {
		t.Fatalf("unexpected pushed snapshot %+v", updated)
	}

	bus := server.events.(*messaging.Kafka)
	if err := bus.Publish(context.Background(), contractsv1.TopicSessionClosed, contractsv1.Envelope{
		EventID:      "evt-closed",
		EventType:    contractsv1.TopicSessionClosed,
		PartitionKey: "poll-1",
	}); err != nil {
		t.Fatalf("publish close: %v", err)
	}

	final := readResults(t, conn)
	if final.VoterCount != 1 {
		t.Fatalf("unexpected final snapshot %+v", final)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure, got %v", err)
	}
}

func TestResultsStreamOnEndedSessionClosesAfterSnapshot(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/sessions", "leader-1",
		`{"session_id":"old","participants":["X","Y"],"mode":"single","end_time":"2020-01-01T00:00:00Z"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	ts := httptest.NewServer(server.mux)
	defer ts.Close()

	conn := dialResultsStream(t, ts.URL, "old")
	defer func() { _ = conn.CloseNow() }()

	snapshot := readResults(t, conn)
	if snapshot.SessionID != "old" || snapshot.Active {
		t.Fatalf("expected inactive snapshot, got %+v", snapshot)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Fatalf("expected normal closure without a session.closed event, got %v", err)
	}
}

func TestResultsStreamIgnoresOtherSessions(t *testing.T) {
	server := newTestServer()
	createPoll(t, server)
	rr := doJSON(t, server, http.MethodPost, "/v1/sessions", "leader-2",
		`{"session_id":"poll-2","participants":["X","Y"],"mode":"single","duration_seconds":3600}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	ts := httptest.NewServer(server.mux)
	defer ts.Close()

	conn := dialResultsStream(t, ts.URL, "poll-1")
	defer func() { _ = conn.CloseNow() }()
	_ = readResults(t, conn)

	doJSON(t, server, http.MethodPost, "/v1/sessions/poll-2/votes", "voter-1", `{"choices":["X"]}`)
	doJSON(t, server, http.MethodPost, "/v1/sessions/poll-1/votes", "voter-1", `{"choices":["Option A"]}`)
	if err := server.ledger.Relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay: %v", err)
	}

	next := readResults(t, conn)
	if next.SessionID != "poll-1" || next.Tallies[0] != 1 {
		t.Fatalf("expected poll-1 update only, got %+v", next)
	}
}

func TestResultsStreamUnknownSession(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/v1/sessions/missing/results/stream", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}
