package httpserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	ledgerhttp "votex/contexts/election-core/vote-ledger/transport/http"
	contractsv1 "votex/contracts/gen/events/v1"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const (
	streamWriteTimeout  = 5 * time.Second
	streamConsumerGroup = "results-stream"
)

// handleResultsStream pushes a results snapshot on connect and after every
// accepted ballot. The connection is closed normally once a pushed snapshot
// reports the session inactive or the session is finalized.
func (s *Server) handleResultsStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if _, err := s.ledger.Handler.ResultsHandler(r.Context(), sessionID); err != nil {
		writeLedgerDomainError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("results stream upgrade failed",
			"event", "results_stream_upgrade_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"session_id", sessionID,
			"error", err.Error(),
		)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	ctx, cancel := context.WithCancel(conn.CloseRead(r.Context()))
	defer cancel()

	updated := make(chan struct{}, 1)
	closed := make(chan struct{})
	var closeOnce sync.Once

	onVote := func(_ context.Context, event contractsv1.Envelope) error {
		if event.PartitionKey != sessionID {
			return nil
		}
		select {
		case updated <- struct{}{}:
		default:
		}
		return nil
	}
	onClose := func(_ context.Context, event contractsv1.Envelope) error {
		if event.PartitionKey == sessionID {
			closeOnce.Do(func() { close(closed) })
		}
		return nil
	}
	if err := s.events.Subscribe(ctx, contractsv1.TopicVoteCast, streamConsumerGroup, onVote); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	if err := s.events.Subscribe(ctx, contractsv1.TopicSessionClosed, streamConsumerGroup, onClose); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}

	s.logger.Debug("results stream opened",
		"event", "results_stream_opened",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"session_id", sessionID,
	)

	results, err := s.pushResults(ctx, conn, sessionID)
	if err != nil {
		return
	}
	for results.Active {
		select {
		case <-ctx.Done():
			return
		case <-updated:
			if results, err = s.pushResults(ctx, conn, sessionID); err != nil {
				return
			}
		case <-closed:
			if _, err := s.pushResults(ctx, conn, sessionID); err != nil {
				return
			}
			results.Active = false
		}
	}
	_ = conn.Close(websocket.StatusNormalClosure, "session closed")
}

func (s *Server) pushResults(parent context.Context, conn *websocket.Conn, sessionID string) (ledgerhttp.ResultsResponse, error) {
	results, err := s.ledger.Handler.ResultsHandler(parent, sessionID)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, "results unavailable")
		return ledgerhttp.ResultsResponse{}, err
	}

	ctx, cancel := context.WithTimeout(parent, streamWriteTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, conn, results); err != nil {
		s.logger.Info("results stream write failed",
			"event", "results_stream_write_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"session_id", sessionID,
			"close_status", int(websocket.CloseStatus(err)),
			"error", err.Error(),
		)
		return ledgerhttp.ResultsResponse{}, err
	}
	return results, nil
}
