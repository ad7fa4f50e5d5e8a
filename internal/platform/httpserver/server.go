package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	voteledger "votex/contexts/election-core/vote-ledger"
	ledgererrors "votex/contexts/election-core/vote-ledger/domain/errors"
	ledgerhttp "votex/contexts/election-core/vote-ledger/transport/http"
	contractsv1 "votex/contracts/gen/events/v1"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "votex/internal/platform/httpserver/docs"
)

// EventSubscriber is the bus surface the results stream listens on.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, contractsv1.Envelope) error,
	) error
}

type Server struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	addr    string
	ledger  voteledger.Module
	events  EventSubscriber
	metrics http.Handler
}

// New wires the ledger routes. events and metrics may be nil; the stream and
// /metrics routes are then not registered.
func New(
	ledger voteledger.Module,
	events EventSubscriber,
	metrics http.Handler,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		addr:    addr,
		ledger:  ledger,
		events:  events,
		metrics: metrics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}

	s.mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}", s.handleGetSession)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}/status", s.handleSessionStatus)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}/results", s.handleSessionResults)
	s.mux.HandleFunc("POST /v1/sessions/{session_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}/voters/{voter_id}", s.handleVoterStatus)
	s.mux.HandleFunc("GET /v1/sessions/{session_id}/voters/{voter_id}/ballot", s.handleVoterBallot)
	if s.events != nil {
		s.mux.HandleFunc("GET /v1/sessions/{session_id}/results/stream", s.handleResultsStream)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrSessionNotFound):
		writeLedgerError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrBallotNotFound):
		writeLedgerError(w, http.StatusNotFound, "ballot_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateSessionID):
		writeLedgerError(w, http.StatusConflict, "duplicate_session_id", err.Error())
	case errors.Is(err, ledgererrors.ErrAlreadyVoted):
		writeLedgerError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, ledgererrors.ErrSessionClosed):
		writeLedgerError(w, http.StatusGone, "session_closed", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidSession):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_session", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidChoice):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_choice", err.Error())
	case errors.Is(err, ledgererrors.ErrWrongChoiceCount):
		writeLedgerError(w, http.StatusUnprocessableEntity, "wrong_choice_count", err.Error())
	case errors.Is(err, ledgererrors.ErrTooManyChoices):
		writeLedgerError(w, http.StatusUnprocessableEntity, "too_many_choices", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidRankSet):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_rank_set", err.Error())
	case errors.Is(err, ledgererrors.ErrDuplicateChoice):
		writeLedgerError(w, http.StatusUnprocessableEntity, "duplicate_choice", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidVoteInput):
		writeLedgerError(w, http.StatusUnprocessableEntity, "invalid_vote_input", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
