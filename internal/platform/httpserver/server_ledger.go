package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	ledgerhttp "votex/contexts/election-core/vote-ledger/transport/http"
)

// handleCreateSession godoc
// @Summary Create a vote session
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body ledgerhttp.CreateSessionRequest true "session"
// @Success 201 {object} ledgerhttp.SessionResponse
// @Failure 409 {object} ledgerhttp.ErrorResponse
// @Failure 422 {object} ledgerhttp.ErrorResponse
// @Router /v1/sessions [post]
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		req.OwnerID = r.Header.Get("X-User-Id")
	}

	resp, err := s.ledger.Handler.CreateSessionHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleListSessions godoc
// @Summary List session ids in creation order
// @Tags sessions
// @Produce json
// @Param owner_id query string false "only sessions created by this owner"
// @Success 200 {object} ledgerhttp.SessionListResponse
// @Router /v1/sessions [get]
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	resp, err := s.ledger.Handler.ListSessionsHandler(r.Context(), ownerID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.GetSessionHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSessionStatus godoc
// @Summary Session activity and remaining time
// @Tags sessions
// @Produce json
// @Param session_id path string true "session id"
// @Success 200 {object} ledgerhttp.StatusResponse
// @Failure 404 {object} ledgerhttp.ErrorResponse
// @Router /v1/sessions/{session_id}/status [get]
func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.StatusHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSessionResults godoc
// @Summary Current tallies aligned with participants
// @Tags sessions
// @Produce json
// @Param session_id path string true "session id"
// @Success 200 {object} ledgerhttp.ResultsResponse
// @Failure 404 {object} ledgerhttp.ErrorResponse
// @Router /v1/sessions/{session_id}/results [get]
func (s *Server) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.ResultsHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCastVote godoc
// @Summary Cast a ballot
// @Tags votes
// @Accept json
// @Produce json
// @Param session_id path string true "session id"
// @Param X-User-Id header string true "voter id"
// @Param request body ledgerhttp.CastVoteRequest true "ballot"
// @Success 201 {object} ledgerhttp.CastVoteResponse
// @Failure 401 {object} ledgerhttp.ErrorResponse
// @Failure 409 {object} ledgerhttp.ErrorResponse
// @Failure 410 {object} ledgerhttp.ErrorResponse
// @Failure 422 {object} ledgerhttp.ErrorResponse
// @Router /v1/sessions/{session_id}/votes [post]
func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-User-Id")
	if voterID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req ledgerhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ledger.Handler.CastVoteHandler(r.Context(), r.PathValue("session_id"), voterID, req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVoterStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.VoterStatusHandler(
		r.Context(),
		r.PathValue("session_id"),
		r.PathValue("voter_id"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoterBallot(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.BallotHandler(
		r.Context(),
		r.PathValue("session_id"),
		r.PathValue("voter_id"),
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
