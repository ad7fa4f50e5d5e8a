package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSessionRequest struct {
	SessionID       string    `json:"session_id"`
	Title           string    `json:"title,omitempty"`
	OwnerID         string    `json:"owner_id,omitempty"`
	Participants    []string  `json:"participants"`
	Mode            string    `json:"mode"`
	MaxChoices      int       `json:"max_choices,omitempty"`
	EndTime         time.Time `json:"end_time,omitempty"`
	DurationSeconds int64     `json:"duration_seconds,omitempty"`
}

type SessionResponse struct {
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title,omitempty"`
	OwnerID      string    `json:"owner_id,omitempty"`
	Mode         string    `json:"mode"`
	MaxChoices   int       `json:"max_choices"`
	Participants []string  `json:"participants"`
	EndTime      time.Time `json:"end_time"`
	CreatedAt    time.Time `json:"created_at"`
	Active       bool      `json:"active"`
	VoterCount   int       `json:"voter_count"`
}

type SessionListResponse struct {
	SessionIDs []string          `json:"session_ids"`
	Items      []SessionResponse `json:"items,omitempty"`
}

type StatusResponse struct {
	SessionID        string    `json:"session_id"`
	Active           bool      `json:"active"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	EndTime          time.Time `json:"end_time"`
}

type CastVoteRequest struct {
	Choices []string `json:"choices"`
	Ranks   []int    `json:"ranks,omitempty"`
}

type CastVoteResponse struct {
	BallotID  string          `json:"ballot_id"`
	SessionID string          `json:"session_id"`
	VoterID   string          `json:"voter_id"`
	CastAt    time.Time       `json:"cast_at"`
	Results   ResultsResponse `json:"results"`
}

type ResultsResponse struct {
	SessionID    string   `json:"session_id"`
	Mode         string   `json:"mode"`
	Participants []string `json:"participants"`
	Tallies      []uint64 `json:"tallies"`
	VoterCount   int      `json:"voter_count"`
	Active       bool     `json:"active"`
}

type VoterStatusResponse struct {
	SessionID string `json:"session_id"`
	VoterID   string `json:"voter_id"`
	HasVoted  bool   `json:"has_voted"`
}

type BallotResponse struct {
	BallotID  string    `json:"ballot_id"`
	SessionID string    `json:"session_id"`
	VoterID   string    `json:"voter_id"`
	Choices   []string  `json:"choices"`
	Ranks     []int     `json:"ranks,omitempty"`
	Points    []uint64  `json:"points"`
	CastAt    time.Time `json:"cast_at"`
}
