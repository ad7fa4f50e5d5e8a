package errors

import "errors"

var (
	ErrDuplicateSessionID = errors.New("session id already exists")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionClosed      = errors.New("session is closed")
	ErrInvalidSession     = errors.New("invalid session definition")

	ErrAlreadyVoted     = errors.New("voter has already voted in this session")
	ErrInvalidChoice    = errors.New("choice is not a session participant")
	ErrWrongChoiceCount = errors.New("wrong number of choices for voting mode")
	ErrTooManyChoices   = errors.New("too many choices for session")
	ErrInvalidRankSet   = errors.New("ranks must be exactly 1..k without repeats")
	ErrDuplicateChoice  = errors.New("participant chosen more than once")
	ErrInvalidVoteInput = errors.New("invalid vote input")
	ErrBallotNotFound   = errors.New("ballot not found")

	ErrConflict = errors.New("vote ledger conflict")
)

// IsBallotRejection reports whether err is a ballot validation failure that
// the caller must correct before resubmitting.
func IsBallotRejection(err error) bool {
	return errors.Is(err, ErrInvalidChoice) ||
		errors.Is(err, ErrWrongChoiceCount) ||
		errors.Is(err, ErrTooManyChoices) ||
		errors.Is(err, ErrInvalidRankSet) ||
		errors.Is(err, ErrDuplicateChoice) ||
		errors.Is(err, ErrInvalidVoteInput)
}
