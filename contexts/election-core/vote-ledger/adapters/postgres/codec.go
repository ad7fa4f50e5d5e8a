package postgresadapter

import (
	"encoding/json"
	"fmt"
	"strings"

	domainerrors "votex/contexts/election-core/vote-ledger/domain/errors"
)

// Tallies are stored as JSON text so that counters above the signed bigint
// range survive a round trip.
func encodeTally(values []uint64) string {
	if values == nil {
		values = []uint64{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(payload)
}

// decodeTally rejects a corrupt column instead of dropping it, so restore
// cannot skip the stored-tally comparison.
func decodeTally(raw string) ([]uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var values []uint64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: corrupt tally column: %v", domainerrors.ErrConflict, err)
	}
	return values, nil
}
