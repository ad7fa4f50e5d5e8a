package postgresadapter

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// UUIDGenerator implements ports.IDGenerator using RFC 4122 UUID v4 values.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// ULIDGenerator implements ports.BallotIDGenerator. Receipts sort by cast time.
type ULIDGenerator struct{}

func (ULIDGenerator) NewBallotID(_ context.Context, castAt time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(castAt), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
