package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers message ids that were already handled so a
// redelivered message is not applied twice. Entries expire after their TTL,
// the durable event log is the authority beyond that window.
type IdempotencyStore interface {
	// MarkProcessed records the id. It reports true when the id was newly
	// recorded and false when it was already present.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether the id was recorded and has not expired.
	IsProcessed(ctx context.Context, eventID string) (bool, error)

	Close() error
}
