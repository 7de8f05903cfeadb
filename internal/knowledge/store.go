package knowledge

import (
	"context"
	"errors"
)

// ErrStoreQuery marks knowledge-store failures: the store was unreachable or
// returned a response of an unexpected shape. The lookup path converts a
// wrapped ErrStoreQuery into "no match".
var ErrStoreQuery = errors.New("store query failure")

// Store abstracts the vector-capable persistence layer.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists a record. No deduplication: saving identical content
	// twice produces two records.
	Save(ctx context.Context, rec Record) error
	// NearestByRole returns the closest record with the given role whose
	// certainty to vector is at least minCertainty (inclusive). ok is false
	// when nothing clears the floor. Ties break in store order.
	NearestByRole(ctx context.Context, role string, vector []float32, minCertainty float64) (rec Record, ok bool, err error)
	// ByPair returns the record with the given pair id and role, if any.
	ByPair(ctx context.Context, pairID, role string) (rec Record, ok bool, err error)
	// DeleteByContent removes every record whose content matches exactly.
	// Returns the number of records removed.
	DeleteByContent(ctx context.Context, content string) (int64, error)
	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)
	// ExportAll returns up to limit records for offline export.
	ExportAll(ctx context.Context, limit int) ([]Record, error)
}
