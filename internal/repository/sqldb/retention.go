package sqldb

import (
	"context"
	"fmt"
	"time"
)

// pruneBatchSize limits each DELETE so a large backlog never holds one long
// transaction.
const pruneBatchSize = 5000

// PruneObservations deletes competitor snapshots collected before cutoff,
// in batches, and returns the number of rows removed. Rows already deleted
// stay deleted if ctx is cancelled part way.
func (s *Store) PruneObservations(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.batchDelete(ctx, `
		DELETE FROM competitor_rates
		WHERE id IN (
			SELECT id FROM competitor_rates
			WHERE collected_at < $1
			LIMIT $2
		)
	`, timeArg(cutoff))
}

// batchDelete runs query with pruneBatchSize appended as the last argument
// until a batch removes fewer rows than the batch size.
func (s *Store) batchDelete(ctx context.Context, query string, args ...any) (int64, error) {
	query = s.q(query)
	args = append(args, pruneBatchSize)

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		batchCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		res, err := s.db.ExecContext(batchCtx, query, args...)
		cancel()
		if err != nil {
			return total, fmt.Errorf("prune: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("prune: %w", err)
		}
		total += n
		if n < pruneBatchSize {
			return total, nil
		}
	}
}
