package database

import (
	"context"
	"time"

	"github.com/aziz-turgunoff/kitob-tg-bot/models"
)

// PurgeRetired deletes manually-removed posts older than cutoff and returns
// how many rows went. Active posts are never hard-deleted.
func (s *PostStore) PurgeRetired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := rebind(s.driver, `DELETE FROM posts WHERE status = ? AND created_at < ?`)

	res, err := s.db.ExecContext(ctx, query, models.StatusManuallyRemoved, cutoff.UTC().Unix())
	if err != nil {
		return 0, storeErr("failed to purge retired posts", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("failed to count purged posts", err)
	}
	return n, nil
}
