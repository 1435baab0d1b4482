package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aziz-turgunoff/kitob-tg-bot/models"
)

// PostStore is the durable record of every published listing. All writes go
// through the narrow UpdateAfterRepost / MarkManuallyRemoved contracts, each
// a single statement, so concurrent readers never observe a half-updated
// row.
type PostStore struct {
	db     *sql.DB
	driver string
}

// NewPostStore wraps an initialized connection.
func NewPostStore(db *sql.DB, driver string) *PostStore {
	return &PostStore{db: db, driver: driver}
}

const postColumns = `id, user_id, message_id, channel_message_ids, text_content, file_ids, created_at, repost_count, last_repost, status`

// Save inserts a post after its first confirmed publish and returns the new
// id. Callers must not insert before the channel confirmed message ids.
func (s *PostStore) Save(ctx context.Context, p *models.Post) (int64, error) {
	channelIDs, err := json.Marshal(p.ChannelMessageIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal channel message ids: %w", err)
	}
	fileIDs, err := json.Marshal(p.FileIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal file ids: %w", err)
	}
	if p.Status == "" {
		p.Status = models.StatusActive
	}

	query := `
    INSERT INTO posts (user_id, message_id, channel_message_ids, text_content, file_ids, created_at, repost_count, status)
    VALUES (?, ?, ?, ?, ?, ?, 0, ?)`
	args := []interface{}{
		p.UserID, p.MessageID, string(channelIDs), p.TextContent, string(fileIDs),
		p.CreatedAt.UTC().Unix(), p.Status,
	}

	if s.driver == DriverPostgres {
		var id int64
		query = rebind(s.driver, query) + " RETURNING id"
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, storeErr("failed to save post", err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, storeErr("failed to save post", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("failed to read new post id", err)
	}
	return id, nil
}

// CandidatesOlderThan returns active posts whose repost clock (last confirmed
// repost, or creation for never-reposted rows) is at or before threshold,
// oldest first.
func (s *PostStore) CandidatesOlderThan(ctx context.Context, threshold time.Time) ([]models.Post, error) {
	query := rebind(s.driver, `
    SELECT `+postColumns+` FROM posts
    WHERE status = ? AND created_at <= ? AND (last_repost IS NULL OR last_repost <= ?)
    ORDER BY created_at`)

	ts := threshold.UTC().Unix()
	rows, err := s.db.QueryContext(ctx, query, models.StatusActive, ts, ts)
	if err != nil {
		return nil, storeErr("failed to query repost candidates", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// CandidatesInRange returns active posts created in [start, end), oldest
// first. Both bounds are compared in UTC.
func (s *PostStore) CandidatesInRange(ctx context.Context, start, end time.Time) ([]models.Post, error) {
	query := rebind(s.driver, `
    SELECT `+postColumns+` FROM posts
    WHERE status = ? AND created_at >= ? AND created_at < ?
    ORDER BY created_at`)

	rows, err := s.db.QueryContext(ctx, query, models.StatusActive, start.UTC().Unix(), end.UTC().Unix())
	if err != nil {
		return nil, storeErr("failed to query date-range candidates", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// GetByID fetches one post.
func (s *PostStore) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := rebind(s.driver, `SELECT `+postColumns+` FROM posts WHERE id = ?`)
	row := s.db.QueryRowContext(ctx, query, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("post %d not found", id)
	}
	if err != nil {
		return nil, storeErr("failed to load post", err)
	}
	return p, nil
}

// UpdateAfterRepost records a confirmed repost in one atomic statement:
// replaces the tracked message ids wholesale, increments the repost count
// and stamps last_repost. Must only be called with a non-empty confirmed id
// set.
func (s *PostStore) UpdateAfterRepost(ctx context.Context, id int64, newMessageIDs []int, at time.Time) error {
	if len(newMessageIDs) == 0 {
		return fmt.Errorf("refusing to record repost of post %d with no confirmed message ids", id)
	}
	channelIDs, err := json.Marshal(newMessageIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal channel message ids: %w", err)
	}

	query := rebind(s.driver, `
    UPDATE posts
    SET channel_message_ids = ?, repost_count = repost_count + 1, last_repost = ?
    WHERE id = ?`)

	res, err := s.db.ExecContext(ctx, query, string(channelIDs), at.UTC().Unix(), id)
	if err != nil {
		return storeErr("failed to update post after repost", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("post %d not found", id)
	}
	return nil
}

// MarkManuallyRemoved retires a post whose channel messages were deleted by
// someone other than the bot. The tracked ids and repost count stay as they
// were for auditing.
func (s *PostStore) MarkManuallyRemoved(ctx context.Context, id int64) error {
	query := rebind(s.driver, `UPDATE posts SET status = ? WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, query, models.StatusManuallyRemoved, id)
	if err != nil {
		return storeErr("failed to mark post manually removed", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("post %d not found", id)
	}
	return nil
}

// Stats summarizes the table for the /status command.
type Stats struct {
	Total         int64
	Active        int64
	NeedingRepost int64
}

// Stats counts posts overall, active, and active-and-stale against
// threshold.
func (s *PostStore) Stats(ctx context.Context, threshold time.Time) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&st.Total); err != nil {
		return st, storeErr("failed to count posts", err)
	}

	query := rebind(s.driver, `SELECT COUNT(*) FROM posts WHERE status = ?`)
	if err := s.db.QueryRowContext(ctx, query, models.StatusActive).Scan(&st.Active); err != nil {
		return st, storeErr("failed to count active posts", err)
	}

	query = rebind(s.driver, `
    SELECT COUNT(*) FROM posts
    WHERE status = ? AND created_at <= ? AND (last_repost IS NULL OR last_repost <= ?)`)
	ts := threshold.UTC().Unix()
	if err := s.db.QueryRowContext(ctx, query, models.StatusActive, ts, ts).Scan(&st.NeedingRepost); err != nil {
		return st, storeErr("failed to count stale posts", err)
	}
	return st, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanPost.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row scanner) (*models.Post, error) {
	var (
		p          models.Post
		channelIDs string
		fileIDs    string
		createdAt  int64
		lastRepost sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.UserID, &p.MessageID, &channelIDs, &p.TextContent,
		&fileIDs, &createdAt, &p.RepostCount, &lastRepost, &p.Status)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(channelIDs), &p.ChannelMessageIDs); err != nil {
		return nil, fmt.Errorf("failed to parse channel message ids for post %d: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(fileIDs), &p.FileIDs); err != nil {
		return nil, fmt.Errorf("failed to parse file ids for post %d: %w", p.ID, err)
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	if lastRepost.Valid {
		t := time.Unix(lastRepost.Int64, 0).UTC()
		p.LastRepost = &t
	}
	return &p, nil
}

func scanPosts(rows *sql.Rows) ([]models.Post, error) {
	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, storeErr("failed to scan post", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to read posts", err)
	}
	return posts, nil
}
