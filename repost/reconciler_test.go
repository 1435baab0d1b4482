package repost

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aziz-turgunoff/kitob-tg-bot/channel"
	"github.com/aziz-turgunoff/kitob-tg-bot/models"
	"github.com/aziz-turgunoff/kitob-tg-bot/retry"
)

type fakeStore struct {
	posts []models.Post

	candidatesErr error
	updateErr     error
	removeErr     error

	updated   map[int64][]int
	updatedAt map[int64]time.Time
	removed   map[int64]bool
}

func newFakeStore(posts ...models.Post) *fakeStore {
	return &fakeStore{
		posts:     posts,
		updated:   make(map[int64][]int),
		updatedAt: make(map[int64]time.Time),
		removed:   make(map[int64]bool),
	}
}

func (s *fakeStore) CandidatesOlderThan(ctx context.Context, threshold time.Time) ([]models.Post, error) {
	if s.candidatesErr != nil {
		return nil, s.candidatesErr
	}
	return s.posts, nil
}

func (s *fakeStore) CandidatesInRange(ctx context.Context, start, end time.Time) ([]models.Post, error) {
	if s.candidatesErr != nil {
		return nil, s.candidatesErr
	}
	return s.posts, nil
}

func (s *fakeStore) UpdateAfterRepost(ctx context.Context, id int64, newMessageIDs []int, at time.Time) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated[id] = newMessageIDs
	s.updatedAt[id] = at
	return nil
}

func (s *fakeStore) MarkManuallyRemoved(ctx context.Context, id int64) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed[id] = true
	return nil
}

type fakeGateway struct {
	deleteErrs map[int]error // per message id, nil entry means success
	deleted    []int

	// publishResults are consumed one per SendPost call; when exhausted the
	// last entry repeats.
	publishResults []publishResult
	publishCalls   int

	copyID   int
	copyErr  error
	copied   []int
}

type publishResult struct {
	ids []int
	err error
}

func (g *fakeGateway) DeleteMessage(ctx context.Context, messageID int) error {
	g.deleted = append(g.deleted, messageID)
	if err, ok := g.deleteErrs[messageID]; ok {
		return err
	}
	return nil
}

func (g *fakeGateway) SendPost(ctx context.Context, caption string, fileIDs []string) ([]int, error) {
	i := g.publishCalls
	g.publishCalls++
	if len(g.publishResults) == 0 {
		return []int{900 + i}, nil
	}
	if i >= len(g.publishResults) {
		i = len(g.publishResults) - 1
	}
	return g.publishResults[i].ids, g.publishResults[i].err
}

func (g *fakeGateway) CopyMessage(ctx context.Context, messageID int) (int, error) {
	g.copied = append(g.copied, messageID)
	if g.copyErr != nil {
		return 0, g.copyErr
	}
	return g.copyID, nil
}

func notFoundErr() error {
	return &channel.Error{Kind: channel.KindNotFound, Err: errors.New("message to delete not found")}
}

func permanentErr() error {
	return &channel.Error{Kind: channel.KindPermanent, Err: errors.New("chat not found")}
}

func testReconciler(store *fakeStore, gw *fakeGateway, waits *[]time.Duration) *Reconciler {
	p := retry.Policy{
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		MaxAttempts: 3,
		Sleep: func(ctx context.Context, d time.Duration) error {
			if waits != nil {
				*waits = append(*waits, d)
			}
			return nil
		},
	}
	r := New(store, gw, p, "@Yollovchi")
	r.Now = func() time.Time { return time.Date(2025, 12, 18, 9, 0, 0, 0, time.UTC) }
	return r
}

func activePost(id int64, channelIDs []int, fileIDs []string) models.Post {
	return models.Post{
		ID:                id,
		UserID:            42,
		MessageID:         7,
		ChannelMessageIDs: channelIDs,
		TextContent:       "Atomic Habits\nJames Clear\n320\nYangi\nQattiq\n2018\nYo'q\n45",
		FileIDs:           fileIDs,
		CreatedAt:         time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC),
		Status:            models.StatusActive,
	}
}

func TestRepostSuccessUpdatesStore(t *testing.T) {
	store := newFakeStore(activePost(1, []int{200}, []string{"file-a"}))
	gw := &fakeGateway{publishResults: []publishResult{{ids: []int{300}}}}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, sum)
	assert.Equal(t, []int{200}, gw.deleted)
	assert.Equal(t, []int{300}, store.updated[1])
	assert.Equal(t, r.Now(), store.updatedAt[1])
	assert.False(t, store.removed[1])
}

func TestDeleteNotFoundRetiresPostWithoutPublishing(t *testing.T) {
	store := newFakeStore(activePost(1, []int{100, 101}, []string{"file-a", "file-b"}))
	gw := &fakeGateway{deleteErrs: map[int]error{101: notFoundErr()}}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1}, sum)
	assert.True(t, store.removed[1])
	assert.Empty(t, store.updated)
	assert.Zero(t, gw.publishCalls, "a retired post must never be republished")
}

func TestThrottledPublishWaitsAndSucceeds(t *testing.T) {
	store := newFakeStore(activePost(1, []int{200}, []string{"file-a"}))
	gw := &fakeGateway{publishResults: []publishResult{
		{err: &channel.Error{Kind: channel.KindThrottled, RetryAfter: 5 * time.Second, Err: errors.New("too many requests")}},
		{ids: []int{301}},
	}}
	var waits []time.Duration
	r := testReconciler(store, gw, &waits)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, sum)
	assert.Equal(t, []int{301}, store.updated[1])
	assert.Contains(t, waits, 5*time.Second)
}

func TestPublishFailureLeavesPostUnchanged(t *testing.T) {
	store := newFakeStore(activePost(1, []int{200}, []string{"file-a"}))
	gw := &fakeGateway{publishResults: []publishResult{{err: permanentErr()}}}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Failed: 1}, sum)
	assert.Empty(t, store.updated)
	assert.False(t, store.removed[1])
}

func TestDeleteTransientExhaustionSkipsPublish(t *testing.T) {
	store := newFakeStore(activePost(1, []int{200}, []string{"file-a"}))
	gw := &fakeGateway{deleteErrs: map[int]error{
		200: &channel.Error{Kind: channel.KindTransient, Err: errors.New("gateway timeout")},
	}}
	var waits []time.Duration
	r := testReconciler(store, gw, &waits)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Failed: 1}, sum)
	assert.Zero(t, gw.publishCalls)
	assert.Len(t, gw.deleted, 4, "initial delete plus three retries")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, waits)
}

func TestStoreUnavailableAbortsPass(t *testing.T) {
	store := newFakeStore()
	store.candidatesErr = errors.New("store unavailable: connection refused")
	r := testReconciler(store, &fakeGateway{}, nil)

	_, err := r.ReconcileOlderThan(context.Background(), time.Now())
	require.Error(t, err)
}

func TestStoreWriteFailureAbortsPass(t *testing.T) {
	store := newFakeStore(
		activePost(1, []int{200}, []string{"file-a"}),
		activePost(2, []int{201}, []string{"file-b"}),
	)
	store.updateErr = errors.New("store unavailable: disk I/O error")
	gw := &fakeGateway{}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.Error(t, err)
	assert.Equal(t, Summary{}, sum)
	assert.Equal(t, 1, gw.publishCalls, "second post must not be attempted after a store failure")
}

func TestFailuresAreIsolatedPerPost(t *testing.T) {
	store := newFakeStore(
		activePost(1, []int{200}, []string{"file-a"}),
		activePost(2, []int{201}, []string{"file-b"}),
	)
	gw := &fakeGateway{publishResults: []publishResult{
		{err: permanentErr()},
		{ids: []int{302}},
	}}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1, Failed: 1}, sum)
	assert.Equal(t, []int{302}, store.updated[2])
}

func TestImportedPostRepostsByCopy(t *testing.T) {
	store := newFakeStore(activePost(5, []int{500}, nil))
	gw := &fakeGateway{copyID: 600}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, sum)
	assert.Equal(t, []int{500}, gw.copied)
	assert.Equal(t, []int{500}, gw.deleted, "old message deleted only after the copy landed")
	assert.Equal(t, []int{600}, store.updated[5])
	assert.Zero(t, gw.publishCalls)
}

func TestCopySourceGoneRetiresPost(t *testing.T) {
	store := newFakeStore(activePost(5, []int{500}, nil))
	gw := &fakeGateway{copyErr: notFoundErr()}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 1}, sum)
	assert.True(t, store.removed[5])
	assert.Empty(t, store.updated)
}

func TestCopyPathToleratesNotFoundOnCleanup(t *testing.T) {
	store := newFakeStore(activePost(5, []int{500, 501}, nil))
	gw := &fakeGateway{copyID: 600, deleteErrs: map[int]error{501: notFoundErr()}}
	r := testReconciler(store, gw, nil)

	sum, err := r.ReconcileOlderThan(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Equal(t, Summary{Processed: 1}, sum)
	assert.Equal(t, []int{600}, store.updated[5])
	assert.False(t, store.removed[5])
}

func TestCancelledContextStopsPass(t *testing.T) {
	store := newFakeStore(
		activePost(1, []int{200}, []string{"file-a"}),
		activePost(2, []int{201}, []string{"file-b"}),
	)
	gw := &fakeGateway{}
	r := testReconciler(store, gw, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := r.ReconcileOlderThan(ctx, time.Now())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Summary{}, sum)
	assert.Zero(t, gw.publishCalls)
}

func TestSummaryString(t *testing.T) {
	s := Summary{Processed: 3, Skipped: 1, Failed: 2}
	assert.Equal(t, "reposted 3, retired 1 manually removed, 2 failed", s.String())
}
