// Package repost keeps the posts table consistent with the channel: it
// selects stale listings, deletes their old channel messages and republishes
// them, writing back to the store only on confirmed success.
package repost

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aziz-turgunoff/kitob-tg-bot/channel"
	"github.com/aziz-turgunoff/kitob-tg-bot/listing"
	"github.com/aziz-turgunoff/kitob-tg-bot/models"
	"github.com/aziz-turgunoff/kitob-tg-bot/retry"
)

// Store is the slice of the post store the reconciler needs. A failing store
// aborts the whole pass; the reconciler never writes partial state.
type Store interface {
	CandidatesOlderThan(ctx context.Context, threshold time.Time) ([]models.Post, error)
	CandidatesInRange(ctx context.Context, start, end time.Time) ([]models.Post, error)
	UpdateAfterRepost(ctx context.Context, id int64, newMessageIDs []int, at time.Time) error
	MarkManuallyRemoved(ctx context.Context, id int64) error
}

// Gateway is the slice of the channel gateway the reconciler needs. Errors
// must be classified (channel.Error) so the retry policy can route them.
type Gateway interface {
	DeleteMessage(ctx context.Context, messageID int) error
	SendPost(ctx context.Context, caption string, fileIDs []string) ([]int, error)
	CopyMessage(ctx context.Context, messageID int) (int, error)
}

// Summary accounts for every candidate of one reconciliation pass.
type Summary struct {
	Processed int // confirmed reposts, store updated
	Skipped   int // retired as manually removed
	Failed    int // per-post failures, left unchanged for the next pass
}

func (s Summary) String() string {
	return fmt.Sprintf("reposted %d, retired %d manually removed, %d failed", s.Processed, s.Skipped, s.Failed)
}

// Reconciler drives the per-post repost state machine. Posts within a pass
// are processed sequentially; a failure of one never aborts the others, but
// a store failure aborts the pass.
type Reconciler struct {
	store   Store
	gateway Gateway
	policy  retry.Policy
	contact string // contact handle baked into reformatted captions

	// Now is the pass clock, swapped out in tests.
	Now func() time.Time
}

// New builds a reconciler around an injected store and gateway.
func New(store Store, gateway Gateway, policy retry.Policy, contact string) *Reconciler {
	return &Reconciler{
		store:   store,
		gateway: gateway,
		policy:  policy,
		contact: contact,
		Now:     time.Now,
	}
}

// ReconcileOlderThan runs one pass over active posts whose repost clock is at
// or before threshold.
func (r *Reconciler) ReconcileOlderThan(ctx context.Context, threshold time.Time) (Summary, error) {
	posts, err := r.store.CandidatesOlderThan(ctx, threshold)
	if err != nil {
		return Summary{}, fmt.Errorf("reconciliation aborted: %w", err)
	}
	return r.run(ctx, posts)
}

// ReconcileRange runs one pass over active posts created in [start, end).
func (r *Reconciler) ReconcileRange(ctx context.Context, start, end time.Time) (Summary, error) {
	posts, err := r.store.CandidatesInRange(ctx, start, end)
	if err != nil {
		return Summary{}, fmt.Errorf("reconciliation aborted: %w", err)
	}
	return r.run(ctx, posts)
}

type outcome int

const (
	outcomeUpdated outcome = iota // STORE_UPDATED
	outcomeRemoved                // retired as manually removed
	outcomeFailed                 // terminal for this cycle, post unchanged
)

func (r *Reconciler) run(ctx context.Context, posts []models.Post) (Summary, error) {
	var sum Summary
	for i := range posts {
		if err := ctx.Err(); err != nil {
			log.Printf("Reconciliation interrupted, %d of %d posts not attempted", len(posts)-i, len(posts))
			return sum, err
		}

		out, err := r.repostOne(ctx, &posts[i])
		if err != nil {
			// Store-level failure: no further writes this pass.
			return sum, fmt.Errorf("reconciliation aborted at post %d: %w", posts[i].ID, err)
		}
		switch out {
		case outcomeUpdated:
			sum.Processed++
		case outcomeRemoved:
			sum.Skipped++
		case outcomeFailed:
			sum.Failed++
		}
	}
	return sum, nil
}

// repostOne drives a single post to a terminal state. The returned error is
// non-nil only for store failures, which abort the pass.
func (r *Reconciler) repostOne(ctx context.Context, p *models.Post) (outcome, error) {
	if len(p.FileIDs) == 0 {
		return r.repostByCopy(ctx, p)
	}

	// Delete phase: every tracked id gets its own confirmed outcome.
	results := r.deleteMessages(ctx, p.ChannelMessageIDs)
	for _, res := range results {
		if res.outcome == deleteNotFound {
			// Someone removed the listing by hand. The whole post loses its
			// integrity; retire it and never partially republish. This also
			// covers re-entry after a crash between delete and publish.
			log.Printf("Post %d: message %d already gone, retiring post", p.ID, res.messageID)
			if err := r.store.MarkManuallyRemoved(ctx, p.ID); err != nil {
				return outcomeFailed, err
			}
			return outcomeRemoved, nil
		}
	}
	for _, res := range results {
		if res.outcome == deleteFailed {
			log.Printf("Post %d: failed to delete message %d, leaving post for next pass: %v", p.ID, res.messageID, res.err)
			return outcomeFailed, nil
		}
	}

	// Publish phase.
	caption := r.caption(p)
	var newIDs []int
	err := r.policy.Do(ctx, fmt.Sprintf("publish post %d", p.ID), func() error {
		ids, err := r.gateway.SendPost(ctx, caption, p.FileIDs)
		if err != nil {
			return err
		}
		newIDs = ids
		return nil
	})
	if err != nil || len(newIDs) == 0 {
		// The old messages are gone and the new ones did not land. Content
		// fields persist, so a later pass can retry from the top.
		log.Printf("Post %d: deleted from channel but republish failed, needs operator attention: %v", p.ID, err)
		return outcomeFailed, nil
	}

	if err := r.store.UpdateAfterRepost(ctx, p.ID, newIDs, r.Now()); err != nil {
		return outcomeFailed, err
	}
	return outcomeUpdated, nil
}

// repostByCopy handles posts with no stored file ids (imported channel
// history): the content lives only on the channel, so the first message is
// duplicated server-side before the old ones are deleted.
func (r *Reconciler) repostByCopy(ctx context.Context, p *models.Post) (outcome, error) {
	if len(p.ChannelMessageIDs) == 0 {
		log.Printf("Post %d: no file ids and no channel messages, nothing to repost", p.ID)
		return outcomeFailed, nil
	}

	var newID int
	err := r.policy.Do(ctx, fmt.Sprintf("copy post %d", p.ID), func() error {
		id, err := r.gateway.CopyMessage(ctx, p.ChannelMessageIDs[0])
		if err != nil {
			return err
		}
		newID = id
		return nil
	})
	if err != nil {
		if channel.KindOf(err) == channel.KindNotFound {
			log.Printf("Post %d: source message %d already gone, retiring post", p.ID, p.ChannelMessageIDs[0])
			if serr := r.store.MarkManuallyRemoved(ctx, p.ID); serr != nil {
				return outcomeFailed, serr
			}
			return outcomeRemoved, nil
		}
		log.Printf("Post %d: copy failed, leaving post for next pass: %v", p.ID, err)
		return outcomeFailed, nil
	}

	// The copy is confirmed; old messages are deleted best-effort. NotFound
	// here is fine, they are already gone.
	for _, res := range r.deleteMessages(ctx, p.ChannelMessageIDs) {
		if res.outcome == deleteFailed {
			log.Printf("Post %d: old message %d not deleted after copy: %v", p.ID, res.messageID, res.err)
		}
	}

	if err := r.store.UpdateAfterRepost(ctx, p.ID, []int{newID}, r.Now()); err != nil {
		return outcomeFailed, err
	}
	return outcomeUpdated, nil
}

type deleteOutcome int

const (
	deleteOK deleteOutcome = iota
	deleteNotFound
	deleteFailed
)

type deleteResult struct {
	messageID int
	outcome   deleteOutcome
	err       error
}

// deleteMessages deletes every tracked id, each call wrapped in the retry
// policy, and reports one outcome per id.
func (r *Reconciler) deleteMessages(ctx context.Context, ids []int) []deleteResult {
	results := make([]deleteResult, 0, len(ids))
	for _, id := range ids {
		err := r.policy.Do(ctx, fmt.Sprintf("delete message %d", id), func() error {
			return r.gateway.DeleteMessage(ctx, id)
		})
		switch {
		case err == nil:
			results = append(results, deleteResult{messageID: id, outcome: deleteOK})
		case channel.KindOf(err) == channel.KindNotFound:
			results = append(results, deleteResult{messageID: id, outcome: deleteNotFound, err: err})
		default:
			results = append(results, deleteResult{messageID: id, outcome: deleteFailed, err: err})
		}
	}
	return results
}

// caption reformats the persisted listing text for republication; raw text
// that no longer parses (imported rows) is reposted as-is.
func (r *Reconciler) caption(p *models.Post) string {
	formatted, err := listing.FormatCaption(p.TextContent, r.contact)
	if err != nil {
		return p.TextContent
	}
	return formatted
}
