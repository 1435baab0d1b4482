// Package retry implements the bounded retry policy shared by every channel
// call site: exponential backoff for transient failures, mandated waits for
// server-signaled throttling, and no retries at all for structural or
// permanent failures.
package retry

import (
	"context"
	"log"
	"time"

	"github.com/aziz-turgunoff/kitob-tg-bot/channel"
)

// Policy parameterizes the retry loop. The zero value is not usable; build
// one with Default or from configuration.
type Policy struct {
	BaseDelay   time.Duration // first backoff delay
	MaxDelay    time.Duration // backoff ceiling
	MaxAttempts int           // transient retries after the initial call

	// Sleep is swapped out in tests; nil means context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the policy used across the bot: 1s base, doubling up to
// 30s, three retries.
func Default() Policy {
	return Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second, MaxAttempts: 3}
}

// Do runs fn until it succeeds, fails permanently, or exhausts the budget.
// Throttled failures wait exactly the server-mandated duration and do not
// consume the transient retry budget; a throttle carrying no wait would spin
// forever, so it falls back to the bounded backoff instead. The last
// classified error is returned on exhaustion.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := p.BaseDelay
	retries := 0
	for {
		err := fn()
		if err == nil {
			return nil
		}

		switch channel.KindOf(err) {
		case channel.KindNotFound, channel.KindPermanent:
			return err

		case channel.KindThrottled:
			if wait := channel.RetryAfterOf(err); wait > 0 {
				log.Printf("%s throttled, waiting %s before retry", op, wait)
				if serr := sleep(ctx, wait); serr != nil {
					return err
				}
				continue
			}
			// No mandated wait came with the throttle; retrying
			// immediately would hammer the API, so consume the backoff
			// budget instead.
			fallthrough

		default: // transient
			if retries >= p.MaxAttempts {
				return err
			}
			retries++
			log.Printf("%s failed transiently (retry %d/%d in %s): %v", op, retries, p.MaxAttempts, delay, err)
			if serr := sleep(ctx, delay); serr != nil {
				return err
			}
			delay *= 2
			if delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
