package channel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Kind is the closed classification of channel operation failures. Every
// gateway call that fails returns an *Error carrying exactly one Kind, so
// call sites can match exhaustively instead of probing ad-hoc error strings.
type Kind int

const (
	// KindNotFound: the message is already absent from the channel. Not a
	// retry target; the reconciler treats it as a structural signal.
	KindNotFound Kind = iota
	// KindThrottled: the server mandated a wait before retrying.
	KindThrottled
	// KindTransient: network errors and server-side 5xx; retried with
	// bounded backoff.
	KindTransient
	// KindPermanent: malformed request or rejected content; never retried.
	KindPermanent
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindThrottled:
		return "throttled"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error is the classified failure of a single channel operation.
type Error struct {
	Kind       Kind
	RetryAfter time.Duration // set only when Kind == KindThrottled
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindThrottled {
		return fmt.Sprintf("channel: %s (retry after %s): %v", e.Kind, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("channel: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err. Errors that did not pass
// through the gateway default to KindTransient, the only safe assumption
// for an unclassified failure.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindTransient
}

// RetryAfterOf returns the mandated wait for a throttled error, zero
// otherwise.
func RetryAfterOf(err error) time.Duration {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindThrottled {
		return ce.RetryAfter
	}
	return 0
}

// classify maps a Bot API failure onto the closed taxonomy. Telegram
// signals throttling with error code 429 and a retry_after parameter, and
// reports already-deleted messages as 400 "... not found".
func classify(err error) *Error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		// Transport-level failure, no API verdict: assume transient.
		return &Error{Kind: KindTransient, Err: err}
	}

	switch {
	case apiErr.Code == 429 || apiErr.RetryAfter > 0:
		return &Error{
			Kind:       KindThrottled,
			RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second,
			Err:        err,
		}
	case apiErr.Code == 400 && strings.Contains(strings.ToLower(apiErr.Message), "not found"):
		return &Error{Kind: KindNotFound, Err: err}
	case apiErr.Code >= 500:
		return &Error{Kind: KindTransient, Err: err}
	default:
		return &Error{Kind: KindPermanent, Err: err}
	}
}
