package refresh

import (
	"context"
	"time"

	"github.com/dailyyoga/coinframe/payload"
)

// Outcome is how a GetOrRefresh call ended
type Outcome string

const (
	OutcomeHit              Outcome = "hit"
	OutcomeRefreshed        Outcome = "refreshed"
	OutcomeWaited           Outcome = "waited"
	OutcomeTimedOut         Outcome = "timed_out"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeRenderFailed     Outcome = "render_failed"
	OutcomeStoreUnavailable Outcome = "store_unavailable"
	OutcomePublishFailed    Outcome = "publish_failed"
	OutcomeCorruptEntry     Outcome = "corrupt_entry"
	OutcomeCanceled         Outcome = "canceled"
)

// Event describes one GetOrRefresh call
type Event struct {
	Key      string
	Selector payload.Selector
	Outcome  Outcome
	// Attempts is the number of polls made while waiting
	Attempts int
	Duration time.Duration
	Err      error
	// Payload is set for hit, refreshed and waited outcomes
	Payload *payload.Payload
	At      time.Time
}

// Observer receives an Event after every GetOrRefresh call that passed
// selector validation. Observe runs on the caller's goroutine and must not
// block; its panics are recovered and logged.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}
