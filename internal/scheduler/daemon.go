// Package scheduler implements the recurring-plan daemon: a fixed set of
// Requests posted to the broker's own HTTP front-end once per interval
// between a start and stop offset-of-day, grounded on spec.md §4.6 and on
// the teacher's internal/monitoring ticker-loop idiom (no Python analog
// survived in original_source/'s kept files).
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/hedgepy/broker/internal/wire"
)

// StartOffset is the fixed delay before a Daemon's first cycle, matching
// spec.md §4.6's START_OFFSET_S.
const StartOffset = 5 * time.Second

// Poster posts one Request to wherever it's ultimately dispatched — in
// production, the broker's own HTTP front-end (POST /); tests supply a
// fake to assert posting behavior without a live server.
type Poster interface {
	Post(ctx context.Context, req wire.Request) error
}

// Daemon posts Items to Poster once per Interval, for Cycles() cycles,
// then stops — there is no internal retry: a failed Post surfaces only as
// a logged error, per spec.md §4.6 ("failures surface as pipeline
// Responses with error tags", which this daemon cannot itself observe
// since it only posts and never awaits a corr_id's resolution).
type Daemon struct {
	Start    time.Duration // offset-of-day
	Stop     time.Duration // offset-of-day
	Interval time.Duration
	Items    []wire.Request
	Poster   Poster
	Log      zerolog.Logger

	// StartDelay defaults to StartOffset; exposed so tests can shrink it
	// without waiting out the production 5s delay.
	StartDelay time.Duration
}

// New constructs a Daemon from its scheduling window and request set.
func New(start, stop, interval time.Duration, items []wire.Request, poster Poster, log zerolog.Logger) *Daemon {
	return &Daemon{Start: start, Stop: stop, Interval: interval, Items: items, Poster: poster, Log: log, StartDelay: StartOffset}
}

// Cycles is the number of posting rounds this daemon runs before
// shutting down: (stop - start) / interval, per spec.md §4.6.
func (d *Daemon) Cycles() int {
	if d.Interval <= 0 {
		return 0
	}
	return int((d.Stop - d.Start) / d.Interval)
}

// Run waits StartDelay, posts immediately (cycle 0), then posts again every
// Interval for the remaining Cycles()-1 rounds, returning when exhausted or
// ctx is cancelled — matching the source's Daemon.run: sleep(START_OFFSET_S),
// consume() immediately, then sleep(interval) before each subsequent
// consume(). Waiting on the ticker before the first post (as opposed to
// after) would push every cycle's post time a full Interval late and drop
// the window's last cycle.
func (d *Daemon) Run(ctx context.Context) error {
	select {
	case <-time.After(d.StartDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	cycles := d.Cycles()
	if cycles <= 0 {
		d.Log.Info().Int("cycles", cycles).Msg("scheduler: daemon exhausted, shutting down")
		return nil
	}

	ticker := time.NewTicker(d.Interval)
	defer ticker.Stop()

	d.postAll(ctx)
	for cycle := 1; cycle < cycles; cycle++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			d.postAll(ctx)
		}
	}
	d.Log.Info().Int("cycles", cycles).Msg("scheduler: daemon exhausted, shutting down")
	return nil
}

func (d *Daemon) postAll(ctx context.Context) {
	for _, item := range d.Items {
		if err := d.Poster.Post(ctx, item); err != nil {
			d.Log.Error().
				Err(err).
				Str("vendor", item.Vendor).
				Str("endpoint", item.Endpoint).
				Msg("scheduler: post failed, no internal retry")
		}
	}
}
