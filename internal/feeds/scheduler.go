package feeds

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"trainboard/internal/config"
	"trainboard/internal/stations"
)

// Scheduler drives the poll → decode → project cycle and owns the snapshot
// slot. One cycle is in flight at a time; a slow cycle starts the next one
// late rather than overlapping it.
type Scheduler struct {
	client    *Client
	projector *Projector
	cache     *SnapshotCache
	broadcast chan struct{}

	station stations.Station
	urls    []string

	interval    time.Duration
	minGap      time.Duration
	staleAfter  time.Duration
	blankAfter  time.Duration
	maxArrivals int

	backoff   *backoff.ExponentialBackOff
	failures  int
	nextDelay time.Duration
	lastStart time.Time

	now func() time.Time
}

// NewScheduler wires the cycle for one station. The station's lines decide
// which of the configured realtime endpoints get polled each cycle; a
// station served by no configured feed is a configuration error.
func NewScheduler(cfg *config.Config, client *Client, projector *Projector, cache *SnapshotCache, station stations.Station, broadcast chan struct{}) (*Scheduler, error) {
	var urls []string
	for _, feedName := range station.Feeds {
		if u, ok := cfg.Feeds[feedName]; ok {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no configured feed serves station %s (%s)", station.ID, station.Name)
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     cfg.Polling.Interval,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         cfg.Polling.MaxBackoff,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	return &Scheduler{
		client:      client,
		projector:   projector,
		cache:       cache,
		broadcast:   broadcast,
		station:     station,
		urls:        urls,
		interval:    cfg.Polling.Interval,
		minGap:      cfg.Polling.MinGap,
		staleAfter:  cfg.Polling.StaleAfter,
		blankAfter:  cfg.Polling.BlankAfter,
		maxArrivals: cfg.Polling.MaxArrivals,
		backoff:     b,
		now:         time.Now,
	}, nil
}

// Run loops until ctx is cancelled. Cancellation aborts the in-flight fetch
// within the client timeout and publishes nothing further.
func (s *Scheduler) Run(ctx context.Context) {
	s.runCycle(ctx)

	for {
		timer := time.NewTimer(s.nextWait())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		s.runCycle(ctx)
	}
}

// nextWait measures the interval from cycle start so slow cycles don't
// compound delay, while the minimum gap keeps a broken clock or an instantly
// failing feed from spinning a tight loop.
func (s *Scheduler) nextWait() time.Duration {
	base := s.interval
	if s.failures > 0 {
		base = s.nextDelay
	}
	wait := base - s.now().Sub(s.lastStart)
	if wait < s.minGap {
		wait = s.minGap
	}
	return wait
}

func (s *Scheduler) runCycle(ctx context.Context) {
	s.lastStart = s.now()

	feed, err := s.fetchAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown mid-fetch: leave the last snapshot untouched.
			return
		}
		s.publishFailure(err)
		return
	}
	s.publishSuccess(feed)
}

// fetchAll pulls every endpoint serving the station concurrently and merges
// the decoded parts into one feed for projection.
func (s *Scheduler) fetchAll(ctx context.Context) (*Feed, error) {
	type result struct {
		feed *Feed
		err  error
	}

	fetchedAt := s.now()
	results := make(chan result, len(s.urls))

	var wg sync.WaitGroup
	for _, url := range s.urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			raw, err := s.client.Fetch(ctx, u)
			if err != nil {
				results <- result{err: err}
				return
			}
			feed, err := Decode(raw, fetchedAt)
			results <- result{feed: feed, err: err}
		}(url)
	}

	wg.Wait()
	close(results)

	parts := make([]*Feed, 0, len(s.urls))
	for res := range results {
		if res.err != nil {
			return nil, res.err
		}
		parts = append(parts, res.feed)
	}

	return Merge(fetchedAt, parts...), nil
}

func (s *Scheduler) publishSuccess(feed *Feed) {
	now := s.now()
	arrivals := s.projector.Project(feed, s.station.ID, now, s.maxArrivals)

	// An old-but-parsable feed counts as a fetch success, but its countdowns
	// are flagged rather than shown as fresh.
	stale := s.staleAfter > 0 && feed.Lag() > s.staleAfter
	if stale {
		for i := range arrivals {
			arrivals[i].Stale = true
		}
	}

	s.cache.Publish(Snapshot{
		Arrivals:      arrivals,
		LastSuccessAt: now,
		Stale:         stale,
	})
	s.notify()

	s.failures = 0
	s.backoff.Reset()

	log.Debug().
		Str("station", s.station.ID).
		Int("arrivals", len(arrivals)).
		Dur("feed_lag", feed.Lag()).
		Bool("stale", stale).
		Msg("Published snapshot")
}

func (s *Scheduler) publishFailure(err error) {
	s.failures++
	s.nextDelay = s.backoff.NextBackOff()
	if s.nextDelay == backoff.Stop {
		s.nextDelay = s.backoff.MaxInterval
	}

	kind := ErrorDecode
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		kind = ErrorNetwork
	}

	prev := s.cache.Current()
	arrivals := make([]Arrival, len(prev.Arrivals))
	copy(arrivals, prev.Arrivals)
	for i := range arrivals {
		arrivals[i].Stale = true
	}

	// Past the hard threshold, carried countdowns are worse than no data.
	now := s.now()
	if prev.LastSuccessAt.IsZero() || now.Sub(prev.LastSuccessAt) > s.blankAfter {
		arrivals = nil
	}

	s.cache.Publish(Snapshot{
		Arrivals:      arrivals,
		LastSuccessAt: prev.LastSuccessAt,
		Stale:         true,
		Err:           kind,
	})
	s.notify()

	log.Warn().
		Err(err).
		Str("station", s.station.ID).
		Int("consecutive_failures", s.failures).
		Dur("next_retry", s.nextDelay).
		Msg("Refresh cycle failed")
}

func (s *Scheduler) notify() {
	select {
	case s.broadcast <- struct{}{}:
	default:
	}
}
