package client

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/podtrends/chartbuilder/model"
)

// CallState tracks where an outbound call is in its lifecycle.
type CallState int

const (
	StatePending CallState = iota
	StateInFlight
	StateSuccess
	StateRetryableFailure
	StateFatalFailure
)

func (s CallState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateSuccess:
		return "success"
	case StateRetryableFailure:
		return "retryable_failure"
	case StateFatalFailure:
		return "fatal_failure"
	default:
		return "unknown"
	}
}

// PacerConfig tunes the pacing token and the retry policy.
type PacerConfig struct {
	// MinInterval is the minimum time between any two outbound calls.
	MinInterval time.Duration
	// MaxRetries is the attempt ceiling for retryable failures.
	MaxRetries int
	// BaseDelay seeds the exponential backoff between retries.
	BaseDelay time.Duration
	// MaxDelay caps the backoff regardless of attempt count.
	MaxDelay time.Duration
}

// DefaultPacerConfig mirrors the API's documented politeness expectations:
// 200ms between calls, three retries, backoff capped at 30 seconds.
func DefaultPacerConfig() PacerConfig {
	return PacerConfig{
		MinInterval: 200 * time.Millisecond,
		MaxRetries:  3,
		BaseDelay:   400 * time.Millisecond,
		MaxDelay:    30 * time.Second,
	}
}

// Pacer owns the single account-level pacing token and the retry policy.
// One Pacer is shared by every call site in a run; it is never duplicated
// per endpoint or per worker, because the quota it protects is account-wide.
type Pacer struct {
	cfg     PacerConfig
	limiter *rate.Limiter

	// wait and sleep are swapped out in tests for a fake clock.
	wait  func(ctx context.Context) error
	sleep func(ctx context.Context, d time.Duration) error

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPacer creates a pacer enforcing cfg's interval and retry policy.
func NewPacer(cfg PacerConfig) *Pacer {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultPacerConfig().BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultPacerConfig().MaxDelay
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}

	p := &Pacer{
		cfg:     cfg,
		limiter: limiter,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.wait = limiter.Wait
	p.sleep = sleepCtx
	return p
}

// Do runs one outbound call through the pacing token, retrying retryable
// failures with exponential backoff plus jitter. Exceeding the attempt
// ceiling converts the failure into a fatal one. Non-API errors (including
// model.ErrNotFound) pass through untouched on the first attempt.
func (p *Pacer) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	state := StatePending
	for attempt := 0; ; attempt++ {
		if err := p.wait(ctx); err != nil {
			return fmt.Errorf("%s: interrupted waiting for pacing token: %w", op, err)
		}

		state = StateInFlight
		err := fn(ctx)
		if err == nil {
			state = StateSuccess
			log.Debug().Str("op", op).Stringer("state", state).Int("attempt", attempt).Msg("Call completed")
			return nil
		}

		if !model.IsRetryable(err) {
			state = StateFatalFailure
			log.Debug().Str("op", op).Stringer("state", state).Err(err).Msg("Call failed")
			return err
		}

		state = StateRetryableFailure
		if attempt >= p.cfg.MaxRetries {
			state = StateFatalFailure
			log.Error().Str("op", op).Stringer("state", state).Int("attempts", attempt+1).Err(err).
				Msg("Retry ceiling exceeded")
			return &model.APIError{
				Reason:    "retry ceiling exceeded",
				Retryable: false,
				Err:       fmt.Errorf("%s: %d attempts: %w", op, attempt+1, err),
			}
		}

		delay := p.backoff(attempt)
		log.Warn().Str("op", op).Stringer("state", state).Int("attempt", attempt).
			Dur("backoff", delay).Err(err).Msg("Transient API failure, backing off")
		if err := p.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: interrupted during backoff: %w", op, err)
		}
	}
}

// backoff returns base * 2^attempt plus jitter, capped at MaxDelay.
func (p *Pacer) backoff(attempt int) time.Duration {
	delay := p.cfg.BaseDelay << uint(attempt)
	if delay > p.cfg.MaxDelay || delay <= 0 {
		delay = p.cfg.MaxDelay
	}

	p.mu.Lock()
	jitter := time.Duration(p.rng.Int63n(int64(p.cfg.BaseDelay)))
	p.mu.Unlock()

	if delay+jitter > p.cfg.MaxDelay {
		return p.cfg.MaxDelay
	}
	return delay + jitter
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PacedClient wraps a MetadataClient so every call passes through one shared
// Pacer.
type PacedClient struct {
	inner MetadataClient
	pacer *Pacer
}

// NewPacedClient wraps inner with the given pacer.
func NewPacedClient(inner MetadataClient, pacer *Pacer) *PacedClient {
	return &PacedClient{inner: inner, pacer: pacer}
}

func (c *PacedClient) Connect(ctx context.Context) error {
	// Connection setup issues no quota-bearing request.
	return c.inner.Connect(ctx)
}

func (c *PacedClient) ListPlaylistPage(ctx context.Context, playlistID, pageToken string, maxResults int64) (*Page, error) {
	var page *Page
	err := c.pacer.Do(ctx, "playlist_items.list", func(ctx context.Context) error {
		var err error
		page, err = c.inner.ListPlaylistPage(ctx, playlistID, pageToken, maxResults)
		return err
	})
	return page, err
}

func (c *PacedClient) VideoDetails(ctx context.Context, ids []string) ([]*model.VideoRecord, error) {
	var videos []*model.VideoRecord
	err := c.pacer.Do(ctx, "videos.list", func(ctx context.Context) error {
		var err error
		videos, err = c.inner.VideoDetails(ctx, ids)
		return err
	})
	return videos, err
}

func (c *PacedClient) ChannelDetails(ctx context.Context, ids []string) ([]*model.ChannelRecord, error) {
	var channels []*model.ChannelRecord
	err := c.pacer.Do(ctx, "channels.list", func(ctx context.Context) error {
		var err error
		channels, err = c.inner.ChannelDetails(ctx, ids)
		return err
	})
	return channels, err
}

func (c *PacedClient) VideoCategories(ctx context.Context, regionCode string) (map[string]string, error) {
	var categories map[string]string
	err := c.pacer.Do(ctx, "video_categories.list", func(ctx context.Context) error {
		var err error
		categories, err = c.inner.VideoCategories(ctx, regionCode)
		return err
	})
	return categories, err
}

func (c *PacedClient) ResolveUploadsPlaylist(ctx context.Context, handle string) (string, error) {
	var playlistID string
	err := c.pacer.Do(ctx, "channels.list/handle", func(ctx context.Context) error {
		var err error
		playlistID, err = c.inner.ResolveUploadsPlaylist(ctx, handle)
		return err
	})
	return playlistID, err
}
