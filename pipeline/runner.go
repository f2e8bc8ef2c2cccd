// Package pipeline wires the stages together and executes one enrichment
// run: snapshot selection, playlist pagination, batched detail resolution,
// row assembly, derived metrics and the single final write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/podtrends/chartbuilder/chart"
	"github.com/podtrends/chartbuilder/client"
	"github.com/podtrends/chartbuilder/config"
	"github.com/podtrends/chartbuilder/dataset"
	"github.com/podtrends/chartbuilder/fetch"
	"github.com/podtrends/chartbuilder/model"
)

// Summary reports what one run did.
type Summary struct {
	RunID            string           `json:"run_id"`
	ChartWeek        string           `json:"chart_week"`
	EntriesProcessed int              `json:"entries_processed"`
	EntriesSkipped   int              `json:"entries_skipped"`
	ItemsUnresolved  int              `json:"items_unresolved"`
	Rows             int              `json:"rows"`
	APICalls         fetch.CallTotals `json:"api_calls"`
}

// Runner executes the pipeline. Caches and counters live exactly as long as
// one Run call, so parallel runs never share state.
type Runner struct {
	cfg    config.Config
	client client.MetadataClient
	now    func() time.Time
}

// New creates a runner around an already-paced metadata client.
func New(cfg config.Config, c client.MetadataClient) *Runner {
	return &Runner{cfg: cfg, client: c, now: time.Now}
}

// playlistItems is the outcome of paginating one chart entry's playlist.
type playlistItems struct {
	entry      model.ChartEntry
	playlistID string
	items      []client.PlaylistItem
}

// Run executes the whole pipeline once. Rows are held in memory and written
// in a single shot at the end; any fatal failure discards them so no partial
// file is ever produced.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	referenceNow := r.now()
	logger := log.With().Str("run_id", runID).Logger()

	summary := &Summary{RunID: runID}
	caches := fetch.NewCaches()
	counters := &fetch.Counters{}
	paged := fetch.NewPagedFetcher(r.client, r.cfg.MaxItemsPerPlaylist, counters)
	batch := fetch.NewBatchFetcher(r.client, caches, counters)

	// Stage: snapshot selection.
	timeline, err := chart.Load(r.cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snapshot, err := r.selectSnapshot(timeline)
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	summary.ChartWeek = snapshot.WeekLabel

	entries, err := chart.TopN(snapshot, r.cfg.TopN)
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	logger.Info().Str("week", snapshot.WeekLabel).Int("entries", len(entries)).Msg("Starting enrichment run")

	// Stage: category map, populated once per run per region.
	if err := batch.Categories(ctx, r.cfg.RegionCode); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}

	// Stage: pagination, optionally over several playlists at once. The
	// pacing token inside the client stays global either way.
	results, skipped, err := r.collectItems(ctx, entries, paged)
	if err != nil {
		return nil, fmt.Errorf("fetch playlists: %w", err)
	}
	summary.EntriesSkipped = skipped
	summary.EntriesProcessed = len(entries) - skipped

	// Stage: batched detail resolution across the whole run, so the dedup
	// invariant holds run-wide, not per playlist.
	videoIDs := make([]string, 0)
	for _, res := range results {
		for _, item := range res.items {
			videoIDs = append(videoIDs, item.VideoID)
		}
	}
	videos, err := batch.Videos(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch video details: %w", err)
	}

	channelIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		channelIDs = append(channelIDs, v.ChannelID)
	}
	channels, err := batch.Channels(ctx, channelIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch channel details: %w", err)
	}

	// Stage: assembly and metrics. One row per (entry, resolved video);
	// a video charted in two playlists appears twice on purpose.
	calc := dataset.NewCalculator(referenceNow)
	rows := make([]model.EnrichedRow, 0, len(videoIDs))
	for _, res := range results {
		for _, item := range res.items {
			video, ok := videos[item.VideoID]
			if !ok {
				summary.ItemsUnresolved++
				continue
			}
			channel := channels[video.ChannelID]
			categoryName, _ := r.categoryName(caches, video.CategoryID)
			row := dataset.Assemble(res.entry, snapshot.WeekLabel, res.playlistID, video, channel, categoryName)
			calc.Apply(&row)
			rows = append(rows, row)
		}
	}
	summary.Rows = len(rows)
	summary.APICalls = counters.Snapshot()

	// Stage: single final write.
	if err := dataset.Write(rows, r.cfg.OutputPath); err != nil {
		return nil, fmt.Errorf("write dataset: %w", err)
	}

	logger.Info().
		Int("processed", summary.EntriesProcessed).
		Int("skipped", summary.EntriesSkipped).
		Int("unresolved", summary.ItemsUnresolved).
		Int("rows", summary.Rows).
		Interface("api_calls", summary.APICalls).
		Msg("Run complete")
	return summary, nil
}

func (r *Runner) selectSnapshot(tl chart.Timeline) (model.ChartSnapshot, error) {
	if r.cfg.ChartWeek != "" {
		return chart.SelectWeek(tl, r.cfg.ChartWeek)
	}
	return chart.SelectLatest(tl, chart.WeekEndDate)
}

// collectItems paginates every entry's playlist, up to Concurrency playlists
// at a time. Entries whose reference cannot be parsed, whose handle cannot
// be resolved, or whose playlist is missing are skipped with a warning;
// fatal API failures cancel the group promptly and abort the run.
func (r *Runner) collectItems(ctx context.Context, entries []model.ChartEntry, paged *fetch.PagedFetcher) ([]playlistItems, int, error) {
	results := make([]playlistItems, len(entries))
	var mu sync.Mutex
	skipped := 0

	limit := r.cfg.Concurrency
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			ref := chart.Extract(entry)
			if ref == nil {
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}

			playlistID := ref.PlaylistID
			if playlistID == "" {
				id, err := r.client.ResolveUploadsPlaylist(gctx, ref.Handle)
				if errors.Is(err, model.ErrNotFound) {
					log.Warn().Int("rank", entry.Rank).Str("handle", ref.Handle).
						Msg("Handle does not resolve to a channel, skipping entry")
					mu.Lock()
					skipped++
					mu.Unlock()
					return nil
				}
				if err != nil {
					return fmt.Errorf("resolving handle %s: %w", ref.Handle, err)
				}
				playlistID = id
			}

			items, err := paged.FetchAll(gctx, playlistID)
			if err != nil {
				return err
			}
			mu.Lock()
			results[i] = playlistItems{entry: entry, playlistID: playlistID, items: items}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	// Drop the slots of skipped entries while keeping rank order.
	kept := results[:0]
	for _, res := range results {
		if res.playlistID != "" {
			kept = append(kept, res)
		}
	}
	return kept, skipped, nil
}

func (r *Runner) categoryName(caches *fetch.Caches, categoryID string) (string, bool) {
	if categoryID == "" {
		return "", false
	}
	return caches.CategoryName(categoryID)
}
