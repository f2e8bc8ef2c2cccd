package fetch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/podtrends/chartbuilder/client"
	"github.com/podtrends/chartbuilder/model"
)

// BatchFetcher resolves identifier sets to full records in fixed-size chunks
// bounded by the API batch limit. It consults the run caches before issuing
// any call, so no identifier is ever fetched twice in one run. Ids the
// service does not know are dropped from the result with a warning; callers
// treat the missing keys as "unknown, omit metric".
type BatchFetcher struct {
	client   client.MetadataClient
	caches   *Caches
	counters *Counters
}

// NewBatchFetcher creates a fetcher backed by the run's caches.
func NewBatchFetcher(c client.MetadataClient, caches *Caches, counters *Counters) *BatchFetcher {
	return &BatchFetcher{client: c, caches: caches, counters: counters}
}

// Videos resolves video ids to records, returning a map keyed by id.
func (f *BatchFetcher) Videos(ctx context.Context, ids []string) (map[string]*model.VideoRecord, error) {
	missing := f.caches.missingVideos(ids)
	for _, chunk := range chunkIDs(missing, client.BatchLimit) {
		videos, err := f.client.VideoDetails(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("resolving %d videos: %w", len(chunk), err)
		}
		f.counters.Videos.Add(1)
		for _, v := range videos {
			f.caches.PutVideo(v)
		}
		if len(videos) < len(chunk) {
			log.Warn().Int("requested", len(chunk)).Int("resolved", len(videos)).
				Msg("Some video ids were absent from the detail response")
		}
	}

	result := make(map[string]*model.VideoRecord, len(ids))
	for _, id := range ids {
		if v, ok := f.caches.Video(id); ok {
			result[id] = v
		}
	}
	return result, nil
}

// Channels resolves channel ids to records, returning a map keyed by id.
func (f *BatchFetcher) Channels(ctx context.Context, ids []string) (map[string]*model.ChannelRecord, error) {
	missing := f.caches.missingChannels(ids)
	for _, chunk := range chunkIDs(missing, client.BatchLimit) {
		channels, err := f.client.ChannelDetails(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("resolving %d channels: %w", len(chunk), err)
		}
		f.counters.Channels.Add(1)
		for _, ch := range channels {
			f.caches.PutChannel(ch)
		}
		if len(channels) < len(chunk) {
			log.Warn().Int("requested", len(chunk)).Int("resolved", len(channels)).
				Msg("Some channel ids were absent from the detail response")
		}
	}

	result := make(map[string]*model.ChannelRecord, len(ids))
	for _, id := range ids {
		if ch, ok := f.caches.Channel(id); ok {
			result[id] = ch
		}
	}
	return result, nil
}

// Categories populates the region's category map once per run and returns
// the cached mapping on later calls.
func (f *BatchFetcher) Categories(ctx context.Context, regionCode string) error {
	if f.caches.CategoriesLoaded() {
		return nil
	}
	categories, err := f.client.VideoCategories(ctx, regionCode)
	if err != nil {
		return fmt.Errorf("loading categories for region %s: %w", regionCode, err)
	}
	f.counters.Categories.Add(1)
	f.caches.SetCategories(categories)
	return nil
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
