package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/podtrends/chartbuilder/client"
	"github.com/podtrends/chartbuilder/model"
)

// maxPages is a hard safety limit on pagination per playlist, independent of
// the item cap. Some very large uploads playlists never stop paging.
const maxPages = 10

// PagedFetcher walks a playlist page by page, following the server's
// continuation token until the final page, the item cap, or the page safety
// limit. It keeps no state between calls, so a fetch can always be restarted
// from scratch.
type PagedFetcher struct {
	client   client.MetadataClient
	maxItems int
	counters *Counters
}

// NewPagedFetcher creates a fetcher capped at maxItems items per playlist.
func NewPagedFetcher(c client.MetadataClient, maxItems int, counters *Counters) *PagedFetcher {
	return &PagedFetcher{client: c, maxItems: maxItems, counters: counters}
}

// FetchAll returns every item of the playlist up to the configured cap. A
// playlist that does not exist or has been made private yields zero items
// and a warning rather than an error: a handful of missing playlists must
// not kill a run covering a hundred of them.
func (f *PagedFetcher) FetchAll(ctx context.Context, playlistID string) ([]client.PlaylistItem, error) {
	var items []client.PlaylistItem
	pageToken := ""

	for page := 0; len(items) < f.maxItems; page++ {
		if page >= maxPages {
			log.Warn().Str("playlist_id", playlistID).Int("pages", page).
				Msg("Reached page safety limit for playlist")
			break
		}

		pageSize := int64(f.maxItems - len(items))
		if pageSize > client.BatchLimit {
			pageSize = client.BatchLimit
		}

		resp, err := f.client.ListPlaylistPage(ctx, playlistID, pageToken, pageSize)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				log.Warn().Str("playlist_id", playlistID).
					Msg("Playlist missing or private, yielding zero items")
				return nil, nil
			}
			return nil, fmt.Errorf("listing playlist %s: %w", playlistID, err)
		}
		f.counters.PlaylistItems.Add(1)

		items = append(items, resp.Items...)
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	if len(items) > f.maxItems {
		items = items[:f.maxItems]
	}

	log.Info().Str("playlist_id", playlistID).Int("items", len(items)).Msg("Fetched playlist items")
	return items, nil
}
