// Package client provides access to the external media-metadata API:
// a real YouTube Data API v3 implementation and the rate-limited retrying
// wrapper every pipeline call goes through.
package client

import (
	"context"
	"time"

	"github.com/podtrends/chartbuilder/model"
)

// PlaylistItem is one entry of a playlist page: just enough to know which
// video to resolve and when it was added.
type PlaylistItem struct {
	VideoID     string
	ChannelID   string
	PublishedAt time.Time
}

// Page is one page of a paged listing call. An empty NextPageToken signals
// the final page.
type Page struct {
	Items         []PlaylistItem
	NextPageToken string
}

// MetadataClient defines the calls the pipeline needs from the metadata
// service. Implementations translate transport failures into
// *model.APIError so callers can distinguish retryable from fatal ones.
type MetadataClient interface {
	// Connect establishes a connection to the API.
	Connect(ctx context.Context) error

	// ListPlaylistPage fetches one page of playlist items. pageToken is
	// empty for the first page. A playlist that does not exist or has been
	// made private fails with model.ErrNotFound.
	ListPlaylistPage(ctx context.Context, playlistID, pageToken string, maxResults int64) (*Page, error)

	// VideoDetails resolves up to BatchLimit video ids to full records.
	// Ids the service does not know are simply absent from the result.
	VideoDetails(ctx context.Context, ids []string) ([]*model.VideoRecord, error)

	// ChannelDetails resolves up to BatchLimit channel ids to full records.
	ChannelDetails(ctx context.Context, ids []string) ([]*model.ChannelRecord, error)

	// VideoCategories lists the category id to name mapping for a region.
	VideoCategories(ctx context.Context, regionCode string) (map[string]string, error)

	// ResolveUploadsPlaylist resolves a channel handle to the id of its
	// uploads playlist. An unknown handle fails with model.ErrNotFound.
	ResolveUploadsPlaylist(ctx context.Context, handle string) (string, error)
}

// BatchLimit is the maximum number of ids the API accepts in one detail call.
const BatchLimit = 50
