package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"github.com/podtrends/chartbuilder/model"
)

// YouTubeDataClient implements MetadataClient against the YouTube Data API v3.
type YouTubeDataClient struct {
	service *ytapi.Service
	apiKey  string
}

// NewYouTubeDataClient creates a new YouTube data client.
func NewYouTubeDataClient(apiKey string) (*YouTubeDataClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: YouTube API key is required", model.ErrConfig)
	}
	return &YouTubeDataClient{apiKey: apiKey}, nil
}

// Connect establishes a connection to the YouTube API.
func (c *YouTubeDataClient) Connect(ctx context.Context) error {
	log.Info().Msg("Connecting to YouTube API")

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	service, err := ytapi.NewService(ctx, option.WithAPIKey(c.apiKey), option.WithHTTPClient(httpClient))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create YouTube service")
		return fmt.Errorf("failed to create YouTube service: %w", err)
	}

	c.service = service
	log.Info().Msg("Connected to YouTube API successfully")
	return nil
}

// ListPlaylistPage fetches one page of playlist items.
func (c *YouTubeDataClient) ListPlaylistPage(ctx context.Context, playlistID, pageToken string, maxResults int64) (*Page, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	call := c.service.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(maxResults).
		Context(ctx)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	response, err := call.Do()
	if err != nil {
		return nil, classify(err)
	}

	page := &Page{NextPageToken: response.NextPageToken}
	for _, item := range response.Items {
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			log.Warn().Err(err).Str("date", item.Snippet.PublishedAt).Msg("Failed to parse playlist item published date")
		}
		page.Items = append(page.Items, PlaylistItem{
			VideoID:     item.ContentDetails.VideoId,
			ChannelID:   item.Snippet.ChannelId,
			PublishedAt: publishedAt,
		})
	}
	return page, nil
}

// VideoDetails resolves video ids to full records in one batched call.
func (c *YouTubeDataClient) VideoDetails(ctx context.Context, ids []string) ([]*model.VideoRecord, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	response, err := c.service.Videos.List([]string{"snippet", "statistics", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	videos := make([]*model.VideoRecord, 0, len(response.Items))
	for _, item := range response.Items {
		publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			log.Warn().Err(err).Str("video_id", item.Id).Str("date", item.Snippet.PublishedAt).
				Msg("Failed to parse video published date")
			continue
		}
		video := &model.VideoRecord{
			ID:          item.Id,
			Title:       item.Snippet.Title,
			PublishedAt: publishedAt,
			ChannelID:   item.Snippet.ChannelId,
			CategoryID:  item.Snippet.CategoryId,
			Tags:        item.Snippet.Tags,
		}
		if item.ContentDetails != nil {
			video.Duration = item.ContentDetails.Duration
		}
		if item.Statistics != nil {
			video.ViewCount = int64(item.Statistics.ViewCount)
			video.LikeCount = int64(item.Statistics.LikeCount)
			video.CommentCount = int64(item.Statistics.CommentCount)
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// ChannelDetails resolves channel ids to full records in one batched call.
func (c *YouTubeDataClient) ChannelDetails(ctx context.Context, ids []string) ([]*model.ChannelRecord, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	response, err := c.service.Channels.List([]string{"snippet", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	channels := make([]*model.ChannelRecord, 0, len(response.Items))
	for _, item := range response.Items {
		channel := &model.ChannelRecord{
			ID:    item.Id,
			Title: item.Snippet.Title,
		}
		if item.Statistics != nil && !item.Statistics.HiddenSubscriberCount {
			count := int64(item.Statistics.SubscriberCount)
			channel.SubscriberCount = &count
		}
		channels = append(channels, channel)
	}
	return channels, nil
}

// VideoCategories lists the category id to name mapping for a region.
func (c *YouTubeDataClient) VideoCategories(ctx context.Context, regionCode string) (map[string]string, error) {
	if c.service == nil {
		return nil, fmt.Errorf("YouTube client not connected")
	}

	response, err := c.service.VideoCategories.List([]string{"snippet"}).
		RegionCode(regionCode).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(err)
	}

	categories := make(map[string]string, len(response.Items))
	for _, item := range response.Items {
		categories[item.Id] = item.Snippet.Title
	}

	log.Info().Str("region", regionCode).Int("categories", len(categories)).
		Msg("Loaded video category names")
	return categories, nil
}

// ResolveUploadsPlaylist resolves a channel handle to its uploads playlist id.
func (c *YouTubeDataClient) ResolveUploadsPlaylist(ctx context.Context, handle string) (string, error) {
	if c.service == nil {
		return "", fmt.Errorf("YouTube client not connected")
	}

	response, err := c.service.Channels.List([]string{"contentDetails"}).
		ForHandle(handle).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(err)
	}
	if len(response.Items) == 0 {
		return "", fmt.Errorf("%w: channel handle %s", model.ErrNotFound, handle)
	}
	return response.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// classify translates an API transport error into the pipeline's taxonomy.
// Rate limiting and server-side failures are retryable; auth rejection and
// permanent quota exhaustion are fatal; a missing playlist maps to
// model.ErrNotFound so the fetcher can treat it as an empty result.
func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		// Network-level failure, no HTTP status to inspect.
		return &model.APIError{Reason: "network", Retryable: true, Err: err}
	}

	reason := ""
	if len(gerr.Errors) > 0 {
		reason = gerr.Errors[0].Reason
	}

	switch {
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", model.ErrNotFound, gerr.Message)
	case reason == "playlistNotFound" || reason == "channelNotFound":
		return fmt.Errorf("%w: %s", model.ErrNotFound, gerr.Message)
	case gerr.Code == http.StatusTooManyRequests:
		return &model.APIError{Status: gerr.Code, Reason: reason, Retryable: true, Err: err}
	case gerr.Code == http.StatusForbidden && (reason == "rateLimitExceeded" || reason == "userRateLimitExceeded"):
		return &model.APIError{Status: gerr.Code, Reason: reason, Retryable: true, Err: err}
	case gerr.Code >= 500:
		return &model.APIError{Status: gerr.Code, Reason: reason, Retryable: true, Err: err}
	default:
		// 400 (bad key), 401, 403 quotaExceeded and everything else.
		return &model.APIError{Status: gerr.Code, Reason: reason, Retryable: false, Err: err}
	}
}
