package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/podtrends/chartbuilder/client"
	"github.com/podtrends/chartbuilder/model"
)

// mockClient implements client.MetadataClient against in-memory fixtures and
// records every batch of ids it was asked for.
type mockClient struct {
	pages      map[string][]*client.Page // playlistID -> pages in order
	videos     map[string]*model.VideoRecord
	channels   map[string]*model.ChannelRecord
	categories map[string]string

	pageCalls    int
	videoBatches [][]string
	chanBatches  [][]string

	videoErr error
	pageErr  error
}

func newMockClient() *mockClient {
	return &mockClient{
		pages:      make(map[string][]*client.Page),
		videos:     make(map[string]*model.VideoRecord),
		channels:   make(map[string]*model.ChannelRecord),
		categories: map[string]string{"22": "People & Blogs"},
	}
}

func (m *mockClient) Connect(ctx context.Context) error { return nil }

func (m *mockClient) ListPlaylistPage(ctx context.Context, playlistID, pageToken string, maxResults int64) (*client.Page, error) {
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	pages, ok := m.pages[playlistID]
	if !ok {
		return nil, fmt.Errorf("%w: playlist %s", model.ErrNotFound, playlistID)
	}
	idx := 0
	if pageToken != "" {
		fmt.Sscanf(pageToken, "page-%d", &idx)
	}
	m.pageCalls++
	page := pages[idx]
	if len(page.Items) > int(maxResults) {
		trimmed := *page
		trimmed.Items = page.Items[:maxResults]
		return &trimmed, nil
	}
	return page, nil
}

func (m *mockClient) VideoDetails(ctx context.Context, ids []string) ([]*model.VideoRecord, error) {
	if m.videoErr != nil {
		return nil, m.videoErr
	}
	m.videoBatches = append(m.videoBatches, ids)
	out := make([]*model.VideoRecord, 0, len(ids))
	for _, id := range ids {
		if v, ok := m.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockClient) ChannelDetails(ctx context.Context, ids []string) ([]*model.ChannelRecord, error) {
	m.chanBatches = append(m.chanBatches, ids)
	out := make([]*model.ChannelRecord, 0, len(ids))
	for _, id := range ids {
		if ch, ok := m.channels[id]; ok {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (m *mockClient) VideoCategories(ctx context.Context, regionCode string) (map[string]string, error) {
	return m.categories, nil
}

func (m *mockClient) ResolveUploadsPlaylist(ctx context.Context, handle string) (string, error) {
	return "UU" + strings.TrimPrefix(handle, "@"), nil
}

func (m *mockClient) addVideo(id, channelID string) {
	m.videos[id] = &model.VideoRecord{
		ID:          id,
		Title:       "video " + id,
		PublishedAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		ChannelID:   channelID,
		CategoryID:  "22",
		ViewCount:   1000,
	}
}
