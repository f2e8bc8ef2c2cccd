package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podtrends/chartbuilder/model"
)

func TestExtractPlaylistURL(t *testing.T) {
	entry := model.ChartEntry{Rank: 1, PodcastName: "Show", ChannelRef: "https://site/playlist?list=PL123"}

	ref := Extract(entry)
	require.NotNil(t, ref)
	assert.Equal(t, "PL123", ref.PlaylistID)
	assert.Empty(t, ref.Handle)
	assert.Equal(t, entry, ref.Entry)
}

func TestExtractChannelURL(t *testing.T) {
	ref := Extract(model.ChartEntry{Rank: 1, ChannelRef: "https://www.youtube.com/channel/UCabc123"})
	require.NotNil(t, ref)
	assert.Equal(t, "UUabc123", ref.PlaylistID, "channel ids map to their uploads playlist")
}

func TestExtractHandleURL(t *testing.T) {
	ref := Extract(model.ChartEntry{Rank: 1, ChannelRef: "https://www.youtube.com/@someshow"})
	require.NotNil(t, ref)
	assert.Empty(t, ref.PlaylistID)
	assert.Equal(t, "@someshow", ref.Handle)
}

func TestExtractPriorityOrder(t *testing.T) {
	// The explicit playlist id wins even when the path also looks like a
	// channel reference.
	ref := Extract(model.ChartEntry{Rank: 1, ChannelRef: "https://site/channel/UCabc/videos?list=PLxyz"})
	require.NotNil(t, ref)
	assert.Equal(t, "PLxyz", ref.PlaylistID)
}

func TestExtractNoMatch(t *testing.T) {
	for _, ref := range []string{
		"https://site/not-a-match",
		"https://site/channel/",
		"https://site/channel/short",
		"",
		"://bad url%",
	} {
		assert.Nil(t, Extract(model.ChartEntry{Rank: 1, ChannelRef: ref}), "reference %q", ref)
	}
}
