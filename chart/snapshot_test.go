package chart

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podtrends/chartbuilder/model"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timeline.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadKeyedForm(t *testing.T) {
	path := writeSnapshot(t, `{
		"May 5 - May 11, 2025": [
			{"rank": 2, "podcast_name": "Show B", "channel_reference": "https://www.youtube.com/playlist?list=PLb"},
			{"rank": 1, "podcast_name": "Show A", "channel_reference": "https://www.youtube.com/playlist?list=PLa"}
		]
	}`)

	tl, err := Load(path)
	require.NoError(t, err)
	require.Len(t, tl, 1)

	entries := tl["May 5 - May 11, 2025"]
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank, "entries should be sorted into rank order")
	assert.Equal(t, "Show A", entries[0].PodcastName)
}

func TestLoadRejectsMalformedEntries(t *testing.T) {
	path := writeSnapshot(t, `{
		"May 5 - May 11, 2025": [
			{"rank": 1, "podcast_name": "Good", "channel_reference": "https://site/playlist?list=PL1"},
			{"rank": 0, "podcast_name": "Bad rank", "channel_reference": "https://site/playlist?list=PL2"},
			{"rank": 3, "podcast_name": "", "channel_reference": "https://site/playlist?list=PL3"},
			{"rank": 1, "podcast_name": "Duplicate rank", "channel_reference": "https://site/playlist?list=PL4"}
		]
	}`)

	tl, err := Load(path)
	require.NoError(t, err, "malformed entries must not be fatal to the whole file")
	require.Len(t, tl["May 5 - May 11, 2025"], 1)
	assert.Equal(t, "Good", tl["May 5 - May 11, 2025"][0].PodcastName)
}

func TestLoadFlatTimelineForm(t *testing.T) {
	path := writeSnapshot(t, `[
		{"Chart Date": "May 5 - May 11, 2025", "Rank": "1", "Name": "Show A", "Channel URL": "https://site/playlist?list=PLa"},
		{"Chart Date": "May 5 - May 11, 2025", "Rank": "2", "Name": "Show B", "Channel URL": ""},
		{"Chart Date": "Apr 28 - May 4, 2025", "Rank": "1", "Name": "Show C", "Channel URL": "https://site/playlist?list=PLc"}
	]`)

	tl, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, tl, 2)
	assert.Len(t, tl["May 5 - May 11, 2025"], 2)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, model.ErrData)
	})

	t.Run("empty collection", func(t *testing.T) {
		_, err := Load(writeSnapshot(t, `{}`))
		assert.ErrorIs(t, err, model.ErrData)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := Load(writeSnapshot(t, `not json at all`))
		assert.ErrorIs(t, err, model.ErrData)
	})
}

func TestWeekEndDate(t *testing.T) {
	got := WeekEndDate("May 5 - May 11, 2025")
	assert.Equal(t, time.Date(2025, time.May, 11, 0, 0, 0, 0, time.UTC), got)

	assert.True(t, WeekEndDate("not a range").IsZero())
	assert.True(t, WeekEndDate("May 5 - sometime").IsZero())
}

func TestSelectLatest(t *testing.T) {
	tl := Timeline{
		"W1": {{Rank: 1, PodcastName: "Old", ChannelRef: "https://site/playlist?list=PL1"}},
		"W2": {{Rank: 1, PodcastName: "New", ChannelRef: "https://site/playlist?list=PL2"}},
	}
	order := map[string]time.Time{
		"W1": time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC),
		"W2": time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC),
	}

	snapshot, err := SelectLatest(tl, func(label string) time.Time { return order[label] })
	require.NoError(t, err)
	assert.Equal(t, "W2", snapshot.WeekLabel)
	assert.Equal(t, "New", snapshot.Entries[0].PodcastName)
}

func TestSelectLatestSkipsWeeksWithoutChannelRefs(t *testing.T) {
	tl := Timeline{
		"older": {{Rank: 1, PodcastName: "Linked", ChannelRef: "https://site/playlist?list=PL1"}},
		"newer": {{Rank: 1, PodcastName: "Unlinked", ChannelRef: ""}},
	}
	order := map[string]time.Time{
		"older": time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC),
		"newer": time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC),
	}

	snapshot, err := SelectLatest(tl, func(label string) time.Time { return order[label] })
	require.NoError(t, err)
	assert.Equal(t, "older", snapshot.WeekLabel)
}

func TestSelectLatestEmpty(t *testing.T) {
	_, err := SelectLatest(Timeline{}, WeekEndDate)
	assert.ErrorIs(t, err, model.ErrData)
}

func TestSelectWeek(t *testing.T) {
	tl := Timeline{
		"W1": {{Rank: 1, PodcastName: "A", ChannelRef: "https://site/playlist?list=PL1"}},
	}

	snapshot, err := SelectWeek(tl, "W1")
	require.NoError(t, err)
	assert.Equal(t, "W1", snapshot.WeekLabel)

	_, err = SelectWeek(tl, "W9")
	require.ErrorIs(t, err, model.ErrData)
	assert.Contains(t, err.Error(), "W1", "error should list the available weeks")
}

func TestTopN(t *testing.T) {
	snapshot := model.ChartSnapshot{
		WeekLabel: "W1",
		Entries: []model.ChartEntry{
			{Rank: 1, PodcastName: "A"},
			{Rank: 2, PodcastName: "B"},
			{Rank: 3, PodcastName: "C"},
		},
	}

	top, err := TopN(snapshot, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "A", top[0].PodcastName)

	top, err = TopN(snapshot, 10)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	_, err = TopN(snapshot, 0)
	assert.ErrorIs(t, err, model.ErrConfig)

	_, err = TopN(snapshot, -5)
	assert.ErrorIs(t, err, model.ErrConfig)
}
