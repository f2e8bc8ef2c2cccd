// Package model contains the data types shared by the pipeline stages
package model

import "time"

// ChartEntry is one ranked row of a weekly chart snapshot. Entries are
// immutable once loaded.
type ChartEntry struct {
	Rank        int    `json:"rank"`
	PodcastName string `json:"podcast_name"`
	ChannelRef  string `json:"channel_reference"`
}

// ChartSnapshot is one week's ranked list of tracked shows, in rank order.
type ChartSnapshot struct {
	WeekLabel string
	Entries   []ChartEntry
}

// PlaylistRef ties an extracted playlist identifier back to the chart entry
// it came from. When Handle is set the playlist id is not known yet and must
// be resolved through the API before fetching.
type PlaylistRef struct {
	PlaylistID string
	Handle     string
	Entry      ChartEntry
}

// VideoRecord is the fully resolved metadata for one video.
type VideoRecord struct {
	ID           string
	Title        string
	PublishedAt  time.Time
	Duration     string // ISO-8601, e.g. "PT1H5M33S"
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	Tags         []string
	CategoryID   string
	ChannelID    string
}

// ChannelRecord is the fully resolved metadata for one channel.
// SubscriberCount is nil when the channel hides it.
type ChannelRecord struct {
	ID              string
	Title           string
	SubscriberCount *int64
}

// TitleStats holds the title-analysis flags computed for one video title.
type TitleStats struct {
	LenChars         int
	LenWords         int
	HasQuestion      bool
	HasExclaim       bool
	HasVs            bool
	HasColon         bool
	HasBrackets      bool
	NumNumericTokens int
	NumAllCapsWords  int
	StartsWithQuote  bool
	EndsWithEllipsis bool
}

// EnrichedRow is one denormalized output row: a video joined with its
// channel, category name and the chart entry that led to it, plus all
// derived metrics. Channel is nil and CategoryName empty when the lookup
// could not resolve them; those fields serialize as empty cells, never as
// fabricated defaults.
type EnrichedRow struct {
	Rank         int
	ChartWeek    string
	PodcastName  string
	PlaylistID   string
	Video        VideoRecord
	Channel      *ChannelRecord
	CategoryName string

	AgeDays     int64
	DurationMin float64
	ViewsPerDay float64
	ViewsPerSub *float64
	Title       TitleStats
}
