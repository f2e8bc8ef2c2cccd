// Package dataset turns resolved records into enriched analytics rows and
// serializes them to the fixed-column CSV output.
package dataset

import "github.com/podtrends/chartbuilder/model"

// Assemble joins one resolved video with its chart context, parent channel
// and category name into a denormalized row. It is a pure join: a missing
// channel or category propagates as a nil/empty field, never as a fabricated
// default. Derived metrics are filled in by Calculator.Apply.
func Assemble(entry model.ChartEntry, week, playlistID string, video *model.VideoRecord, channel *model.ChannelRecord, categoryName string) model.EnrichedRow {
	return model.EnrichedRow{
		Rank:         entry.Rank,
		ChartWeek:    week,
		PodcastName:  entry.PodcastName,
		PlaylistID:   playlistID,
		Video:        *video,
		Channel:      channel,
		CategoryName: categoryName,
	}
}
