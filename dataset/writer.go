package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/podtrends/chartbuilder/model"
)

// Columns is the fixed output column order. The serializer never reorders or
// omits columns.
var Columns = []string{
	"rank", "chart_week", "podcast_name", "playlist_id", "channel_id",
	"channel_title", "channel_subscribers", "video_id", "title",
	"published_at", "duration_iso8601", "duration_min", "view_count",
	"like_count", "comment_count", "age_days", "views_per_day",
	"views_per_sub", "title_len_chars", "title_len_words", "has_question",
	"has_exclaim", "has_vs", "has_colon", "has_brackets",
	"num_tokens_numeric", "num_all_caps_words", "starts_with_quote",
	"ends_with_ellipsis", "tags_json", "category_id", "category_name",
}

// Write serializes all rows to a CSV file at path in one shot. Every row is
// validated before the file is touched; a row missing a required field fails
// the whole write with a schema error instead of silently emitting a sparse
// row.
func Write(rows []model.EnrichedRow, path string) error {
	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		rec, err := record(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing CSV output: %w", err)
	}

	log.Info().Int("rows", len(records)).Str("path", path).Msg("Wrote dataset")
	return nil
}

// record serializes one row in column order. Unknown channel and category
// fields become empty cells.
func record(row model.EnrichedRow) ([]string, error) {
	switch {
	case row.Video.ID == "":
		return nil, fmt.Errorf("%w: missing video_id", model.ErrSchema)
	case row.Rank < 1:
		return nil, fmt.Errorf("%w: missing rank for video %s", model.ErrSchema, row.Video.ID)
	case row.PlaylistID == "":
		return nil, fmt.Errorf("%w: missing playlist_id for video %s", model.ErrSchema, row.Video.ID)
	case row.Video.PublishedAt.IsZero():
		return nil, fmt.Errorf("%w: missing published_at for video %s", model.ErrSchema, row.Video.ID)
	}

	channelTitle := ""
	channelSubs := ""
	if row.Channel != nil {
		channelTitle = row.Channel.Title
		if row.Channel.SubscriberCount != nil {
			channelSubs = strconv.FormatInt(*row.Channel.SubscriberCount, 10)
		}
	}

	viewsPerSub := ""
	if row.ViewsPerSub != nil {
		viewsPerSub = formatFloat(*row.ViewsPerSub)
	}

	tagsJSON := ""
	if len(row.Video.Tags) > 0 {
		b, err := json.Marshal(row.Video.Tags)
		if err != nil {
			return nil, fmt.Errorf("encoding tags for video %s: %w", row.Video.ID, err)
		}
		tagsJSON = string(b)
	}

	return []string{
		strconv.Itoa(row.Rank),
		row.ChartWeek,
		row.PodcastName,
		row.PlaylistID,
		row.Video.ChannelID,
		channelTitle,
		channelSubs,
		row.Video.ID,
		row.Video.Title,
		row.Video.PublishedAt.Format(time.RFC3339),
		row.Video.Duration,
		formatFloat(row.DurationMin),
		strconv.FormatInt(row.Video.ViewCount, 10),
		strconv.FormatInt(row.Video.LikeCount, 10),
		strconv.FormatInt(row.Video.CommentCount, 10),
		strconv.FormatInt(row.AgeDays, 10),
		formatFloat(row.ViewsPerDay),
		viewsPerSub,
		strconv.Itoa(row.Title.LenChars),
		strconv.Itoa(row.Title.LenWords),
		strconv.FormatBool(row.Title.HasQuestion),
		strconv.FormatBool(row.Title.HasExclaim),
		strconv.FormatBool(row.Title.HasVs),
		strconv.FormatBool(row.Title.HasColon),
		strconv.FormatBool(row.Title.HasBrackets),
		strconv.Itoa(row.Title.NumNumericTokens),
		strconv.Itoa(row.Title.NumAllCapsWords),
		strconv.FormatBool(row.Title.StartsWithQuote),
		strconv.FormatBool(row.Title.EndsWithEllipsis),
		tagsJSON,
		row.Video.CategoryID,
		row.CategoryName,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
