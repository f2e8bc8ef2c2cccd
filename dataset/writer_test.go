package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/podtrends/chartbuilder/model"
)

func validRow() model.EnrichedRow {
	subs := int64(5000)
	vps := 2.5
	return model.EnrichedRow{
		Rank:        1,
		ChartWeek:   "May 5 - May 11, 2025",
		PodcastName: "Show",
		PlaylistID:  "PL1",
		Video: model.VideoRecord{
			ID:          "v1",
			Title:       "An Episode",
			PublishedAt: time.Date(2025, 5, 1, 10, 30, 0, 0, time.UTC),
			Duration:    "PT1H5M",
			ViewCount:    12500,
			LikeCount:    300,
			CommentCount: 45,
			Tags:         []string{"podcast", "interview"},
			CategoryID:   "22",
			ChannelID:    "ch1",
		},
		Channel:      &model.ChannelRecord{ID: "ch1", Title: "Channel One", SubscriberCount: &subs},
		CategoryName: "People & Blogs",
		AgeDays:      31,
		DurationMin:  65.0,
		ViewsPerDay:  403.2,
		ViewsPerSub:  &vps,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write([]model.EnrichedRow{validRow()}, path))

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, Columns, records[0])

	row := records[1]
	require.Len(t, row, len(Columns))
	assert.Equal(t, "1", row[0])
	assert.Equal(t, "May 5 - May 11, 2025", row[1])
	assert.Equal(t, "PL1", row[3])
	assert.Equal(t, "ch1", row[4])
	assert.Equal(t, "Channel One", row[5])
	assert.Equal(t, "5000", row[6])
	assert.Equal(t, "v1", row[7])
	assert.Equal(t, "2025-05-01T10:30:00Z", row[9])
	assert.Equal(t, "PT1H5M", row[10])
	assert.Equal(t, "65", row[11])
	assert.Equal(t, "2.5", row[17])
	assert.Equal(t, `["podcast","interview"]`, row[29])
	assert.Equal(t, "22", row[30])
	assert.Equal(t, "People & Blogs", row[31])
}

func TestWriteNullFieldsStayEmpty(t *testing.T) {
	row := validRow()
	row.Channel = nil
	row.CategoryName = ""
	row.ViewsPerSub = nil
	row.Video.Tags = nil

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write([]model.EnrichedRow{row}, path))

	records := readCSV(t, path)
	got := records[1]
	assert.Empty(t, got[5], "channel_title")
	assert.Empty(t, got[6], "channel_subscribers")
	assert.Empty(t, got[17], "views_per_sub")
	assert.Empty(t, got[29], "tags_json")
	assert.Empty(t, got[31], "category_name")
}

func TestWriteSchemaErrorWritesNothing(t *testing.T) {
	bad := validRow()
	bad.Video.ID = ""

	path := filepath.Join(t.TempDir(), "out.csv")
	err := Write([]model.EnrichedRow{validRow(), bad}, path)
	require.ErrorIs(t, err, model.ErrSchema)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "a schema error must not leave a partial file behind")
}

func TestWriteCreatesOutputDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.csv")
	require.NoError(t, Write([]model.EnrichedRow{validRow()}, path))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteEmptyRowSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write(nil, path))

	records := readCSV(t, path)
	require.Len(t, records, 1, "header only")
	assert.Equal(t, Columns, records[0])
}
