// Package chart loads weekly podcast chart snapshots and turns chart entries
// into playlist references.
package chart

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/podtrends/chartbuilder/model"
)

// Timeline is the full snapshot collection, keyed by week label. Week labels
// are free-text date ranges such as "May 5 - May 11, 2025" and are not
// lexicographically sortable.
type Timeline map[string][]model.ChartEntry

// timelineRecord is the flat legacy form of the timeline file, one record per
// chart placement with the week label repeated on every record.
type timelineRecord struct {
	ChartDate  string `json:"Chart Date"`
	Rank       string `json:"Rank"`
	Name       string `json:"Name"`
	ChannelURL string `json:"Channel URL"`
}

// Load reads the snapshot collection from path. It accepts both the keyed
// form (week label -> entries) and the flat legacy timeline form. Entries
// missing a required field are rejected with a warning; an empty or
// unparseable file is a data error.
func Load(path string) (Timeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrData, path, err)
	}

	tl, err := parseTimeline(raw)
	if err != nil {
		return nil, err
	}
	if len(tl) == 0 {
		return nil, fmt.Errorf("%w: no chart weeks in %s", model.ErrData, path)
	}

	log.Info().Int("weeks", len(tl)).Str("path", path).Msg("Loaded chart snapshot collection")
	return tl, nil
}

func parseTimeline(raw []byte) (Timeline, error) {
	var keyed map[string][]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err == nil {
		tl := make(Timeline, len(keyed))
		for week, items := range keyed {
			entries := validateEntries(week, items)
			if len(entries) > 0 {
				tl[week] = entries
			}
		}
		return tl, nil
	}

	var flat []timelineRecord
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: snapshot file is neither a week map nor a timeline array: %v", model.ErrData, err)
	}

	tl := make(Timeline)
	for _, rec := range flat {
		if rec.ChartDate == "" {
			log.Warn().Str("name", rec.Name).Msg("Rejecting timeline record without a chart date")
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(rec.Rank))
		if err != nil || rank < 1 || rec.Name == "" {
			log.Warn().Str("week", rec.ChartDate).Str("rank", rec.Rank).Str("name", rec.Name).
				Msg("Rejecting malformed timeline record")
			continue
		}
		tl[rec.ChartDate] = append(tl[rec.ChartDate], model.ChartEntry{
			Rank:        rank,
			PodcastName: rec.Name,
			ChannelRef:  rec.ChannelURL,
		})
	}
	for week := range tl {
		sortByRank(tl[week])
	}
	return tl, nil
}

func validateEntries(week string, items []json.RawMessage) []model.ChartEntry {
	entries := make([]model.ChartEntry, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		var e model.ChartEntry
		if err := json.Unmarshal(item, &e); err != nil || e.Rank < 1 || e.PodcastName == "" || e.ChannelRef == "" {
			log.Warn().Str("week", week).Int("rank", e.Rank).Str("name", e.PodcastName).
				Msg("Rejecting chart entry with missing fields")
			continue
		}
		if seen[e.Rank] {
			log.Warn().Str("week", week).Int("rank", e.Rank).Msg("Rejecting chart entry with duplicate rank")
			continue
		}
		seen[e.Rank] = true
		entries = append(entries, e)
	}
	sortByRank(entries)
	return entries
}

func sortByRank(entries []model.ChartEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Rank < entries[j].Rank
	})
}

// WeekEndDate parses the end date out of a week-range label like
// "May 5 - May 11, 2025". Labels that do not parse sort before everything
// else (zero time).
func WeekEndDate(label string) time.Time {
	parts := strings.SplitN(label, " - ", 2)
	if len(parts) != 2 {
		return time.Time{}
	}
	t, err := time.Parse("Jan 2, 2006", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}
	}
	return t
}

// SelectLatest picks the most recent snapshot from the collection, ordered by
// the caller-supplied key. Weeks whose entries carry no channel references at
// all are ignored: they predate the chart format that links entries to
// channels and cannot be enriched.
func SelectLatest(tl Timeline, orderKey func(label string) time.Time) (model.ChartSnapshot, error) {
	if len(tl) == 0 {
		return model.ChartSnapshot{}, fmt.Errorf("%w: empty snapshot collection", model.ErrData)
	}

	var best string
	var bestKey time.Time
	for week, entries := range tl {
		if !hasChannelRefs(entries) {
			continue
		}
		if key := orderKey(week); best == "" || key.After(bestKey) {
			best, bestKey = week, key
		}
	}
	if best == "" {
		return model.ChartSnapshot{}, fmt.Errorf("%w: no chart week carries channel references", model.ErrData)
	}

	log.Info().Str("week", best).Int("entries", len(tl[best])).Msg("Selected latest chart week")
	return model.ChartSnapshot{WeekLabel: best, Entries: tl[best]}, nil
}

// SelectWeek returns the named snapshot, failing with the available labels
// when it does not exist.
func SelectWeek(tl Timeline, week string) (model.ChartSnapshot, error) {
	entries, ok := tl[week]
	if !ok {
		available := make([]string, 0, len(tl))
		for w := range tl {
			available = append(available, w)
		}
		sort.Strings(available)
		return model.ChartSnapshot{}, fmt.Errorf("%w: chart week %q not found, available: %s",
			model.ErrData, week, strings.Join(available, "; "))
	}
	return model.ChartSnapshot{WeekLabel: week, Entries: entries}, nil
}

// TopN truncates the snapshot to its first n entries in rank order.
func TopN(s model.ChartSnapshot, n int) ([]model.ChartEntry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: top-n must be positive, got %d", model.ErrConfig, n)
	}
	if n > len(s.Entries) {
		n = len(s.Entries)
	}
	return s.Entries[:n], nil
}

func hasChannelRefs(entries []model.ChartEntry) bool {
	for _, e := range entries {
		if e.ChannelRef != "" {
			return true
		}
	}
	return false
}
