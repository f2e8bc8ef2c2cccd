package chart

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/podtrends/chartbuilder/model"
)

// Extract parses an entry's channel reference URL into a playlist reference.
// Patterns are tried in a fixed priority order: an explicit playlist id in
// the query string first, a channel id in the path second, and an @handle
// last, because handles need an extra resolution call before any items can
// be listed. A reference matching none of the shapes returns nil and one
// warning; this is expected for malformed chart data and never retried.
func Extract(entry model.ChartEntry) *model.PlaylistRef {
	parsed, err := url.Parse(entry.ChannelRef)
	if err != nil {
		log.Warn().Int("rank", entry.Rank).Str("podcast", entry.PodcastName).
			Str("reference", entry.ChannelRef).Msg("Channel reference is not a valid URL")
		return nil
	}

	if id := parsed.Query().Get("list"); id != "" {
		return &model.PlaylistRef{PlaylistID: id, Entry: entry}
	}

	if id := channelPathID(parsed.Path); id != "" {
		// A channel's uploads playlist id is its channel id with the "UC"
		// prefix swapped for "UU".
		return &model.PlaylistRef{PlaylistID: "UU" + id[2:], Entry: entry}
	}

	for _, seg := range strings.Split(parsed.Path, "/") {
		if strings.HasPrefix(seg, "@") && len(seg) > 1 {
			return &model.PlaylistRef{Handle: seg, Entry: entry}
		}
	}

	log.Warn().Int("rank", entry.Rank).Str("podcast", entry.PodcastName).
		Str("reference", entry.ChannelRef).Msg("Could not extract a playlist id from channel reference")
	return nil
}

func channelPathID(path string) string {
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if seg != "channel" || i+1 >= len(segs) {
			continue
		}
		id := segs[i+1]
		if strings.HasPrefix(id, "UC") && len(id) > 2 {
			return id
		}
	}
	return ""
}
