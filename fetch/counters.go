package fetch

import "sync/atomic"

// Counters track outbound API calls per endpoint across one run. All fields
// are updated atomically so the concurrent playlist variant needs no extra
// locking.
type Counters struct {
	PlaylistItems atomic.Int64
	Videos        atomic.Int64
	Channels      atomic.Int64
	Categories    atomic.Int64
}

// Snapshot returns the current counter values as a plain struct for the run
// summary.
func (c *Counters) Snapshot() CallTotals {
	return CallTotals{
		PlaylistItems: c.PlaylistItems.Load(),
		Videos:        c.Videos.Load(),
		Channels:      c.Channels.Load(),
		Categories:    c.Categories.Load(),
	}
}

// CallTotals is an immutable snapshot of Counters.
type CallTotals struct {
	PlaylistItems int64 `json:"playlist_items"`
	Videos        int64 `json:"videos"`
	Channels      int64 `json:"channels"`
	Categories    int64 `json:"categories"`
}
