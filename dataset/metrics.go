package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/podtrends/chartbuilder/model"
)

// Calculator computes derived metrics against a reference instant captured
// once per run, so a long run produces consistent age values across all
// rows.
type Calculator struct {
	now time.Time
}

// NewCalculator creates a calculator pinned to the given reference instant.
func NewCalculator(now time.Time) *Calculator {
	return &Calculator{now: now}
}

// Apply fills in all derived metric fields of the row. It is deterministic:
// applying it twice to the same row yields identical values.
func (c *Calculator) Apply(row *model.EnrichedRow) {
	row.AgeDays = c.ageDays(row.Video.PublishedAt)
	row.DurationMin = ParseDurationMinutes(row.Video.Duration)
	row.ViewsPerDay = float64(row.Video.ViewCount) / float64(row.AgeDays)
	row.ViewsPerSub = viewsPerSub(row.Video.ViewCount, row.Channel)
	row.Title = AnalyzeTitle(row.Video.Title)
}

// ageDays is the whole number of days between publication and the reference
// instant, floored at 1 so same-day publications never divide by zero.
func (c *Calculator) ageDays(published time.Time) int64 {
	days := int64(c.now.Sub(published).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// viewsPerSub is views divided by subscribers when the subscriber count is
// known and positive, nil otherwise. Never a zero division, never a
// fabricated zero.
func viewsPerSub(views int64, channel *model.ChannelRecord) *float64 {
	if channel == nil || channel.SubscriberCount == nil || *channel.SubscriberCount <= 0 {
		return nil
	}
	ratio := float64(views) / float64(*channel.SubscriberCount)
	return &ratio
}

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDurationMinutes converts an ISO-8601 style duration ("PT1H5M33S")
// into minutes. A string with no recognizable component yields 0.0 rather
// than an error; malformed durations are common on live content and must
// not block the row.
func ParseDurationMinutes(iso string) float64 {
	m := durationPattern.FindStringSubmatch(iso)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return 0.0
	}
	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))
	return float64(hours)*60 + float64(minutes) + float64(seconds)/60
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

var (
	vsPattern      = regexp.MustCompile(`(?i)\bvs\.?\b`)
	numberPattern  = regexp.MustCompile(`\b\d+\b`)
	bracketPattern = regexp.MustCompile(`[\[\](){}]`)
)

// AnalyzeTitle computes the title-analysis flags. All checks run on the raw
// title as received; only the "vs" token check ignores case, and the
// all-caps count inspects case by definition.
func AnalyzeTitle(title string) model.TitleStats {
	words := strings.Fields(title)

	caps := 0
	for _, w := range words {
		if isAllCapsWord(w) {
			caps++
		}
	}

	return model.TitleStats{
		LenChars:         utf8.RuneCountInString(title),
		LenWords:         len(words),
		HasQuestion:      strings.Contains(title, "?"),
		HasExclaim:       strings.Contains(title, "!"),
		HasVs:            vsPattern.MatchString(title),
		HasColon:         strings.Contains(title, ":"),
		HasBrackets:      bracketPattern.MatchString(title),
		NumNumericTokens: len(numberPattern.FindAllString(title, -1)),
		NumAllCapsWords:  caps,
		StartsWithQuote:  strings.HasPrefix(title, `"`) || strings.HasPrefix(title, "“"),
		EndsWithEllipsis: strings.HasSuffix(title, "...") || strings.HasSuffix(title, "…"),
	}
}

// isAllCapsWord reports whether a word counts toward the all-caps metric:
// longer than one rune to exclude single-letter words like "A", at least one
// letter, and no lowercase letters.
func isAllCapsWord(w string) bool {
	if utf8.RuneCountInString(w) <= 1 {
		return false
	}
	hasLetter := false
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasLetter
}
