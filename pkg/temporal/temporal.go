// Package temporal turns relative time phrases found in free text into
// concrete time windows.
package temporal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Counts past these are clamped so the window stays representable.
const (
	maxWeeks = 520
	maxDays  = 3650
)

var (
	weeksAgoPattern = regexp.MustCompile(`(\d+)\s*weeks?\s*ago`)
	daysAgoPattern  = regexp.MustCompile(`(\d+)\s*days?\s*ago`)
)

// Window is a half-open time range [Start, End) derived from a phrase.
type Window struct {
	Reference string    `json:"reference"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// String renders the window for logs.
func (w Window) String() string {
	return fmt.Sprintf("%s [%s, %s)", w.Reference, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// Parse looks for a relative time phrase in text and resolves it against now.
// Rules are tried in priority order and the first match wins. The second
// return value is false when the text carries no recognised phrase.
func Parse(text string, now time.Time) (Window, bool) {
	lower := strings.ToLower(text)

	if n, ok := leadingCount(weeksAgoPattern, lower); ok {
		center := now.Add(-time.Duration(min(n, maxWeeks)) * 7 * day)
		half := 84 * time.Hour
		return Window{
			Reference: fmt.Sprintf("%d weeks ago", n),
			Start:     center.Add(-half),
			End:       center.Add(half),
		}, true
	}

	if n, ok := leadingCount(daysAgoPattern, lower); ok {
		center := now.Add(-time.Duration(min(n, maxDays)) * day)
		half := 12 * time.Hour
		return Window{
			Reference: fmt.Sprintf("%d days ago", n),
			Start:     center.Add(-half),
			End:       center.Add(half),
		}, true
	}

	switch {
	case strings.Contains(lower, "last week"):
		return Window{Reference: "last week", Start: now.Add(-14 * day), End: now.Add(-7 * day)}, true
	case strings.Contains(lower, "last month"):
		return Window{Reference: "last month", Start: now.Add(-30 * day), End: now}, true
	case strings.Contains(lower, "yesterday"):
		return Window{Reference: "yesterday", Start: now.Add(-2 * day), End: now.Add(-day)}, true
	}

	return Window{}, false
}

func leadingCount(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
