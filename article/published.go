package article

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// displayLayout renders dates as "June 15 2025".
const displayLayout = "January 2 2006"

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// ParsePublished normalises the publication timestamp encodings found in
// stored documents. Unknown shapes report no date rather than an error.
func ParsePublished(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case map[string]any:
		return parseTimestampMap(t)
	case RawDocument:
		return parseTimestampMap(t)
	case int:
		return time.UnixMilli(int64(t)).UTC(), true
	case int64:
		return time.UnixMilli(t).UTC(), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(t)).UTC(), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(f)).UTC(), true
	case string:
		return parsePublishedString(t)
	default:
		return time.Time{}, false
	}
}

// FormatPublished renders t in the display form used by article headers.
func FormatPublished(t time.Time) string {
	return t.Format(displayLayout)
}

// FormatISO renders t for structured metadata.
func FormatISO(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestampMap(m map[string]any) (time.Time, bool) {
	secs, ok := numberValue(m["seconds"])
	if !ok {
		secs, ok = numberValue(m["_seconds"])
	}
	if !ok {
		return time.Time{}, false
	}
	nanos, found := numberValue(m["nanoseconds"])
	if !found {
		nanos, _ = numberValue(m["_nanoseconds"])
	}
	return time.Unix(int64(secs), int64(nanos)).UTC(), true
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// parsePublishedString accepts ISO timestamps, epoch-millisecond strings and
// display strings such as "June 15, 2025 at 10:00:00 AM UTC+2", of which only
// the part before " at " is used.
func parsePublishedString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	if i := strings.Index(s, " at "); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
