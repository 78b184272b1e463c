package flights

import (
	"time"

	"github.com/cruzdariel/Sendy/pkg/logger"
)

func logFilterBound(side, value string) {
	logger.Warn("ignoring unparseable date filter bound", "side", side, "value", value)
}

// boundLayouts are the formats accepted for filter bound strings. The UI
// sends ISO dates; the export's own m/d/yy form is accepted as well.
var boundLayouts = []string{"2006-01-02", "1/2/2006", "1/2/06"}

func parseBound(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range boundLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FilterByDateRange narrows records to an inclusive [startDate, endDate]
// window on the Date column. An empty bound means no bound on that side; a
// bound that fails to parse is treated the same way rather than erroring,
// so malformed input degrades to a wider result, never a failure. With no
// effective bounds the input slice is returned unchanged. Records whose
// own Date is unparseable are kept when no bound is active and excluded
// when one is, since they cannot be ordered against a bound.
func FilterByDateRange(records []Record, startDate, endDate string) []Record {
	start, hasStart := parseBound(startDate)
	if startDate != "" && !hasStart {
		logFilterBound("start", startDate)
	}
	end, hasEnd := parseBound(endDate)
	if endDate != "" && !hasEnd {
		logFilterBound("end", endDate)
	}

	if !hasStart && !hasEnd {
		return records
	}

	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		// A record whose Date failed to parse has the zero time and cannot
		// be placed in the window, so it is excluded once any bound is
		// active. With no bounds it stays, via the early return above.
		if r.Date.IsZero() {
			continue
		}
		if hasStart && r.Date.Before(start) {
			continue
		}
		if hasEnd && r.Date.After(end) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
