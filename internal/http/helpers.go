package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// parseYearMonth reads year and month from the query, defaulting to the
// current UTC month. A month of 0 is passed through so callers can treat
// it as "all months".
func parseYearMonth(r *http.Request, now time.Time) (year int, month time.Month, err error) {
	now = now.UTC()
	year, month = now.Year(), now.Month()

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, convErr := strconv.Atoi(v)
		if convErr != nil || y < 1 || y > 9999 {
			return 0, 0, fmt.Errorf("%w: year %q", errBadRequest, v)
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, 0, fmt.Errorf("%w: month %q", errBadRequest, v)
		}
		month = time.Month(m)
	}
	return year, month, nil
}

// parseDays reads the optional days parameter of the upcoming view.
func parseDays(r *http.Request, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(r.URL.Query().Get("days"))
	if v == "" {
		return def, nil
	}
	d, err := strconv.Atoi(v)
	if err != nil || d < 1 || d > 365 {
		return 0, fmt.Errorf("%w: days must be between 1 and 365, got %q", errBadRequest, v)
	}
	return time.Duration(d) * 24 * time.Hour, nil
}
