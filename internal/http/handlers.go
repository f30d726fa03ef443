package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"boardview/internal/board"
	"boardview/internal/log"
)

// page is the data handed to every page template.
type page struct {
	Title     string
	Subtitle  string
	Active    string
	BoardID   string
	FetchedAt time.Time

	Cards      []*board.Card
	Groups     []group
	Highlights board.Highlights
	Attendance board.Attendance

	Empty string
	Error string
}

type group struct {
	Title string
	Link  string
	Cards []*board.Card
}

var errBadRequest = errors.New("bad request")

// viewFunc builds a page from a freshly fetched board.
type viewFunc func(r *http.Request, idx *board.Index) (string, page, error)

// view fetches the board, runs fn and renders the template it picks.
func (s *Server) view(fn viewFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s.appMetrics.boardFetches.Add(1)
		idx, err := s.source.Index(ctx)
		if err != nil {
			s.appMetrics.fetchErrors.Add(1)
			status := fetchStatus(err)
			s.slog.LogError(ctx, "Board fetch failed", err, log.ComponentBoard, log.OpFetch,
				log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "", ""))
			s.renderError(w, r, status, "The board could not be loaded right now.")
			return
		}

		name, p, err := fn(r, idx)
		if err != nil {
			status := viewStatus(err)
			if status >= http.StatusInternalServerError {
				s.slog.LogError(ctx, "View failed", err, log.ComponentBoard, log.OpBuild, nil)
			}
			s.renderError(w, r, status, errorMessage(status, err))
			return
		}

		p.BoardID = idx.BoardID
		p.FetchedAt = idx.FetchedAt
		s.render(w, r, http.StatusOK, name, p)
		s.slog.LogViewRendered(ctx, p.Active, countCards(p))
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, p); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", log.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error.html", page{
		Title:   http.StatusText(status),
		BoardID: s.source.BoardID(),
		Error:   msg,
	})
}

// fetchStatus maps a failed board fetch to a response status.
func fetchStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// viewStatus maps a view error to a response status.
func viewStatus(err error) int {
	switch {
	case errors.Is(err, board.ErrLabelNotFound), errors.Is(err, board.ErrMemberNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrInvalidMonth), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(status int, err error) string {
	if status >= http.StatusInternalServerError {
		if errors.Is(err, board.ErrListNotFound) {
			return "The board does not have the lists this dashboard expects: " + err.Error()
		}
		return "Something went wrong while building this page."
	}
	return err.Error()
}

func countCards(p page) int {
	n := len(p.Cards) + len(p.Highlights.Cards) + len(p.Attendance.Events)
	for _, g := range p.Groups {
		n += len(g.Cards)
	}
	return n
}

func labelGroups(groups []board.LabelGroup) []group {
	out := make([]group, 0, len(groups))
	for _, g := range groups {
		out = append(out, group{
			Title: g.Label.Name,
			Link:  "/labels/" + url.PathEscape(g.Label.Name),
			Cards: g.Cards,
		})
	}
	return out
}

func (s *Server) handleInProgress(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		cards, err := idx.InProgress()
		return "cards.html", page{Title: "In progress", Active: "in-progress", Cards: cards,
			Empty: "Nothing is in progress."}, err
	})(w, r)
}

func (s *Server) handleDone(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		cards, err := idx.Done()
		return "cards.html", page{Title: "Done", Active: "done", Cards: cards,
			Empty: "Nothing has been finished yet."}, err
	})(w, r)
}

func (s *Server) handleBacklog(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		cards, err := idx.Backlog()
		return "cards.html", page{Title: "Backlog", Active: "backlog", Cards: cards,
			Empty: "The backlog is empty."}, err
	})(w, r)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		window, err := parseDays(r, s.upcomingWindow)
		if err != nil {
			return "", page{}, err
		}
		days := int(window / (24 * time.Hour))
		return "cards.html", page{
			Title:    "Upcoming",
			Subtitle: fmt.Sprintf("Due in the next %d days", days),
			Active:   "upcoming",
			Cards:    idx.Upcoming(s.now().UTC(), window),
			Empty:    "Nothing is due soon.",
		}, nil
	})(w, r)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		groups, err := idx.OngoingActivities()
		return "groups.html", page{Title: "Ongoing activities", Active: "activity", Groups: labelGroups(groups),
			Empty: "No activity labels are in use."}, err
	})(w, r)
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		groups, err := idx.OngoingProducts()
		return "groups.html", page{Title: "Ongoing products", Active: "products", Groups: labelGroups(groups),
			Empty: "No product labels are in use."}, err
	})(w, r)
}

func (s *Server) handleEpics(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		groups, err := idx.Epics()
		return "groups.html", page{Title: "Epics", Active: "epics", Groups: labelGroups(groups),
			Empty: "No epic labels are in use."}, err
	})(w, r)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		return "groups.html", page{Title: "Labels", Active: "labels", Groups: labelGroups(idx.LabelGroups()),
			Empty: "The board has no labels."}, nil
	})(w, r)
}

func (s *Server) handleLabel(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		g, err := idx.ByLabel(r.PathValue("name"))
		if err != nil {
			return "", page{}, err
		}
		return "cards.html", page{
			Title:    g.Label.Name,
			Subtitle: "Label · " + string(g.Category),
			Active:   "labels",
			Cards:    g.Cards,
			Empty:    "No cards carry this label.",
		}, nil
	})(w, r)
}

func (s *Server) handleMembers(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		members := idx.MemberGroups()
		groups := make([]group, 0, len(members))
		for _, m := range members {
			groups = append(groups, group{
				Title: m.Member.FullName,
				Link:  "/members/" + url.PathEscape(m.Member.ID),
				Cards: m.Cards,
			})
		}
		return "groups.html", page{Title: "Members", Active: "members", Groups: groups,
			Empty: "The board has no members."}, nil
	})(w, r)
}

func (s *Server) handleMember(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		g, err := idx.ByMember(r.PathValue("id"))
		if err != nil {
			return "", page{}, err
		}
		return "cards.html", page{
			Title:    g.Member.FullName,
			Subtitle: "Open cards",
			Active:   "members",
			Cards:    g.Cards,
			Empty:    "Nothing assigned.",
		}, nil
	})(w, r)
}

func (s *Server) handleHighlights(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		year, month, err := parseYearMonth(r, s.now())
		if err != nil {
			return "", page{}, err
		}
		h, err := idx.MonthlyHighlights(year, month)
		if err != nil {
			return "", page{}, err
		}
		return "highlights.html", page{
			Title:      fmt.Sprintf("Highlights for %s %d", month, year),
			Active:     "highlights",
			Highlights: h,
		}, nil
	})(w, r)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	s.view(func(r *http.Request, idx *board.Index) (string, page, error) {
		year, month, err := parseYearMonth(r, s.now())
		if err != nil {
			return "", page{}, err
		}
		a, err := idx.EventAttendance(year, month)
		if err != nil {
			return "", page{}, err
		}
		title := "Events"
		if month != 0 {
			title = fmt.Sprintf("Events in %s %d", month, year)
		}
		return "events.html", page{Title: title, Active: "events", Attendance: a}, nil
	})(w, r)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "There is no page at "+r.URL.Path+".")
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady checks templates and that the board can be fetched.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if idx, err := s.source.Index(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness board check failed", log.FieldError, err)
		checks["board"] = "failed"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["board"] = map[string]any{
			"status": "ok",
			"cards":  len(idx.Cards()),
			"lists":  len(idx.Lists()),
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"board_id":  s.source.BoardID(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)
	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	writeMetric(w, "http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	writeMetric(w, "board_fetches_total", "counter", "Board fetches made for page views", s.appMetrics.boardFetches.Load())
	writeMetric(w, "board_fetch_errors_total", "counter", "Board fetches that failed", s.appMetrics.fetchErrors.Load())
	writeMetric(w, "rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	writeMetric(w, "blocked_methods_total", "counter", "Requests rejected for using a write method", securityMetrics.BlockedMethods)
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, v)
}
