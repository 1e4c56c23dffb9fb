package server

import (
	"net/http"
	"time"
)

type zoneRow struct {
	Name         string
	Display      string
	LocalTime    string
	NextGreeting string
	GreetedToday bool
}

type statusPage struct {
	Now         time.Time
	Zones       []zoneRow
	Watermark   int64
	Subscribers int
	Greeted     int
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")

	if err := templates.ExecuteTemplate(w, "status.tmpl", s.status(s.now())); err != nil {
		s.logger.Error("Failed to render template", "template", "status.tmpl", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) status(now time.Time) statusPage {
	page := statusPage{
		Now:         now.UTC(),
		Subscribers: s.subscribers.Len(),
		Watermark:   s.poller.Watermark(),
		Zones:       make([]zoneRow, 0, len(s.zones)),
	}

	for _, z := range s.zones {
		local := now.In(z.Location)
		row := zoneRow{
			Name:         z.Name,
			Display:      z.Display,
			LocalTime:    local.Format("Mon 15:04 MST"),
			NextGreeting: s.scheduler.NextGreeting(z, now).UTC().Format("2006-01-02 15:04"),
		}
		if last, ok := s.scheduler.LastGreeted(z.Name); ok {
			last = last.In(z.Location)
			ly, lm, ld := last.Date()
			y, m, d := local.Date()
			row.GreetedToday = ly == y && lm == m && ld == d
		}
		if row.GreetedToday {
			page.Greeted++
		}
		page.Zones = append(page.Zones, row)
	}
	return page
}
