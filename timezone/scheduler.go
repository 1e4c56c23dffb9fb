package timezone

import (
	"sync"
	"time"
)

const (
	// DefaultHour is the local hour greetings are sent at.
	DefaultHour = 9
	// DefaultWindow is how long after the hour a zone still counts as due.
	// It must cover at least one tick period or zones get skipped.
	DefaultWindow = 5 * time.Minute
)

// Scheduler decides which zones are due a greeting. It keeps a ledger of the
// last greeting per zone so each zone fires at most once per local day.
// The ledger lives in memory only.
type Scheduler struct {
	ledger map[string]time.Time
	zones  []Zone
	window time.Duration
	hour   int
	mu     sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHour sets the local target hour (0-23).
func WithHour(hour int) Option {
	return func(s *Scheduler) { s.hour = hour }
}

// WithWindow sets the acceptance window after the target hour starts.
func WithWindow(window time.Duration) Option {
	return func(s *Scheduler) { s.window = window }
}

// NewScheduler creates a scheduler over zones, evaluated in the given order.
func NewScheduler(zones []Zone, opts ...Option) *Scheduler {
	s := &Scheduler{
		ledger: make(map[string]time.Time),
		zones:  zones,
		window: DefaultWindow,
		hour:   DefaultHour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick returns the display names of zones that became due at now, in catalog
// order, and records them as greeted.
func (s *Scheduler) Tick(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []string
	for _, z := range s.zones {
		local := now.In(z.Location)
		if !s.inWindow(local) {
			continue
		}
		if last, ok := s.ledger[z.Name]; ok && sameDay(last.In(z.Location), local) {
			continue
		}
		s.ledger[z.Name] = local
		due = append(due, z.Display)
	}
	return due
}

// LastGreeted reports when zone was last greeted, in the zone's local time.
func (s *Scheduler) LastGreeted(zone string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.ledger[zone]
	return t, ok
}

// NextGreeting returns the next start of the target hour in z strictly after now.
func (s *Scheduler) NextGreeting(z Zone, now time.Time) time.Time {
	local := now.In(z.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, z.Location)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, 0, 0, 0, z.Location)
	}
	return next
}

func (s *Scheduler) inWindow(local time.Time) bool {
	if local.Hour() != s.hour {
		return false
	}
	into := time.Duration(local.Minute())*time.Minute + time.Duration(local.Second())*time.Second
	return into < s.window
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
