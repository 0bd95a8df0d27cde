package quotes

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lfarina18/metafar-challenge/internal/market"
)

// Mode is the detail view's data mode.
type Mode int

const (
	ModeRealtimeActive Mode = iota
	ModeRealtimePaused
	ModeHistorical
)

func (m Mode) String() string {
	switch m {
	case ModeRealtimeActive:
		return "realtime-active"
	case ModeRealtimePaused:
		return "realtime-paused"
	case ModeHistorical:
		return "historical"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Realtime reports whether m is one of the real-time modes.
func (m Mode) Realtime() bool { return m != ModeHistorical }

var (
	ErrInvalidTransition = errors.New("quotes: invalid mode transition")
	ErrDatesLocked       = errors.New("quotes: dates are only editable in historical mode")
	ErrInvalidRange      = errors.New("quotes: end is before start")
)

// Preferences is the submitted preference form.
type Preferences struct {
	Interval market.Interval
	Start    time.Time
	End      time.Time
	Realtime bool
}

// Session is the state of one symbol's detail view. It starts in
// real-time mode at the default interval. Safe for concurrent use.
type Session struct {
	symbol string
	hours  MarketHours
	now    func() time.Time

	mu       sync.Mutex
	mode     Mode
	interval market.Interval
	start    time.Time
	end      time.Time
	changed  chan struct{}
}

// NewSession starts a session in ModeRealtimeActive. A nil now uses
// time.Now.
func NewSession(symbol string, hours MarketHours, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{
		symbol:   symbol,
		hours:    hours,
		now:      now,
		mode:     ModeRealtimeActive,
		interval: market.DefaultInterval,
		changed:  make(chan struct{}),
	}
	s.start, s.end = hours.RealtimeRange(now())
	return s
}

func (s *Session) Symbol() string { return s.symbol }

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Changed returns a channel closed on the next state change.
func (s *Session) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// notifyLocked wakes current waiters. s.mu is held.
func (s *Session) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// SetRealtime switches between real-time and historical mode. Turning it
// on resets the dates to the real-time window and discards edited dates.
func (s *Session) SetRealtime(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setRealtimeLocked(on) {
		s.notifyLocked()
	}
}

func (s *Session) setRealtimeLocked(on bool) bool {
	if !on {
		if s.mode == ModeHistorical {
			return false
		}
		s.mode = ModeHistorical
		return true
	}
	start, end := s.hours.RealtimeRange(s.now())
	if s.mode == ModeRealtimeActive && s.start.Equal(start) && s.end.Equal(end) {
		return false
	}
	s.mode = ModeRealtimeActive
	s.start, s.end = start, end
	return true
}

// Pause stops polling. Only valid in ModeRealtimeActive.
func (s *Session) Pause() error {
	return s.transition(ModeRealtimeActive, ModeRealtimePaused)
}

// Resume restarts polling. Only valid in ModeRealtimePaused.
func (s *Session) Resume() error {
	return s.transition(ModeRealtimePaused, ModeRealtimeActive)
}

func (s *Session) transition(from, to Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != from {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.mode, to)
	}
	s.mode = to
	s.notifyLocked()
	return nil
}

// SetInterval changes the chart interval in any mode.
func (s *Session) SetInterval(interval market.Interval) error {
	if !interval.Valid() {
		return fmt.Errorf("unsupported interval %q", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interval == interval {
		return nil
	}
	s.interval = interval
	s.notifyLocked()
	return nil
}

// SetRange edits the dates. Only valid in ModeHistorical.
func (s *Session) SetRange(start, end time.Time) error {
	if end.Before(start) {
		return ErrInvalidRange
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeHistorical {
		return ErrDatesLocked
	}
	s.start, s.end = start, end
	s.notifyLocked()
	return nil
}

// Apply submits the preference form in one step. Dates are ignored when
// p.Realtime is set.
func (s *Session) Apply(p Preferences) error {
	interval := p.Interval
	if interval == "" {
		interval = market.DefaultInterval
	}
	if !interval.Valid() {
		return fmt.Errorf("unsupported interval %q", interval)
	}
	if !p.Realtime && !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return ErrInvalidRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
	s.setRealtimeLocked(p.Realtime)
	if !p.Realtime {
		s.start, s.end = p.Start, p.End
	}
	s.notifyLocked()
	return nil
}

// Options returns the quote options for the current state. In real-time
// modes the window is recomputed from the clock.
func (s *Session) Options() QuoteOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := QuoteOptions{
		Symbol:   s.symbol,
		Interval: s.interval,
		Start:    s.start,
		End:      s.end,
		Realtime: s.mode.Realtime(),
		Paused:   s.mode == ModeRealtimePaused,
	}
	if opts.Realtime {
		opts.Start, opts.End = s.hours.RealtimeRange(s.now())
		s.start, s.end = opts.Start, opts.End
	}
	return opts
}
