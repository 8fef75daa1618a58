// Package study keeps a highlighted subtitle in step with an external player
// clock and layers seek, repeat and rate controls on top of it.
//
// State is a plain value: every transition returns a new State and leaves the
// receiver untouched. Session owns one State plus the player, the loop task
// and the paused-state poller, and publishes every new State on its EventBus.
package study

import (
	"sort"
	"strconv"

	"github.com/subtitle-study/app/internal/models"
)

// NoHighlight marks the absence of a highlighted entry.
const NoHighlight = -1

// Phase is the coarse state of a study session.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseLoaded        Phase = "loaded"
	PhaseSyncSuspended Phase = "sync_suspended"
	PhaseRepeating     Phase = "repeating"
)

// Rate is a discrete playback rate.
type Rate float64

const (
	RateNormal Rate = 1.0
	RateFast   Rate = 1.25
	RateSlow   Rate = 0.75
)

// Next returns the rate after r in the normal, fast, slow cycle.
func (r Rate) Next() Rate {
	switch r {
	case RateNormal:
		return RateFast
	case RateFast:
		return RateSlow
	default:
		return RateNormal
	}
}

// RepeatSession is a bounded loop over one entry.
type RepeatSession struct {
	AnchorIndex  int
	LoopStart    float64
	LoopDuration float64
	Active       bool
}

// State is one immutable snapshot of a study session.
type State struct {
	Entries       []models.SubtitleEntry
	Current       int
	Position      float64
	SyncSuspended bool
	Repeat        RepeatSession
	Paused        bool
	Rate          Rate
	Pending       map[int]struct{}
	Loading       bool
	ErrorMessage  string
}

// NewState returns an idle state.
func NewState() State {
	return State{Current: NoHighlight, Rate: RateNormal}
}

// Phase derives the session phase.
func (s State) Phase() Phase {
	switch {
	case len(s.Entries) == 0:
		return PhaseIdle
	case s.Repeat.Active:
		return PhaseRepeating
	case s.SyncSuspended:
		return PhaseSyncSuspended
	}
	return PhaseLoaded
}

// HasHighlight reports whether an entry is highlighted.
func (s State) HasHighlight() bool {
	return s.Current != NoHighlight
}

// clone copies the slices and maps so that transitions never alias the receiver.
func (s State) clone() State {
	if s.Entries != nil {
		s.Entries = append([]models.SubtitleEntry(nil), s.Entries...)
	}
	if s.Pending != nil {
		p := make(map[int]struct{}, len(s.Pending))
		for id := range s.Pending {
			p[id] = struct{}{}
		}
		s.Pending = p
	}
	return s
}

// WithEntries replaces the subtitle list wholesale. Entries are ordered by
// ascending id; entries without an id get their 1-based position as id first.
// Any repeat and sync suspension is dropped and the highlight is recomputed
// from the last known position.
func (s State) WithEntries(entries []models.SubtitleEntry) State {
	next := s.clone()
	next.Entries = append([]models.SubtitleEntry(nil), entries...)
	for i := range next.Entries {
		if next.Entries[i].ID == 0 {
			next.Entries[i].ID = i + 1
		}
	}
	sort.SliceStable(next.Entries, func(i, j int) bool {
		return next.Entries[i].ID < next.Entries[j].ID
	})
	next.Repeat = RepeatSession{}
	next.SyncSuspended = false
	next.Current = highlightIndex(next.Entries, next.Position)
	return next
}

// highlightIndex returns i with entries[i].Start <= t < entries[i+1].Start for
// i in [0, len-2]. The final entry has no successor and is never returned.
func highlightIndex(entries []models.SubtitleEntry, t float64) int {
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Start <= t && t < entries[i+1].Start {
			return i
		}
	}
	return NoHighlight
}

// Highlight records a playback position and, unless tracking is suspended or
// a repeat loop holds the highlight, recomputes the highlighted index.
func (s State) Highlight(seconds float64) State {
	next := s.clone()
	next.Position = seconds
	if next.SyncSuspended || next.Repeat.Active {
		return next
	}
	next.Current = highlightIndex(next.Entries, seconds)
	return next
}

// ToggleSync suspends or resumes highlight tracking. It is a no-op while idle.
func (s State) ToggleSync() State {
	if len(s.Entries) == 0 {
		return s
	}
	next := s.clone()
	next.SyncSuspended = !next.SyncSuspended
	if !next.SyncSuspended && !next.Repeat.Active {
		next.Current = highlightIndex(next.Entries, next.Position)
	}
	return next
}

// CanRepeat reports whether the highlighted entry has a successor to bound a loop.
func (s State) CanRepeat() bool {
	return s.HasHighlight() && s.Current+1 < len(s.Entries)
}

// StartRepeat arms a loop over the highlighted entry. ok is false when there
// is no highlight or the highlight is the final entry.
func (s State) StartRepeat() (State, bool) {
	if !s.CanRepeat() {
		return s, false
	}
	next := s.clone()
	i := next.Current
	next.Repeat = RepeatSession{
		AnchorIndex:  i,
		LoopStart:    next.Entries[i].Start,
		LoopDuration: next.Entries[i+1].Start - next.Entries[i].Start,
		Active:       true,
	}
	return next, true
}

// StopRepeat clears the loop.
func (s State) StopRepeat() State {
	if !s.Repeat.Active {
		return s
	}
	next := s.clone()
	next.Repeat = RepeatSession{}
	return next
}

// NextRate advances the playback rate cycle.
func (s State) NextRate() State {
	next := s.clone()
	next.Rate = next.Rate.Next()
	return next
}

// WithPaused records the player's play/pause state.
func (s State) WithPaused(paused bool) State {
	next := s.clone()
	next.Paused = paused
	return next
}

// Select marks an entry for batch translation.
func (s State) Select(id int) State {
	next := s.clone()
	if next.Pending == nil {
		next.Pending = make(map[int]struct{})
	}
	next.Pending[id] = struct{}{}
	return next
}

// Deselect removes an entry from the translation selection.
func (s State) Deselect(id int) State {
	if _, ok := s.Pending[id]; !ok {
		return s
	}
	next := s.clone()
	delete(next.Pending, id)
	return next
}

// IsSelected reports whether id is pending translation.
func (s State) IsSelected(id int) bool {
	_, ok := s.Pending[id]
	return ok
}

// Selected returns the pending entries in list order.
func (s State) Selected() []models.SubtitleEntry {
	var out []models.SubtitleEntry
	for _, e := range s.Entries {
		if s.IsSelected(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// ApplyTranslation overwrites TranslatedText of every entry whose id appears
// in result. Keys that are not integers or match no entry are ignored. The
// translation selection is left as is.
func (s State) ApplyTranslation(result map[string]string) State {
	if len(result) == 0 {
		return s
	}
	next := s.clone()
	for key, text := range result {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		for i := range next.Entries {
			if next.Entries[i].ID == id {
				next.Entries[i].TranslatedText = text
			}
		}
	}
	return next
}

// EditEntry replaces the texts of one entry in place. Empty arguments keep
// the existing text. ok is false when no entry has the id.
func (s State) EditEntry(id int, source, translated string) (State, bool) {
	for i := range s.Entries {
		if s.Entries[i].ID != id {
			continue
		}
		next := s.clone()
		if source != "" {
			next.Entries[i].SourceText = source
		}
		if translated != "" {
			next.Entries[i].TranslatedText = translated
		}
		return next, true
	}
	return s, false
}

// WithLoading flips the loading indicator and clears any stale error when a load starts.
func (s State) WithLoading(loading bool) State {
	next := s.clone()
	next.Loading = loading
	if loading {
		next.ErrorMessage = ""
	}
	return next
}

// WithError records a user-facing failure message and clears the loading indicator.
func (s State) WithError(msg string) State {
	next := s.clone()
	next.Loading = false
	next.ErrorMessage = msg
	return next
}

// DismissError clears the error message.
func (s State) DismissError() State {
	if s.ErrorMessage == "" {
		return s
	}
	next := s.clone()
	next.ErrorMessage = ""
	return next
}
