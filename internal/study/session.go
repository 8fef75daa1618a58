package study

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/player"
)

const (
	// DefaultSeekStep is the rewind and fast-forward step in seconds.
	DefaultSeekStep = 5.0
	// PollInterval is the highlight refresh period while the player is paused.
	PollInterval = time.Second
	// NoSubtitlesMessage is shown for any failed subtitle fetch.
	NoSubtitlesMessage = "this video has no subtitles"
)

var (
	ErrNoSubtitles     = errors.New(NoSubtitlesMessage)
	ErrIndexOutOfRange = errors.New("subtitle index out of range")
	ErrEntryNotFound   = errors.New("subtitle entry not found")
	ErrSessionClosed   = errors.New("session closed")
)

// SubtitleSource is the slice of the backend API a session needs.
// *apiclient.Client implements it.
type SubtitleSource interface {
	Subtitles(ctx context.Context, videoID string) ([]models.SubtitleEntry, error)
	SavedSubtitles(ctx context.Context, videoID string) ([]models.SubtitleEntry, error)
	StoreSubtitles(ctx context.Context, req models.StoreSubtitlesRequest) error
	UpdateSubtitles(ctx context.Context, savedID int, entries []models.SubtitleEntry) error
	TranslateSubtitles(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error)
	TranslateContent(ctx context.Context, content string) (string, error)
}

// Option customizes a Session.
type Option func(*Session)

// WithClock replaces the real clock, typically with a fake one in tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithSeekStep sets the rewind and fast-forward step in seconds.
func WithSeekStep(seconds float64) Option {
	return func(s *Session) {
		if seconds > 0 {
			s.seekStep = seconds
		}
	}
}

// WithEventBus replaces the default event buffer.
func WithEventBus(b *EventBus) Option {
	return func(s *Session) { s.bus = b }
}

// Session is one study screen: a subtitle list synchronized with one player.
// All state changes are serialized by mu.
type Session struct {
	mu       sync.Mutex
	state    State
	player   player.Player
	source   SubtitleSource
	clock    clockwork.Clock
	bus      *EventBus
	seekStep float64
	closed   bool

	// rateMu orders rate changes end to end; mu is not held across the player call.
	rateMu sync.Mutex

	repeatCancel context.CancelFunc
	repeatDone   chan struct{}

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

func NewSession(p player.Player, source SubtitleSource, opts ...Option) *Session {
	s := &Session{
		state:    NewState(),
		player:   p,
		source:   source,
		clock:    clockwork.NewRealClock(),
		seekStep: DefaultSeekStep,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = NewEventBus(0)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Events returns the session's notification bus.
func (s *Session) Events() *EventBus {
	return s.bus
}

func (s *Session) setLocked(next State) {
	s.state = next
	s.bus.Publish(Event{Type: EventState, State: next.clone()})
}

func (s *Session) update(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(fn(s.state))
	return s.state
}

// Fetch loads freshly extracted subtitles for videoID.
func (s *Session) Fetch(ctx context.Context, videoID string) error {
	return s.load(ctx, videoID, s.source.Subtitles)
}

// FetchSaved loads the persisted subtitles of a saved video.
func (s *Session) FetchSaved(ctx context.Context, videoID string) error {
	return s.load(ctx, videoID, s.source.SavedSubtitles)
}

func (s *Session) load(ctx context.Context, videoID string, fetch func(context.Context, string) ([]models.SubtitleEntry, error)) error {
	s.update(func(st State) State { return st.WithLoading(true) })

	entries, err := fetch(ctx, videoID)
	if err == nil && len(entries) == 0 {
		err = errors.New("empty subtitle list")
	}
	if err != nil {
		log.Printf("[study] fetch subtitles %s: %v", videoID, err)
		s.update(func(st State) State { return st.WithError(NoSubtitlesMessage) })
		return ErrNoSubtitles
	}

	s.mu.Lock()
	s.stopRepeatLocked()
	s.setLocked(s.state.WithEntries(entries).WithLoading(false))
	s.mu.Unlock()
	log.Printf("[study] loaded %d subtitles for %s", len(entries), videoID)
	return nil
}

// UpdateHighlight handles one pushed playback position.
func (s *Session) UpdateHighlight(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlightLocked(seconds)
}

func (s *Session) highlightLocked(seconds float64) {
	prev := s.state.Current
	next := s.state.Highlight(seconds)
	if next.Current == prev {
		// Position only; no notification.
		s.state = next
		return
	}
	s.setLocked(next)
}

// ToggleSync suspends or resumes highlight tracking.
func (s *Session) ToggleSync() State {
	return s.update(State.ToggleSync)
}

// SeekToIndex seeks the player to the start of entry index. While a repeat
// loop is active the loop is re-armed at its current anchor first, and the
// target seek is issued only after the loop's arming seek, so playback
// continues from the target until the loop comes around.
func (s *Session) SeekToIndex(ctx context.Context, index int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.state.Entries) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(s.state.Entries))
	}
	target := s.state.Entries[index].Start
	var pollDone, armed chan struct{}
	if s.state.Repeat.Active {
		_, pollDone, armed = s.startRepeatLocked()
	}
	s.mu.Unlock()
	waitDone(pollDone)
	waitDone(armed)

	return s.player.Seek(ctx, target, true)
}

// SeekByOffset seeks delta seconds from the player's current position.
// Concurrent calls are not cancelled by later ones.
func (s *Session) SeekByOffset(ctx context.Context, delta float64) error {
	now, err := s.player.CurrentTime(ctx)
	if err != nil {
		return fmt.Errorf("current time: %w", err)
	}
	return s.player.Seek(ctx, now+delta, true)
}

// Rewind seeks back by the configured step.
func (s *Session) Rewind(ctx context.Context) error {
	return s.SeekByOffset(ctx, -s.seekStep)
}

// FastForward seeks ahead by the configured step.
func (s *Session) FastForward(ctx context.Context) error {
	return s.SeekByOffset(ctx, s.seekStep)
}

// StartRepeat loops the highlighted entry until StopRepeat. It returns false
// when there is no highlight, the highlight is the final entry, or the
// session is closed. Any running loop is cancelled first.
func (s *Session) StartRepeat() bool {
	s.mu.Lock()
	ok, pollDone, _ := s.startRepeatLocked()
	s.mu.Unlock()
	waitDone(pollDone)
	return ok
}

// startRepeatLocked replaces the loop task. It returns the stopped poller's
// done channel and a channel closed once the loop has issued its first seek.
// Wait on either only after releasing mu.
func (s *Session) startRepeatLocked() (bool, chan struct{}, chan struct{}) {
	if s.closed {
		return false, nil, nil
	}
	next, ok := s.state.StartRepeat()
	if !ok || next.Repeat.LoopDuration <= 0 {
		return false, nil, nil
	}

	s.stopRepeatLocked()
	pollDone := s.stopPollingLocked()
	s.setLocked(next)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	armed := make(chan struct{})
	s.repeatCancel = cancel
	s.repeatDone = done
	go s.repeatLoop(ctx, next.Repeat, armed, done)

	log.Printf("[study] repeat armed: start=%.2fs duration=%.2fs", next.Repeat.LoopStart, next.Repeat.LoopDuration)
	return true, pollDone, armed
}

func (s *Session) repeatLoop(ctx context.Context, r RepeatSession, armed, done chan struct{}) {
	defer close(done)
	var armOnce sync.Once
	defer armOnce.Do(func() { close(armed) })
	wait := time.Duration(r.LoopDuration * float64(time.Second))
	for {
		if ctx.Err() != nil {
			return
		}
		if err := s.player.Seek(ctx, r.LoopStart, true); err != nil {
			log.Printf("[study] repeat seek: %v", err)
		} else {
			s.bus.Publish(Event{Type: EventSeek, Seek: r.LoopStart})
		}
		armOnce.Do(func() { close(armed) })
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(wait):
		}
	}
}

// stopRepeatLocked cancels the loop task and waits for it to exit. The loop
// never takes mu, so waiting here cannot deadlock.
func (s *Session) stopRepeatLocked() {
	if s.repeatCancel == nil {
		return
	}
	s.repeatCancel()
	<-s.repeatDone
	s.repeatCancel = nil
	s.repeatDone = nil
}

// StopRepeat cancels the loop and returns to normal tracking. The highlight
// is left where the loop held it.
func (s *Session) StopRepeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopRepeatLocked()
	if s.state.Repeat.Active {
		s.setLocked(s.state.StopRepeat())
	}
}

// TogglePlayback plays or pauses the player. Player errors are logged and
// otherwise ignored; the paused flag only flips when the call succeeds.
func (s *Session) TogglePlayback(ctx context.Context) {
	s.mu.Lock()
	paused := s.state.Paused
	s.mu.Unlock()

	var err error
	if paused {
		err = s.player.Play(ctx)
	} else {
		err = s.player.Pause(ctx)
	}
	if err != nil {
		log.Printf("[study] toggle playback: %v", err)
		return
	}
	s.handlePlayerState(!paused)
}

// handlePlayerState records play/pause and starts or stops the paused poller.
// Pausing ends a running repeat loop.
func (s *Session) handlePlayerState(paused bool) {
	s.mu.Lock()
	var pollDone chan struct{}
	if paused {
		s.stopRepeatLocked()
		next := s.state.StopRepeat().WithPaused(true)
		s.setLocked(next)
		s.startPollingLocked()
	} else {
		pollDone = s.stopPollingLocked()
		s.setLocked(s.state.WithPaused(false))
	}
	s.mu.Unlock()
	waitDone(pollDone)
}

// ChangePlaybackRate advances normal, fast, slow and pushes the rate to the player.
func (s *Session) ChangePlaybackRate(ctx context.Context) (Rate, error) {
	s.rateMu.Lock()
	defer s.rateMu.Unlock()

	s.mu.Lock()
	next := s.state.Rate.Next()
	s.mu.Unlock()

	if err := s.player.SetPlaybackRate(ctx, float64(next)); err != nil {
		return 0, fmt.Errorf("set playback rate: %w", err)
	}
	s.update(func(st State) State {
		st = st.clone()
		st.Rate = next
		return st
	})
	return next, nil
}

func (s *Session) startPollingLocked() {
	if s.closed || s.pollCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.pollCancel = cancel
	s.pollDone = done
	go s.poll(ctx, done)
}

// stopPollingLocked cancels the poller and returns its done channel. The
// poller takes mu on every tick, so callers wait only after unlocking.
func (s *Session) stopPollingLocked() chan struct{} {
	if s.pollCancel == nil {
		return nil
	}
	s.pollCancel()
	done := s.pollDone
	s.pollCancel = nil
	s.pollDone = nil
	return done
}

func (s *Session) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := s.clock.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
		t, err := s.player.CurrentTime(ctx)
		if err != nil {
			log.Printf("[study] poll current time: %v", err)
			continue
		}
		s.mu.Lock()
		if ctx.Err() == nil {
			s.highlightLocked(t)
		}
		s.mu.Unlock()
	}
}

func waitDone(done chan struct{}) {
	if done != nil {
		<-done
	}
}

// Polling reports whether the paused-state poller is running.
func (s *Session) Polling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollCancel != nil
}

// Run consumes the player's push channels until ctx is done.
func (s *Session) Run(ctx context.Context) {
	times := s.player.TimeUpdates()
	states := s.player.StateChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-times:
			if !ok {
				times = nil
				continue
			}
			s.UpdateHighlight(t)
		case st, ok := <-states:
			if !ok {
				states = nil
				continue
			}
			switch st {
			case player.StatePaused:
				s.handlePlayerState(true)
			case player.StatePlaying:
				s.handlePlayerState(false)
			default:
				log.Printf("[study] player state %s", st)
				if st == player.StateErrored {
					s.bus.Publish(Event{Type: EventError, Message: "player error"})
				}
			}
		}
	}
}

// Select marks entry id for batch translation.
func (s *Session) Select(id int) {
	s.update(func(st State) State { return st.Select(id) })
}

// Deselect removes entry id from the batch translation selection.
func (s *Session) Deselect(id int) {
	s.update(func(st State) State { return st.Deselect(id) })
}

// ApplyTranslation writes translated texts back onto entries by id.
func (s *Session) ApplyTranslation(result map[string]string) {
	s.update(func(st State) State { return st.ApplyTranslation(result) })
}

// TranslateSelection translates the selected entries and applies the answer.
// Failures are logged and leave the state untouched.
func (s *Session) TranslateSelection(ctx context.Context) error {
	selected := s.Snapshot().Selected()
	if len(selected) == 0 {
		return nil
	}
	answer, err := s.source.TranslateSubtitles(ctx, selected)
	if err != nil {
		log.Printf("[study] translate %d entries: %v", len(selected), err)
		return err
	}
	s.ApplyTranslation(answer)
	return nil
}

// TranslateContent translates a captured free-text fragment.
func (s *Session) TranslateContent(ctx context.Context, text string) (string, error) {
	out, err := s.source.TranslateContent(ctx, text)
	if err != nil {
		log.Printf("[study] translate content: %v", err)
		return "", err
	}
	return out, nil
}

// EditEntry overwrites the texts of one entry locally.
func (s *Session) EditEntry(id int, source, translated string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.state.EditEntry(id, source, translated)
	if !ok {
		return fmt.Errorf("%w: %d", ErrEntryNotFound, id)
	}
	s.setLocked(next)
	return nil
}

// SaveEdits pushes the current list to the saved video savedID.
func (s *Session) SaveEdits(ctx context.Context, savedID int) error {
	entries := s.Snapshot().Entries
	if err := s.source.UpdateSubtitles(ctx, savedID, entries); err != nil {
		s.update(func(st State) State { return st.WithError(err.Error()) })
		return err
	}
	return nil
}

// Store saves video together with the current subtitle list.
func (s *Session) Store(ctx context.Context, video models.VideoSummary) error {
	entries := s.Snapshot().Entries
	err := s.source.StoreSubtitles(ctx, models.StoreSubtitlesRequest{
		VideoID:      video.VideoID,
		Title:        video.Title,
		ThumbnailURL: video.ThumbnailURL,
		Subtitles:    entries,
	})
	if err != nil {
		s.update(func(st State) State { return st.WithError(err.Error()) })
		return err
	}
	return nil
}

// DismissError clears the user-facing error message.
func (s *Session) DismissError() {
	s.update(State.DismissError)
}

// Close stops the repeat loop and the paused poller. The player must not be
// released before Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopRepeatLocked()
	if s.state.Repeat.Active {
		s.setLocked(s.state.StopRepeat())
	}
	pollDone := s.stopPollingLocked()
	s.mu.Unlock()
	waitDone(pollDone)
}
