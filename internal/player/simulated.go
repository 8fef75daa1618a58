package player

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultUpdateInterval is how often a playing Simulated player pushes its position.
const DefaultUpdateInterval = 250 * time.Millisecond

var ErrClosed = errors.New("player closed")

// Simulated is a clock-driven stand-in for the embedded player. Position
// advances at the playback rate while playing and is clamped to [0, duration].
type Simulated struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	duration float64
	base     float64   // position at anchor
	anchor   time.Time // when base was taken
	playing  bool
	rate     float64
	seeks    []float64
	closed   bool

	interval time.Duration
	times    chan float64
	states   chan State
}

func NewSimulated(clock clockwork.Clock, duration float64) *Simulated {
	return &Simulated{
		clock:    clock,
		duration: duration,
		anchor:   clock.Now(),
		rate:     1.0,
		interval: DefaultUpdateInterval,
		times:    make(chan float64, 16),
		states:   make(chan State, 16),
	}
}

// SetDuration changes the clamp bound. Zero or less removes it.
func (p *Simulated) SetDuration(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rebaseLocked()
	p.duration = seconds
}

// positionLocked returns the current position; callers hold mu.
func (p *Simulated) positionLocked() float64 {
	pos := p.base
	if p.playing {
		pos += p.clock.Since(p.anchor).Seconds() * p.rate
	}
	if pos < 0 {
		pos = 0
	}
	if p.duration > 0 && pos > p.duration {
		pos = p.duration
	}
	return pos
}

// rebaseLocked folds elapsed playback into base.
func (p *Simulated) rebaseLocked() {
	p.base = p.positionLocked()
	p.anchor = p.clock.Now()
}

func (p *Simulated) CurrentTime(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	return p.positionLocked(), nil
}

func (p *Simulated) Seek(ctx context.Context, to float64, allowSeekAhead bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.seeks = append(p.seeks, to)
	p.base = to
	p.anchor = p.clock.Now()
	p.base = p.positionLocked()
	return nil
}

func (p *Simulated) Play(ctx context.Context) error {
	return p.setPlaying(true)
}

func (p *Simulated) Pause(ctx context.Context) error {
	return p.setPlaying(false)
}

func (p *Simulated) setPlaying(playing bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.rebaseLocked()
	p.playing = playing
	state := StatePaused
	if playing {
		state = StatePlaying
	}
	select {
	case p.states <- state:
	default:
		log.Printf("[player] state channel full, dropping %s", state)
	}
	return nil
}

func (p *Simulated) SetPlaybackRate(ctx context.Context, rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.rebaseLocked()
	p.rate = rate
	return nil
}

func (p *Simulated) TimeUpdates() <-chan float64 { return p.times }

func (p *Simulated) StateChanges() <-chan State { return p.states }

// Rate returns the current playback rate.
func (p *Simulated) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// Playing reports whether the player is playing.
func (p *Simulated) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Seeks returns every seek target in call order.
func (p *Simulated) Seeks() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// Run pushes the position every update interval while playing, until ctx is done.
func (p *Simulated) Run(ctx context.Context) {
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.mu.Lock()
			playing, closed := p.playing, p.closed
			pos := p.positionLocked()
			p.mu.Unlock()
			if closed {
				return
			}
			if !playing {
				continue
			}
			select {
			case p.times <- pos:
			default:
			}
		}
	}
}

// Close makes every later call fail with ErrClosed.
func (p *Simulated) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
