package player

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestSimulated_AdvancesAtPlaybackRate(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewSimulated(fc, 60)
	ctx := context.Background()

	if err := p.Play(ctx); err != nil {
		t.Fatalf("Play: %v", err)
	}
	fc.Advance(2 * time.Second)
	if got, _ := p.CurrentTime(ctx); got != 2 {
		t.Fatalf("position = %v, want 2", got)
	}

	if err := p.SetPlaybackRate(ctx, 1.25); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	fc.Advance(4 * time.Second)
	if got, _ := p.CurrentTime(ctx); got != 7 {
		t.Fatalf("position = %v, want 7", got)
	}

	if err := p.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	fc.Advance(10 * time.Second)
	if got, _ := p.CurrentTime(ctx); got != 7 {
		t.Fatalf("paused position = %v, want 7", got)
	}

	if got := <-p.StateChanges(); got != StatePlaying {
		t.Fatalf("first state = %s", got)
	}
	if got := <-p.StateChanges(); got != StatePaused {
		t.Fatalf("second state = %s", got)
	}
}

func TestSimulated_SeekClampsAndRecords(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewSimulated(fc, 10)
	ctx := context.Background()

	p.Seek(ctx, 4, true)
	p.Seek(ctx, 25, true)
	p.Seek(ctx, -3, true)

	if got, _ := p.CurrentTime(ctx); got != 0 {
		t.Fatalf("position = %v, want 0", got)
	}
	seeks := p.Seeks()
	if len(seeks) != 3 || seeks[0] != 4 || seeks[1] != 25 || seeks[2] != -3 {
		t.Fatalf("seeks = %v", seeks)
	}
}

func TestSimulated_ClosedPlayerFails(t *testing.T) {
	p := NewSimulated(clockwork.NewFakeClock(), 10)
	p.Close()
	if _, err := p.CurrentTime(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if err := p.Seek(context.Background(), 1, true); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestSimulated_RunPushesWhilePlaying(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewSimulated(fc, 60)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	fc.BlockUntil(1)

	p.Play(ctx)
	fc.Advance(DefaultUpdateInterval)

	select {
	case got := <-p.TimeUpdates():
		if got != DefaultUpdateInterval.Seconds() {
			t.Fatalf("pushed %v, want %v", got, DefaultUpdateInterval.Seconds())
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no time update pushed")
	}

	cancel()
	<-done
}

func TestSimulated_SetDurationClamps(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := NewSimulated(fc, 0)
	ctx := context.Background()

	p.Seek(ctx, 100, true)
	if got, _ := p.CurrentTime(ctx); got != 100 {
		t.Fatalf("unbounded position = %v, want 100", got)
	}
	p.SetDuration(30)
	if got, _ := p.CurrentTime(ctx); got != 30 {
		t.Fatalf("clamped position = %v, want 30", got)
	}
}
