package study

import (
	"reflect"
	"testing"

	"github.com/subtitle-study/app/internal/models"
)

func fixtureEntries() []models.SubtitleEntry {
	return []models.SubtitleEntry{
		{ID: 7, SourceText: "third", Start: 5, Duration: 1},
		{ID: 5, SourceText: "first", Start: 0, Duration: 2},
		{ID: 6, SourceText: "second", Start: 2, Duration: 3},
	}
}

func loadedState() State {
	return NewState().WithEntries(fixtureEntries())
}

func TestWithEntries_SortsByIDAndLoads(t *testing.T) {
	s := loadedState()
	if s.Phase() != PhaseLoaded {
		t.Fatalf("phase = %s, want loaded", s.Phase())
	}
	var ids []int
	for _, e := range s.Entries {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []int{5, 6, 7}) {
		t.Fatalf("ids = %v, want [5 6 7]", ids)
	}
}

func TestWithEntries_AssignsPositionalIDs(t *testing.T) {
	s := NewState().WithEntries([]models.SubtitleEntry{
		{SourceText: "a", Start: 0},
		{SourceText: "b", Start: 1},
	})
	if s.Entries[0].ID != 1 || s.Entries[1].ID != 2 || s.Entries[1].SourceText != "b" {
		t.Fatalf("unexpected entries: %+v", s.Entries)
	}
}

func TestHighlight_Boundaries(t *testing.T) {
	s := loadedState()
	cases := []struct {
		at   float64
		want int
	}{
		{-0.1, NoHighlight},
		{0, 0},
		{1.0, 0},
		{1.999, 0},
		{2, 1},
		{4.9, 1},
		{5, NoHighlight}, // last entry never highlights
		{5.5, NoHighlight},
		{100, NoHighlight},
	}
	for _, tc := range cases {
		if got := s.Highlight(tc.at).Current; got != tc.want {
			t.Errorf("Highlight(%v) = %d, want %d", tc.at, got, tc.want)
		}
	}
}

func TestHighlight_EmptyAndSingleEntryNeverMatch(t *testing.T) {
	if got := NewState().Highlight(1).Current; got != NoHighlight {
		t.Fatalf("empty highlight = %d", got)
	}
	one := NewState().WithEntries([]models.SubtitleEntry{{ID: 1, Start: 0, Duration: 10}})
	if got := one.Highlight(3).Current; got != NoHighlight {
		t.Fatalf("single entry highlight = %d", got)
	}
}

func TestHighlight_SuspendedKeepsIndex(t *testing.T) {
	s := loadedState().Highlight(1).ToggleSync()
	if s.Phase() != PhaseSyncSuspended {
		t.Fatalf("phase = %s", s.Phase())
	}
	s = s.Highlight(3)
	if s.Current != 0 || s.Position != 3 {
		t.Fatalf("suspended state = current %d position %v", s.Current, s.Position)
	}
	s = s.ToggleSync()
	if s.Current != 1 {
		t.Fatalf("resumed current = %d, want 1 from last position", s.Current)
	}
}

func TestToggleSync_IdleIsNoop(t *testing.T) {
	if s := NewState().ToggleSync(); s.SyncSuspended {
		t.Fatalf("idle state suspended")
	}
}

func TestStartRepeat_ComputesLoop(t *testing.T) {
	s, ok := loadedState().Highlight(3).StartRepeat()
	if !ok {
		t.Fatalf("StartRepeat refused")
	}
	want := RepeatSession{AnchorIndex: 1, LoopStart: 2, LoopDuration: 3, Active: true}
	if s.Repeat != want {
		t.Fatalf("repeat = %+v, want %+v", s.Repeat, want)
	}
	if s.Phase() != PhaseRepeating {
		t.Fatalf("phase = %s", s.Phase())
	}
	if got := s.Highlight(0.5).Current; got != 1 {
		t.Fatalf("repeat should hold highlight, got %d", got)
	}
	if got := s.StopRepeat(); got.Current != 1 || got.Phase() != PhaseLoaded {
		t.Fatalf("after stop: current %d phase %s", got.Current, got.Phase())
	}
}

func TestStartRepeat_Guards(t *testing.T) {
	if _, ok := loadedState().Highlight(6).StartRepeat(); ok {
		t.Fatalf("repeat without highlight accepted")
	}
	one := NewState().WithEntries([]models.SubtitleEntry{{ID: 1, Start: 0}, {ID: 2, Start: 4}})
	s := one.Highlight(1)
	s.Current = 1 // force the final entry
	if _, ok := s.StartRepeat(); ok {
		t.Fatalf("repeat on final entry accepted")
	}
}

func TestWithEntries_ClearsRepeatAndSuspension(t *testing.T) {
	s, _ := loadedState().Highlight(3).StartRepeat()
	s = s.ToggleSync().WithEntries(fixtureEntries())
	if s.Repeat.Active || s.SyncSuspended {
		t.Fatalf("replacement kept repeat=%v suspended=%v", s.Repeat.Active, s.SyncSuspended)
	}
	if s.Current != 1 {
		t.Fatalf("current = %d, want 1 recomputed from position 3", s.Current)
	}
}

func TestRateCycle(t *testing.T) {
	s := NewState()
	var got []Rate
	for i := 0; i < 4; i++ {
		s = s.NextRate()
		got = append(got, s.Rate)
	}
	want := []Rate{RateFast, RateSlow, RateNormal, RateFast}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rates = %v, want %v", got, want)
	}
}

func TestSelection_Idempotent(t *testing.T) {
	s := loadedState().Select(6).Select(6).Select(5)
	if len(s.Pending) != 2 || !s.IsSelected(6) {
		t.Fatalf("pending = %v", s.Pending)
	}
	s = s.Deselect(6).Deselect(6).Deselect(42)
	if len(s.Pending) != 1 || !s.IsSelected(5) {
		t.Fatalf("pending = %v", s.Pending)
	}
	if sel := s.Selected(); len(sel) != 1 || sel[0].ID != 5 {
		t.Fatalf("selected = %+v", sel)
	}
}

func TestApplyTranslation_OnlyTouchesListedIDs(t *testing.T) {
	before := loadedState().Select(6)
	after := before.ApplyTranslation(map[string]string{"6": "こんにちは", "x": "ignored", "99": "missing"})

	for i, e := range after.Entries {
		if e.ID == 6 {
			if e.TranslatedText != "こんにちは" {
				t.Fatalf("entry 6 translated = %q", e.TranslatedText)
			}
			continue
		}
		if !reflect.DeepEqual(e, before.Entries[i]) {
			t.Fatalf("entry %d changed: %+v -> %+v", e.ID, before.Entries[i], e)
		}
	}
	if before.Entries[1].TranslatedText != "" {
		t.Fatalf("transition mutated receiver")
	}
	if !after.IsSelected(6) {
		t.Fatalf("selection cleared by translation")
	}
}

func TestApplyTranslation_EmptyIsNoop(t *testing.T) {
	s := loadedState()
	if got := s.ApplyTranslation(map[string]string{}); !reflect.DeepEqual(got, s) {
		t.Fatalf("empty translation changed state")
	}
}

func TestEditEntry(t *testing.T) {
	s, ok := loadedState().EditEntry(7, "", "fixed")
	if !ok || s.Entries[2].TranslatedText != "fixed" || s.Entries[2].SourceText != "third" {
		t.Fatalf("edit failed: %+v", s.Entries[2])
	}
	if _, ok := s.EditEntry(1, "x", ""); ok {
		t.Fatalf("edit of unknown id accepted")
	}
}

func TestLoadingAndError(t *testing.T) {
	s := NewState().WithError("old").WithLoading(true)
	if !s.Loading || s.ErrorMessage != "" {
		t.Fatalf("loading state = %+v", s)
	}
	s = s.WithError(NoSubtitlesMessage)
	if s.Loading || s.ErrorMessage != NoSubtitlesMessage {
		t.Fatalf("error state = %+v", s)
	}
	if s.DismissError().ErrorMessage != "" {
		t.Fatalf("dismiss kept message")
	}
}
