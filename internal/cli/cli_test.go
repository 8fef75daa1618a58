package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/subtitle-study/app/internal/api"
	"github.com/subtitle-study/app/internal/auth"
	"github.com/subtitle-study/app/internal/db"
	dbmodels "github.com/subtitle-study/app/internal/db/models"
	"github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/player"
	"github.com/subtitle-study/app/internal/study"
)

type echoTranslator struct{}

func (echoTranslator) TranslateEntries(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error) {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[strconv.Itoa(e.ID)] = "ja:" + e.SourceText
	}
	return out, nil
}

func (echoTranslator) TranslateText(ctx context.Context, text string) (string, error) {
	return "ja:" + text, nil
}

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

// startBackend serves a seeded backend and points the CLI at it.
func startBackend(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	database, err := db.NewSQLite(filepath.Join(tmp, "study.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	err = database.SeedCatalog(&dbmodels.Catalog{Videos: []dbmodels.CatalogVideo{{
		VideoID: "a1",
		Title:   "Alpha English",
		Subtitles: []dbmodels.CatalogCue{
			{Text: "hello", Start: 0, Duration: 2},
			{Text: "world", Start: 2, Duration: 3},
			{Text: "again", Start: 5, Duration: 1},
		},
	}}})
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(api.NewRouter(database, auth.NewJWTService("cli-test"), echoTranslator{}, api.Options{}))
	t.Cleanup(srv.Close)

	t.Setenv("STUDY_BASE_URL", srv.URL)
	t.Setenv("STUDY_CREDENTIALS", filepath.Join(tmp, "credentials.db"))
	return filepath.Join(tmp, "study.yaml")
}

func TestHarnessAccountAndVideos(t *testing.T) {
	configPath := startBackend(t)
	out := captureOutput(t)

	run := func(args ...string) string {
		t.Helper()
		out.Reset()
		if err := Run(append([]string{"--config", configPath}, args...)); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return out.String()
	}
	expect := func(got, want string) {
		t.Helper()
		if !strings.Contains(got, want) {
			t.Fatalf("output %q does not contain %q", got, want)
		}
	}

	expect(run("signup", "--name", "Aki", "--email", "aki@example.com", "--password", "pw"), "signed in as Aki")
	expect(run("whoami"), "Aki <aki@example.com>")

	expect(run("search", "alpha", "english"), "a1")
	expect(run("search", "zzz"), "no videos match")

	vtt := run("subtitles", "--vtt", "a1")
	expect(vtt, "WEBVTT")
	expect(vtt, "world")

	expect(run("store", "--title", "Alpha English", "a1"), "saved a1 with 3 entries")
	expect(run("check", "a1"), "a1 is saved as 1")
	expect(run("saved"), "Alpha English")
	expect(run("translate", "--ids", "2", "a1"), "ja:world")
	expect(run("translate", "--text", "good night"), "ja:good night")
	expect(run("unsave", "1"), "deleted saved video 1")
	expect(run("check", "a1"), "a1 is not saved")

	expect(run("signout"), "signed out")
	expect(run("whoami"), "not signed in")

	err := Run([]string{"--config", configPath, "search", "alpha"})
	if err == nil || !strings.Contains(err.Error(), "study signin") {
		t.Fatalf("signed-out search err = %v", err)
	}

	expect(run("signin", "--email", "aki@example.com", "--password", "pw"), "signed in as Aki")
	if err := Run([]string{"--config", configPath, "delete-account"}); err == nil {
		t.Fatal("delete-account without --yes succeeded")
	}
	expect(run("delete-account", "--yes"), "account aki@example.com deleted")
}

func TestRunUnknownCommand(t *testing.T) {
	captureOutput(t)
	if err := Run([]string{"frobnicate"}); err == nil || !strings.Contains(err.Error(), "frobnicate") {
		t.Fatalf("err = %v", err)
	}
}

type fixedSource struct {
	entries []models.SubtitleEntry
	stored  []models.StoreSubtitlesRequest
}

func (f *fixedSource) Subtitles(ctx context.Context, videoID string) ([]models.SubtitleEntry, error) {
	return f.entries, nil
}

func (f *fixedSource) SavedSubtitles(ctx context.Context, videoID string) ([]models.SubtitleEntry, error) {
	return f.entries, nil
}

func (f *fixedSource) StoreSubtitles(ctx context.Context, req models.StoreSubtitlesRequest) error {
	f.stored = append(f.stored, req)
	return nil
}

func (f *fixedSource) UpdateSubtitles(ctx context.Context, savedID int, entries []models.SubtitleEntry) error {
	return nil
}

func (f *fixedSource) TranslateSubtitles(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error) {
	return echoTranslator{}.TranslateEntries(ctx, entries)
}

func (f *fixedSource) TranslateContent(ctx context.Context, content string) (string, error) {
	return "ja:" + content, nil
}

func TestExecSessionCommand(t *testing.T) {
	out := captureOutput(t)
	fc := clockwork.NewFakeClock()
	p := player.NewSimulated(fc, 60)
	src := &fixedSource{entries: []models.SubtitleEntry{
		{SourceText: "hello", Start: 0, Duration: 2},
		{SourceText: "world", Start: 2, Duration: 3},
		{SourceText: "again", Start: 5, Duration: 1},
	}}
	s := study.NewSession(p, src, study.WithClock(fc))
	defer s.Close()
	ctx := context.Background()
	if err := s.Fetch(ctx, "a1"); err != nil {
		t.Fatal(err)
	}

	exec := func(line string) error {
		t.Helper()
		quit, err := execSessionCommand(ctx, s, "a1", line)
		if quit {
			t.Fatalf("%q quit the session", line)
		}
		return err
	}

	if err := exec("goto 2"); err != nil {
		t.Fatal(err)
	}
	if seeks := p.Seeks(); len(seeks) != 1 || seeks[0] != 2 {
		t.Fatalf("seeks = %v", seeks)
	}
	if err := exec("goto 9"); !errors.Is(err, study.ErrIndexOutOfRange) {
		t.Fatalf("goto 9 err = %v", err)
	}

	exec("select 2")
	if err := exec("translate"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Entries[1].TranslatedText; got != "ja:world" {
		t.Fatalf("translated = %q", got)
	}
	if !strings.Contains(out.String(), "ja:world") {
		t.Fatalf("translate output = %q", out.String())
	}

	if err := exec("edit 3 once more"); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Entries[2].TranslatedText; got != "once more" {
		t.Fatalf("edited = %q", got)
	}
	if err := exec("edit 9 x"); !errors.Is(err, study.ErrEntryNotFound) {
		t.Fatalf("edit 9 err = %v", err)
	}

	out.Reset()
	exec("rate")
	if p.Rate() != 1.25 || !strings.Contains(out.String(), "1.25x") {
		t.Fatalf("rate = %v output %q", p.Rate(), out.String())
	}

	exec("sync")
	if !s.Snapshot().SyncSuspended {
		t.Fatal("sync did not suspend tracking")
	}

	if err := exec("store Alpha"); err != nil {
		t.Fatal(err)
	}
	if len(src.stored) != 1 || src.stored[0].Title != "Alpha" || len(src.stored[0].Subtitles) != 3 {
		t.Fatalf("stored = %+v", src.stored)
	}

	if err := exec("bogus"); err == nil {
		t.Fatal("unknown command accepted")
	}
	if quit, _ := execSessionCommand(ctx, s, "a1", "quit"); !quit {
		t.Fatal("quit did not end the session")
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{0: "00:00.0", 2.5: "00:02.5", 75.25: "01:15.2", -1: "00:00.0"}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestSelectEntries(t *testing.T) {
	entries := numbered([]models.SubtitleEntry{{SourceText: "a"}, {SourceText: "b"}, {SourceText: "c"}})
	got, err := selectEntries(entries, "3, 1")
	if err != nil || len(got) != 2 || got[0].SourceText != "c" || got[1].SourceText != "a" {
		t.Fatalf("selectEntries = %+v, %v", got, err)
	}
	if _, err := selectEntries(entries, "7"); err == nil {
		t.Fatal("unknown id accepted")
	}
	if all, _ := selectEntries(entries, ""); len(all) != 3 {
		t.Fatalf("empty ids selected %d", len(all))
	}
}
