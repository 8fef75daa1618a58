package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/subtitle-study/app/internal/api/handlers"
	"github.com/subtitle-study/app/internal/apiclient"
	"github.com/subtitle-study/app/internal/auth"
	"github.com/subtitle-study/app/internal/credential"
	"github.com/subtitle-study/app/internal/db"
	dbmodels "github.com/subtitle-study/app/internal/db/models"
	"github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/player"
	"github.com/subtitle-study/app/internal/study"
	"github.com/subtitle-study/app/internal/subtitle/translate"
)

type stubTranslator struct {
	err error
}

func (s stubTranslator) TranslateEntries(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[strconv.Itoa(e.ID)] = "ja:" + e.SourceText
	}
	return out, nil
}

func (s stubTranslator) TranslateText(ctx context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "ja:" + text, nil
}

type testEnv struct {
	srv   *httptest.Server
	store *credential.MemoryStore
	api   *apiclient.Client
}

func newTestEnv(t *testing.T, translator handlers.Translator, opts Options) *testEnv {
	t.Helper()
	database, err := db.NewSQLite(filepath.Join(t.TempDir(), "study.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	err = database.SeedCatalog(&dbmodels.Catalog{Videos: []dbmodels.CatalogVideo{
		{VideoID: "a1", Title: "Alpha English", Subtitles: []dbmodels.CatalogCue{
			{Text: "hello", Start: 0, Duration: 2},
			{Text: "world", Start: 2, Duration: 3},
			{Text: "again", Start: 5, Duration: 1},
		}},
		{VideoID: "b2", Title: "Beta English"},
	}})
	if err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}

	router := NewRouter(database, auth.NewJWTService("test-secret"), translator, opts)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	store := credential.NewMemoryStore()
	return &testEnv{
		srv:   srv,
		store: store,
		api:   apiclient.New(srv.URL, credential.TokenProvider{Store: store}),
	}
}

// signUp registers Aki and stores the issued token.
func (e *testEnv) signUp(t *testing.T) {
	t.Helper()
	resp, err := e.api.SignUp(context.Background(), "Aki", "aki@example.com", "pw")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if resp.APIToken == "" || resp.IsDuplicatedEmail {
		t.Fatalf("sign up response = %+v", resp)
	}
	if err := e.store.Save(resp.APIToken, resp.Name, resp.Email, "pw"); err != nil {
		t.Fatal(err)
	}
}

func TestAccountFlow(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{})
	ctx := context.Background()

	if _, err := env.api.Search(ctx, "english", ""); !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("anonymous search err = %v", err)
	}

	env.signUp(t)

	dup, err := env.api.SignUp(ctx, "Other", "aki@example.com", "x")
	if err != nil || !dup.IsDuplicatedEmail || dup.APIToken != "" {
		t.Fatalf("duplicate sign up = %+v, %v", dup, err)
	}
	check, err := env.api.CheckEmail(ctx, "aki@example.com")
	if err != nil || !check.IsDuplicatedEmail {
		t.Fatalf("CheckEmail = %+v, %v", check, err)
	}
	if _, err := env.api.SignIn(ctx, "aki@example.com", "wrong"); !errors.Is(err, apiclient.ErrUnauthorized) {
		t.Fatalf("bad sign in err = %v", err)
	}
	in, err := env.api.SignIn(ctx, "aki@example.com", "pw")
	if err != nil || in.APIToken == "" || in.Name != "Aki" {
		t.Fatalf("SignIn = %+v, %v", in, err)
	}

	_, err = env.api.SignUp(ctx, "", "bad", "")
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apiclient.KindBadRequest || apiErr.StatusCode != 400 {
		t.Fatalf("invalid sign up err = %v", err)
	}

	err = env.api.DeleteAccount(ctx, "aki@example.com", "wrong")
	if !errors.Is(err, apiclient.ErrForbidden) {
		t.Fatalf("delete with wrong password err = %v", err)
	}
	if err := env.api.DeleteAccount(ctx, "aki@example.com", "pw"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if check, _ := env.api.CheckEmail(ctx, "aki@example.com"); check.IsDuplicatedEmail {
		t.Fatalf("email still registered after delete")
	}
}

func TestSearchAndFreshSubtitles(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{})
	env.signUp(t)
	ctx := context.Background()

	// Query values are sent unescaped; escaping is the caller's job.
	page, err := env.api.Search(ctx, url.QueryEscape("alpha english"), "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].VideoID != "a1" || page.NextPageToken != "" {
		t.Fatalf("page = %+v", page)
	}

	subs, err := env.api.Subtitles(ctx, "a1")
	if err != nil {
		t.Fatalf("Subtitles: %v", err)
	}
	if len(subs) != 3 || subs[1].SourceText != "world" || subs[1].ID != 0 {
		t.Fatalf("subs = %+v", subs)
	}

	_, err = env.api.Subtitles(ctx, "zz")
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apiclient.KindNotFound || apiErr.Detail != "zz" {
		t.Fatalf("missing video err = %v", err)
	}
}

func TestSavedVideoLifecycle(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{})
	env.signUp(t)
	ctx := context.Background()

	fresh, _ := env.api.Subtitles(ctx, "a1")
	err := env.api.StoreSubtitles(ctx, models.StoreSubtitlesRequest{VideoID: "a1", Title: "Alpha English", Subtitles: fresh})
	if err != nil {
		t.Fatalf("StoreSubtitles: %v", err)
	}

	saved, err := env.api.CheckVideoAlreadySaved(ctx, "a1")
	if err != nil || !saved.IsVideoAlreadySaved || saved.ID == nil {
		t.Fatalf("CheckVideoAlreadySaved = %+v, %v", saved, err)
	}
	entries, err := env.api.SavedSubtitles(ctx, "a1")
	if err != nil || len(entries) != 3 || entries[0].ID == 0 || entries[0].SubtitleGroupID != *saved.ID {
		t.Fatalf("SavedSubtitles = %+v, %v", entries, err)
	}

	entries[0].TranslatedText = "こんにちは"
	if err := env.api.UpdateSubtitles(ctx, *saved.ID, entries); err != nil {
		t.Fatalf("UpdateSubtitles: %v", err)
	}
	videos, err := env.api.SavedVideos(ctx)
	if err != nil || len(videos) != 1 || videos[0].Subtitles[0].TranslatedText != "こんにちは" {
		t.Fatalf("SavedVideos = %+v, %v", videos, err)
	}

	if err := env.api.DeleteSavedVideo(ctx, *saved.ID); err != nil {
		t.Fatalf("DeleteSavedVideo: %v", err)
	}
	if err := env.api.DeleteSavedVideo(ctx, *saved.ID); !errors.Is(err, apiclient.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if again, _ := env.api.CheckVideoAlreadySaved(ctx, "a1"); again.IsVideoAlreadySaved || again.ID != nil {
		t.Fatalf("still saved: %+v", again)
	}
}

func TestTranslate(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{})
	env.signUp(t)
	ctx := context.Background()

	answer, err := env.api.TranslateSubtitles(ctx, []models.SubtitleEntry{{ID: 6, SourceText: "second"}})
	if err != nil || answer["6"] != "ja:second" {
		t.Fatalf("TranslateSubtitles = %v, %v", answer, err)
	}
	text, err := env.api.TranslateContent(ctx, "good night")
	if err != nil || text != "ja:good night" {
		t.Fatalf("TranslateContent = %q, %v", text, err)
	}

	down := newTestEnv(t, stubTranslator{err: translate.ErrNoEngine}, Options{})
	down.signUp(t)
	if _, err := down.api.TranslateContent(ctx, "x"); !errors.Is(err, apiclient.ErrServerError) {
		t.Fatalf("no engine err = %v", err)
	}
}

func TestSessionAgainstBackend(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{})
	env.signUp(t)

	fc := clockwork.NewFakeClock()
	p := player.NewSimulated(fc, 60)
	defer p.Close()
	s := study.NewSession(p, env.api, study.WithClock(fc))
	defer s.Close()

	ctx := context.Background()
	if err := s.Fetch(ctx, "a1"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	st := s.Snapshot()
	if len(st.Entries) != 3 || st.Entries[2].ID != 3 {
		t.Fatalf("entries = %+v", st.Entries)
	}

	s.Select(2)
	if err := s.TranslateSelection(ctx); err != nil {
		t.Fatalf("TranslateSelection: %v", err)
	}
	if got := s.Snapshot().Entries[1].TranslatedText; got != "ja:world" {
		t.Fatalf("translated = %q", got)
	}

	if err := s.Fetch(ctx, "zz"); !errors.Is(err, study.ErrNoSubtitles) {
		t.Fatalf("missing video err = %v", err)
	}
	if st := s.Snapshot(); st.ErrorMessage != study.NoSubtitlesMessage || len(st.Entries) != 3 {
		t.Fatalf("state after failed fetch = %+v", st)
	}
}

func TestAuthRateLimit(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{AuthRateLimit: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := env.api.CheckEmail(ctx, "x@example.com"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	_, err := env.api.CheckEmail(ctx, "x@example.com")
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusTooManyRequests || !apiclient.IsIgnorable(err) {
		t.Fatalf("limited err = %v", err)
	}
}

func TestRouterEnvelopes(t *testing.T) {
	env := newTestEnv(t, stubTranslator{}, Options{})

	resp, err := http.Get(env.srv.URL + "/api/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound || resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("unknown route: %d id %q", resp.StatusCode, resp.Header.Get("X-Request-ID"))
	}

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/sign_up", strings.NewReader("{"))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}
