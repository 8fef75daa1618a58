package db

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/subtitle-study/app/internal/db/models"
	appmodels "github.com/subtitle-study/app/internal/models"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()
	d, err := NewSQLite(filepath.Join(t.TempDir(), "study.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestUsers(t *testing.T) {
	d := openTestDB(t)

	u, err := d.CreateUser("Aki", "aki@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.ID == 0 || u.Name != "Aki" || u.CreatedAt.IsZero() {
		t.Fatalf("user = %+v", u)
	}
	if _, err := d.CreateUser("Other", "aki@example.com", "hash"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("duplicate err = %v", err)
	}
	if ok, _ := d.EmailExists("aki@example.com"); !ok {
		t.Fatalf("EmailExists = false")
	}
	got, err := d.GetUserByEmail("aki@example.com")
	if err != nil || got.ID != u.ID || got.Password != "hash" {
		t.Fatalf("GetUserByEmail = %+v, %v", got, err)
	}
	if _, err := d.GetUserByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	d := openTestDB(t)
	u, _ := d.CreateUser("Aki", "aki@example.com", "hash")
	if _, err := d.SaveVideo(u.ID, appmodels.StoreSubtitlesRequest{
		VideoID:   "v1",
		Subtitles: []appmodels.SubtitleEntry{{SourceText: "hi", Start: 0, Duration: 1}},
	}); err != nil {
		t.Fatalf("SaveVideo: %v", err)
	}

	if err := d.DeleteUser(u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := d.DeleteUser(u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	var n int
	d.db.QueryRow("SELECT COUNT(*) FROM subtitles").Scan(&n)
	if n != 0 {
		t.Fatalf("%d subtitle rows survived", n)
	}
}

func testCatalog() *models.Catalog {
	return &models.Catalog{Videos: []models.CatalogVideo{
		{VideoID: "a1", Title: "Alpha English", ChannelTitle: "Learn", Subtitles: []models.CatalogCue{
			{Text: "one", Start: 0, Duration: 2},
			{Text: "two", Start: 2, Duration: 3},
		}},
		{VideoID: "b2", Title: "Beta English", ChannelTitle: "Learn"},
		{VideoID: "c3", Title: "Cooking", ChannelTitle: "Kitchen English"},
		{VideoID: "d4", Title: "Drums", ChannelTitle: "Music"},
	}}
}

func TestSearchCatalogPages(t *testing.T) {
	d := openTestDB(t)
	if err := d.SeedCatalog(testCatalog()); err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}

	page, next, err := d.SearchCatalog("english", "", 2)
	if err != nil {
		t.Fatalf("SearchCatalog: %v", err)
	}
	if len(page) != 2 || page[0].VideoID != "a1" || page[1].VideoID != "b2" || next != "2" {
		t.Fatalf("page 1 = %+v next %q", page, next)
	}
	page, next, err = d.SearchCatalog("english", next, 2)
	if err != nil || len(page) != 1 || page[0].VideoID != "c3" || next != "" {
		t.Fatalf("page 2 = %+v next %q err %v", page, next, err)
	}
	if _, _, err := d.SearchCatalog("x", "abc", 2); err == nil {
		t.Fatalf("bad token accepted")
	}
}

func TestSeedCatalogIsIdempotent(t *testing.T) {
	d := openTestDB(t)
	d.SeedCatalog(testCatalog())
	if err := d.SeedCatalog(testCatalog()); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	subs, err := d.CatalogSubtitles("a1")
	if err != nil {
		t.Fatalf("CatalogSubtitles: %v", err)
	}
	if len(subs) != 2 || subs[1].SourceText != "two" || subs[1].Start != 2 || subs[1].ID != 0 {
		t.Fatalf("subs = %+v", subs)
	}
	if _, err := d.CatalogSubtitles("zz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown video err = %v", err)
	}
}

func TestLoadCatalogResolvesVTT(t *testing.T) {
	dir := t.TempDir()
	vtt := "WEBVTT\n\n1\n00:00:01.000 --> 00:00:03.500\nHello there\n\n2\n00:00:03.500 --> 00:00:05.000\nGeneral\n"
	if err := os.WriteFile(filepath.Join(dir, "a1.vtt"), []byte(vtt), 0o644); err != nil {
		t.Fatal(err)
	}
	yml := "videos:\n  - video_id: a1\n    title: Alpha\n    subtitles_vtt: a1.vtt\n"
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	cues := cat.Videos[0].Subtitles
	if len(cues) != 2 || cues[0].Text != "Hello there" || cues[0].Start != 1 || cues[0].Duration != 2.5 {
		t.Fatalf("cues = %+v", cues)
	}

	if err := os.WriteFile(path, []byte("videos:\n  - title: nameless\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(path); err == nil {
		t.Fatalf("entry without video_id accepted")
	}
}

func TestSavedVideos(t *testing.T) {
	d := openTestDB(t)
	u, _ := d.CreateUser("Aki", "aki@example.com", "hash")
	other, _ := d.CreateUser("Ben", "ben@example.com", "hash")

	req := appmodels.StoreSubtitlesRequest{
		VideoID: "v1",
		Title:   "First",
		Subtitles: []appmodels.SubtitleEntry{
			{SourceText: "hello", Start: 0, Duration: 2},
			{SourceText: "world", Start: 2, Duration: 2},
		},
	}
	id, err := d.SaveVideo(u.ID, req)
	if err != nil {
		t.Fatalf("SaveVideo: %v", err)
	}
	req.Title = "Renamed"
	again, err := d.SaveVideo(u.ID, req)
	if err != nil || again != id {
		t.Fatalf("resave id = %d (was %d), err %v", again, id, err)
	}

	videos, err := d.SavedVideos(u.ID)
	if err != nil {
		t.Fatalf("SavedVideos: %v", err)
	}
	if len(videos) != 1 || videos[0].Title != "Renamed" || len(videos[0].Subtitles) != 2 {
		t.Fatalf("videos = %+v", videos)
	}
	if sub := videos[0].Subtitles[0]; sub.ID == 0 || sub.SubtitleGroupID != int(id) {
		t.Fatalf("subtitle ids = %+v", sub)
	}
	if got, _ := d.SavedVideos(other.ID); len(got) != 0 {
		t.Fatalf("other user sees %d videos", len(got))
	}

	if found, err := d.FindSavedVideo(u.ID, "v1"); err != nil || found != id {
		t.Fatalf("FindSavedVideo = %d, %v", found, err)
	}
	if _, err := d.FindSavedVideo(other.ID, "v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user find err = %v", err)
	}
	if err := d.DeleteSavedVideo(other.ID, id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user delete err = %v", err)
	}
	if err := d.DeleteSavedVideo(u.ID, id); err != nil {
		t.Fatalf("DeleteSavedVideo: %v", err)
	}
	if _, err := d.SavedSubtitles(u.ID, "v1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted video err = %v", err)
	}
}

func TestUpdateSubtitles(t *testing.T) {
	d := openTestDB(t)
	u, _ := d.CreateUser("Aki", "aki@example.com", "hash")
	other, _ := d.CreateUser("Ben", "ben@example.com", "hash")
	id, _ := d.SaveVideo(u.ID, appmodels.StoreSubtitlesRequest{
		VideoID:   "v1",
		Subtitles: []appmodels.SubtitleEntry{{SourceText: "hello", Start: 0, Duration: 2}},
	})
	subs, _ := d.SavedSubtitles(u.ID, "v1")

	edited := subs[0]
	edited.TranslatedText = "こんにちは"
	added := appmodels.SubtitleEntry{SourceText: "new", Start: 2, Duration: 1}
	if err := d.UpdateSubtitles(u.ID, id, []appmodels.SubtitleEntry{edited, added}); err != nil {
		t.Fatalf("UpdateSubtitles: %v", err)
	}

	subs, _ = d.SavedSubtitles(u.ID, "v1")
	if len(subs) != 2 || subs[0].ID != edited.ID || subs[0].TranslatedText != "こんにちは" || subs[1].SourceText != "new" {
		t.Fatalf("subs = %+v", subs)
	}
	if err := d.UpdateSubtitles(other.ID, id, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-user update err = %v", err)
	}
	if err := d.UpdateSubtitles(u.ID, 999, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing video err = %v", err)
	}
}
