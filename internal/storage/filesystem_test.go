package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const sampleVTT = "WEBVTT\n\n1\n00:00:01.000 --> 00:00:03.500\nhello\n\n2\n00:00:04.000 --> 00:00:06.000\nworld\n"

const sampleSRT = "1\n00:00:00,500 --> 00:00:02,000\nfirst line\n\n2\n00:00:02,000 --> 00:00:04,250\nsecond line\n"

func TestScanCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro_talk.vtt"), sampleVTT)
	writeFile(t, filepath.Join(dir, "intro_talk.yaml"), "title: Intro Talk\nchannel_title: Study TV\nvideo_id: ignored\n")
	writeFile(t, filepath.Join(dir, "more", "news_01.srt"), sampleSRT)
	writeFile(t, filepath.Join(dir, ".hidden", "secret.vtt"), sampleVTT)
	writeFile(t, filepath.Join(dir, "notes.txt"), "not captions")

	cat, err := ScanCatalog(dir)
	if err != nil {
		t.Fatalf("ScanCatalog: %v", err)
	}
	if len(cat.Videos) != 2 {
		t.Fatalf("videos = %+v", cat.Videos)
	}

	intro := cat.Videos[0]
	if intro.VideoID != "intro_talk" || intro.Title != "Intro Talk" || intro.ChannelTitle != "Study TV" {
		t.Fatalf("intro = %+v", intro)
	}
	if len(intro.Subtitles) != 2 || intro.Subtitles[0].Start != 1 || intro.Subtitles[0].Duration != 2.5 {
		t.Fatalf("intro cues = %+v", intro.Subtitles)
	}

	news := cat.Videos[1]
	if news.VideoID != "news_01" || news.Title != "news 01" {
		t.Fatalf("news = %+v", news)
	}
	if len(news.Subtitles) != 2 || news.Subtitles[1].Text != "second line" || news.Subtitles[1].Duration != 2.25 {
		t.Fatalf("news cues = %+v", news.Subtitles)
	}
}

func TestScanCatalog_DuplicateStem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "clip.vtt"), sampleVTT)
	writeFile(t, filepath.Join(dir, "b", "clip.srt"), sampleSRT)
	if _, err := ScanCatalog(dir); err == nil {
		t.Fatal("duplicate video id accepted")
	}
}

func TestListCaptionFiles_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.vtt")
	writeFile(t, file, sampleVTT)
	if _, err := ListCaptionFiles(file); err == nil {
		t.Fatal("file accepted as directory")
	}
}
