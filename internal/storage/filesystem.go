// Package storage builds the seed catalog from a directory of caption files.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/subtitle-study/app/internal/db/models"
	"github.com/subtitle-study/app/internal/subtitle/translate"
)

type FileEntry struct {
	Name string
	Path string // relative to the scanned directory
	Size int64
}

var captionExtensions = map[string]bool{
	".vtt": true, ".srt": true,
}

func IsCaptionFile(name string) bool {
	return captionExtensions[strings.ToLower(filepath.Ext(name))]
}

// ListCaptionFiles walks basePath and returns every caption file, skipping
// hidden files and directories. Results are ordered by path.
func ListCaptionFiles(basePath string) ([]*FileEntry, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", basePath)
	}

	var results []*FileEntry
	err = filepath.WalkDir(basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if path != basePath && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsCaptionFile(d.Name()) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(basePath, path)
		results = append(results, &FileEntry{Name: d.Name(), Path: rel, Size: fi.Size()})
		return nil
	})
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, err
}

// ScanCatalog turns every caption file under basePath into a catalog video.
// The file stem is the video id. A sibling <stem>.yaml may carry the title,
// channel_title, thumbnail_url and published_at; without one the title is the
// stem with underscores as spaces.
func ScanCatalog(basePath string) (*models.Catalog, error) {
	files, err := ListCaptionFiles(basePath)
	if err != nil {
		return nil, err
	}

	cat := &models.Catalog{}
	seen := make(map[string]string)
	for _, f := range files {
		stem := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		if prev, dup := seen[stem]; dup {
			return nil, fmt.Errorf("video id %q appears in both %s and %s", stem, prev, f.Path)
		}
		seen[stem] = f.Path

		full := filepath.Join(basePath, f.Path)
		video, err := readSidecar(strings.TrimSuffix(full, filepath.Ext(full)) + ".yaml")
		if err != nil {
			return nil, err
		}
		video.VideoID = stem
		if video.Title == "" {
			video.Title = strings.ReplaceAll(stem, "_", " ")
		}

		raw, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Path, err)
		}
		video.Subtitles = nil
		for _, cue := range translate.ParseVTT(string(raw)) {
			video.Subtitles = append(video.Subtitles, models.CatalogCue{
				Text:     cue.Text,
				Start:    cue.Start,
				Duration: cue.End - cue.Start,
			})
		}
		cat.Videos = append(cat.Videos, video)
	}
	return cat, nil
}

func readSidecar(path string) (models.CatalogVideo, error) {
	var v models.CatalogVideo
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
