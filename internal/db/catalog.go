package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/subtitle-study/app/internal/db/models"
	appmodels "github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/subtitle/translate"
)

// LoadCatalog reads a YAML catalog file. Relative subtitles_vtt paths are
// resolved against the catalog's directory and parsed into inline cues.
func LoadCatalog(path string) (*models.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var cat models.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range cat.Videos {
		v := &cat.Videos[i]
		if v.VideoID == "" {
			return nil, fmt.Errorf("catalog entry %d: missing video_id", i)
		}
		if v.SubtitlesVTT == "" {
			continue
		}
		vttPath := v.SubtitlesVTT
		if !filepath.IsAbs(vttPath) {
			vttPath = filepath.Join(filepath.Dir(path), vttPath)
		}
		raw, err := os.ReadFile(vttPath)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: read vtt: %w", v.VideoID, err)
		}
		for _, cue := range translate.ParseVTT(string(raw)) {
			v.Subtitles = append(v.Subtitles, models.CatalogCue{
				Text:     cue.Text,
				Start:    cue.Start,
				Duration: cue.End - cue.Start,
			})
		}
	}
	return &cat, nil
}

// SeedCatalog upserts every catalog video and replaces its captions.
func (d *Database) SeedCatalog(cat *models.Catalog) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, v := range cat.Videos {
		_, err := tx.Exec(`
			INSERT INTO catalog_videos (video_id, title, thumbnail_url, channel_title, published_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(video_id) DO UPDATE SET title=excluded.title, thumbnail_url=excluded.thumbnail_url,
				channel_title=excluded.channel_title, published_at=excluded.published_at`,
			v.VideoID, v.Title, v.ThumbnailURL, v.ChannelTitle, v.PublishedAt,
		)
		if err != nil {
			return fmt.Errorf("seed %s: %w", v.VideoID, err)
		}
		if _, err := tx.Exec("DELETE FROM catalog_subtitles WHERE video_id = ?", v.VideoID); err != nil {
			return err
		}
		for i, cue := range v.Subtitles {
			_, err := tx.Exec(
				"INSERT INTO catalog_subtitles (video_id, position, text, start, duration) VALUES (?, ?, ?, ?, ?)",
				v.VideoID, i, cue.Text, cue.Start, cue.Duration,
			)
			if err != nil {
				return fmt.Errorf("seed %s cue %d: %w", v.VideoID, i, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[db] catalog seeded with %d videos", len(cat.Videos))
	return nil
}

// SearchCatalog returns up to limit videos whose title or channel contains
// query, starting at the offset encoded in pageToken. The returned token is
// empty on the last page.
func (d *Database) SearchCatalog(query, pageToken string, limit int) ([]appmodels.VideoSummary, string, error) {
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}
	pattern := "%" + strings.ToLower(query) + "%"
	// One extra row tells whether another page exists.
	rows, err := d.db.Query(`
		SELECT video_id, title, thumbnail_url, channel_title, published_at FROM catalog_videos
		WHERE lower(title) LIKE ? OR lower(channel_title) LIKE ?
		ORDER BY title ASC, video_id ASC LIMIT ? OFFSET ?`,
		pattern, pattern, limit+1, offset,
	)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	items := []appmodels.VideoSummary{}
	for rows.Next() {
		var v appmodels.VideoSummary
		if err := rows.Scan(&v.VideoID, &v.Title, &v.ThumbnailURL, &v.ChannelTitle, &v.PublishedAt); err != nil {
			return nil, "", err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		next = strconv.Itoa(offset + limit)
	}
	return items, next, nil
}

// CatalogSubtitles returns the captions of a catalog video in playback order.
// Fresh captions have no stable id.
func (d *Database) CatalogSubtitles(videoID string) ([]appmodels.SubtitleEntry, error) {
	var exists int
	err := d.db.QueryRow("SELECT COUNT(*) FROM catalog_videos WHERE video_id = ?", videoID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}
	rows, err := d.db.Query(
		"SELECT text, start, duration FROM catalog_subtitles WHERE video_id = ? ORDER BY position ASC", videoID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows, func(e *appmodels.SubtitleEntry) []any {
		return []any{&e.SourceText, &e.Start, &e.Duration}
	})
}

func scanEntries(rows *sql.Rows, dest func(*appmodels.SubtitleEntry) []any) ([]appmodels.SubtitleEntry, error) {
	entries := []appmodels.SubtitleEntry{}
	for rows.Next() {
		var e appmodels.SubtitleEntry
		if err := rows.Scan(dest(&e)...); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
