package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/subtitle-study/app/internal/models"
)

// SaveVideo stores a video for the user together with its subtitles. Saving
// the same video again replaces the title, thumbnail and subtitle rows.
func (d *Database) SaveVideo(userID int64, req models.StoreSubtitlesRequest) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`
		INSERT INTO saved_videos (user_id, video_id, title, thumbnail_url) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, video_id) DO UPDATE SET title=excluded.title, thumbnail_url=excluded.thumbnail_url
		RETURNING id`,
		userID, req.VideoID, req.Title, req.ThumbnailURL,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("save video: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM subtitles WHERE saved_video_id = ?", id); err != nil {
		return 0, err
	}
	for _, e := range req.Subtitles {
		if err := insertSubtitle(tx, id, e); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

func insertSubtitle(tx *sql.Tx, savedID int64, e models.SubtitleEntry) error {
	_, err := tx.Exec(
		"INSERT INTO subtitles (saved_video_id, en_subtitle, ja_subtitle, start, duration) VALUES (?, ?, ?, ?, ?)",
		savedID, e.SourceText, e.TranslatedText, e.Start, e.Duration,
	)
	if err != nil {
		return fmt.Errorf("insert subtitle: %w", err)
	}
	return nil
}

// SavedVideos lists the user's saved videos, newest first, with nested subtitles.
func (d *Database) SavedVideos(userID int64) ([]models.SavedVideo, error) {
	rows, err := d.db.Query(`
		SELECT id, video_id, title, thumbnail_url, created_at FROM saved_videos
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	videos := []models.SavedVideo{}
	for rows.Next() {
		var v models.SavedVideo
		if err := rows.Scan(&v.ID, &v.VideoID, &v.Title, &v.ThumbnailURL, &v.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		videos = append(videos, v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range videos {
		subs, err := d.subtitlesOf(int64(videos[i].ID))
		if err != nil {
			return nil, err
		}
		videos[i].Subtitles = subs
	}
	return videos, nil
}

// FindSavedVideo returns the saved id of videoID for the user, or ErrNotFound.
func (d *Database) FindSavedVideo(userID int64, videoID string) (int64, error) {
	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM saved_videos WHERE user_id = ? AND video_id = ?", userID, videoID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (d *Database) DeleteSavedVideo(userID, savedID int64) error {
	res, err := d.db.Exec("DELETE FROM saved_videos WHERE id = ? AND user_id = ?", savedID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SavedSubtitles returns the persisted subtitles of videoID for the user.
func (d *Database) SavedSubtitles(userID int64, videoID string) ([]models.SubtitleEntry, error) {
	id, err := d.FindSavedVideo(userID, videoID)
	if err != nil {
		return nil, err
	}
	return d.subtitlesOf(id)
}

func (d *Database) subtitlesOf(savedID int64) ([]models.SubtitleEntry, error) {
	rows, err := d.db.Query(`
		SELECT id, saved_video_id, en_subtitle, ja_subtitle, start, duration FROM subtitles
		WHERE saved_video_id = ? ORDER BY id ASC`, savedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows, func(e *models.SubtitleEntry) []any {
		return []any{&e.ID, &e.SubtitleGroupID, &e.SourceText, &e.TranslatedText, &e.Start, &e.Duration}
	})
}

// UpdateSubtitles writes edited entries back to saved video savedID. Entries
// with an id that belongs to the video are updated in place; the rest are
// appended as new rows.
func (d *Database) UpdateSubtitles(userID, savedID int64, entries []models.SubtitleEntry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner int64
	err = tx.QueryRow("SELECT user_id FROM saved_videos WHERE id = ?", savedID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		if e.ID > 0 {
			res, err := tx.Exec(`
				UPDATE subtitles SET en_subtitle = ?, ja_subtitle = ?, start = ?, duration = ?
				WHERE id = ? AND saved_video_id = ?`,
				e.SourceText, e.TranslatedText, e.Start, e.Duration, e.ID, savedID,
			)
			if err != nil {
				return fmt.Errorf("update subtitle %d: %w", e.ID, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				continue
			}
		}
		if err := insertSubtitle(tx, savedID, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}
