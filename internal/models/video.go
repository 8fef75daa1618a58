package models

import "time"

// VideoSummary is one search hit.
type VideoSummary struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	ChannelTitle string `json:"channel_title"`
	PublishedAt  string `json:"published_at,omitempty"`
}

// SearchResponse is a page of search results.
type SearchResponse struct {
	Items         []VideoSummary `json:"items"`
	NextPageToken string         `json:"next_page_token"`
}

// SavedVideo is a video the user stored, with its persisted subtitles.
type SavedVideo struct {
	ID           int             `json:"id"`
	VideoID      string          `json:"video_id"`
	Title        string          `json:"title"`
	ThumbnailURL string          `json:"thumbnail_url"`
	CreatedAt    time.Time       `json:"created_at"`
	Subtitles    []SubtitleEntry `json:"subtitles"`
}

// DeleteSavedVideoRequest removes a saved video by its saved id.
type DeleteSavedVideoRequest struct {
	ID int `json:"id"`
}

// CheckSavedRequest asks whether a video id is already saved.
type CheckSavedRequest struct {
	VideoID string `json:"video_id"`
}

// CheckSavedResponse reports the saved id when present.
type CheckSavedResponse struct {
	ID                  *int `json:"id,omitempty"`
	IsVideoAlreadySaved bool `json:"is_video_already_saved"`
}
