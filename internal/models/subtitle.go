package models

import "encoding/json"

// SubtitleEntry is one timed caption unit. ID is assigned by the backend and is
// the ascending sort key within a video's subtitle set.
type SubtitleEntry struct {
	ID              int     `json:"id"`
	SubtitleGroupID int     `json:"subtitle_group_id"`
	SourceText      string  `json:"en_subtitle"`
	TranslatedText  string  `json:"ja_subtitle"`
	Start           float64 `json:"start"`    // seconds
	Duration        float64 `json:"duration"` // seconds
}

// End returns the time the entry stops being displayed.
func (e SubtitleEntry) End() float64 {
	return e.Start + e.Duration
}

// StoreSubtitlesRequest saves a video together with its subtitle list.
type StoreSubtitlesRequest struct {
	VideoID      string          `json:"video_id"`
	Title        string          `json:"title"`
	ThumbnailURL string          `json:"thumbnail_url"`
	Subtitles    []SubtitleEntry `json:"subtitles"`
}

// TranslateSubtitlesRequest asks for a batch translation of selected entries.
type TranslateSubtitlesRequest struct {
	Subtitles  []SubtitleEntry `json:"subtitles"`
	ArrayCount int             `json:"array_count"`
}

// TranslateContentRequest asks for a translation of a free-text fragment.
type TranslateContentRequest struct {
	Content string `json:"content"`
}

// TranslateResponse maps entry ids (as decimal strings) to translated text.
// Content translations use the "content" key.
type TranslateResponse struct {
	Answer map[string]string `json:"answer"`
}

// ContentAnswerKey is the answer key used for free-text translations.
const ContentAnswerKey = "content"

// UnmarshalJSON accepts the fresh-subtitle shape, which carries the caption as "text"
// instead of "en_subtitle".
func (e *SubtitleEntry) UnmarshalJSON(data []byte) error {
	type plain SubtitleEntry
	var aux struct {
		plain
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = SubtitleEntry(aux.plain)
	if e.SourceText == "" {
		e.SourceText = aux.Text
	}
	return nil
}
