package models

// CatalogVideo is one searchable video of the seed catalog. Captions come
// either inline or from a WebVTT file resolved relative to the catalog file.
type CatalogVideo struct {
	VideoID      string       `yaml:"video_id"`
	Title        string       `yaml:"title"`
	ThumbnailURL string       `yaml:"thumbnail_url"`
	ChannelTitle string       `yaml:"channel_title"`
	PublishedAt  string       `yaml:"published_at"`
	SubtitlesVTT string       `yaml:"subtitles_vtt"`
	Subtitles    []CatalogCue `yaml:"subtitles"`
}

type CatalogCue struct {
	Text     string  `yaml:"text"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
}

type Catalog struct {
	Videos []CatalogVideo `yaml:"videos"`
}
