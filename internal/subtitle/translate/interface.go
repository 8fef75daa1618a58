package translate

import "context"

// SubtitleCue is one caption handed to an engine. Index carries the subtitle
// entry id so that results can be mapped back.
type SubtitleCue struct {
	Index int     `json:"index"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

type Options struct {
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
}

// Translator is the common interface for all translation engines. The result
// has the same length and order as cues.
type Translator interface {
	Translate(ctx context.Context, cues []SubtitleCue, opts Options) ([]SubtitleCue, error)
	Name() string
}
