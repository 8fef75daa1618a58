package translate

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	batchSize   = 40
	concurrency = 3
)

// SystemPrompt frames the engine as a tutor translating captions for a learner.
func SystemPrompt(sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"You translate %s video captions into %s for a language learner. "+
			"Keep each translation faithful to the original line so it can be compared side by side. "+
			"Prefer natural everyday phrasing and keep idioms recognizable. "+
			"Never merge or split lines.",
		langName(sourceLang), langName(targetLang),
	)
}

func userPrompt(cues []SubtitleCue) string {
	var b strings.Builder
	b.WriteString("Translate the following caption lines. Return ONLY a JSON array of strings, one per line, same order.\n\n")
	for _, cue := range cues {
		fmt.Fprintf(&b, "[%d] %s\n", cue.Index, cue.Text)
	}
	fmt.Fprintf(&b, "\nReturn exactly %d translations.", len(cues))
	return b.String()
}

// parseTranslations accepts a bare JSON array, an object wrapping one, or an
// array embedded in surrounding prose.
func parseTranslations(content string) ([]string, error) {
	// LLMs sometimes return ASS-style \N which is an invalid JSON escape.
	content = strings.ReplaceAll(content, `\N`, `\n`)

	var out []string
	if err := json.Unmarshal([]byte(content), &out); err == nil {
		return out, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil {
		for _, v := range wrapped {
			if err := json.Unmarshal(v, &out); err == nil {
				return out, nil
			}
		}
	}
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &out); err == nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no translation array in response: %q", content)
}

// merge copies timing from cues and takes text from translations, falling back
// to the original line when a translation is missing or blank.
func merge(cues []SubtitleCue, translations []string) (result []SubtitleCue, missing int) {
	result = make([]SubtitleCue, len(cues))
	for i, cue := range cues {
		result[i] = cue
		if i < len(translations) && strings.TrimSpace(translations[i]) != "" {
			result[i].Text = translations[i]
		} else {
			missing++
		}
	}
	return result, missing
}

func langName(code string) string {
	names := map[string]string{
		"en":   "English",
		"ja":   "Japanese",
		"ko":   "Korean",
		"zh":   "Chinese",
		"es":   "Spanish",
		"fr":   "French",
		"de":   "German",
		"pt":   "Portuguese",
		"it":   "Italian",
		"auto": "auto-detected language",
	}
	if name, ok := names[code]; ok {
		return name
	}
	return code
}
