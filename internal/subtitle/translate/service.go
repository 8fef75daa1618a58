package translate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/subtitle-study/app/internal/models"
)

// ErrNoEngine is returned when no translation engine is configured.
var ErrNoEngine = errors.New("no translation engine configured")

type Config struct {
	Engine      string // preferred engine name; empty picks the first available
	SourceLang  string
	TargetLang  string
	OpenAIKey   string
	GeminiKey   string
	GeminiModel string
	DeepLKey    string
}

// Service picks one engine and answers the backend's translate endpoint.
type Service struct {
	engines map[string]Translator
	order   []string
	active  string
	opts    Options
}

// NewService registers an engine for every configured API key.
func NewService(cfg Config) *Service {
	s := &Service{
		engines: make(map[string]Translator),
		opts:    Options{SourceLang: cfg.SourceLang, TargetLang: cfg.TargetLang},
	}
	if s.opts.SourceLang == "" {
		s.opts.SourceLang = "en"
	}
	if s.opts.TargetLang == "" {
		s.opts.TargetLang = "ja"
	}
	if cfg.OpenAIKey != "" {
		s.Register(NewOpenAITranslator(cfg.OpenAIKey))
	}
	if cfg.GeminiKey != "" {
		s.Register(NewGeminiTranslator(cfg.GeminiKey, cfg.GeminiModel))
	}
	if cfg.DeepLKey != "" {
		s.Register(NewDeepLTranslator(cfg.DeepLKey))
	}
	if _, ok := s.engines[cfg.Engine]; ok {
		s.active = cfg.Engine
	} else if cfg.Engine != "" {
		log.Printf("[translate] engine %q not configured, falling back", cfg.Engine)
	}
	return s
}

// Register adds an engine. The first registered engine is active unless a
// preferred one was configured.
func (s *Service) Register(t Translator) {
	if _, ok := s.engines[t.Name()]; !ok {
		s.order = append(s.order, t.Name())
	}
	s.engines[t.Name()] = t
	log.Printf("[translate] registered %s engine", t.Name())
}

// Engine returns the active engine, or nil when none is configured.
func (s *Service) Engine() Translator {
	if s.active != "" {
		return s.engines[s.active]
	}
	if len(s.order) > 0 {
		return s.engines[s.order[0]]
	}
	return nil
}

// TranslateEntries translates entries and returns the text keyed by entry id.
func (s *Service) TranslateEntries(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error) {
	engine := s.Engine()
	if engine == nil {
		return nil, ErrNoEngine
	}
	answer := make(map[string]string, len(entries))
	if len(entries) == 0 {
		return answer, nil
	}

	cues := CuesFromEntries(entries)
	translated, err := engine.Translate(ctx, cues, s.opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", engine.Name(), err)
	}
	for _, cue := range translated {
		answer[strconv.Itoa(cue.Index)] = cue.Text
	}
	return answer, nil
}

// TranslateText translates one free-text fragment.
func (s *Service) TranslateText(ctx context.Context, text string) (string, error) {
	engine := s.Engine()
	if engine == nil {
		return "", ErrNoEngine
	}
	translated, err := engine.Translate(ctx, []SubtitleCue{{Index: 1, Text: text}}, s.opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", engine.Name(), err)
	}
	if len(translated) == 0 {
		return "", fmt.Errorf("%s: empty result", engine.Name())
	}
	return translated[0].Text, nil
}
