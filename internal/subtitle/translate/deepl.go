package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const deeplAPIURL = "https://api-free.deepl.com/v2/translate"

// DeepLTranslator translates captions with the DeepL API, one batch per request.
type DeepLTranslator struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

func NewDeepLTranslator(apiKey string) *DeepLTranslator {
	return &DeepLTranslator{
		apiKey:     apiKey,
		endpoint:   deeplAPIURL,
		httpClient: &http.Client{Timeout: time.Minute},
	}
}

func (d *DeepLTranslator) Name() string {
	return "deepl"
}

func (d *DeepLTranslator) Translate(ctx context.Context, cues []SubtitleCue, opts Options) ([]SubtitleCue, error) {
	if d.apiKey == "" {
		return nil, errors.New("DeepL API key not configured")
	}
	result := make([]SubtitleCue, 0, len(cues))
	for i := 0; i < len(cues); i += batchSize {
		batch := cues[i:min(i+batchSize, len(cues))]
		translated, err := d.translateBatch(ctx, batch, opts)
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i/batchSize+1, err)
		}
		result = append(result, translated...)
	}
	log.Printf("[deepl] translated %d cues", len(result))
	return result, nil
}

func (d *DeepLTranslator) translateBatch(ctx context.Context, cues []SubtitleCue, opts Options) ([]SubtitleCue, error) {
	form := url.Values{}
	for _, cue := range cues {
		form.Add("text", cue.Text)
	}
	form.Set("target_lang", deeplLangCode(opts.TargetLang))
	if opts.SourceLang != "" && opts.SourceLang != "auto" {
		form.Set("source_lang", strings.ToUpper(opts.SourceLang))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("DeepL API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{engine: "DeepL", status: resp.StatusCode, body: string(body)}
	}

	var deeplResp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(body, &deeplResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	texts := make([]string, len(deeplResp.Translations))
	for i, t := range deeplResp.Translations {
		texts[i] = t.Text
	}
	result, _ := merge(cues, texts)
	return result, nil
}

// deeplLangCode converts ISO 639-1 codes to DeepL target codes.
func deeplLangCode(code string) string {
	switch code {
	case "pt":
		return "PT-BR"
	case "en":
		return "EN-US"
	}
	return strings.ToUpper(code)
}
