package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	geminiAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiModel   = "gemini-2.0-flash"
)

// GeminiTranslator translates captions with the Gemini generateContent API in
// one request.
type GeminiTranslator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewGeminiTranslator(apiKey, model string) *GeminiTranslator {
	if model == "" {
		model = geminiModel
	}
	return &GeminiTranslator{
		apiKey:     apiKey,
		baseURL:    geminiAPIBase,
		model:      model,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (g *GeminiTranslator) Name() string {
	return "gemini"
}

func (g *GeminiTranslator) Translate(ctx context.Context, cues []SubtitleCue, opts Options) ([]SubtitleCue, error) {
	if g.apiKey == "" {
		return nil, errors.New("Gemini API key not configured")
	}
	if len(cues) == 0 {
		return nil, nil
	}

	reqBody := map[string]interface{}{
		"system_instruction": map[string]interface{}{
			"parts": []map[string]string{{"text": SystemPrompt(opts.SourceLang, opts.TargetLang)}},
		},
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": userPrompt(cues)}}},
		},
		"generationConfig": map[string]interface{}{
			"temperature":      0.3,
			"responseMimeType": "application/json",
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("Gemini API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{engine: "Gemini", status: resp.StatusCode, body: string(body)}
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		if reason := geminiResp.PromptFeedback.BlockReason; reason != "" {
			return nil, fmt.Errorf("Gemini blocked: %s", reason)
		}
		return nil, errors.New("empty Gemini response")
	}
	if fr := geminiResp.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
		log.Printf("[gemini] WARNING: finishReason=%s", fr)
	}

	translations, err := parseTranslations(geminiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	result, missing := merge(cues, translations)
	if missing > 0 {
		log.Printf("[gemini] %d/%d lines came back empty, kept original text", missing, len(cues))
	}
	return result, nil
}
