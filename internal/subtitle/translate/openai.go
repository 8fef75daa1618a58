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
	"strings"
	"sync"
	"time"
)

const (
	openAIChatURL = "https://api.openai.com/v1/chat/completions"
	openAIModel   = "gpt-4o-mini"
)

// OpenAITranslator translates captions with the OpenAI chat completions API.
// Large inputs are split into batches that run with bounded concurrency.
type OpenAITranslator struct {
	apiKey     string
	endpoint   string
	model      string
	retryDelay time.Duration
	httpClient *http.Client
}

func NewOpenAITranslator(apiKey string) *OpenAITranslator {
	return &OpenAITranslator{
		apiKey:     apiKey,
		endpoint:   openAIChatURL,
		model:      openAIModel,
		retryDelay: 5 * time.Second,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *OpenAITranslator) Name() string {
	return "openai"
}

func (o *OpenAITranslator) Translate(ctx context.Context, cues []SubtitleCue, opts Options) ([]SubtitleCue, error) {
	if o.apiKey == "" {
		return nil, errors.New("OpenAI API key not configured")
	}
	if len(cues) == 0 {
		return nil, nil
	}
	systemPrompt := SystemPrompt(opts.SourceLang, opts.TargetLang)

	type batchResult struct {
		cues []SubtitleCue
		err  error
	}
	totalBatches := (len(cues) + batchSize - 1) / batchSize
	results := make([]batchResult, totalBatches)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := 0; i < len(cues); i += batchSize {
		end := min(i+batchSize, len(cues))
		idx := i / batchSize

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, batch []SubtitleCue) {
			defer wg.Done()
			defer func() { <-sem }()

			translated, err := o.translateBatch(ctx, batch, systemPrompt)
			if err != nil && isTransientError(err) {
				log.Printf("[openai-translate] batch %d/%d failed (%v), retrying", idx+1, totalBatches, err)
				select {
				case <-ctx.Done():
				case <-time.After(o.retryDelay):
					translated, err = o.translateBatch(ctx, batch, systemPrompt)
				}
			}
			if err != nil {
				err = fmt.Errorf("batch %d: %w", idx+1, err)
			}
			results[idx] = batchResult{cues: translated, err: err}
		}(idx, cues[i:end])
	}
	wg.Wait()

	out := make([]SubtitleCue, 0, len(cues))
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		out = append(out, r.cues...)
	}
	log.Printf("[openai-translate] translated %d cues in %d batches", len(out), totalBatches)
	return out, nil
}

func (o *OpenAITranslator) translateBatch(ctx context.Context, cues []SubtitleCue, systemPrompt string) ([]SubtitleCue, error) {
	reqBody := map[string]interface{}{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt(cues)},
		},
		"temperature":     0.3,
		"response_format": map[string]string{"type": "json_object"},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{engine: "OpenAI", status: resp.StatusCode, body: string(body)}
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("empty OpenAI response")
	}

	translations, err := parseTranslations(chatResp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	result, missing := merge(cues, translations)
	if missing > 0 {
		log.Printf("[openai-translate] %d/%d lines came back empty, kept original text", missing, len(cues))
	}
	return result, nil
}

// apiError is a non-200 answer from an engine API.
type apiError struct {
	engine string
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.engine, e.status, e.body)
}

// isTransientError reports rate limiting, upstream 5xx and timeouts.
func isTransientError(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status == http.StatusTooManyRequests || apiErr.status >= 500
	}
	return errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout")
}
