package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/subtitle-study/app/internal/models"
	"github.com/subtitle-study/app/internal/subtitle/translate"
)

// Translator is the slice of translate.Service the endpoint needs.
type Translator interface {
	TranslateEntries(ctx context.Context, entries []models.SubtitleEntry) (map[string]string, error)
	TranslateText(ctx context.Context, text string) (string, error)
}

type TranslateHandler struct {
	translator Translator
}

func NewTranslateHandler(t Translator) *TranslateHandler {
	return &TranslateHandler{translator: t}
}

type translateRequest struct {
	Subtitles  []models.SubtitleEntry `json:"subtitles"`
	ArrayCount int                    `json:"array_count"`
	Content    *string                `json:"content"`
}

// Translate answers {answer: {id: text}} for a subtitle batch or
// {answer: {"content": text}} for a free-text fragment.
func (h *TranslateHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		answer map[string]string
		err    error
	)
	switch {
	case req.Content != nil:
		if *req.Content == "" {
			jsonError(w, "content is empty", http.StatusBadRequest)
			return
		}
		var text string
		text, err = h.translator.TranslateText(r.Context(), *req.Content)
		answer = map[string]string{models.ContentAnswerKey: text}
	case len(req.Subtitles) > 0:
		if req.ArrayCount != 0 && req.ArrayCount != len(req.Subtitles) {
			jsonError(w, "array_count does not match subtitles", http.StatusBadRequest)
			return
		}
		answer, err = h.translator.TranslateEntries(r.Context(), req.Subtitles)
	default:
		jsonError(w, "subtitles or content is required", http.StatusBadRequest)
		return
	}

	if errors.Is(err, translate.ErrNoEngine) {
		jsonError(w, "translation is not available", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("[translate] %v", err)
		jsonError(w, "translation failed", http.StatusBadGateway)
		return
	}
	jsonResponse(w, models.TranslateResponse{Answer: answer}, http.StatusOK)
}
