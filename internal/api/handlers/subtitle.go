package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/subtitle-study/app/internal/api/middleware"
	"github.com/subtitle-study/app/internal/db"
	"github.com/subtitle-study/app/internal/models"
)

type SubtitleHandler struct {
	db *db.Database
}

func NewSubtitleHandler(db *db.Database) *SubtitleHandler {
	return &SubtitleHandler{db: db}
}

// freshSubtitle is the extraction shape: no id, caption under "text".
type freshSubtitle struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Subtitles serves the captions of a catalog video as freshly extracted.
func (h *SubtitleHandler) Subtitles(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	entries, err := h.db.CatalogSubtitles(videoID)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "video not found", http.StatusNotFound, videoID)
		return
	}
	if err != nil {
		jsonError(w, "failed to load subtitles", http.StatusInternalServerError)
		return
	}
	out := make([]freshSubtitle, len(entries))
	for i, e := range entries {
		out[i] = freshSubtitle{Text: e.SourceText, Start: e.Start, Duration: e.Duration}
	}
	jsonResponse(w, out, http.StatusOK)
}

func (h *SubtitleHandler) SavedSubtitles(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	videoID := chi.URLParam(r, "videoId")
	entries, err := h.db.SavedSubtitles(claims.UserID, videoID)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "video is not saved", http.StatusNotFound, videoID)
		return
	}
	if err != nil {
		jsonError(w, "failed to load saved subtitles", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, entries, http.StatusOK)
}

func (h *SubtitleHandler) Store(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	var req models.StoreSubtitlesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.VideoID == "" {
		jsonError(w, "video_id is required", http.StatusBadRequest)
		return
	}
	id, err := h.db.SaveVideo(claims.UserID, req)
	if err != nil {
		log.Printf("[subtitle] store %s: %v", req.VideoID, err)
		jsonError(w, "failed to store subtitles", http.StatusInternalServerError)
		return
	}
	log.Printf("[subtitle] stored %d subtitles for %s as saved video %d", len(req.Subtitles), req.VideoID, id)
	emptyResponse(w)
}

// Update writes edited subtitles back to the saved video named by ?id=.
func (h *SubtitleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	savedID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid saved video id", http.StatusBadRequest, r.URL.Query().Get("id"))
		return
	}
	var entries []models.SubtitleEntry
	if !decodeJSON(w, r, &entries) {
		return
	}
	err = h.db.UpdateSubtitles(claims.UserID, savedID, entries)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "saved video not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to update subtitles", http.StatusInternalServerError)
		return
	}
	emptyResponse(w)
}
