package handlers

import (
	"errors"
	"net/http"

	"github.com/subtitle-study/app/internal/api/middleware"
	"github.com/subtitle-study/app/internal/db"
	"github.com/subtitle-study/app/internal/models"
)

// SearchPageSize is the number of results per search page.
const SearchPageSize = 10

type VideoHandler struct {
	db *db.Database
}

func NewVideoHandler(db *db.Database) *VideoHandler {
	return &VideoHandler{db: db}
}

func (h *VideoHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, next, err := h.db.SearchCatalog(q.Get("query"), q.Get("next_page_token"), SearchPageSize)
	if err != nil {
		jsonError(w, "search failed", http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, models.SearchResponse{Items: items, NextPageToken: next}, http.StatusOK)
}

func (h *VideoHandler) SavedVideos(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	videos, err := h.db.SavedVideos(claims.UserID)
	if err != nil {
		jsonError(w, "failed to list saved videos", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, videos, http.StatusOK)
}

func (h *VideoHandler) DeleteSavedVideo(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	var req models.DeleteSavedVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.db.DeleteSavedVideo(claims.UserID, int64(req.ID))
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "saved video not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete saved video", http.StatusInternalServerError)
		return
	}
	emptyResponse(w)
}

func (h *VideoHandler) CheckAlreadySaved(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	var req models.CheckSavedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := h.db.FindSavedVideo(claims.UserID, req.VideoID)
	if errors.Is(err, db.ErrNotFound) {
		jsonResponse(w, models.CheckSavedResponse{}, http.StatusOK)
		return
	}
	if err != nil {
		jsonError(w, "failed to check saved video", http.StatusInternalServerError)
		return
	}
	savedID := int(id)
	jsonResponse(w, models.CheckSavedResponse{ID: &savedID, IsVideoAlreadySaved: true}, http.StatusOK)
}
