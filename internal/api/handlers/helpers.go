package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/subtitle-study/app/internal/models"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// emptyResponse answers 200 with no body; clients decode it as models.Empty.
func emptyResponse(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// jsonError writes the {code, message, detail} envelope clients map to typed errors.
func jsonError(w http.ResponseWriter, msg string, status int, detail ...string) {
	body := models.ErrorBody{Code: status, Message: msg}
	if len(detail) > 0 {
		body.Detail = detail[0]
	}
	jsonResponse(w, body, status)
}

// decodeJSON reads one JSON value from the request body. An oversized body
// answers 413 and an invalid one 400; either way false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, io.EOF):
		jsonError(w, "request body is empty", http.StatusBadRequest)
	default:
		jsonError(w, "invalid request body", http.StatusBadRequest, err.Error())
	}
	return false
}
