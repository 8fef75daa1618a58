package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"

	"github.com/subtitle-study/app/internal/api/middleware"
	"github.com/subtitle-study/app/internal/auth"
	"github.com/subtitle-study/app/internal/db"
	"github.com/subtitle-study/app/internal/models"
)

type AuthHandler struct {
	db  *db.Database
	jwt *auth.JWTService
}

func NewAuthHandler(db *db.Database, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{db: db, jwt: jwt}
}

// SignUp registers an account. A taken email answers 200 with
// is_duplicated_email set and no token.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.AuthPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Password == "" {
		jsonError(w, "name and password are required", http.StatusBadRequest)
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		jsonError(w, "invalid email", http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		jsonError(w, "failed to hash password", http.StatusInternalServerError)
		return
	}
	user, err := h.db.CreateUser(req.Name, req.Email, hash)
	if errors.Is(err, db.ErrDuplicateEmail) {
		jsonResponse(w, models.AuthPayload{Name: req.Name, Email: req.Email, IsDuplicatedEmail: true}, http.StatusOK)
		return
	}
	if err != nil {
		log.Printf("[auth] create user: %v", err)
		jsonError(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	h.respondWithToken(w, user.ID, user.Name, user.Email)
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.AuthPayload
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.db.GetUserByEmail(strings.TrimSpace(req.Email))
	if err != nil || !auth.CheckPassword(req.Password, user.Password) {
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	h.respondWithToken(w, user.ID, user.Name, user.Email)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, id int64, name, email string) {
	token, err := h.jwt.GenerateToken(id, email, name)
	if err != nil {
		jsonError(w, "failed to generate token", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, models.AuthPayload{Name: name, Email: email, APIToken: token}, http.StatusOK)
}

func (h *AuthHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	var req models.CheckEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	exists, err := h.db.EmailExists(strings.TrimSpace(req.Email))
	if err != nil {
		jsonError(w, "failed to check email", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, models.AuthPayload{Email: req.Email, IsDuplicatedEmail: exists}, http.StatusOK)
}

// DeleteAccount removes the signed-in account after re-checking its credentials.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req models.DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.db.GetUserByID(claims.UserID)
	if errors.Is(err, db.ErrNotFound) {
		jsonError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if !strings.EqualFold(user.Email, strings.TrimSpace(req.Email)) || !auth.CheckPassword(req.Password, user.Password) {
		jsonError(w, "credentials do not match this account", http.StatusForbidden)
		return
	}
	if err := h.db.DeleteUser(user.ID); err != nil {
		jsonError(w, "failed to delete account", http.StatusInternalServerError)
		return
	}
	log.Printf("[auth] deleted account %d", user.ID)
	emptyResponse(w)
}
