package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"staffsync/config"
	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
)

type AuthHandler struct {
	config *config.Config
	store  store.Store
}

func NewAuthHandler(cfg *config.Config, st store.Store) *AuthHandler {
	return &AuthHandler{config: cfg, store: st}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "name is required")
		return
	}
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 5 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "password must be at least 5 characters")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(w)
		return
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUnset,
		Status:       models.StatusNone,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, codeEmailTaken, "an account with this email already exists")
			return
		}
		internalError(w)
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		internalError(w)
		return
	}

	writeJSON(w, http.StatusCreated, signupResponse{User: user, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        *models.User        `json:"user"`
	Token       string              `json:"token"`
	Company     *models.Company     `json:"company,omitempty"`
	JoinRequest *models.JoinRequest `json:"joinRequest,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.UserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "invalid credentials")
		return
	}

	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		internalError(w)
		return
	}

	resp := loginResponse{User: user, Token: token}
	resp.Company = h.companyFor(r, user)
	if latest, err := h.store.LatestRequestByUser(r.Context(), user.ID); err == nil {
		resp.JoinRequest = latest
	}

	writeJSON(w, http.StatusOK, resp)
}

// companyFor resolves the company a user should see: the one they own, or
// the one their approved membership binds them to.
func (h *AuthHandler) companyFor(r *http.Request, user *models.User) *models.Company {
	if user.IsOwner() {
		if company, err := h.store.CompanyByOwner(r.Context(), user.ID); err == nil {
			return company
		}
		return nil
	}
	if user.CompanyID != nil {
		if company, err := h.store.CompanyByID(r.Context(), *user.CompanyID); err == nil {
			return company
		}
	}
	return nil
}
