package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"jam/internal/auth"
	"jam/internal/crud"
	"jam/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	JWT *auth.JWT
	Log *zap.Logger
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := crud.Validate(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var n int64
	if err := h.DB.WithContext(r.Context()).Model(&models.User{}).Where("email = ?", req.Email).Count(&n).Error; err != nil {
		h.Log.Error("register lookup", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	if n > 0 {
		http.Error(w, "email already used", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Log.Error("hash password", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	u := models.User{Email: req.Email, PasswordHash: hash, Theme: "mixed"}
	if err := h.DB.WithContext(r.Context()).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			http.Error(w, "email already used", http.StatusConflict)
			return
		}
		h.Log.Error("create user", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	h.Log.Info("user registered", zap.Uint64("user_id", u.ID))

	h.issue(w, http.StatusCreated, u.ID)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := crud.Validate(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	var u models.User
	if err := h.DB.WithContext(r.Context()).Where("email = ?", req.Email).First(&u).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.issue(w, http.StatusOK, u.ID)
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, uid uint64) {
	token, err := h.JWT.Sign(uid)
	if err != nil {
		h.Log.Error("sign token", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	crud.WriteJSON(w, status, map[string]any{
		"token":      token,
		"token_type": "bearer",
	})
}
