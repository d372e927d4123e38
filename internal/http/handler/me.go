package handler

import (
	"encoding/json"
	"net/http"

	"jam/internal/auth"
	"jam/internal/crud"
	"jam/internal/models"

	"gorm.io/gorm"
)

type MeHandler struct {
	DB *gorm.DB
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := h.current(w, r)
	if !ok {
		return
	}
	crud.WriteJSON(w, http.StatusOK, u)
}

type themeReq struct {
	Theme string `json:"theme" validate:"required,oneof=light dark mixed"`
}

// UpdateTheme stores the caller's UI theme preference.
func (h *MeHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var req themeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := crud.Validate(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	u, ok := h.current(w, r)
	if !ok {
		return
	}
	if err := h.DB.WithContext(r.Context()).Model(u).Update("theme", req.Theme).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	u.Theme = req.Theme
	crud.WriteJSON(w, http.StatusOK, u)
}

func (h *MeHandler) current(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	uid, _ := auth.UserIDFromContext(r.Context())
	var u models.User
	if err := h.DB.WithContext(r.Context()).First(&u, uid).Error; err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return &u, true
}
