package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"jam/internal/alerts"
	"jam/internal/auth"
	"jam/internal/crud"
	"jam/internal/dashboard"
	"jam/internal/export"
	"jam/internal/models"
	"jam/internal/tasks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FileHandler struct {
	DB *gorm.DB
}

// Download streams a stored file's bytes with its recorded mime type.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := crud.PathID(w, r)
	if !ok {
		return
	}

	var f models.File
	err := h.DB.WithContext(r.Context()).Where("owner_id = ?", uid).First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(f.Content)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	_, _ = w.Write(f.Content)
}

type DashboardHandler struct {
	Svc *dashboard.Service
	Now func() time.Time
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}

	snap, err := h.Svc.Snapshot(r.Context(), uid, now())
	if err != nil {
		h.Svc.Log.Error("dashboard", zap.Uint64("user_id", uid), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	crud.WriteJSON(w, http.StatusOK, snap)
}

type ExportHandler struct {
	Svc *export.Service
	Log *zap.Logger
}

// CSV buffers the whole file before any header is written.
func (h *ExportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var buf bytes.Buffer
	if err := h.Svc.WriteCSV(r.Context(), &buf, uid); err != nil {
		h.Log.Error("export", zap.Uint64("user_id", uid), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="jam-export.csv"`)
	_, _ = w.Write(buf.Bytes())
}

type AlertHandler struct {
	Svc *alerts.Service
}

func (h *AlertHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := crud.PathID(w, r)
	if !ok {
		return
	}

	res, err := h.Svc.Ingest(r.Context(), uid, id)
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		http.Error(w, "Job alert email not found", http.StatusNotFound)
		return
	case err != nil:
		h.Svc.Log.Error("ingest alert", zap.Uint64("email_id", id), zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	crud.WriteJSON(w, http.StatusOK, res)
}

type ScrapeHandler struct {
	Repo *tasks.Repo
	Log  *zap.Logger
}

type scrapeReq struct {
	Platform string `json:"platform" validate:"required,oneof=linkedin indeed"`
}

// Enqueue schedules a scrape of the caller's pending postings.
func (h *ScrapeHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req scrapeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := crud.Validate(&req); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	task, err := h.Repo.EnqueueScrape(r.Context(), uid, req.Platform)
	if err != nil {
		h.Log.Error("enqueue scrape", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	h.Log.Info("scrape queued", zap.Uint64("task", task.ID), zap.Uint64("user_id", uid), zap.String("platform", req.Platform))
	crud.WriteJSON(w, http.StatusAccepted, task)
}
