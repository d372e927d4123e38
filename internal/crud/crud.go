// Package crud mounts owner-scoped create/read/update/delete routes for a model.
package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"jam/internal/auth"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

// Invalidf reports a payload that is well-formed but refers to something unusable.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Owned is the pointer capability every mounted model needs.
type Owned[M any] interface {
	*M
	GetID() uint64
	SetOwner(id uint64)
}

// Resource describes one entity's schemas. C is the create payload, U the
// partial update payload (pointer fields; nil means unchanged), O the response.
type Resource[M, C, U, O any] struct {
	Segment   string
	NotFound  string
	AdminOnly bool
	Preload   []string

	New   func(tx *gorm.DB, ownerID uint64, in C) (M, error)
	Patch func(tx *gorm.DB, ownerID uint64, m *M, in U) error
	Out   func(m *M) O
}

type Deps struct {
	DB  *gorm.DB
	Log *zap.Logger

	// Admin guards AdminOnly resources.
	Admin func(http.Handler) http.Handler

	// OnChange runs after every committed write.
	OnChange func(ctx context.Context, ownerID uint64)
}

// Identity is the Out func for models that serialize as themselves.
func Identity[M any](m *M) *M { return m }

type handler[M any, PM Owned[M], C, U, O any] struct {
	deps Deps
	res  Resource[M, C, U, O]
	log  *zap.Logger
}

// Mount registers POST /, GET /, GET /{id}, PUT /{id}, PATCH /{id} and
// DELETE /{id} under res.Segment, then any extra routes on the same subrouter.
// r must already require authentication.
func Mount[M any, PM Owned[M], C, U, O any](r chi.Router, deps Deps, res Resource[M, C, U, O], extra ...func(r chi.Router)) {
	h := &handler[M, PM, C, U, O]{
		deps: deps,
		res:  res,
		log:  deps.Log.With(zap.String("resource", res.Segment)),
	}

	r.Route("/"+res.Segment, func(r chi.Router) {
		if res.AdminOnly && deps.Admin != nil {
			r.Use(deps.Admin)
		}
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		for _, fn := range extra {
			fn(r)
		}
	})
}

// scope restricts a query to the caller's rows unless the resource is global.
func (h *handler[M, PM, C, U, O]) scope(tx *gorm.DB, uid uint64) *gorm.DB {
	if h.res.AdminOnly {
		return tx
	}
	return tx.Where("owner_id = ?", uid)
}

func (h *handler[M, PM, C, U, O]) preload(tx *gorm.DB) *gorm.DB {
	for _, p := range h.res.Preload {
		tx = tx.Preload(p)
	}
	return tx
}

func (h *handler[M, PM, C, U, O]) load(ctx context.Context, uid, id uint64) (*M, error) {
	var m M
	q := h.preload(h.scope(h.deps.DB.WithContext(ctx), uid))
	if err := q.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (h *handler[M, PM, C, U, O]) create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var in C
	if !decode(w, r, &in) {
		return
	}

	var id uint64
	err := h.deps.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		m, err := h.res.New(tx, uid, in)
		if err != nil {
			return err
		}
		PM(&m).SetOwner(uid)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		id = PM(&m).GetID()
		return nil
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.changed(r.Context(), uid)

	m, err := h.load(r.Context(), uid, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, h.res.Out(m))
}

func (h *handler[M, PM, C, U, O]) list(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	rows := []M{}
	q := h.preload(h.scope(h.deps.DB.WithContext(r.Context()), uid))
	if err := q.Order("id asc").Find(&rows).Error; err != nil {
		h.fail(w, err)
		return
	}

	out := make([]O, 0, len(rows))
	for i := range rows {
		out = append(out, h.res.Out(&rows[i]))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (h *handler[M, PM, C, U, O]) get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := PathID(w, r)
	if !ok {
		return
	}

	m, err := h.load(r.Context(), uid, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.res.Out(m))
}

func (h *handler[M, PM, C, U, O]) update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := PathID(w, r)
	if !ok {
		return
	}

	var in U
	if !decode(w, r, &in) {
		return
	}

	err := h.deps.DB.WithContext(r.Context()).Transaction(func(tx *gorm.DB) error {
		var m M
		if err := h.scope(tx, uid).First(&m, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := h.res.Patch(tx, uid, &m, in); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(&m).Error
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.changed(r.Context(), uid)

	m, err := h.load(r.Context(), uid, id)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.res.Out(m))
}

func (h *handler[M, PM, C, U, O]) delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := PathID(w, r)
	if !ok {
		return
	}

	res := h.scope(h.deps.DB.WithContext(r.Context()), uid).Delete(new(M), id)
	if res.Error != nil {
		h.fail(w, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.fail(w, ErrNotFound)
		return
	}
	h.changed(r.Context(), uid)

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler[M, PM, C, U, O]) changed(ctx context.Context, uid uint64) {
	if h.deps.OnChange != nil {
		h.deps.OnChange(ctx, uid)
	}
}

func (h *handler[M, PM, C, U, O]) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, h.res.NotFound, http.StatusNotFound)
	case errors.Is(err, ErrInvalid):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		h.log.Error("request failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

// PathID parses the {id} URL parameter, answering 400 when it is malformed.
func PathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	if err := Validate(dst); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return false
	}
	return true
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
