package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"jam/internal/auth"
	"jam/internal/models"
	"jam/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	j := auth.NewJWT("secret")
	tok, err := j.Sign(42)
	require.NoError(t, err)

	uid, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)

	_, err = auth.NewJWT("other").Verify(tok)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, auth.ComparePassword(hash, "correct horse"))
	assert.False(t, auth.ComparePassword(hash, "battery staple"))
}

func TestRequireAuth(t *testing.T) {
	gdb := testutil.NewDB(t)
	uid := testutil.NewUser(t, gdb, "a@test", false)
	j := auth.NewJWT("secret")
	var seen uint64
	h := auth.RequireAuth(j, gdb)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.UserIDFromContext(r.Context())
	}))
	serve := func(header string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(""))
	assert.Equal(t, http.StatusUnauthorized, serve("Bearer garbage"))

	tok, err := j.Sign(uid)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve("Bearer "+tok))
	assert.Equal(t, uid, seen)
}

func TestRequireAuthRejectsDeletedUser(t *testing.T) {
	gdb := testutil.NewDB(t)
	uid := testutil.NewUser(t, gdb, "gone@test", false)
	j := auth.NewJWT("secret")
	tok, err := j.Sign(uid)
	require.NoError(t, err)

	called := false
	h := auth.RequireAuth(j, gdb)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	require.NoError(t, gdb.Delete(&models.User{}, uid).Error)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireAdmin(t *testing.T) {
	gdb := testutil.NewDB(t)
	admin := testutil.NewUser(t, gdb, "root@test", true)
	plain := testutil.NewUser(t, gdb, "user@test", false)

	h := auth.RequireAdmin(gdb)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for uid, want := range map[uint64]int{admin: http.StatusTeapot, plain: http.StatusForbidden} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(rec, req.WithContext(auth.WithUserID(req.Context(), uid)))
		assert.Equal(t, want, rec.Code)
	}
}
