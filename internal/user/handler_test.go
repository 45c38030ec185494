// AngelaMos | 2026
// handler_test.go

package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/advisory-backend/internal/core"
	"github.com/carterperez-dev/advisory-backend/internal/middleware"
)

func headerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithUser(r.Context(), r.Header.Get("X-Test-User"), r.Header.Get("X-Test-Role"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(t *testing.T) (http.Handler, *Service) {
	t.Helper()

	svc := NewService(newMemoryRepo())
	h := NewHandler(svc)

	r := chi.NewRouter()
	h.RegisterRoutes(r, headerAuth)
	h.RegisterAdminRoutes(r, headerAuth, middleware.RequireAdmin)
	return r, svc
}

func call(
	t *testing.T,
	h http.Handler,
	method, path, userID, role, body string,
) (int, core.Response) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Test-User", userID)
	req.Header.Set("X-Test-Role", role)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp core.Response
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	}
	return rec.Code, resp
}

func TestHandlerSelfService(t *testing.T) {
	h, svc := newTestRouter(t)
	ctx := context.Background()

	me, err := svc.Create(ctx, "me@example.com", "hash", "Me", RoleProgrammer)
	require.NoError(t, err)

	code, _ := call(t, h, http.MethodGet, "/users/me", me.ID, RoleProgrammer, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, h, http.MethodPut, "/users/me", me.ID, RoleProgrammer,
		`{"specialty":"  distributed systems "}`)
	assert.Equal(t, http.StatusOK, code)
	u, err := svc.GetUser(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, "distributed systems", u.Specialty)

	code, resp := call(t, h, http.MethodPut, "/users/me", me.ID, RoleProgrammer,
		`{"photo_url":"not a url"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	code, _ = call(t, h, http.MethodDelete, "/users/me", me.ID, RoleProgrammer, "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = call(t, h, http.MethodGet, "/users/me", me.ID, RoleProgrammer, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandlerAdminRoutes(t *testing.T) {
	h, svc := newTestRouter(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, "admin@example.com", "hash", "Admin", RoleClient)
	require.NoError(t, err)
	_, err = svc.UpdateUserRole(ctx, admin.ID, RoleAdmin)
	require.NoError(t, err)

	client, err := svc.Create(ctx, "c@example.com", "hash", "Client", RoleClient)
	require.NoError(t, err)

	code, _ := call(t, h, http.MethodGet, "/admin/users/", client.ID, RoleClient, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := call(t, h, http.MethodGet, "/admin/users/?page=0&page_size=500", admin.ID, RoleAdmin, "")
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, 100, resp.Meta.PageSize)
	assert.Equal(t, 2, resp.Meta.Total)

	code, _ = call(t, h, http.MethodPut, "/admin/users/"+client.ID+"/role", admin.ID, RoleAdmin,
		`{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, h, http.MethodPut, "/admin/users/"+client.ID+"/role", admin.ID, RoleAdmin,
		`{"role":"programmer"}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, h, http.MethodGet, "/admin/users/missing", admin.ID, RoleAdmin, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, h, http.MethodDelete, "/admin/users/"+client.ID, admin.ID, RoleAdmin, "")
	assert.Equal(t, http.StatusNoContent, code)
}
