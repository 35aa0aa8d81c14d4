package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/recipe-api/internal/service"
)

func TestCreateUser_Success(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/user/create", "", map[string]string{
		"email":    "Test@EXAMPLE.com",
		"password": "testpass123",
		"name":     "Test Name",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, "Test Name", body["name"])
	assert.NotContains(t, body, "password")

	user, err := api.db.Users().GetByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.True(t, service.CheckPassword(user, "testpass123"))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]string{"email": "dup@example.com", "password": "testpass123"}

	require.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/user/create", "", body).Code)

	w := api.do(t, http.MethodPost, "/user/create", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Details, "email")
}

func TestCreateUser_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		body  any
		field string
	}{
		{"short password", map[string]string{"email": "short@example.com", "password": "pw"}, "password"},
		{"missing email", map[string]string{"password": "testpass123"}, "email"},
		{"bad email", map[string]string{"email": "not-an-email", "password": "testpass123"}, "email"},
		{"wrong type", map[string]any{"email": 42, "password": "testpass123"}, "email"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t)

			w := api.do(t, http.MethodPost, "/user/create", "", tc.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[errorBody](t, w).Details, tc.field)
		})
	}

	t.Run("short password is not stored", func(t *testing.T) {
		api := newTestAPI(t)
		api.do(t, http.MethodPost, "/user/create", "", map[string]string{"email": "short@example.com", "password": "pw"})

		_, err := api.db.Users().GetByEmail(context.Background(), "short@example.com")
		assert.Error(t, err)
	})
}

func TestCreateUser_BadBody(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/user/create", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty body misses required fields")

	req := httptest.NewRequest(http.MethodPost, "/user/create", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decode[errorBody](t, w).Error)
}

func TestToken_Success(t *testing.T) {
	api := newTestAPI(t)
	_, err := api.auth.CreateUser(context.Background(), "token@example.com", "testpass123", "Token")
	require.NoError(t, err)

	w := api.do(t, http.MethodPost, "/user/token", "", map[string]string{
		"email":    "TOKEN@example.com",
		"password": "testpass123",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, token)

	me := api.do(t, http.MethodGet, "/user/me", token, nil)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestToken_Rejected(t *testing.T) {
	api := newTestAPI(t)
	_, err := api.auth.CreateUser(context.Background(), "token@example.com", "goodpass", "")
	require.NoError(t, err)

	cases := map[string]map[string]string{
		"bad password":   {"email": "token@example.com", "password": "badpass"},
		"unknown email":  {"email": "nobody@example.com", "password": "goodpass"},
		"blank password": {"email": "token@example.com", "password": ""},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/user/token", "", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotContains(t, w.Body.String(), "token\":")
		})
	}
}

func TestMe_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_Get(t *testing.T) {
	api := newTestAPI(t)
	token := api.userToken(t, "me@example.com")

	w := api.do(t, http.MethodGet, "/user/me", token, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"email": "me@example.com", "name": "Test User"}, decode[map[string]string](t, w))
}

func TestMe_PostNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	token := api.userToken(t, "post@example.com")

	w := api.do(t, http.MethodPost, "/user/me", token, map[string]string{})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.NotEmpty(t, decode[errorBody](t, w).Error)
}

func TestAccountEndpoints_GetNotAllowed(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/user/create", "/user/token"} {
		t.Run(path, func(t *testing.T) {
			w := api.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, `Method "GET" not allowed.`, decode[errorBody](t, w).Error)
		})
	}
}

func TestMe_Patch(t *testing.T) {
	api := newTestAPI(t)
	token := api.userToken(t, "patch@example.com")

	w := api.do(t, http.MethodPatch, "/user/me", token, map[string]string{
		"name":     "Joule Vern",
		"password": "newpassword",
		"email":    "ignored@example.com",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]string](t, w)
	assert.Equal(t, "Joule Vern", body["name"])
	assert.Equal(t, "patch@example.com", body["email"])

	user, err := api.db.Users().GetByEmail(context.Background(), "patch@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Joule Vern", user.Name)
	assert.True(t, service.CheckPassword(user, "newpassword"))
	assert.False(t, service.CheckPassword(user, "testpass123"))
}

func TestMe_PatchShortPassword(t *testing.T) {
	api := newTestAPI(t)
	token := api.userToken(t, "weak@example.com")

	w := api.do(t, http.MethodPatch, "/user/me", token, map[string]string{"password": "pw"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[errorBody](t, w).Details, "password")
}
