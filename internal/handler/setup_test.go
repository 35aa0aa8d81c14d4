package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/msomdec/recipe-api/internal/handler"
	"github.com/msomdec/recipe-api/internal/repository/sqlite"
	"github.com/msomdec/recipe-api/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

// testAPI is a router backed by a fresh database.
type testAPI struct {
	router http.Handler
	auth   *service.AuthService
	db     *sqlite.DB
}

func newTestAPI(t *testing.T) *testAPI {
	return newTestAPIWithLimiter(t, nil)
}

func newTestAPIWithLimiter(t *testing.T, limiter *service.RateLimiter) *testAPI {
	return newTestAPIWithOptions(t, limiter, handler.RouterOptions{MediaURL: "/media/"})
}

func newTestAPIWithOptions(t *testing.T, limiter *service.RateLimiter, opts handler.RouterOptions) *testAPI {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	// Cost 4 keeps bcrypt fast in tests.
	auth := service.NewAuthService(db.Users(), testJWTSecret, time.Hour, 4)
	recipes := service.NewRecipeService(db.Recipes(), db.Tags(), db.Ingredients(), db.FileStore())

	router := handler.NewRouter(handler.Services{
		Auth:        auth,
		Tags:        service.NewAttributeService(db.Tags()),
		Ingredients: service.NewAttributeService(db.Ingredients()),
		Recipes:     recipes,
		Images:      service.NewImageService(recipes, db.FileStore(), 0),
		AuthLimiter: limiter,
	}, opts)

	return &testAPI{router: router, auth: auth, db: db}
}

// userToken creates an account and returns a bearer token for it.
func (a *testAPI) userToken(t *testing.T, email string) string {
	t.Helper()
	ctx := context.Background()
	_, err := a.auth.CreateUser(ctx, email, "testpass123", "Test User")
	require.NoError(t, err)
	token, err := a.auth.IssueToken(ctx, email, "testpass123")
	require.NoError(t, err)
	return token
}

// do sends a JSON request. An empty token sends no Authorization header.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

// errorBody mirrors the JSON error response.
type errorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(2, 2, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}
