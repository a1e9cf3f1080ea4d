package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"dropline-api/auth"
	"dropline-api/handlers"
	"dropline-api/models"
	"dropline-api/routes"
	"dropline-api/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	store  store.Store
	tokens *auth.TokenIssuer
}

func newMemoryStore(t *testing.T) *store.Memory {
	t.Helper()
	s := store.NewMemory()
	for _, r := range models.Roles {
		require.NoError(t, s.EnsureUniqueIndex(context.Background(), r.Collection(), "email"))
	}
	return s
}

func newTestServer(t *testing.T, s store.Store, hasher auth.Hasher) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour)

	h := handlers.New(handlers.Deps{
		Store:     s,
		Hasher:    hasher,
		Tokens:    tokens,
		DBTimeout: time.Second,
		Log:       log,
	})

	return &testServer{engine: routes.NewEngine(log, h, tokens), store: s, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func merchantPayload(email string) map[string]any {
	return map[string]any{
		"shop_name": "Acme",
		"category":  "crafts",
		"city":      "Metropolis",
		"address":   "1 Main St",
		"email":     email,
		"phone":     "555",
		"password":  "secret",
	}
}

func customerPayload(email string) map[string]any {
	return map[string]any{
		"full_name": "Lois Lane",
		"city":      "Metropolis",
		"address":   "2 Daily Planet Plaza",
		"email":     email,
		"phone":     "556",
		"password":  "hunter2",
	}
}

func driverPayload(email string) map[string]any {
	return map[string]any{
		"full_name":    "Jimmy Olsen",
		"city":         "Metropolis",
		"vehicle_type": "bike",
		"email":        email,
		"phone":        "557",
		"password":     "pedal",
	}
}

// failingStore is available but fails every call with err.
type failingStore struct {
	store.Unavailable
	err error
}

func (f failingStore) Available() bool { return true }

func (f failingStore) InsertOne(context.Context, string, any) (string, error) { return "", f.err }

func (f failingStore) FindOne(context.Context, string, store.Filter, any) error { return f.err }

func (f failingStore) ListCollections(context.Context) ([]string, error) { return nil, f.err }

var errBoom = errors.New("connection reset by peer while reading the reply from the primary node of the replica set")
