package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"notes_system/internal/api"
	"notes_system/internal/events"
	"notes_system/internal/metrics"
	"notes_system/internal/middleware"
	"notes_system/internal/store"
	"notes_system/internal/testutil"
	"notes_system/internal/utils"
)

var (
	testSecret = []byte("test-secret")
	testNow    = time.Date(2024, 5, 4, 10, 11, 12, 345000000, time.UTC)
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	users   *store.UserStore
	notes   *store.NoteStore
	tokens  *utils.TokenService
	events  *recordingPublisher
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gdb := testutil.NewDB(t)
	s := &testServer{
		t:       t,
		db:      gdb,
		users:   store.NewUserStore(gdb, utils.NewBcryptHasher(bcrypt.MinCost), nil),
		notes:   store.NewNoteStore(gdb, nil, 0).WithClock(func() time.Time { return testNow }),
		tokens:  utils.NewTokenService(testSecret),
		events:  &recordingPublisher{},
		metrics: metrics.New(),
	}
	s.router = api.NewRouter(api.Deps{
		DB:      gdb,
		Users:   s.users,
		Notes:   s.notes,
		Tokens:  s.tokens,
		Events:  s.events,
		Metrics: s.metrics,
		Auth: middleware.AuthOptions{
			PublicPrefixes: []string{"/api/auth", "/notes", "/health", "/metrics"},
		},
		CORSOrigins: []string{"*"},
	})
	return s
}

// do sends a request; body is JSON-encoded unless it is already a string.
func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register creates a user through the API and returns the auth payload.
func (s *testServer) register(username, email, password string) api.AuthResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", gin.H{"username": username, "email": email, "password": password})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp api.AuthResponse
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
