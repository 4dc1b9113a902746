// Package integration exercises the dayplan HTTP API end to end: real
// SQLite storage, real JWT verification and a Redis revocation list.
package integration

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/dayplan/internal/auth"
	"github.com/mesh-intelligence/dayplan/internal/httpapi"
	"github.com/mesh-intelligence/dayplan/internal/sqlite"
	"github.com/mesh-intelligence/dayplan/internal/tasks"
	"github.com/mesh-intelligence/dayplan/pkg/types"
)

const testSecret = "integration-secret"

// TestEnv is an isolated server with its own database and Redis.
type TestEnv struct {
	t      *testing.T
	Server *httptest.Server
	Auth   *auth.Auth
	Store  types.TaskStore
}

// NewTestEnv starts a server over a fresh data directory.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	backend := sqlite.NewBackend()
	require.NoError(t, backend.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { backend.Detach() })
	store, err := backend.Tasks()
	require.NoError(t, err)

	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { rc.Close() })

	authn, err := auth.New(auth.Options{
		Secret:   []byte(testSecret),
		Audience: "dayplan",
		Revoker:  auth.NewRedisRevoker(rc),
	})
	require.NoError(t, err)
	t.Cleanup(authn.Close)

	logger, _ := test.NewNullLogger()
	e := httpapi.New(httpapi.Config{
		Service:     tasks.NewService(store),
		Auth:        authn,
		Health:      backend,
		Logger:      logger,
		HideForeign: true,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	return &TestEnv{t: t, Server: srv, Auth: authn, Store: store}
}

// Token issues a bearer token for user.
func (env *TestEnv) Token(user string) string {
	env.t.Helper()
	token, err := env.Auth.Issue(user, time.Hour)
	require.NoError(env.t, err)
	return token
}

// Response is a completed HTTP exchange.
type Response struct {
	Status int
	Body   []byte
}

// Do sends a request with an optional bearer token and JSON body.
func (env *TestEnv) Do(method, path, token, body string) Response {
	env.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, env.Server.URL+path, r)
	require.NoError(env.t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.Server.Client().Do(req)
	require.NoError(env.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(env.t, err)
	return Response{Status: resp.StatusCode, Body: data}
}

// MustDo is Do that fails the test unless the status matches.
func (env *TestEnv) MustDo(want int, method, path, token, body string) Response {
	env.t.Helper()
	resp := env.Do(method, path, token, body)
	require.Equal(env.t, want, resp.Status, "%s %s: %s", method, path, resp.Body)
	return resp
}

// CreateTask creates a task through the API and returns it.
func (env *TestEnv) CreateTask(token, statement, date string) *types.Task {
	env.t.Helper()
	body, err := sonic.MarshalString(map[string]any{"statement": statement, "task_date": date})
	require.NoError(env.t, err)
	resp := env.MustDo(http.StatusCreated, http.MethodPost, "/api/tasks", token, body)
	return ParseJSON[TaskEnvelope](env.t, resp.Body).Data
}

// ListTasks lists tasks with the given raw query string.
func (env *TestEnv) ListTasks(token, query string) []*types.Task {
	env.t.Helper()
	path := "/api/tasks"
	if query != "" {
		path += "?" + query
	}
	resp := env.MustDo(http.StatusOK, http.MethodGet, path, token, "")
	return ParseJSON[DataList[*types.Task]](env.t, resp.Body).Data
}

// Reorder posts a reorder request and returns the response.
func (env *TestEnv) Reorder(token, date string, ids ...string) Response {
	env.t.Helper()
	body, err := sonic.MarshalString(map[string]any{"date": date, "task_ids": ids})
	require.NoError(env.t, err)
	return env.Do(http.MethodPost, "/api/tasks/reorder", token, body)
}

// TaskEnvelope is the single-task response body.
type TaskEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    *types.Task `json:"data"`
}

// DataList is the collection response body.
type DataList[T any] struct {
	Data []T `json:"data"`
}

// ValidationBody is the 422 response body.
type ValidationBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// ParseJSON decodes body into T or fails the test.
func ParseJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(body, &v), "body: %s", body)
	return v
}

func ids(list []*types.Task) []string {
	out := make([]string, len(list))
	for i, task := range list {
		out[i] = task.ID
	}
	return out
}
