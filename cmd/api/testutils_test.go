package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vmx-pso/lesson-service/internal/config"
	"github.com/vmx-pso/lesson-service/internal/data"
	"github.com/vmx-pso/lesson-service/internal/data/mocks"
	"github.com/vmx-pso/lesson-service/internal/jsonlog"
	"github.com/vmx-pso/lesson-service/internal/mailer"
)

type sentMail struct {
	recipient string
	template  string
	message   *mailer.Message
	data      map[string]any
}

// recordingMailer renders each message with the real templates instead of dialling SMTP.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(recipient, templateFile string, data any) error {
	msg, err := mailer.Render(templateFile, data)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	fields, _ := data.(map[string]any)
	m.sent = append(m.sent, sentMail{recipient: recipient, template: templateFile, message: msg, data: fields})
	return nil
}

func (m *recordingMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type testServer struct {
	*server
	db   *mocks.DB
	mail *recordingMailer
	seq  int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.Default()
	cfg.Limiter.Enabled = false

	return newTestServerWithConfig(t, cfg)
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	db := mocks.NewDB()
	logger := jsonlog.New(io.Discard, jsonlog.LevelOff)

	srv := newServer(cfg, logger, mocks.NewModels(db), prometheus.NewRegistry())
	mail := &recordingMailer{}
	srv.mailer = mail

	return &testServer{server: srv, db: db, mail: mail}
}

// newUser stores an activated user with the given roles and returns a bearer token for them.
func (ts *testServer) newUser(t *testing.T, roles ...string) (*data.User, string) {
	t.Helper()

	ts.seq++
	user := &data.User{
		Email:     fmt.Sprintf("user%d@example.com", ts.seq),
		FirstName: fmt.Sprintf("User%d", ts.seq),
		LastName:  "Test",
		IsActive:  true,
		Activated: true,
	}
	for _, role := range roles {
		switch role {
		case data.RoleAdmin:
			user.IsAdmin = true
		case data.RoleTeacher:
			user.IsTeacher = true
		case data.RoleStudent:
			user.IsStudent = true
		}
	}
	require.NoError(t, user.Password.Set("pa55word1234"))
	require.NoError(t, ts.models.Users.Insert(user))

	token, err := ts.models.Tokens.New(user.ID, time.Hour, data.ScopeAuthentication)
	require.NoError(t, err)

	return user, token.Plaintext
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

// do sends body as JSON unless it is already a string.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		js, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) response {
	t.Helper()

	rr := httptest.NewRecorder()
	ts.ServeHTTP(rr, req)

	res := response{status: rr.Code, header: rr.Header(), raw: rr.Body.String()}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res.body), rr.Body.String())
	}

	return res
}

func (r response) object(t *testing.T, key string) map[string]any {
	t.Helper()

	obj, ok := r.body[key].(map[string]any)
	require.Truef(t, ok, "no %q object in %s", key, r.raw)
	return obj
}

func (r response) list(t *testing.T, key string) []any {
	t.Helper()

	items, ok := r.body[key].([]any)
	require.Truef(t, ok, "no %q list in %s", key, r.raw)
	return items
}

func idOf(t *testing.T, obj map[string]any) int64 {
	t.Helper()

	id, ok := obj["id"].(float64)
	require.True(t, ok)
	return int64(id)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func mustToken(t *testing.T, ts *testServer, userID int64) string {
	t.Helper()

	token, err := ts.models.Tokens.New(userID, time.Hour, data.ScopeAuthentication)
	require.NoError(t, err)
	return token.Plaintext
}
