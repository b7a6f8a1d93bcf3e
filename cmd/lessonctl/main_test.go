package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: log.New(io.Discard), Output: out})

	app := &cli.Command{
		Name:      "lessonctl",
		Writer:    io.Discard,
		ErrWriter: io.Discard,
		Commands:  runner.register(),
	}

	err := app.Run(context.Background(), append([]string{"lessonctl"}, args...))
	return out.String(), err
}

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}

	authorized := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer GOODTOKENXXXXXXXXXXXXXXXXX"
	}

	mux.HandleFunc("POST /v1/tokens/authentication", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pa55word1234" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid authentication credentials"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"authentication_token": map[string]string{"token": "GOODTOKENXXXXXXXXXXXXXXXXX", "expiry": "2026-03-11T12:00:00Z"},
		})
	})

	mux.HandleFunc("GET /v1/songs", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or missing authentication token"})
			return
		}
		assert.Equal(t, "beginner", r.URL.Query().Get("level"))
		writeJSON(w, http.StatusOK, map[string]any{
			"songs": []map[string]any{
				{"id": 1, "title": "Wonderwall", "author": "Oasis", "level": "beginner", "key": "F#m", "audio_files": []string{"songs/1/a.mp3"}},
			},
			"metadata": map[string]int{"current_page": 1, "page_size": 20, "first_page": 1, "last_page": 1, "total_records": 1},
		})
	})

	mux.HandleFunc("GET /v1/stats/songs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not permitted"})
	})

	mux.HandleFunc("GET /v1/stats/lessons", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"stats": map[string]any{
				"total_lessons":               3,
				"unique_students":             2,
				"average_lessons_per_student": 1.5,
				"by_status":                   map[string]int{"COMPLETED": 2, "SCHEDULED": 1},
				"monthly":                     []map[string]any{{"month": "2026-03", "count": 3}},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestLoginCommand(t *testing.T) {
	srv := fakeAPI(t)

	out, err := runCLI(t, "login", "--api", srv.URL, "--email", "ada@example.com", "--password", "pa55word1234")
	require.NoError(t, err)
	assert.Equal(t, "GOODTOKENXXXXXXXXXXXXXXXXX\n", out)

	_, err = runCLI(t, "login", "--api", srv.URL, "--email", "ada@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")
}

func TestSongsListCommand(t *testing.T) {
	srv := fakeAPI(t)

	out, err := runCLI(t, "songs", "list", "--api", srv.URL, "--token", "GOODTOKENXXXXXXXXXXXXXXXXX", "--level", "beginner")
	require.NoError(t, err)
	assert.Contains(t, out, "Wonderwall")
	assert.Contains(t, out, "F#m")
	assert.Contains(t, out, "page 1 of 1 (1 songs)")

	_, err = runCLI(t, "songs", "list", "--api", srv.URL, "--level", "beginner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Your session has expired. Please sign in again.")
}

func TestStatsCommands(t *testing.T) {
	srv := fakeAPI(t)

	_, err := runCLI(t, "stats", "songs", "--api", srv.URL, "--token", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "You don't have permission to manage songs.")

	out, err := runCLI(t, "stats", "lessons", "--api", srv.URL, "--token", "x")
	require.NoError(t, err)
	assert.Contains(t, out, "Lessons per student")
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "Month 2026-03")

	out, err = runCLI(t, "stats", "lessons", "--api", srv.URL, "--json")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, float64(3), decoded["total_lessons"])
}

func TestMigrateRequiresDSN(t *testing.T) {
	t.Setenv("LESSONS_DB_DSN", "")
	os.Unsetenv("LESSONS_DB_DSN")

	_, err := runCLI(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}
