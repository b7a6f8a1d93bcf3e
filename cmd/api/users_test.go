package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterActivateLogin(t *testing.T) {
	ts := newTestServer(t)

	payload := map[string]string{
		"first_name": "Jimi",
		"last_name":  "Hendrix",
		"email":      "jimi@example.com",
		"password":   "purplehaze69",
	}

	res := ts.do(t, http.MethodPost, "/v1/users", "", payload)
	require.Equal(t, http.StatusCreated, res.status, res.raw)

	user := res.object(t, "user")
	assert.Equal(t, true, user["is_student"])
	assert.Equal(t, false, user["activated"])
	assert.NotContains(t, user, "password")

	ts.wg.Wait()
	sent := ts.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "jimi@example.com", sent[0].recipient)
	assert.Equal(t, "user_welcome.tmpl", sent[0].template)
	assert.Contains(t, sent[0].message.PlainBody, "Jimi")

	activation, ok := sent[0].data["activationToken"].(string)
	require.True(t, ok)

	res = ts.do(t, http.MethodPost, "/v1/users", "", payload)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Contains(t, res.object(t, "error"), "email")

	res = ts.do(t, http.MethodPut, "/v1/users/activated", "", map[string]string{"token": activation})
	require.Equal(t, http.StatusOK, res.status, res.raw)
	assert.Equal(t, true, res.object(t, "user")["activated"])

	res = ts.do(t, http.MethodPut, "/v1/users/activated", "", map[string]string{"token": activation})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
		"email":    "jimi@example.com",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
		"email":    "jimi@example.com",
		"password": "purplehaze69",
	})
	require.Equal(t, http.StatusCreated, res.status, res.raw)

	token, ok := res.object(t, "authentication_token")["token"].(string)
	require.True(t, ok)

	res = ts.do(t, http.MethodGet, "/v1/profile", token, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "jimi@example.com", res.object(t, "user")["email"])
}

func TestRegisterUserValidation(t *testing.T) {
	ts := newTestServer(t)

	res := ts.do(t, http.MethodPost, "/v1/users", "", map[string]string{
		"first_name": "",
		"email":      "not-an-email",
		"password":   "short",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status)

	errs := res.object(t, "error")
	assert.Contains(t, errs, "first_name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	res = ts.do(t, http.MethodPost, "/v1/users", "", map[string]string{
		"first_name": "Jimi",
		"email":      "long@example.com",
		"password":   strings.Repeat("x", 73),
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.status, res.raw)
	assert.Equal(t, "must not be more than 72 bytes long", res.object(t, "error")["password"])

	res = ts.do(t, http.MethodPost, "/v1/users", "", map[string]string{
		"first_name": "Jimi",
		"email":      "exact@example.com",
		"password":   strings.Repeat("x", 72),
	})
	assert.Equal(t, http.StatusCreated, res.status, res.raw)

	res = ts.do(t, http.MethodPost, "/v1/users", "", `{"first_name": "x", "unknown": 1}`)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestUpdateProfile(t *testing.T) {
	ts := newTestServer(t)
	student, token := ts.newUser(t, "student")

	res := ts.do(t, http.MethodPatch, "/v1/profile", token, map[string]string{
		"username": "strummer",
		"bio":      "learning barre chords",
	})
	require.Equal(t, http.StatusOK, res.status, res.raw)

	user := res.object(t, "user")
	assert.Equal(t, "strummer", user["username"])
	assert.Equal(t, "learning barre chords", user["bio"])

	res = ts.do(t, http.MethodPatch, "/v1/profile", token, map[string]string{"first_name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/profile", token, map[string]string{"password": strings.Repeat("x", 73)})
	require.Equal(t, http.StatusUnprocessableEntity, res.status, res.raw)
	assert.Contains(t, res.object(t, "error"), "password")

	res = ts.do(t, http.MethodPatch, "/v1/profile", token, map[string]string{"password": "newpa55word"})
	require.Equal(t, http.StatusOK, res.status, res.raw)

	res = ts.do(t, http.MethodPost, "/v1/tokens/authentication", "", map[string]string{
		"email":    student.Email,
		"password": "newpa55word",
	})
	assert.Equal(t, http.StatusCreated, res.status, res.raw)
}

func TestAdminUsers(t *testing.T) {
	ts := newTestServer(t)
	admin, adminToken := ts.newUser(t, "admin")
	student, studentToken := ts.newUser(t, "student")

	res := ts.do(t, http.MethodGet, "/v1/admin/users", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, res.status)

	res = ts.do(t, http.MethodGet, "/v1/admin/users?role=student", adminToken, nil)
	require.Equal(t, http.StatusOK, res.status, res.raw)
	users := res.list(t, "users")
	require.Len(t, users, 1)
	assert.Equal(t, float64(student.ID), users[0].(map[string]any)["id"])

	res = ts.do(t, http.MethodGet, "/v1/admin/users?role=drummer", adminToken, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodGet, "/v1/admin/users?email="+strings.ToUpper(strings.Split(student.Email, "@")[0]), adminToken, nil)
	require.Equal(t, http.StatusOK, res.status, res.raw)
	users = res.list(t, "users")
	require.Len(t, users, 1, "email filter matches case-insensitive fragments")
	assert.Equal(t, student.Email, users[0].(map[string]any)["email"])

	res = ts.do(t, http.MethodPatch, "/v1/admin/users/"+itoa(student.ID)+"/roles", adminToken, map[string]bool{"is_teacher": true})
	require.Equal(t, http.StatusOK, res.status, res.raw)
	assert.Equal(t, true, res.object(t, "user")["is_teacher"])

	res = ts.do(t, http.MethodPost, "/v1/songs", studentToken, map[string]string{
		"title": "Wonderwall", "author": "Oasis", "level": "beginner",
	})
	assert.Equal(t, http.StatusCreated, res.status, "promoted user can now create songs")

	res = ts.do(t, http.MethodPatch, "/v1/admin/users/"+itoa(admin.ID)+"/roles", adminToken, map[string]bool{"is_admin": false})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/admin/users/"+itoa(student.ID)+"/roles", adminToken, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, res.status)

	res = ts.do(t, http.MethodGet, "/v1/profile", studentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)

	res = ts.do(t, http.MethodPatch, "/v1/admin/users/999/roles", adminToken, map[string]bool{"is_teacher": true})
	assert.Equal(t, http.StatusNotFound, res.status)
}
