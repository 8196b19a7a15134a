package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fiszkiapp/fiszki-api/auth"
	"github.com/fiszkiapp/fiszki-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterCreatesLocalAccount(t *testing.T) {
	db := newTestDB(t)
	h := newTestHandler(t, db)

	rec := postJSON(h.Register, `{"email":"Anna@Example.COM","password":"correct horse","nickname":"anna"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, db.Where("email = ?", "anna@example.com").First(&user).Error)
	assert.True(t, strings.HasPrefix(user.Subject, "local|"))
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	db := newTestDB(t)
	h := newTestHandler(t, db)

	rec := postJSON(h.Register, `{"email":"","password":"longenough"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(h.Register, `{"email":"a@b.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	h := newTestHandler(t, db)

	rec := postJSON(h.Register, `{"email":"dup@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(h.Register, `{"email":"DUP@example.com","password":"another pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginIssuesTokenAndCookie(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	db := newTestDB(t)
	h := newTestHandler(t, db)

	rec := postJSON(h.Register, `{"email":"login@example.com","password":"correct horse","nickname":"anna"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(h.Login, `{"email":"login@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.NotEmpty(t, body["token"])
	assert.Equal(t, "anna", body["nickname"])
	assert.NoError(t, auth.VerifyToken(body["token"]))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.Equal(t, body["token"], cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	db := newTestDB(t)
	h := newTestHandler(t, db)

	rec := postJSON(h.Register, `{"email":"who@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(h.Login, `{"email":"who@example.com","password":"wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(h.Login, `{"email":"nobody@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutExpiresCookie(t *testing.T) {
	db := newTestDB(t)
	h := newTestHandler(t, db)

	rec := postJSON(h.Logout, ``)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
