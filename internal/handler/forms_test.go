package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func postJSON(t *testing.T, env *testEnv, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func getJSON(t *testing.T, env *testEnv, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestEmailSignup_HappyPathThenDuplicate(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/email-signup", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, "ada@example.com", created.Email)

	// Same email again: 400 with the duplicate message the form shows.
	rec = postJSON(t, env, "/api/email-signup", `{"name":"Ada","email":"ada@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "duplicate", errResp.Error)
	assert.Equal(t, "Email already registered", errResp.Message)
}

func TestEmailSignup_ValidationError(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/email-signup", `{"name":"Ada"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "validation_error", errResp.Error)
}

func TestEmailSignup_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/email-signup", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContact_RepeatSubmissionsAllowed(t *testing.T) {
	env := newTestEnv(t)
	body := `{"name":"Ada","email":"ada@example.com","message":"hello"}`

	assert.Equal(t, http.StatusCreated, postJSON(t, env, "/api/contact", body).Code)
	assert.Equal(t, http.StatusCreated, postJSON(t, env, "/api/contact", body).Code)
}

func TestCreateAccount_HidesPasswordHash(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/users", `{"name":"Ada","email":"ada@example.com","password":"hunter2"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	// json:"-" on the hash field keeps it out of every response.
	assert.NotContains(t, rec.Body.String(), "$2")
	assert.NotContains(t, rec.Body.String(), "hunter2")
}

func TestAdminListings_RequireSession(t *testing.T) {
	env := newTestEnv(t)
	postJSON(t, env, "/api/email-signup", `{"name":"Ada","email":"ada@example.com"}`)

	rec := getJSON(t, env, "/api/email-signups")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = getJSON(t, env, "/api/email-signups", env.adminCookie(t))
	assert.Equal(t, http.StatusOK, rec.Code)

	var signups []map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &signups))
	assert.Len(t, signups, 1)
}

func TestAdminLogin_SetsSessionCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/admin/login", `{"username":"admin","password":"hunter2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	var session *http.Cookie
	for _, c := range cookies {
		if c.Name == "admin_session" {
			session = c
		}
	}
	if assert.NotNil(t, session, "admin_session cookie not set") {
		assert.True(t, session.HttpOnly)
		assert.NotEmpty(t, session.Value)

		// The cookie from login works on a guarded route.
		got := getJSON(t, env, "/api/contact-messages", session)
		assert.Equal(t, http.StatusOK, got.Code)
	}
}

func TestAdminLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/admin/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAdminLogout_ClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/api/admin/logout", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	if assert.Len(t, cookies, 1) {
		assert.Equal(t, "admin_session", cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	}
}
