package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/model"
	"github.com/capitalize-ai/coursechat/pkg/logger"
)

var (
	student = model.User{ID: "student-1", Name: "John Doe", Email: "doej@rpi.edu", Role: model.RoleStudent}
	prof    = model.User{ID: "prof-1", Name: "Dr. Smith", Email: "smithd@rpi.edu", Role: model.RoleProfessor}
)

func token(t *testing.T, issuer *auth.Issuer, u model.User) string {
	t.Helper()
	tok, _, err := issuer.Issue(u)
	require.NoError(t, err)
	return tok
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetUserID(r.Context())))
}

func TestAuth(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour)
	h := Auth(issuer)(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token(t, issuer, student), status: http.StatusOK, body: "student-1"},
		{name: "case-insensitive scheme", header: "bearer " + token(t, issuer, prof), status: http.StatusOK, body: "prof-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(model.RoleProfessor)(http.HandlerFunc(echoUser))

	for _, tc := range []struct {
		user   *model.User
		status int
	}{
		{nil, http.StatusForbidden},
		{&student, http.StatusForbidden},
		{&prof, http.StatusOK},
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tc.user != nil {
			req = req.WithContext(auth.WithIdentity(req.Context(), *tc.user))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code)
	}
}

func TestLoggingSetsCorrelationID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(Logging(logger.NewNop()))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/items/7", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Correlation-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/8", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestResponseWriterFlushes(t *testing.T) {
	rec := httptest.NewRecorder()
	var w http.ResponseWriter = &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	f, ok := w.(http.Flusher)
	require.True(t, ok)
	f.Flush()
	assert.True(t, rec.Flushed)
}

func TestUserRateLimit(t *testing.T) {
	h := UserRateLimit(2, time.Minute)(http.HandlerFunc(echoUser))

	do := func(u model.User) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithIdentity(req.Context(), u))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(student))
	assert.Equal(t, http.StatusOK, do(student))
	assert.Equal(t, http.StatusTooManyRequests, do(student))
	assert.Equal(t, http.StatusOK, do(prof), "limits are per user")
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(echoUser)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestValidation(t *testing.T) {
	assert.Error(t, ValidateMessageContent("  ", 0))
	assert.NoError(t, ValidateMessageContent("", 1))
	assert.NoError(t, ValidateMessageContent("hello", 0))
	assert.Error(t, ValidateMessageContent(strings.Repeat("a", maxContentBytes+1), 0))
	assert.Error(t, ValidateMessageContent("\xff", 0))

	assert.Error(t, ValidateTitle(""))
	assert.Error(t, ValidateTitle(strings.Repeat("t", maxTitleBytes+1)))
	assert.NoError(t, ValidateTitle("Week 3 review"))

	assert.Error(t, ValidateID(""))
	assert.Error(t, ValidateID(strings.Repeat("x", maxIDBytes+1)))
	assert.NoError(t, ValidateID("csci-1100"))

	tags, err := ValidateTags([]model.Tag{" Exam", "homework"})
	require.NoError(t, err)
	assert.Equal(t, []model.Tag{model.TagExam, model.TagHomework}, tags)
	_, err = ValidateTags([]model.Tag{"bogus"})
	assert.Error(t, err)
}
