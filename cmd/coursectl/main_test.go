package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/config"
	"github.com/capitalize-ai/coursechat/internal/model"
)

func TestMintToken(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s3cret", JWTExpiration: time.Hour}

	tok, expires, err := mintToken(context.Background(), cfg, model.RoleProfessor)
	require.NoError(t, err)
	assert.True(t, expires.After(time.Now()))

	user, err := auth.NewIssuer("s3cret", time.Hour).Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "prof-1", user.ID)

	_, _, err = mintToken(context.Background(), cfg, "admin")
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}

func TestFetchCourses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "/api/v1/courses", r.URL.Path)
		assert.Equal(t, "math", r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"courses":[{"id":"math-1010","code":"MATH 1010","name":"Calculus I"}],"total":1}`))
	}))
	defer srv.Close()

	resp, err := fetchCourses(context.Background(), srv.Client(), srv.URL, "tok", "math")
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "math-1010", resp.Courses[0].ID)

	_, err = fetchCourses(context.Background(), srv.Client(), srv.URL, "bad", "math")
	assert.ErrorContains(t, err, "401")
}
