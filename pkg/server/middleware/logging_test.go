package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"flat", `{"email":"a@b.c","password":"p"}`, `{"email":"a@b.c","password":"********"}`},
		{"nested", `{"tokens":{"access_token":"x","refresh_token":"y","token_type":"bearer"}}`, `{"tokens":{"access_token":"********","refresh_token":"********","token_type":"bearer"}}`},
		{"array", `[{"fcm_token":"t"}]`, `[{"fcm_token":"********"}]`},
		{"case insensitive", `{"Password":"p"}`, `{"Password":"********"}`},
		{"not json", `password=p`, `"********"`},
		{"empty", ``, `null`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, string(MaskBody([]byte(tt.in))))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var out bytes.Buffer
	logger := zerolog.New(&out).Level(zerolog.DebugLevel)

	var seenBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seenBody = string(b)
		setUserID(r.Context(), "user-1")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/auth/login", strings.NewReader(`{"email":"a@b.c","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	RequestID(RequestLogger(logger)(next)).ServeHTTP(rec, req)

	assert.Equal(t, `{"email":"a@b.c","password":"secret"}`, seenBody, "handler still reads the full body")
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.NotContains(t, out.String(), "secret")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "API", entry["message"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), entry["request_id"])
}

func TestRequestIDReusesHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc")
	var got string
	rec := httptest.NewRecorder()
	RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	})).ServeHTTP(rec, req)

	assert.Equal(t, "abc", got)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}
