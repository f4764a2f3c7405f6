package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/identity"
	"github.com/confportal/conf-portal-api/pkg/token"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

func withIdentity(req *http.Request, id *identity.Identity) *http.Request {
	return req.WithContext(identity.Set(req.Context(), id))
}

func appIdentity(userID uuid.UUID) *identity.Identity {
	return &identity.Identity{
		UserID:    userID,
		Kind:      token.KindApp,
		FamilyID:  uuid.New(),
		ExpiresAt: fixedNow.Add(time.Hour),
		Raw:       "access-token",
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func ptr[T any](v T) *T { return &v }
