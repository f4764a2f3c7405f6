package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/errs"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "x"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"x"}`, rec.Body.String())
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"http error passes", errs.NewForbiddenError("no", false), http.StatusForbidden, "FORBIDDEN"},
		{"store miss", fmt.Errorf("%w: portal_role x", store.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"unique violation", &pgconn.PgError{Code: "23505", TableName: "portal_role", ConstraintName: "portal_role_code_key"}, http.StatusConflict, "ROLE_CODE_ALREADY_EXISTS"},
		{"anything else", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(tt.err)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestErrorHidesDebugDetail(t *testing.T) {
	for _, debug := range []bool{false, true} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/x", nil)
		Error(rec, req, errors.New("connection refused"), debug, nil)

		var body errs.HTTPError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		if debug {
			assert.Equal(t, "connection refused", body.DebugDetail)
		} else {
			assert.Empty(t, body.DebugDetail)
		}
	}
}
