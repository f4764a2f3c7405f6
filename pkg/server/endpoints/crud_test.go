package endpoints

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/rbac"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

func newLocationCRUD(s *mockCRUD[model.Location]) *crud[model.Location, locationRequest] {
	return &crud[model.Location, locationRequest]{code: rbac.ContentLocation, store: s, rs: testResponder()}
}

func TestCRUDCreate(t *testing.T) {
	s := &mockCRUD[model.Location]{}
	id := uuid.New()
	s.On("Create", mock.MatchedBy(func(l *model.Location) bool { return l.Name == "Main Hall" })).
		Run(func(args mock.Arguments) { args.Get(0).(*model.Location).ID = id }).
		Return(nil)

	w := httptest.NewRecorder()
	newLocationCRUD(s).create(w, jsonRequest(t, "POST", "/", map[string]any{"name": "  Main Hall "}))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp idResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, id, resp.ID)
	s.AssertExpectations(t)
}

func TestCRUDCreateValidation(t *testing.T) {
	s := &mockCRUD[model.Location]{}
	w := httptest.NewRecorder()
	newLocationCRUD(s).create(w, jsonRequest(t, "POST", "/", map[string]any{"latitude": 120.5}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name")
	assert.Contains(t, w.Body.String(), "Latitude")
	s.AssertNotCalled(t, "Create", mock.Anything)
}

func TestCRUDUpdate(t *testing.T) {
	s := &mockCRUD[model.Location]{}
	id := uuid.New()
	existing := &model.Location{Base: model.Base{ID: id}, Name: "Old", Floor: ptr("3F")}
	s.On("Get", id).Return(existing, nil)
	s.On("Update", mock.MatchedBy(func(l *model.Location) bool {
		return l.ID == id && l.Name == "New" && l.Floor == nil
	})).Return(nil)

	req := withVars(jsonRequest(t, "PUT", "/", map[string]any{"name": "New"}), map[string]string{"id": id.String()})
	w := httptest.NewRecorder()
	newLocationCRUD(s).update(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	s.AssertExpectations(t)
}

func TestCRUDGetNotFound(t *testing.T) {
	s := &mockCRUD[model.Location]{}
	id := uuid.New()
	s.On("Get", id).Return(nil, store.ErrNotFound)

	w := httptest.NewRecorder()
	newLocationCRUD(s).get(w, withVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": id.String()}))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCRUDDelete(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name       string
		body       map[string]any
		setup      func(s *mockCRUD[model.Location])
		wantStatus int
	}{
		{
			name: "soft delete keeps the reason",
			body: map[string]any{"reason": "duplicate"},
			setup: func(s *mockCRUD[model.Location]) {
				s.On("Get", id).Return(&model.Location{Base: model.Base{ID: id}}, nil)
				s.On("SoftDelete", id, "duplicate").Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "permanent delete needs no reason",
			body: map[string]any{"permanent": true},
			setup: func(s *mockCRUD[model.Location]) {
				s.On("GetAny", id).Return(&model.Location{Base: model.Base{ID: id}}, nil)
				s.On("Delete", id).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "permanent delete purges a recycled item",
			body: map[string]any{"permanent": true},
			setup: func(s *mockCRUD[model.Location]) {
				s.On("GetAny", id).Return(&model.Location{Base: model.Base{ID: id, IsDeleted: true}}, nil)
				s.On("Delete", id).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "permanent delete of a missing item",
			body: map[string]any{"permanent": true},
			setup: func(s *mockCRUD[model.Location]) {
				s.On("GetAny", id).Return(nil, store.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "soft delete without reason",
			body:       map[string]any{},
			setup:      func(s *mockCRUD[model.Location]) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: map[string]any{"reason": "x"},
			setup: func(s *mockCRUD[model.Location]) {
				s.On("Get", id).Return(&model.Location{Base: model.Base{ID: id}}, nil)
				s.On("SoftDelete", id, "x").Return(errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &mockCRUD[model.Location]{}
			tt.setup(s)
			req := withVars(jsonRequest(t, "DELETE", "/", tt.body), map[string]string{"id": id.String()})
			w := httptest.NewRecorder()
			newLocationCRUD(s).delete(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			s.AssertExpectations(t)
		})
	}
}

func TestCRUDRestore(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	t.Run("restored", func(t *testing.T) {
		s := &mockCRUD[model.Location]{}
		s.On("Restore", ids).Return(int64(2), nil)
		w := httptest.NewRecorder()
		newLocationCRUD(s).restore(w, jsonRequest(t, "PUT", "/", map[string]any{"ids": ids}))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("nothing to restore", func(t *testing.T) {
		s := &mockCRUD[model.Location]{}
		s.On("Restore", ids).Return(int64(0), nil)
		w := httptest.NewRecorder()
		newLocationCRUD(s).restore(w, jsonRequest(t, "PUT", "/", map[string]any{"ids": ids}))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCRUDListAndPages(t *testing.T) {
	s := &mockCRUD[model.Location]{}
	s.On("List", false).Return(nil, nil)
	venue := uuid.New()
	s.On("Pages", mock.MatchedBy(func(q store.PageQuery) bool {
		return q.Page == 2 && q.PageSize == store.MaxPageSize && q.Keyword == "hall" && q.Filters["venue_id"] == venue
	})).Return(&store.Page[model.Location]{Page: 2, PageSize: store.MaxPageSize, Items: []model.Location{}}, nil)

	c := newLocationCRUD(s)
	c.filters = map[string]string{"venue": "venue_id"}

	w := httptest.NewRecorder()
	c.list(w, httptest.NewRequest("GET", "/list", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = httptest.NewRecorder()
	c.pages(w, httptest.NewRequest("GET", "/pages?page=2&page_size=500&keyword=+hall+&venue="+venue.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	s.AssertExpectations(t)

	w = httptest.NewRecorder()
	c.pages(w, httptest.NewRequest("GET", "/pages?venue=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
