package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/server/store"
)

func TestActiveConference(t *testing.T) {
	conferences := &mockConferenceStore{}
	h := &publicHandlers{rs: testResponder(), conferences: conferences}

	t.Run("with instructors", func(t *testing.T) {
		c := &model.Conference{Base: model.Base{ID: uuid.New()}, Title: "Portal Conf", Active: true}
		conferences.On("Active").Return(c, nil).Once()
		conferences.On("Instructors", c.ID).Return(nil, nil).Once()

		w := httptest.NewRecorder()
		h.activeConference(w, httptest.NewRequest("GET", "/conference/active", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp ConferenceDetail
		decodeBody(t, w, &resp)
		assert.Equal(t, "Portal Conf", resp.Title)
		assert.NotNil(t, resp.Instructors)
	})

	t.Run("none active", func(t *testing.T) {
		conferences.On("Active").Return(nil, store.ErrNotFound).Once()
		w := httptest.NewRecorder()
		h.activeConference(w, httptest.NewRequest("GET", "/conference/active", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestCategoryFaqs(t *testing.T) {
	categories := &mockFaqCategoryStore{}
	faqs := &mockFaqStore{}
	h := &publicHandlers{rs: testResponder(), faqs: faqs, categories: categories}
	id := uuid.New()

	categories.On("Get", id).Return(&model.FaqCategory{Base: model.Base{ID: id}}, nil)
	faqs.On("ByCategory", id).Return([]model.Faq{{Question: "Where?", Answer: "Here"}}, nil)

	w := httptest.NewRecorder()
	h.categoryFaqs(w, withVars(httptest.NewRequest("GET", "/", nil), map[string]string{"id": id.String()}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Where?")
}

func TestSubmitFeedback(t *testing.T) {
	feedback := &mockCRUD[model.Feedback]{}
	h := &publicHandlers{rs: testResponder(), feedback: feedback}
	feedback.On("Create", mock.MatchedBy(func(f *model.Feedback) bool {
		return f.Status == model.FeedbackStatusPending && f.Name == "Ann" && f.Email == nil
	})).Return(nil)

	w := httptest.NewRecorder()
	h.submitFeedback(w, jsonRequest(t, "POST", "/feedback", map[string]string{"name": " Ann ", "message": "Great"}))

	assert.Equal(t, http.StatusCreated, w.Code)
	feedback.AssertExpectations(t)

	w = httptest.NewRecorder()
	h.submitFeedback(w, jsonRequest(t, "POST", "/feedback", map[string]string{"name": "Ann", "email": "nope", "message": "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitTestimony(t *testing.T) {
	testimonies := &mockCRUD[model.Testimony]{}
	h := &publicHandlers{rs: testResponder(), testimonies: testimonies}
	testimonies.On("Create", mock.MatchedBy(func(tm *model.Testimony) bool {
		return tm.Share && *tm.PhoneNumber == "+886912345678"
	})).Return(nil)

	w := httptest.NewRecorder()
	h.submitTestimony(w, jsonRequest(t, "POST", "/testimony", map[string]any{
		"name": "Ben", "phone_number": "+886912345678", "share": true, "message": "Thanks",
	}))

	assert.Equal(t, http.StatusCreated, w.Code)
	testimonies.AssertExpectations(t)
}
