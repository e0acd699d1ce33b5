package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"refugios-backend-go/internal/core"
	"refugios-backend-go/internal/middleware"
	"refugios-backend-go/internal/models"
)

// stubService returns canned results so handler tests exercise only the
// HTTP mapping, not the business rules.
type stubService struct {
	renovation *models.Renovation
	list       []*models.Renovation
	err        error

	gotCaller     models.Caller
	gotID         string
	gotRefugeID   string
	gotActiveOnly bool
	gotUpdate     models.UpdateRenovationRequest
}

func (s *stubService) Create(_ context.Context, caller models.Caller, _ models.CreateRenovationRequest) (*models.Renovation, error) {
	s.gotCaller = caller
	return s.renovation, s.err
}

func (s *stubService) GetByID(_ context.Context, id string) (*models.Renovation, error) {
	s.gotID = id
	return s.renovation, s.err
}

func (s *stubService) ListActive(context.Context) ([]*models.Renovation, error) {
	return s.list, s.err
}

func (s *stubService) ListByRefuge(_ context.Context, refugeID string, activeOnly bool) ([]*models.Renovation, error) {
	s.gotRefugeID = refugeID
	s.gotActiveOnly = activeOnly
	return s.list, s.err
}

func (s *stubService) Update(_ context.Context, caller models.Caller, id string, req models.UpdateRenovationRequest) (*models.Renovation, error) {
	s.gotCaller, s.gotID, s.gotUpdate = caller, id, req
	return s.renovation, s.err
}

func (s *stubService) Delete(_ context.Context, caller models.Caller, id string) error {
	s.gotCaller, s.gotID = caller, id
	return s.err
}

func (s *stubService) AddParticipant(_ context.Context, caller models.Caller, id string) (*models.Renovation, error) {
	s.gotCaller, s.gotID = caller, id
	return s.renovation, s.err
}

func (s *stubService) RemoveParticipant(_ context.Context, caller models.Caller, id, _ string) (*models.Renovation, error) {
	s.gotCaller, s.gotID = caller, id
	return s.renovation, s.err
}

func (s *stubService) AnonymizeByCreator(context.Context, string) (int, error) {
	return 0, s.err
}

func (s *stubService) PurgeUserFromParticipations(context.Context, string) (int, error) {
	return 0, s.err
}

// newTestRouter wires the renovation routes with a middleware that installs
// the given caller, bypassing Firebase token verification.
func newTestRouter(service core.RenovationService, caller *models.Caller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if caller != nil {
		router.Use(func(c *gin.Context) {
			middleware.SetCaller(c, *caller)
			c.Next()
		})
	}

	handler := NewRenovationHandler(service, zap.NewNop())
	renovations := router.Group("/renovations")
	{
		renovations.GET("", handler.ListRenovations)
		renovations.POST("", handler.CreateRenovation)
		renovations.GET("/:renovationId", handler.GetRenovation)
		renovations.PATCH("/:renovationId", handler.UpdateRenovation)
		renovations.DELETE("/:renovationId", handler.DeleteRenovation)
		renovations.POST("/:renovationId/participants", handler.JoinRenovation)
		renovations.DELETE("/:renovationId/participants/:participantUid", handler.RemoveParticipant)
	}
	router.GET("/refuges/:refugeId/renovations", handler.ListRefugeRenovations)
	return router
}

func perform(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func sampleRenovation() *models.Renovation {
	return &models.Renovation{
		ID:              "ren-1",
		CreatorUID:      "U1",
		RefugeID:        "R1",
		IniDate:         "2025-03-15",
		FinDate:         "2025-03-18",
		Description:     "Roof",
		GroupLink:       "https://t.me/x",
		ParticipantsUID: []string{},
		ExpelledUID:     []string{},
	}
}

const validCreateBody = `{
	"refuge_id": "R1",
	"ini_date": "2025-03-15",
	"fin_date": "2025-03-18",
	"description": "Roof",
	"group_link": "https://t.me/x"
}`

func TestCreateReturns201(t *testing.T) {
	service := &stubService{renovation: sampleRenovation()}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodPost, "/renovations", validCreateBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "U1", service.gotCaller.UID)

	var body models.Renovation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ren-1", body.ID)
}

func TestCreateMissingFieldsIs400(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodPost, "/renovations", `{"refuge_id":"R1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, KindInvalidInput, decodeError(t, rec).Error)
}

func TestMissingCallerIs401(t *testing.T) {
	service := &stubService{renovation: sampleRenovation()}
	router := newTestRouter(service, nil)

	for _, route := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/renovations", ""},
		{http.MethodPost, "/renovations", validCreateBody},
		{http.MethodGet, "/renovations/ren-1", ""},
		{http.MethodPatch, "/renovations/ren-1", `{}`},
		{http.MethodDelete, "/renovations/ren-1", ""},
		{http.MethodPost, "/renovations/ren-1/participants", ""},
		{http.MethodDelete, "/renovations/ren-1/participants/U2", ""},
		{http.MethodGet, "/refuges/R1/renovations", ""},
	} {
		rec := perform(t, router, route.method, route.path, route.body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
		assert.Equal(t, KindUnauthenticated, decodeError(t, rec).Error)
	}
}

func TestErrorKindMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not found", core.ErrRenovationNotFound, http.StatusNotFound, KindNotFound},
		{"participant not found", core.ErrParticipantNotFound, http.StatusNotFound, KindNotFound},
		{"forbidden", core.ErrForbidden, http.StatusForbidden, KindForbidden},
		{"creator self-join", core.ErrCreatorCannotJoin, http.StatusForbidden, KindForbidden},
		{"already participant", core.ErrAlreadyParticipant, http.StatusConflict, KindAlreadyParticipant},
		{"expelled", core.ErrExpelled, http.StatusConflict, KindExpelled},
		{"unexpected", assert.AnError, http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubService{err: tt.err}
			router := newTestRouter(service, &models.Caller{UID: "U2"})

			rec := perform(t, router, http.MethodPost, "/renovations/ren-1/participants", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, rec).Error)
		})
	}
}

func TestValidationErrorCarriesFieldDetails(t *testing.T) {
	service := &stubService{err: &models.ValidationError{
		Fields: map[string]string{"ini_date": "ini_date must not be in the past"},
	}}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodPost, "/renovations", validCreateBody)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, KindInvalidInput, resp.Error)

	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, details, "ini_date")
}

func TestOverlapCarriesConflictDetails(t *testing.T) {
	conflict := sampleRenovation()
	service := &stubService{err: &core.OverlapError{Conflict: conflict}}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodPost, "/renovations", validCreateBody)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, KindOverlap, resp.Error)

	details, ok := resp.Details.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ren-1", details["conflict_id"])
	assert.Equal(t, "2025-03-15", details["ini_date"])
	assert.Equal(t, "2025-03-18", details["fin_date"])
}

func TestGetRenovation(t *testing.T) {
	service := &stubService{renovation: sampleRenovation()}
	router := newTestRouter(service, &models.Caller{UID: "U2"})

	rec := perform(t, router, http.MethodGet, "/renovations/ren-1", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ren-1", service.gotID)
}

func TestUpdatePassesPatchThrough(t *testing.T) {
	service := &stubService{renovation: sampleRenovation()}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodPatch, "/renovations/ren-1", `{"fin_date":"2025-03-20"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, service.gotUpdate.FinDate)
	assert.Equal(t, "2025-03-20", *service.gotUpdate.FinDate)
	assert.Nil(t, service.gotUpdate.IniDate)
}

func TestDeleteReturns204(t *testing.T) {
	service := &stubService{}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodDelete, "/renovations/ren-1", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestListRenovations(t *testing.T) {
	service := &stubService{list: []*models.Renovation{sampleRenovation()}}
	router := newTestRouter(service, &models.Caller{UID: "U2"})

	rec := perform(t, router, http.MethodGet, "/renovations", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var list []*models.Renovation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestRefugeListActiveParam(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantActive bool
	}{
		{"default is full history", "", http.StatusOK, false},
		{"active true", "?active=true", http.StatusOK, true},
		{"active false", "?active=false", http.StatusOK, false},
		{"malformed value", "?active=maybe", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &stubService{list: []*models.Renovation{}}
			router := newTestRouter(service, &models.Caller{UID: "U2"})

			rec := perform(t, router, http.MethodGet, "/refuges/R1/renovations"+tt.query, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "R1", service.gotRefugeID)
				assert.Equal(t, tt.wantActive, service.gotActiveOnly)
			}
		})
	}
}

func TestRemoveParticipantOK(t *testing.T) {
	service := &stubService{renovation: sampleRenovation()}
	router := newTestRouter(service, &models.Caller{UID: "U1"})

	rec := perform(t, router, http.MethodDelete, "/renovations/ren-1/participants/U2", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ren-1", service.gotID)
	assert.Equal(t, "U1", service.gotCaller.UID)
}
