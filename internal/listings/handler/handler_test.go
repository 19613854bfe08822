package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"automarket_backend/internal/listings/transport"
	"automarket_backend/platform/apperr"
	"automarket_backend/platform/logger"
	"automarket_backend/platform/validator"
)

type fakeService struct {
	searchReq  transport.SearchRequest
	relatedID  int64
	excludeIDs []int64
	getErr     error
}

func (f *fakeService) Search(_ context.Context, req transport.SearchRequest) (*transport.SearchResponse, error) {
	f.searchReq = req
	return &transport.SearchResponse{Items: []transport.ListingView{}, Page: 1, PageSize: 24}, nil
}

func (f *fakeService) Related(_ context.Context, id int64, excludeIDs []int64) (*transport.RelatedResponse, error) {
	f.relatedID = id
	f.excludeIDs = excludeIDs
	return &transport.RelatedResponse{Items: []transport.ListingView{}}, nil
}

func (f *fakeService) Get(_ context.Context, id int64) (*transport.ListingView, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &transport.ListingView{ID: "1"}, nil
}

func newTestRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := New(svc, validator.New(), logger.New("development"))
	r := gin.New()
	r.POST("/listings/search", h.Search)
	r.GET("/listings/:id", h.Get)
	r.GET("/listings/:id/related", h.Related)
	return r
}

func TestSearch_OK(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	body := `{"filter":"{\"type\":\"car\"}","visitorId":"v1"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listings/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.searchReq.VisitorID != "v1" {
		t.Fatalf("visitor id not passed through: %+v", svc.searchReq)
	}

	var resp transport.SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
}

func TestSearch_MissingFilter(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listings/search", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSearch_MalformedBody(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/listings/search", strings.NewReader(`{broken`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestRelated_ParsesExcludeList(t *testing.T) {
	svc := &fakeService{}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/listings/42/related?exclude=1,2,3", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if svc.relatedID != 42 {
		t.Fatalf("expected id 42, got %d", svc.relatedID)
	}
	if len(svc.excludeIDs) != 3 || svc.excludeIDs[0] != 1 {
		t.Fatalf("unexpected exclude ids %v", svc.excludeIDs)
	}
}

func TestRelated_RejectsBadExcludeID(t *testing.T) {
	r := newTestRouter(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/listings/42/related?exclude=1,abc", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGet_InvalidID(t *testing.T) {
	r := newTestRouter(&fakeService{})

	for _, raw := range []string{"abc", "0", "-5"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/listings/"+raw, nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", raw, w.Code)
		}
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := &fakeService{getErr: apperr.NotFound("listing not found")}
	r := newTestRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/listings/404", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
