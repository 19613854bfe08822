// Package handler exposes the listing search API over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"automarket_backend/internal/listings/transport"
	"automarket_backend/platform/apperr"
	"automarket_backend/platform/httpkit"
	"automarket_backend/platform/logger"
	"automarket_backend/platform/validator"
)

// ListingService is the service surface the handler depends on.
type ListingService interface {
	Search(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, error)
	Related(ctx context.Context, id int64, excludeIDs []int64) (*transport.RelatedResponse, error)
	Get(ctx context.Context, id int64) (*transport.ListingView, error)
}

// Handler answers listing search HTTP requests.
type Handler struct {
	service  ListingService
	validate *validator.Validator
	log      *logger.Logger
}

func New(service ListingService, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{service: service, validate: validate, log: log}
}

// Search handles POST /listings/search.
func (h *Handler) Search(c *gin.Context) {
	var req transport.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.VisitorID != "" {
		ctx = context.WithValue(ctx, logger.VisitorIDKey, req.VisitorID)
	}

	resp, err := h.service.Search(ctx, req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

// Related handles GET /listings/:id/related.
func (h *Handler) Related(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	excludeIDs, err := parseExcludeIDs(c.Query("exclude"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resp, err := h.service.Related(c.Request.Context(), id, excludeIDs)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

// Get handles GET /listings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	view, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, view)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.BadRequest("invalid listing id")
	}
	return id, nil
}

// parseExcludeIDs reads the comma-separated exclude query parameter.
// Unparseable entries fail the request rather than being silently dropped.
func parseExcludeIDs(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		id, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, apperr.BadRequest("invalid exclude id")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
