// Package listings is the listing search bounded context: repository, service
// and HTTP transport behind one module entry point.
package listings

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "automarket_backend/internal/http"
	"automarket_backend/internal/listings/handler"
	"automarket_backend/internal/listings/repository"
	"automarket_backend/internal/listings/service"
	"automarket_backend/platform/config"
	"automarket_backend/platform/logger"
	"automarket_backend/platform/timing"
	"automarket_backend/platform/validator"
)

// Module wires the listings context together.
type Module struct {
	handler *handler.Handler
}

// Deps are the external dependencies the listings module needs.
type Deps struct {
	Pool     *pgxpool.Pool
	Guard    *timing.Guard
	Terms    service.TermStore
	Rotation service.RotationCache
	Tracker  service.SearchTracker
	Config   config.PersonalizationConfig
	Validate *validator.Validator
	Logger   *logger.Logger
}

func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool, deps.Guard, deps.Logger)
	svc := service.New(repo, deps.Terms, deps.Rotation, deps.Tracker, deps.Config, deps.Logger)

	return &Module{
		handler: handler.New(svc, deps.Validate, deps.Logger),
	}
}

func (m *Module) Name() string { return "listings" }

// RegisterRoutes mounts the listing search endpoints. Search carries the
// shared per-IP limit since it is the only write-shaped public endpoint.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/listings")
	group.POST("/search", ctx.RateLimiter.RateLimit(), m.handler.Search)
	group.GET("/:id", m.handler.Get)
	group.GET("/:id/related", m.handler.Related)
}
