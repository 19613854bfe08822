// Package service implements listing search orchestration: filter parsing,
// free-text normalization, the personalization gate, promotion rotation and
// result assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"automarket_backend/internal/listings/repository"
	"automarket_backend/internal/listings/textnorm"
	"automarket_backend/internal/listings/transport"
	"automarket_backend/internal/personalization"
	"automarket_backend/internal/rotation"
	"automarket_backend/internal/tracker"
	"automarket_backend/platform/apperr"
	"automarket_backend/platform/config"
	"automarket_backend/platform/logger"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
	relatedLimit    = 4
)

// SearchRepository is the relational surface the service depends on.
type SearchRepository interface {
	Search(ctx context.Context, p repository.SearchParams) ([]repository.Listing, int64, error)
	ResolvePromotion(ctx context.Context, pctx repository.PromotionContext, excludeIDs []int64, now time.Time) (*repository.Listing, error)
	GetByID(ctx context.Context, id int64) (*repository.Listing, error)
	FindRelated(ctx context.Context, ref *repository.Listing, excludeIDs []int64, limit int) ([]repository.Listing, error)
}

// TermStore reads visitor interest profiles.
type TermStore interface {
	TopTerms(ctx context.Context, visitorID string) ([]personalization.Term, error)
}

// RotationCache tracks which promotion a search context last surfaced.
type RotationCache interface {
	Bump(ctx context.Context, signature string) (rotation.State, error)
	ShouldRotate(state rotation.State) bool
	MarkShown(ctx context.Context, signature string, listingID int64) error
}

// SearchTracker records observed searches for profile building.
type SearchTracker interface {
	RecordSearch(ctx context.Context, visitorID string, terms []tracker.ObservedTerm)
}

// Service answers listing search, related and detail requests.
type Service struct {
	repo     SearchRepository
	terms    TermStore
	rotation RotationCache
	tracker  SearchTracker
	cfg      config.PersonalizationConfig
	log      *logger.Logger
	now      func() time.Time
}

func New(repo SearchRepository, terms TermStore, rot RotationCache, trk SearchTracker, cfg config.PersonalizationConfig, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		terms:    terms,
		rotation: rot,
		tracker:  trk,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Search runs one search request end to end. Personalization, rotation and
// tracking all degrade silently; only the main query and filter validation can
// fail the request.
func (s *Service) Search(ctx context.Context, req transport.SearchRequest) (*transport.SearchResponse, error) {
	filter, err := transport.ParseFilter(req.Filter)
	if err != nil {
		return nil, err
	}

	visitorID := req.VisitorID
	if visitorID == "" {
		visitorID = filter.VisitorID
	}

	// Pages are zero-based.
	page := filter.Page
	if page < 0 {
		page = 0
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	tokens, err := textnorm.Normalize(filter.Text)
	if err != nil {
		if errors.Is(err, textnorm.ErrTextTooLong) {
			return nil, apperr.Validation("search text too long")
		}
		return nil, apperr.Wrap(apperr.KindValidation, "invalid search text", err)
	}

	now := s.now()

	// Interest terms shape the main query's ordering, so they are fetched
	// before it runs. A cold or failing profile store just means default
	// ordering.
	var terms []repository.TermScore
	if s.personalizationApplies(filter, visitorID, tokens) {
		terms = s.topTerms(ctx, visitorID)
	}

	pctx := repository.ContextFromFilter(filter)

	var (
		items    []repository.Listing
		total    int64
		promoted *repository.Listing
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var searchErr error
		items, total, searchErr = s.repo.Search(gctx, repository.SearchParams{
			Filter:   filter,
			Tokens:   tokens,
			Terms:    terms,
			Page:     page,
			PageSize: pageSize,
			Now:      now,
		})
		return searchErr
	})
	if page == 0 {
		g.Go(func() error {
			var promoErr error
			promoted, promoErr = s.repo.ResolvePromotion(gctx, pctx, nil, now)
			if promoErr != nil {
				// The result page stands on its own without a
				// promoted slot.
				s.log.WithContext(gctx).Warn("promotion_resolve_failed", "error", promoErr)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if promoted != nil {
		promoted = s.rotate(ctx, rotationKey(visitorID, pctx), pctx, promoted, now)
	}

	response := assembleSearch(items, promoted, total, page, pageSize, now)

	// Only personalizable searches feed the profile; an opted-out or
	// keyword/free-text search leaves no signal.
	if s.personalizationApplies(filter, visitorID, tokens) {
		s.tracker.RecordSearch(ctx, visitorID, observedTerms(filter))
	}

	return response, nil
}

// Related returns up to four listings similar to the given one, with the
// promotion slot resolved against the reference listing's attributes. The
// reference and any client-excluded ids never appear, and the merged list
// stays capped at four.
func (s *Service) Related(ctx context.Context, id int64, excludeIDs []int64) (*transport.RelatedResponse, error) {
	ref, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("listing not found")
		}
		return nil, err
	}

	now := s.now()

	items, err := s.repo.FindRelated(ctx, ref, excludeIDs, relatedLimit)
	if err != nil {
		return nil, err
	}

	exclude := append([]int64{ref.ID}, excludeIDs...)
	promoted, promoErr := s.repo.ResolvePromotion(ctx, repository.ContextFromListing(ref), exclude, now)
	if promoErr != nil {
		s.log.WithContext(ctx).Warn("promotion_resolve_failed", "error", promoErr)
		promoted = nil
	}

	return assembleRelated(items, promoted, relatedLimit, now), nil
}

// Get returns one listing by id.
func (s *Service) Get(ctx context.Context, id int64) (*transport.ListingView, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("listing not found")
		}
		return nil, err
	}

	view := toView(item, s.now())
	return &view, nil
}

// personalizationApplies gates interest-based ordering: it needs the feature
// enabled, a plausible visitor to personalize for, no explicit opt-out, the
// default sort, and a browse-shaped search (no keyword, no free text).
func (s *Service) personalizationApplies(filter *transport.Filter, visitorID string, tokens []string) bool {
	if !s.cfg.IsPersonalizationEnabled() || filter.NoPersonalization {
		return false
	}
	if visitorID == "" || len(visitorID) > 255 {
		return false
	}
	if filter.Keyword != "" || len(tokens) > 0 {
		return false
	}
	switch filter.SortKey {
	case "renewedTime", "price", "mileage", "registration":
		return false
	}
	return true
}

func (s *Service) topTerms(ctx context.Context, visitorID string) []repository.TermScore {
	profile, err := s.terms.TopTerms(ctx, visitorID)
	if err != nil {
		s.log.WithContext(ctx).Warn("personalization_profile_unavailable", "error", err)
		return nil
	}

	max := s.cfg.GetPersonalizationMaxTerms()
	if max > 0 && len(profile) > max {
		profile = profile[:max]
	}

	terms := make([]repository.TermScore, 0, len(profile))
	for _, term := range profile {
		// Decayed interests carry no weight.
		if term.Score <= 0 {
			continue
		}
		terms = append(terms, repository.TermScore{Key: term.Key, Value: term.Value, Score: term.Score})
	}
	return terms
}

// rotate swaps the resolved promotion for the runner-up on every Nth search
// that would repeat the same winner, so competing promotions share the slot.
// Cache failures keep the original winner.
func (s *Service) rotate(ctx context.Context, signature string, pctx repository.PromotionContext, promoted *repository.Listing, now time.Time) *repository.Listing {
	state, err := s.rotation.Bump(ctx, signature)
	if err != nil {
		s.log.WithContext(ctx).Warn("rotation_cache_unavailable", "error", err)
		return promoted
	}

	if s.rotation.ShouldRotate(state) && state.LastPromotedID == promoted.ID {
		alternate, err := s.repo.ResolvePromotion(ctx, pctx, []int64{promoted.ID}, now)
		if err != nil {
			s.log.WithContext(ctx).Warn("promotion_rotation_failed", "error", err)
		} else if alternate != nil {
			promoted = alternate
		}
	}

	if err := s.rotation.MarkShown(ctx, signature, promoted.ID); err != nil {
		s.log.WithContext(ctx).Warn("rotation_mark_failed", "error", err)
	}
	return promoted
}

// rotationKey scopes the rotation counter to the visitor when one is known;
// anonymous searches share a counter per promotion context instead.
func rotationKey(visitorID string, pctx repository.PromotionContext) string {
	if visitorID != "" {
		return "visitor:" + visitorID
	}
	return fmt.Sprintf("context:%s|%s|%s|%d|%s|%s",
		pctx.Category, pctx.Make, pctx.Model, pctx.Registration, pctx.FuelType, pctx.BodyType)
}

// observedTermKeys maps filter term keys to the profile keys personalization
// ranks on. Only single scalar values are observed.
var observedTermKeys = map[string]string{
	"make1":        "make",
	"model1":       "model",
	"bodyType":     "bodyType",
	"fuelType":     "fuelType",
	"transmission": "transmission",
}

func observedTerms(filter *transport.Filter) []tracker.ObservedTerm {
	var observed []tracker.ObservedTerm
	if filter.Type != "" {
		observed = append(observed, tracker.ObservedTerm{Key: "type", Value: filter.Type})
	}
	for _, term := range filter.SearchTerms {
		profileKey, ok := observedTermKeys[term.Key]
		if !ok {
			continue
		}
		value := term.Value.Scalar
		if value == "" || term.Value.IsRange() || strings.Contains(value, ",") {
			continue
		}
		if term.Key == "model1" {
			value = strings.TrimSuffix(value, " (all)")
		}
		observed = append(observed, tracker.ObservedTerm{Key: profileKey, Value: value})
	}
	return observed
}
