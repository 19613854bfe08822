package service

import (
	"encoding/base64"
	"strconv"
	"time"

	"automarket_backend/internal/listings/repository"
	"automarket_backend/internal/listings/transport"
	"automarket_backend/platform/sanitize"
)

// assembleSearch merges the promoted slot into the result page. The promoted
// listing leads the page; if the main query already returned it, the duplicate
// is dropped so it never appears twice.
func assembleSearch(items []repository.Listing, promoted *repository.Listing, total int64, page, pageSize int, now time.Time) *transport.SearchResponse {
	views := make([]transport.ListingView, 0, len(items)+1)

	var promotedID *string
	if promoted != nil {
		view := toView(promoted, now)
		view.Promoted = true
		views = append(views, view)
		promotedID = &view.ID
	}

	for i := range items {
		if promoted != nil && items[i].ID == promoted.ID {
			continue
		}
		views = append(views, toView(&items[i], now))
	}

	return &transport.SearchResponse{
		Items:      views,
		PromotedID: promotedID,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}
}

// assembleRelated merges the promoted slot into the related list under the
// same leading-slot and dedupe rules as search, then caps the merged result.
func assembleRelated(items []repository.Listing, promoted *repository.Listing, limit int, now time.Time) *transport.RelatedResponse {
	views := make([]transport.ListingView, 0, len(items)+1)

	if promoted != nil {
		view := toView(promoted, now)
		view.Promoted = true
		views = append(views, view)
	}

	for i := range items {
		if promoted != nil && items[i].ID == promoted.ID {
			continue
		}
		views = append(views, toView(&items[i], now))
	}

	if len(views) > limit {
		views = views[:limit]
	}
	return &transport.RelatedResponse{Items: views}
}

// toView converts a row into its wire shape. Ids become decimal strings,
// caption markup is stripped, and time-bounded flags are evaluated against
// the request's clock.
func toView(item *repository.Listing, now time.Time) transport.ListingView {
	view := transport.ListingView{
		ID:                strconv.FormatInt(item.ID, 10),
		Type:              item.Category,
		Make:              item.Make,
		Model:             item.Model,
		Variant:           item.Variant,
		Price:             item.Price,
		Mileage:           item.Mileage,
		Registration:      item.Registration,
		EngineSize:        item.EngineSize,
		Transmission:      item.Transmission,
		FuelType:          item.FuelType,
		BodyType:          item.BodyType,
		EmissionGroup:     item.EmissionGroup,
		Drivetrain:        item.Drivetrain,
		Seats:             item.Seats,
		Doors:             item.Doors,
		CustomsPaid:       customsPaidFlag(item.CustomsPaid),
		CanExchange:       item.CanExchange,
		Caption:           displayCaption(item),
		VendorID:          strconv.FormatInt(item.VendorID, 10),
		VendorAccountName: item.VendorAccountName,
		VendorAvatar:      item.VendorAvatar,
		PromotionTo:       item.PromotionTo,
		HighlightedTo:     item.HighlightedTo,
		RenewedTime:       item.RenewedTime,
		MostWantedTo:      item.MostWantedTo,
	}

	if item.HighlightedTo != nil && *item.HighlightedTo > now.Unix() {
		view.Highlighted = true
	}
	return view
}

// displayCaption prefers the base64-encoded caption variant upstream writes
// for rich text. An unreadable or absent encoding falls back to the plain
// caption; either way markup is stripped before display.
func displayCaption(item *repository.Listing) string {
	if item.CaptionEncoded != nil && *item.CaptionEncoded != "" {
		if decoded, err := base64.StdEncoding.DecodeString(*item.CaptionEncoded); err == nil {
			return sanitize.Text(string(decoded))
		}
	}
	if item.CaptionClean != "" {
		return item.CaptionClean
	}
	return sanitize.Text(item.Caption)
}

func customsPaidFlag(raw *int16) *bool {
	if raw == nil {
		return nil
	}
	paid := *raw != 0
	return &paid
}
