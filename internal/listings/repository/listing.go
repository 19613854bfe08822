package repository

// Listing is the denormalized read projection a search runs against.
// Rows are owned and mutated by upstream ingestion; this service only reads.
type Listing struct {
	ID                int64
	Category          string
	Make              *string
	Model             *string
	Variant           *string
	Price             *float64
	Mileage           *int64
	Registration      *int
	EngineSize        *float64
	Transmission      *string
	FuelType          *string
	BodyType          *string
	EmissionGroup     *string
	Drivetrain        *string
	Seats             *int
	Doors             *int
	CustomsPaid       *int16
	CanExchange       bool
	Caption           string
	CaptionClean      string
	CaptionEncoded    *string
	VendorID          int64
	VendorAccountName string
	VendorAvatar      *string
	PromotionTo       *int64
	HighlightedTo     *int64
	RenewTo           *int64
	RenewInterval     *int64
	RenewedTime       *int64
	MostWantedTo      *int64
	MinPrice          *float64
	MaxPrice          *float64
	Total             int64
}

// listingColumns is the projection shared by every listing query. Order must
// match scanListing.
const listingColumns = `id, category, make, model, variant, price, mileage, registration, engine_size,
	transmission, fuel_type, body_type, emission_group, drivetrain, seats, doors,
	customs_paid, can_exchange, caption, caption_clean, caption_encoded,
	vendor_id, vendor_account_name, vendor_avatar,
	promotion_to, highlighted_to, renew_to, renew_interval, renewed_time, most_wanted_to,
	min_price, max_price`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner, item *Listing, withTotal bool) error {
	dest := []any{
		&item.ID, &item.Category, &item.Make, &item.Model, &item.Variant,
		&item.Price, &item.Mileage, &item.Registration, &item.EngineSize,
		&item.Transmission, &item.FuelType, &item.BodyType, &item.EmissionGroup,
		&item.Drivetrain, &item.Seats, &item.Doors,
		&item.CustomsPaid, &item.CanExchange,
		&item.Caption, &item.CaptionClean, &item.CaptionEncoded,
		&item.VendorID, &item.VendorAccountName, &item.VendorAvatar,
		&item.PromotionTo, &item.HighlightedTo, &item.RenewTo, &item.RenewInterval,
		&item.RenewedTime, &item.MostWantedTo,
		&item.MinPrice, &item.MaxPrice,
	}
	if withTotal {
		dest = append(dest, &item.Total)
	}
	return row.Scan(dest...)
}
