package transport

// SearchRequest is the body of POST /api/v1/listings/search. Filter carries
// the client's JSON-encoded filter payload as an opaque string; it is decoded
// and validated by ParseFilter, not by the binding layer.
type SearchRequest struct {
	Filter    string `json:"filter" validate:"required"`
	VisitorID string `json:"visitorId" validate:"omitempty,max=255"`
}

// Filter is the decoded, structurally valid client filter.
type Filter struct {
	Type              string       `json:"type"`
	Keyword           string       `json:"keyword"`
	Text              string       `json:"text"`
	SearchTerms       []SearchTerm `json:"searchTerms"`
	SortKey           string       `json:"sortKey"`
	SortOrder         string       `json:"sortOrder"`
	Page              int          `json:"page"`
	PageSize          int          `json:"pageSize"`
	VisitorID         string       `json:"visitorId"`
	NoPersonalization bool         `json:"noPersonalization"`
}

// SearchTerm is one key/value pair from the filter's term list.
type SearchTerm struct {
	Key   string    `json:"key"`
	Value TermValue `json:"value"`
}

// Term returns the first term with the given key, or nil.
// Duplicate keys are dropped at parse time, so first is also only.
func (f *Filter) Term(key string) *SearchTerm {
	for i := range f.SearchTerms {
		if f.SearchTerms[i].Key == key {
			return &f.SearchTerms[i]
		}
	}
	return nil
}

// HasTerm reports whether a term with the given key is present.
func (f *Filter) HasTerm(key string) bool {
	return f.Term(key) != nil
}

// ListingView is the wire shape of one search result row.
// IDs are decimal strings so 64-bit values survive JSON number handling.
type ListingView struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	Make              *string  `json:"make"`
	Model             *string  `json:"model"`
	Variant           *string  `json:"variant"`
	Price             *float64 `json:"price"`
	Mileage           *int64   `json:"mileage"`
	Registration      *int     `json:"registration"`
	EngineSize        *float64 `json:"engineSize"`
	Transmission      *string  `json:"transmission"`
	FuelType          *string  `json:"fuelType"`
	BodyType          *string  `json:"bodyType"`
	EmissionGroup     *string  `json:"emissionGroup"`
	Drivetrain        *string  `json:"drivetrain"`
	Seats             *int     `json:"seats"`
	Doors             *int     `json:"doors"`
	CustomsPaid       *bool    `json:"customsPaid"`
	CanExchange       bool     `json:"canExchange"`
	Caption           string   `json:"caption"`
	VendorID          string   `json:"vendorId"`
	VendorAccountName string   `json:"vendorAccountName"`
	VendorAvatar      *string  `json:"vendorAvatar"`
	PromotionTo       *int64   `json:"promotionTo"`
	HighlightedTo     *int64   `json:"highlightedTo"`
	RenewedTime       *int64   `json:"renewedTime"`
	MostWantedTo      *int64   `json:"mostWantedTo"`
	Promoted          bool     `json:"promoted"`
	Highlighted       bool     `json:"highlighted"`
}

// SearchResponse is the result of a search call.
type SearchResponse struct {
	Items      []ListingView `json:"items"`
	PromotedID *string       `json:"promotedId,omitempty"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
}

// RelatedResponse is the result of a related-listings call.
type RelatedResponse struct {
	Items []ListingView `json:"items"`
}
