package repository

import "strings"

// defaultOrder ranks freshest listings first and breaks ties on id so paging
// stays stable.
const defaultOrder = "renewed_time DESC NULLS LAST, id DESC"

// sortColumns is the allow-list of client-selectable sort keys. Anything else
// falls back to the default order.
var sortColumns = map[string]string{
	"renewedTime":  "renewed_time",
	"price":        "price",
	"mileage":      "mileage",
	"registration": "registration",
}

// resolveSort maps a requested sort key and direction to an ORDER BY body.
func resolveSort(sortKey, sortOrder string) string {
	column, ok := sortColumns[sortKey]
	if !ok {
		return defaultOrder
	}

	direction := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		direction = "ASC"
	}
	return column + " " + direction + " NULLS LAST, id DESC"
}

// isDefaultSort reports whether the filter leaves ordering to the engine,
// which is the only case where personalization may reshape it.
func isDefaultSort(sortKey string) bool {
	_, ok := sortColumns[sortKey]
	return !ok
}
