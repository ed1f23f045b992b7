package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/agridiary/pkg/errors"
	"github.com/angelmondragon/agridiary/pkg/pagination"
)

const maxFilterLength = 255

// ListRequest reads page, sortBy, order and filter from the query string.
// Malformed or negative pages fall back to the first page.
func ListRequest(r *http.Request) pagination.Request {
	q := r.URL.Query()
	page, err := strconv.Atoi(strings.TrimSpace(q.Get("page")))
	if err != nil || page < 0 {
		page = 0
	}
	return pagination.Request{
		Page:   page,
		Size:   pagination.DefaultLimit,
		SortBy: SanitizeString(q.Get("sortBy"), 64),
		Order:  pagination.NormalizeDirection(q.Get("order")),
		Filter: SanitizeString(q.Get("filter"), maxFilterLength),
	}
}

// ParseID parses a positive record id taken from the path. Anything else is
// reported as not found.
func ParseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || id == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "invalid id")
	}
	return id, nil
}
