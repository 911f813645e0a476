package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/richxcame/ride-reputation/pkg/common"
)

const (
	// DefaultLimit is used when no limit query param is given.
	DefaultLimit = 20
	// MaxLimit caps the page size a caller may request.
	MaxLimit = 100
	// DefaultOffset is used when no offset query param is given.
	DefaultOffset = 0
)

// Params holds parsed pagination query parameters.
type Params struct {
	Limit  int
	Offset int
}

// ParseParams reads limit/offset query params, applying defaults and caps.
// Invalid or non-positive values fall back to the defaults.
func ParseParams(c *gin.Context) Params {
	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset := DefaultOffset
	if raw := c.Query("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}

	return Params{Limit: limit, Offset: offset}
}

// BuildMeta assembles response meta for a paginated listing.
// TotalPages is ceil(total/limit), or 0 when limit or total is not positive.
func BuildMeta(limit, offset int, total int64) *common.Meta {
	meta := &common.Meta{Limit: limit, Offset: offset, Total: total}
	if limit > 0 && total > 0 {
		pages := total / int64(limit)
		if total%int64(limit) != 0 {
			pages++
		}
		meta.TotalPages = int(pages)
	}
	return meta
}

// HasMore reports whether rows exist beyond the current window.
func HasMore(offset, limit int, total int64) bool {
	return int64(offset+limit) < total
}

// GetCurrentPage converts an offset/limit window to a 1-based page number.
func GetCurrentPage(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}
