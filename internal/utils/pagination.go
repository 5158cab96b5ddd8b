// internal/utils/pagination.go
package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// OffsetParams are limit/offset listing parameters. Paginate is false when
// the caller sent neither limit nor offset.
type OffsetParams struct {
	Limit    int    `json:"limit"`
	Offset   int    `json:"offset"`
	Paginate bool   `json:"-"`
	Search   string `json:"q,omitempty"`
	Order    string `json:"order,omitempty"`
}

type OffsetResult struct {
	Count  int64 `json:"count"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func GetOffsetParams(c *gin.Context) OffsetParams {
	limitStr, hasLimit := c.GetQuery("limit")
	offsetStr, hasOffset := c.GetQuery("offset")

	params := OffsetParams{
		Paginate: hasLimit || hasOffset,
		Search:   c.Query("q"),
		Order:    c.Query("order"),
	}
	if !params.Paginate {
		return params
	}

	params.Limit = defaultLimit
	if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
		params.Limit = limit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}
	if offset, err := strconv.Atoi(offsetStr); err == nil && offset > 0 {
		params.Offset = offset
	}

	return params
}

func SetPaginationHeaders(c *gin.Context, result OffsetResult) {
	c.Header("X-Total-Count", strconv.FormatInt(result.Count, 10))
	c.Header("X-Limit", strconv.Itoa(result.Limit))
	c.Header("X-Offset", strconv.Itoa(result.Offset))
}
