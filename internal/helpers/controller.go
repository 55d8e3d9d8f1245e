package helpers

import (
	"strconv"

	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// GetPaginationArgs extracts pagination parameters from HTTP request
func GetPaginationArgs(c *gin.Context) util.PaginationArgs {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	return util.PaginationArgs{
		Limit: limit,
		Skip:  skip,
		Sort:  c.DefaultQuery("sort", "created_at_desc"),
	}
}

// ObjectIDParam reads a route parameter as an object id. Values that merely
// contain a 24-hex id are accepted.
func ObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, error) {
	raw := c.Param(name)
	id, ok := util.LenientObjectID(raw)
	if !ok {
		return primitive.NilObjectID, util.Invalidf("%s %q is not a valid id", name, raw)
	}
	return id, nil
}

// OptionalObjectIDQuery reads a query parameter as an object id. An empty
// parameter yields nil.
func OptionalObjectIDQuery(c *gin.Context, name string) (*primitive.ObjectID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, ok := util.LenientObjectID(raw)
	if !ok {
		return nil, util.Invalidf("%s %q is not a valid id", name, raw)
	}
	return &id, nil
}
