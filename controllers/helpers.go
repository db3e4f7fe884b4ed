package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// errHandled signals that a transaction closure already wrote the HTTP
// response and the transaction must roll back.
var errHandled = errors.New("request handled")

// paginate applies optional page/per_page query params to a query. When
// either param is absent or invalid the query is returned untouched and the
// full collection is listed.
func paginate(c *gin.Context, query *gorm.DB) *gorm.DB {
	page, pageErr := strconv.Atoi(c.Query("page"))
	perPage, perPageErr := strconv.Atoi(c.Query("per_page"))
	if pageErr != nil || perPageErr != nil || page < 1 || perPage < 1 {
		return query
	}
	return query.Offset((page - 1) * perPage).Limit(perPage)
}

// parseIDParam parses a numeric path parameter. On failure it writes a
// validation error response and returns false.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid " + name + " parameter",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// respondDatabaseError writes the generic 500 envelope for unexpected
// persistence failures
func respondDatabaseError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "DATABASE_ERROR",
			"message": message,
		},
	})
}
