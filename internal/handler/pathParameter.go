package handler

import (
	"net/http"
	"strconv"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/gin-gonic/gin"
)

// ParsePathParameter reads the named path parameter as an id.
func ParsePathParameter(c *gin.Context, parameter string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(parameter), 10, 32)
	if err != nil || id == 0 {
		return 0, errdef.NewBadRequest("Invalid %s in the address.", parameter)
	}
	return uint(id), nil
}

// GetPathParameter is like ParsePathParameter but aborts the request with 400 if the parameter
// isn't an id.
func GetPathParameter(c *gin.Context, parameter string) (uint, bool) {
	id, err := ParsePathParameter(c, parameter)
	if err != nil {
		_ = c.AbortWithError(http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
