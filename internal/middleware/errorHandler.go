package middleware

import (
	"fmt"
	"net/http"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/gin-gonic/gin"
)

// ErrorHandler turns the last error added to the context into a response. Handlers recover domain
// errors themselves by redirecting with a flash message so what ends up here is either a malformed
// request or a failure we could not handle.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil {
			return
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			if errdef.IsUserFacing(err) {
				_, _ = c.Writer.WriteString(err.Error())
			} else {
				_, _ = c.Writer.WriteString(http.StatusText(status))
			}
			return
		}
		if c.Writer.Written() {
			return
		}

		// nolint:gocritic
		if errdef.IsBadRequest(err) || errdef.IsValidation(err) || errdef.IsInvalidUpload(err) {
			c.String(http.StatusBadRequest, err.Error())
		} else if errdef.IsForbidden(err) {
			c.String(http.StatusForbidden, err.Error())
		} else if errdef.IsDuplicated(err) {
			c.String(http.StatusConflict, err.Error())
		} else if errdef.IsNotFound(err) {
			c.String(http.StatusNotFound, err.Error())
		} else if errdef.IsUnauthorized(err) {
			c.String(http.StatusUnauthorized, err.Error())
		} else if errdef.IsConflict(err) {
			c.String(http.StatusConflict, err.Error())
		} else {
			id, _ := GetCorrelationID(c.Request.Context())
			err := fmt.Errorf("something went wrong. We'll look into it if you send us the id %q :)", id)
			c.String(http.StatusInternalServerError, err.Error())
		}
	}
}
