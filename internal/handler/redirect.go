package handler

import (
	"net/http"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/session"
	"github.com/gin-gonic/gin"
)

// RedirectWithFlash stores message under the flash key and redirects to location.
func RedirectWithFlash(c *gin.Context, location string, key string, message string) {
	if err := session.Flash(c, key, message); err != nil {
		_ = c.Error(err)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}

// RedirectOnError recovers errors meant for the user by redirecting to location with an error flash
// message. Unauthorized errors go to the login page instead. Any other error is left to the error
// handler middleware.
func RedirectOnError(c *gin.Context, location string, err error) {
	if !errdef.IsUserFacing(err) {
		_ = c.Error(err)
		return
	}

	if errdef.IsUnauthorized(err) {
		location = "/login"
	}
	RedirectWithFlash(c, location, session.FlashError, err.Error())
}
