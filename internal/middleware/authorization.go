package middleware

import (
	"net/http"

	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
)

// LoginPath is where anonymous users are sent when they hit a page requiring a user.
const LoginPath = "/login"

// RequireUser redirects to the login page unless [AuthenticationMiddleware.Authenticate] put a user
// on the request context.
func RequireUser(c *gin.Context) {
	if _, ok := model.GetUserFromContext(c.Request.Context()); ok {
		c.Next()
		return
	}

	if err := session.Flash(c, session.FlashError, "Please log in first."); err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.Redirect(http.StatusSeeOther, LoginPath)
	c.Abort()
}
