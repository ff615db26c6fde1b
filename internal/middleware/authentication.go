package middleware

import (
	"context"
	"log/slog"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
)

func NewAuthentication(logger *slog.Logger, userService userService) AuthenticationMiddleware {
	return AuthenticationMiddleware{
		logger:      logger,
		userService: userService,
	}
}

type userService interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

type AuthenticationMiddleware struct {
	logger      *slog.Logger
	userService userService
}

// Authenticate resolves the session to a user and puts it on the request context. Requests without
// a session carry on anonymously. Public pages rely on this to show who is logged in.
func (m AuthenticationMiddleware) Authenticate(c *gin.Context) {
	username, ok := session.Username(c)
	if !ok {
		c.Next()
		return
	}

	ctx := c.Request.Context()
	user, err := m.userService.FindByUsername(ctx, username)
	if err != nil {
		if errdef.IsNotFound(err) {
			m.logger.WarnContext(ctx, "Session refers to unknown user", "username", username)
			if err := session.Logout(c); err != nil {
				_ = c.Error(err)
				c.Abort()
				return
			}
			c.Next()
			return
		}
		_ = c.Error(err)
		c.Abort()
		return
	}

	c.Request = c.Request.WithContext(model.NewContextWithUser(ctx, user))
	c.Next()
}
