package handler

import (
	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
)

// GetUserFromContext returns the user put on the request context by the authentication middleware.
func GetUserFromContext(c *gin.Context) (*model.User, error) {
	user, ok := model.GetUserFromContext(c.Request.Context())
	if !ok {
		return nil, errdef.NewUnauthorized("user not found on context")
	}
	return user, nil
}
