package handler

import (
	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
)

// Render renders the named template. Every page gets the current user under "User" and the pending
// flash messages under "Flash", which pops them.
func Render(c *gin.Context, status int, name string, data gin.H) {
	flashes, err := session.PopAll(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if data == nil {
		data = gin.H{}
	}
	data["Flash"] = flashes
	if user, ok := model.GetUserFromContext(c.Request.Context()); ok {
		data["User"] = user
	}

	c.HTML(status, name, data)
}
