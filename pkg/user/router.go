package user

import (
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.Engine, handler Handler) {
	r.GET("/register", handler.RegisterPage)
	r.POST("/register", handler.Register)
	r.GET("/login", handler.LoginPage)
	r.POST("/login", handler.Login)
	r.GET("/logout", handler.Logout)
}
