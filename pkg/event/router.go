package event

import (
	"github.com/gin-gonic/gin"
)

func Routes(r *gin.Engine, requireUser gin.HandlerFunc, handler Handler) {
	r.GET("/", handler.Home)
	r.GET("/events", handler.Home)
	r.GET("/event/:id", handler.Detail)
	r.GET("/event/:id/qrcode", handler.QRCode)

	userRouter := r.Group("")
	userRouter.Use(requireUser)
	userRouter.GET("/dashboard", handler.Dashboard)
	userRouter.GET("/events/new", handler.NewPage)
	userRouter.POST("/events", handler.Create)
	userRouter.GET("/events/:id/edit", handler.EditPage)
	userRouter.POST("/events/:id/edit", handler.Update)
	userRouter.POST("/events/:id/delete", handler.Delete)
}
