package image

import "github.com/gin-gonic/gin"

// Routes serves uploaded images. Middleware, like CORS, applies to uploads only.
func Routes(r *gin.Engine, handler Handler, middleware ...gin.HandlerFunc) {
	uploads := r.Group(PathPrefix)
	uploads.Use(middleware...)
	uploads.GET("/:filename", handler.Serve)
	uploads.HEAD("/:filename", handler.Serve)
}
