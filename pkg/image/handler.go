package image

import (
	"context"
	"io"
	"net/http"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/gin-gonic/gin"
)

func NewHandler(imageService imageService) Handler {
	return Handler{imageService: imageService}
}

type Handler struct {
	imageService imageService
}

type imageService interface {
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Serve streams an uploaded image.
func (h Handler) Serve(c *gin.Context) {
	body, contentType, err := h.imageService.Open(c.Request.Context(), c.Param("filename"))
	if err != nil {
		if errdef.IsNotFound(err) || errdef.IsBadRequest(err) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.Error(err)
		return
	}
	defer body.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}
