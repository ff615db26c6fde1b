package event

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/handler"
	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"github.com/skip2/go-qrcode"
)

const dashboardPath = "/dashboard"

func NewHandler(baseURL string, eventService eventService) Handler {
	return Handler{
		baseURL:      baseURL,
		eventService: eventService,
	}
}

type Handler struct {
	baseURL      string
	eventService eventService
}

type eventService interface {
	Create(ctx context.Context, input Input) (*model.Event, error)
	Update(ctx context.Context, id uint, input Input) (*model.Event, error)
	Delete(ctx context.Context, id uint) error
	FindById(ctx context.Context, id uint) (*model.Event, error)
	FindOwned(ctx context.Context, id uint) (*model.Event, error)
	List(ctx context.Context, page int, size int) (*Page, error)
	Featured(ctx context.Context) ([]*model.Event, error)
}

// Home lists a page of events along with the featured ones.
func (h Handler) Home(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := h.eventService.List(ctx, queryInt(c, "page"), DefaultPageSize)
	if err != nil {
		_ = c.Error(err)
		return
	}

	featured, err := h.eventService.Featured(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.Render(c, http.StatusOK, "index.html", gin.H{"Title": "Events", "Page": page, "Featured": featured})
}

// Detail shows a single event and how to share it.
func (h Handler) Detail(c *gin.Context) {
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.FindById(c.Request.Context(), id)
	if err != nil {
		if errdef.IsNotFound(err) {
			handler.Render(c, http.StatusNotFound, "404.html", gin.H{"Title": "Not found", "Message": "Event not found."})
			return
		}
		_ = c.Error(err)
		return
	}

	handler.Render(c, http.StatusOK, "event.html", gin.H{
		"Title":     event.Name,
		"Event":     event,
		"ShareText": event.ShareText(),
		"Hashtag":   hashtag(event.Name),
		"QRCodeURL": fmt.Sprintf("/event/%d/qrcode", event.ID),
	})
}

func hashtag(name string) string {
	s := strings.ReplaceAll(slug.Make(name), "-", "")
	if s == "" {
		return ""
	}
	return "#" + s
}

// QRCode returns a PNG encoding the absolute URL of the event page.
func (h Handler) QRCode(c *gin.Context) {
	id, ok := handler.GetPathParameter(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.FindById(c.Request.Context(), id)
	if err != nil {
		if errdef.IsNotFound(err) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.Error(err)
		return
	}

	url := fmt.Sprintf("%s/event/%d", handler.BaseURL(c, h.baseURL), event.ID)
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		_ = c.Error(fmt.Errorf("failed to encode QR code for event %d: %v", event.ID, err))
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

// Dashboard lists every event. Only events owned by the current user can be managed from it.
func (h Handler) Dashboard(c *gin.Context) {
	page, err := h.eventService.List(c.Request.Context(), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	handler.Render(c, http.StatusOK, "dashboard.html", gin.H{"Title": "Dashboard", "Page": page})
}

func (h Handler) NewPage(c *gin.Context) {
	handler.Render(c, http.StatusOK, "event_form.html", gin.H{"Title": "New event", "Action": "/events"})
}

type eventRequest struct {
	Name        string   `form:"name"`
	Description string   `form:"description"`
	Location    string   `form:"location"`
	Dates       []string `form:"dates" binding:"required,dive,omitempty,isodate"`
	IsFeatured  string   `form:"is_featured"`
}

// input binds the submitted form. Blank dates, like an unused date field, are dropped.
func (h Handler) input(c *gin.Context) (Input, error) {
	var request eventRequest
	if err := handler.FormBinder(c, &request); err != nil {
		return Input{}, err
	}

	dates := make([]string, 0, len(request.Dates))
	for _, d := range request.Dates {
		if strings.TrimSpace(d) != "" {
			dates = append(dates, d)
		}
	}

	file, err := c.FormFile("image")
	if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return Input{}, errdef.NewInvalidUpload("Invalid image upload.")
	}

	return Input{
		Name:        request.Name,
		Description: request.Description,
		Location:    request.Location,
		Dates:       dates,
		IsFeatured:  isChecked(request.IsFeatured),
		Image:       file,
		BaseURL:     handler.BaseURL(c, h.baseURL),
	}, nil
}

func isChecked(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

func (h Handler) Create(c *gin.Context) {
	input, err := h.input(c)
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), input)
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	message := fmt.Sprintf("Success! '%s' created with %d dates.", event.Name, len(event.Dates))
	handler.RedirectWithFlash(c, dashboardPath, session.FlashSuccess, message)
}

func (h Handler) EditPage(c *gin.Context) {
	id, err := handler.ParsePathParameter(c, "id")
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	event, err := h.eventService.FindOwned(c.Request.Context(), id)
	if err != nil {
		if errdef.IsNotFound(err) {
			err = errdef.NewNotFound("Event not found.")
		}
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	handler.Render(c, http.StatusOK, "event_form.html", gin.H{
		"Title":  "Edit event",
		"Action": fmt.Sprintf("/events/%d/edit", event.ID),
		"Event":  event,
	})
}

func (h Handler) Update(c *gin.Context) {
	id, err := handler.ParsePathParameter(c, "id")
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	input, err := h.input(c)
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	_, err = h.eventService.Update(c.Request.Context(), id, input)
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	handler.RedirectWithFlash(c, dashboardPath, session.FlashSuccess, "Event updated successfully!")
}

func (h Handler) Delete(c *gin.Context) {
	id, err := handler.ParsePathParameter(c, "id")
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	err = h.eventService.Delete(c.Request.Context(), id)
	if err != nil {
		handler.RedirectOnError(c, dashboardPath, err)
		return
	}

	handler.RedirectWithFlash(c, dashboardPath, session.FlashSuccess, "Event deleted successfully.")
}

// queryInt returns the named query parameter or 0 if it is missing or not a number.
func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}
