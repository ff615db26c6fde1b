package event

import (
	"context"
	"log/slog"
	"mime/multipart"
	"time"
	"unicode/utf8"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/pkg/image"
	"github.com/evently-app/evently/pkg/model"
	"github.com/evently-app/evently/pkg/sanitize"
)

const (
	DefaultPageSize = 5
	MaxPageSize     = 100
	FeaturedLimit   = 5
	// MaxPage keeps the row offset of a page well within the range of an int.
	MaxPage = 1_000_000

	untitled      = "Untitled"
	maxNameLength = 100
)

func NewService(logger *slog.Logger, repository eventRepository, imageService imageService) *Service {
	return &Service{
		logger:       logger,
		repository:   repository,
		imageService: imageService,
		now:          time.Now,
	}
}

type eventRepository interface {
	FindById(ctx context.Context, id uint) (*model.Event, error)
	FindByIdAndOwner(ctx context.Context, id uint, userId uint) (*model.Event, error)
	Save(ctx context.Context, event *model.Event) error
	DeleteCascade(ctx context.Context, event *model.Event) error
	FindPage(ctx context.Context, page int, size int) ([]*model.Event, int64, error)
	FindFeatured(ctx context.Context, limit int) ([]*model.Event, error)
}

type imageService interface {
	Validate(file *multipart.FileHeader) (*image.Upload, error)
	Store(ctx context.Context, upload *image.Upload, baseURL string) (string, error)
	Remove(ctx context.Context, imageURL string)
}

type Service struct {
	logger       *slog.Logger
	repository   eventRepository
	imageService imageService
	now          func() time.Time
}

// Input is an event as submitted by a user. Text fields are sanitized and Dates parsed by the
// service.
type Input struct {
	Name        string
	Description string
	Location    string
	Dates       []string
	IsFeatured  bool
	// Image is optional
	Image *multipart.FileHeader
	// BaseURL roots the public URL of a stored image
	BaseURL string
}

// fields is a validated Input.
type fields struct {
	name        string
	description string
	location    string
	dates       []time.Time
	isFeatured  bool
	upload      *image.Upload
}

func (s Service) validate(input Input) (*fields, error) {
	var upload *image.Upload
	if input.Image != nil {
		var err error
		upload, err = s.imageService.Validate(input.Image)
		if err != nil {
			return nil, err
		}
	}

	name := sanitize.Text(input.Name)
	if name == "" {
		name = untitled
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, errdef.NewValidation("Event name cannot be longer than %d characters.", maxNameLength)
	}

	if len(input.Dates) == 0 {
		return nil, errdef.NewBadRequest("At least one date is required.")
	}
	dates := make([]time.Time, len(input.Dates))
	for i, d := range input.Dates {
		date, err := model.ParseDate(d)
		if err != nil {
			return nil, errdef.NewBadRequest("Invalid date %q.", sanitize.Excerpt(d, sanitize.ExcerptLength))
		}
		dates[i] = date
	}

	now := s.now().UTC()
	for _, date := range dates {
		if date.Before(now) {
			return nil, errdef.NewValidation("Event dates cannot be in the past.")
		}
	}

	return &fields{
		name:        sanitize.CapitalizeFirst(name),
		description: sanitize.Text(input.Description),
		location:    sanitize.CapitalizeFirst(sanitize.Text(input.Location)),
		dates:       dates,
		isFeatured:  input.IsFeatured,
		upload:      upload,
	}, nil
}

// storeImage writes the upload, if any, and returns its URL. An empty URL means nothing was written.
func (s Service) storeImage(ctx context.Context, upload *image.Upload, baseURL string) (string, error) {
	if upload == nil {
		return "", nil
	}
	return s.imageService.Store(ctx, upload, baseURL)
}

// Create validates input and persists a new event owned by the user on ctx. The image is only
// written once everything else is valid and is removed again if the event cannot be saved.
func (s Service) Create(ctx context.Context, input Input) (*model.Event, error) {
	user, ok := model.GetUserFromContext(ctx)
	if !ok {
		return nil, errdef.NewUnauthorized("Please log in first.")
	}

	f, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, f.upload, input.BaseURL)
	if err != nil {
		return nil, err
	}

	event := &model.Event{
		Name:        f.name,
		Description: f.description,
		Location:    f.location,
		ImageURL:    imageURL,
		IsFeatured:  f.isFeatured,
		UserID:      user.ID,
	}
	event.SetDates(f.dates)

	if err := s.repository.Save(ctx, event); err != nil {
		if imageURL != "" {
			s.imageService.Remove(ctx, imageURL)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "Event created", "eventId", event.ID, "dates", len(event.Dates))
	return event, nil
}

// Update overwrites the event with the given id, which must be owned by the user on ctx. Its dates
// are replaced by the submitted ones. A replaced image is removed after the update is saved.
func (s Service) Update(ctx context.Context, id uint, input Input) (*model.Event, error) {
	event, err := s.FindOwned(ctx, id)
	if err != nil {
		if errdef.IsNotFound(err) {
			return nil, errdef.NewNotFound("Event not found.")
		}
		return nil, err
	}

	f, err := s.validate(input)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.storeImage(ctx, f.upload, input.BaseURL)
	if err != nil {
		return nil, err
	}

	previousImageURL := event.ImageURL
	event.Name = f.name
	event.Description = f.description
	event.Location = f.location
	event.IsFeatured = f.isFeatured
	if imageURL != "" {
		event.ImageURL = imageURL
	}
	event.SetDates(f.dates)

	if err := s.repository.Save(ctx, event); err != nil {
		if imageURL != "" {
			s.imageService.Remove(ctx, imageURL)
		}
		if errdef.IsNotFound(err) {
			return nil, errdef.NewNotFound("Event not found.")
		}
		return nil, err
	}

	if imageURL != "" && previousImageURL != "" {
		s.imageService.Remove(ctx, previousImageURL)
	}

	s.logger.InfoContext(ctx, "Event updated", "eventId", event.ID, "dates", len(event.Dates))
	return event, nil
}

// Delete removes the event with the given id, which must be owned by the user on ctx, along with its
// dates and image.
func (s Service) Delete(ctx context.Context, id uint) error {
	event, err := s.FindOwned(ctx, id)
	if err != nil {
		if errdef.IsNotFound(err) {
			return errdef.NewNotFound("Event not found or unauthorized.")
		}
		return err
	}

	if err := s.repository.DeleteCascade(ctx, event); err != nil {
		if errdef.IsNotFound(err) {
			return errdef.NewNotFound("Event not found or unauthorized.")
		}
		return err
	}

	if event.HasImage() {
		s.imageService.Remove(ctx, event.ImageURL)
	}

	s.logger.InfoContext(ctx, "Event deleted", "eventId", event.ID)
	return nil
}

func (s Service) FindById(ctx context.Context, id uint) (*model.Event, error) {
	return s.repository.FindById(ctx, id)
}

// FindOwned returns the event with the given id if it is owned by the user on ctx.
func (s Service) FindOwned(ctx context.Context, id uint) (*model.Event, error) {
	user, ok := model.GetUserFromContext(ctx)
	if !ok {
		return nil, errdef.NewUnauthorized("Please log in first.")
	}
	return s.repository.FindByIdAndOwner(ctx, id, user.ID)
}

// Page is one page of events, newest first.
type Page struct {
	Items   []*model.Event
	Page    int
	Size    int
	Total   int64
	Pages   int
	HasNext bool
	HasPrev bool
}

func (p Page) Next() int {
	return p.Page + 1
}

func (p Page) Prev() int {
	return p.Page - 1
}

// List returns the given page of events. A page below 1 is the first page. A size below 1 is the
// default size and sizes are capped at MaxPageSize.
func (s Service) List(ctx context.Context, page int, size int) (*Page, error) {
	page = max(min(page, MaxPage), 1)
	if size < 1 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)

	events, total, err := s.repository.FindPage(ctx, page, size)
	if err != nil {
		return nil, err
	}

	pages := int((total + int64(size) - 1) / int64(size))
	return &Page{
		Items:   events,
		Page:    page,
		Size:    size,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}, nil
}

// Featured returns the newest featured events.
func (s Service) Featured(ctx context.Context) ([]*model.Event, error) {
	return s.repository.FindFeatured(ctx, FeaturedLimit)
}
