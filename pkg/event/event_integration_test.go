package event_test

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/middleware"
	"github.com/evently-app/evently/pkg/event"
	"github.com/evently-app/evently/pkg/image"
	"github.com/evently-app/evently/pkg/inttest"
	"github.com/evently-app/evently/pkg/model"
	"github.com/evently-app/evently/pkg/storage"
	"github.com/evently-app/evently/pkg/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var png = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestEventHandler(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)
	uploadDir := t.TempDir()
	store, err := storage.NewFileSystem(uploadDir)
	require.NoError(t, err)
	client := setupServer(t, db, store)

	alice := client.NewSession(t)
	signUp(t, alice, "alice")
	bob := client.NewSession(t)
	signUp(t, bob, "bob")

	var eventID uint
	{
		t.Log("CreateEvent")

		location := alice.PostForm(t, "/events", url.Values{
			"name":     {"<b>summer party</b>"},
			"location": {"oslo"},
			"dates":    {"2099-01-05", "2099-01-01"},
		})

		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Success! 'Summer party' created with 2 dates.", flash(t, alice, "/dashboard"))

		var e model.Event
		require.NoError(t, db.Preload("Dates").Where("name = ?", "Summer party").First(&e).Error)
		eventID = e.ID
		assert.Equal(t, "Oslo", e.Location)
		assert.Equal(t, time.Date(2099, time.January, 1, 0, 0, 0, 0, time.UTC), e.Date.UTC())
		require.Len(t, e.Dates, 2)
	}

	t.Run("PastDatesAreRejected", func(t *testing.T) {
		location := alice.PostForm(t, "/events", url.Values{"name": {"nostalgia"}, "dates": {"2000-01-01"}})

		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Event dates cannot be in the past.", flash(t, alice, "/dashboard"))
		var count int64
		require.NoError(t, db.Model(&model.Event{}).Where("name = ?", "Nostalgia").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("UnsupportedImageIsRejected", func(t *testing.T) {
		location := alice.PostMultipart(t, "/events", url.Values{"name": {"gif party"}, "dates": {"2099-01-01"}}, "image", "party.gif", []byte("GIF89a"))

		require.Equal(t, "/dashboard", location)
		assert.Contains(t, flash(t, alice, "/dashboard"), "Unsupported image type")
		entries, err := os.ReadDir(uploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Detail", func(t *testing.T) {
		body := string(client.Get(t, fmt.Sprintf("/event/%d", eventID)))

		assert.Contains(t, body, "I will attend to Summer party @ 2099-01-01")
		assert.Contains(t, body, "Hosted by alice")

		qr := client.Do(t, http.MethodGet, fmt.Sprintf("/event/%d/qrcode", eventID), nil, http.StatusOK)
		assert.True(t, strings.HasPrefix(string(qr), "\x89PNG"))

		client.Do(t, http.MethodGet, "/event/999999", nil, http.StatusNotFound)
	})

	t.Run("OtherUsersCannotEditOrDelete", func(t *testing.T) {
		location := bob.PostForm(t, fmt.Sprintf("/events/%d/edit", eventID), url.Values{"name": {"hijacked"}, "dates": {"2099-03-01"}})
		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Event not found.", flash(t, bob, "/dashboard"))

		location = bob.PostForm(t, fmt.Sprintf("/events/%d/delete", eventID), url.Values{})
		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Event not found or unauthorized.", flash(t, bob, "/dashboard"))

		var e model.Event
		require.NoError(t, db.First(&e, eventID).Error)
		assert.Equal(t, "Summer party", e.Name)

		body := string(bob.Get(t, "/dashboard"))
		assert.Contains(t, body, "Summer party")
		assert.NotContains(t, body, fmt.Sprintf("/events/%d/edit", eventID))
	})

	t.Run("EditReplacesDatesAndImage", func(t *testing.T) {
		path := fmt.Sprintf("/events/%d/edit", eventID)
		form := url.Values{"name": {"summer party"}, "location": {"oslo"}, "dates": {"2099-06-01T18:00"}}

		location := alice.PostMultipart(t, path, form, "image", "first.png", png)
		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Event updated successfully!", flash(t, alice, "/dashboard"))
		first := imageKey(t, db, eventID)
		assert.FileExists(t, filepath.Join(uploadDir, first))
		served := client.Get(t, image.PathPrefix+first)
		assert.Equal(t, png, served)

		location = alice.PostMultipart(t, path, form, "image", "second.png", png)
		require.Equal(t, "/dashboard", location)
		second := imageKey(t, db, eventID)
		assert.NotEqual(t, first, second)
		assert.NoFileExists(t, filepath.Join(uploadDir, first))
		assert.FileExists(t, filepath.Join(uploadDir, second))

		var e model.Event
		require.NoError(t, db.Preload("Dates").First(&e, eventID).Error)
		require.Len(t, e.Dates, 1)
		assert.Equal(t, time.Date(2099, time.June, 1, 18, 0, 0, 0, time.UTC), e.Dates[0].Date.UTC())
		assert.Equal(t, e.Dates[0].Date.UTC(), e.Date.UTC())
	})

	t.Run("Delete", func(t *testing.T) {
		key := imageKey(t, db, eventID)
		path := fmt.Sprintf("/events/%d/delete", eventID)

		location := alice.PostForm(t, path, url.Values{})
		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Event deleted successfully.", flash(t, alice, "/dashboard"))

		var count int64
		require.NoError(t, db.Model(&model.EventDate{}).Where("event_id = ?", eventID).Count(&count).Error)
		assert.Zero(t, count)
		assert.NoFileExists(t, filepath.Join(uploadDir, key))

		location = alice.PostForm(t, path, url.Values{})
		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "Event not found or unauthorized.", flash(t, alice, "/dashboard"))
	})
}

func TestEventHandler_S3(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)
	s3Dir := t.TempDir()
	s3Bucket := "evently-images"
	err := os.Mkdir(filepath.Join(s3Dir, s3Bucket), 0o755)
	require.NoError(t, err, "failed to create S3 bucket")
	s3 := inttest.SetupS3(t, s3Dir)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s3Client := storage.NewS3Client(logger, s3.Client, manager.NewUploader(s3.Client))
	client := setupServer(t, db, storage.NewS3Store(s3Client, s3Bucket))

	alice := client.NewSession(t)
	signUp(t, alice, "alice")

	location := alice.PostMultipart(t, "/events", url.Values{"name": {"cloud party"}, "dates": {"2099-01-01"}}, "image", "cloud.png", png)
	require.Equal(t, "/dashboard", location)

	var e model.Event
	require.NoError(t, db.Where("name = ?", "Cloud party").First(&e).Error)
	key, ok := image.KeyFromURL(e.ImageURL)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, png, s3.GetObject(t, s3Bucket, key))
	assert.Equal(t, png, client.Get(t, image.PathPrefix+key))

	location = alice.PostForm(t, fmt.Sprintf("/events/%d/delete", e.ID), url.Values{})
	require.Equal(t, "/dashboard", location)
	assert.False(t, s3.ObjectExists(t, s3Bucket, key))
}

func TestRepository(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)
	ctx := context.Background()
	alice := &model.User{Username: "alice", Password: "hash"}
	require.NoError(t, user.NewRepository(db).Create(ctx, alice))
	repository := event.NewRepository(db)

	events := make([]*model.Event, 7)
	for i := range events {
		e := &model.Event{Name: fmt.Sprintf("Event %d", i), UserID: alice.ID, IsFeatured: i%2 == 0}
		e.SetDates([]time.Time{time.Date(2099, time.January, i+1, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, repository.Save(ctx, e))
		events[i] = e
	}

	t.Run("FindPage", func(t *testing.T) {
		page, total, err := repository.FindPage(ctx, 2, 5)

		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		require.Len(t, page, 2)
		assert.Equal(t, events[1].ID, page[0].ID)
		assert.Equal(t, events[0].ID, page[1].ID)
	})

	t.Run("FindFeatured", func(t *testing.T) {
		featured, err := repository.FindFeatured(ctx, 3)

		require.NoError(t, err)
		require.Len(t, featured, 3)
		assert.Equal(t, events[6].ID, featured[0].ID)
		assert.Equal(t, events[4].ID, featured[1].ID)
		assert.Equal(t, events[2].ID, featured[2].ID)
	})

	t.Run("FindByIdAndOwner", func(t *testing.T) {
		e, err := repository.FindByIdAndOwner(ctx, events[0].ID, alice.ID)
		require.NoError(t, err)
		assert.Len(t, e.Dates, 1)

		_, err = repository.FindByIdAndOwner(ctx, events[0].ID, alice.ID+1)
		assert.True(t, errdef.IsNotFound(err))
	})

	t.Run("SaveReplacesDates", func(t *testing.T) {
		e, err := repository.FindById(ctx, events[3].ID)
		require.NoError(t, err)
		e.SetDates([]time.Time{
			time.Date(2099, time.May, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2099, time.May, 1, 0, 0, 0, 0, time.UTC),
		})

		require.NoError(t, repository.Save(ctx, e))

		saved, err := repository.FindById(ctx, e.ID)
		require.NoError(t, err)
		require.Len(t, saved.Dates, 2)
		assert.Equal(t, time.Date(2099, time.May, 1, 0, 0, 0, 0, time.UTC), saved.Date.UTC())
		assert.Equal(t, "alice", saved.User.Username)
	})

	t.Run("SaveMissing", func(t *testing.T) {
		e := &model.Event{ID: 999999, Name: "Ghost", UserID: alice.ID}
		e.SetDates([]time.Time{time.Date(2099, time.May, 1, 0, 0, 0, 0, time.UTC)})

		err := repository.Save(ctx, e)

		assert.True(t, errdef.IsNotFound(err))
	})

	t.Run("DeleteCascade", func(t *testing.T) {
		require.NoError(t, repository.DeleteCascade(ctx, events[5]))

		_, err := repository.FindById(ctx, events[5].ID)
		assert.True(t, errdef.IsNotFound(err))
		var count int64
		require.NoError(t, db.Model(&model.EventDate{}).Where("event_id = ?", events[5].ID).Count(&count).Error)
		assert.Zero(t, count)

		err = repository.DeleteCascade(ctx, events[5])
		assert.True(t, errdef.IsNotFound(err))
	})
}

func setupServer(t *testing.T, db *gorm.DB, store storage.Store) *inttest.HTTPClient {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userService := user.NewService(user.NewRepository(db))
	imageService := image.NewService(logger, store, 10<<20)
	eventService := event.NewService(logger, event.NewRepository(db), imageService)
	authentication := middleware.NewAuthentication(logger, userService)

	return inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		user.Routes(engine, user.NewHandler(userService))
		image.Routes(engine, image.NewHandler(imageService))
		event.Routes(engine, middleware.RequireUser, event.NewHandler("", eventService))
	}, authentication.Authenticate)
}

func signUp(t *testing.T, client *inttest.HTTPClient, username string) {
	t.Helper()

	credentials := url.Values{"username": {username}, "password": {"secret"}}
	require.Equal(t, "/login", client.PostForm(t, "/register", credentials))
	require.Equal(t, "/dashboard", client.PostForm(t, "/login", credentials))
}

var flashPattern = regexp.MustCompile(`<p class="flash flash-\w+">(.*?)</p>`)

// flash returns the first flash message shown on the page at path.
func flash(t *testing.T, client *inttest.HTTPClient, path string) string {
	t.Helper()

	match := flashPattern.FindSubmatch(client.Get(t, path))
	if match == nil {
		return ""
	}
	return html.UnescapeString(string(match[1]))
}

func imageKey(t *testing.T, db *gorm.DB, eventID uint) string {
	t.Helper()

	var e model.Event
	require.NoError(t, db.First(&e, eventID).Error)
	key, ok := image.KeyFromURL(e.ImageURL)
	require.True(t, ok, "event %d has no uploaded image: %q", eventID, e.ImageURL)
	return key
}
