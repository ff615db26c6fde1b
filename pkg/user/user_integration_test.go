package user_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/middleware"
	"github.com/evently-app/evently/pkg/inttest"
	"github.com/evently-app/evently/pkg/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler(t *testing.T) {
	t.Parallel()

	db := inttest.SetupDB(t)
	userRepository := user.NewRepository(db)
	userService := user.NewService(userRepository)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authentication := middleware.NewAuthentication(logger, userService)

	client := inttest.SetupHTTPServer(t, func(engine *gin.Engine) {
		user.Routes(engine, user.NewHandler(userService))
		engine.GET("/dashboard", middleware.RequireUser, func(c *gin.Context) {
			c.String(http.StatusOK, "dashboard")
		})
	}, authentication.Authenticate)

	t.Run("RegisterAndLogin", func(t *testing.T) {
		location := client.PostForm(t, "/register", url.Values{"username": {"alice"}, "password": {"secret"}})
		require.Equal(t, "/login", location)
		body := client.Get(t, "/login")
		assert.Contains(t, string(body), "Account created. Please log in.")

		stored, err := userRepository.FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.NotEqual(t, "secret", stored.Password)

		location = client.PostForm(t, "/login", url.Values{"username": {"alice"}, "password": {"secret"}})
		require.Equal(t, "/dashboard", location)
		assert.Equal(t, "dashboard", string(client.Get(t, "/dashboard")))

		location = client.GetRedirect(t, "/logout")
		require.Equal(t, "/", location)
		assert.Equal(t, "/login", client.GetRedirect(t, "/dashboard"))
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		anonymous := client.NewSession(t)
		anonymous.PostForm(t, "/register", url.Values{"username": {"bob"}, "password": {"secret"}})

		body := anonymous.Do(t, http.MethodPost, "/register", strings.NewReader("username=bob&password=other"), http.StatusBadRequest,
			inttest.WithHeader("Content-Type", "application/x-www-form-urlencoded"))

		assert.Contains(t, string(body), "Username already exists")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		anonymous := client.NewSession(t)

		location := anonymous.PostForm(t, "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})

		require.Equal(t, "/login", location)
		assert.Contains(t, string(anonymous.Get(t, "/login")), "Invalid username or password.")
		assert.Equal(t, "/login", anonymous.GetRedirect(t, "/dashboard"))
	})

	t.Run("UnknownUsername", func(t *testing.T) {
		_, err := userService.FindByUsername(context.Background(), "nobody")

		assert.True(t, errdef.IsNotFound(err))
	})
}
