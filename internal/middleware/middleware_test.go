package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/middleware"
	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/config"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := map[string]struct {
		err        error
		wantStatus int
		wantBody   string
	}{
		"BadRequest":    {err: errdef.NewBadRequest("bad"), wantStatus: http.StatusBadRequest, wantBody: "bad"},
		"Validation":    {err: errdef.NewValidation("past"), wantStatus: http.StatusBadRequest, wantBody: "past"},
		"InvalidUpload": {err: errdef.NewInvalidUpload("too large"), wantStatus: http.StatusBadRequest, wantBody: "too large"},
		"NotFound":      {err: errdef.NewNotFound("gone"), wantStatus: http.StatusNotFound, wantBody: "gone"},
		"Unauthorized":  {err: errdef.NewUnauthorized("who"), wantStatus: http.StatusUnauthorized, wantBody: "who"},
		"Forbidden":     {err: errdef.NewForbidden("no"), wantStatus: http.StatusForbidden, wantBody: "no"},
		"Duplicated":    {err: errdef.NewDuplicated("twice"), wantStatus: http.StatusConflict, wantBody: "twice"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(middleware.ErrorHandler())
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := get(t, r, "/", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}

	t.Run("UnknownErrorHidesDetails", func(t *testing.T) {
		r := gin.New()
		r.Use(middleware.CorrelationID(), middleware.ErrorHandler())
		r.GET("/", func(c *gin.Context) { _ = c.Error(errors.New("pq: connection refused")) })

		w := get(t, r, "/", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
		assert.Contains(t, w.Body.String(), w.Header().Get("X-Correlation-ID"))
	})

	t.Run("AbortedWithStatusHidesInternalError", func(t *testing.T) {
		r := gin.New()
		r.Use(middleware.ErrorHandler())
		r.GET("/", func(c *gin.Context) {
			_ = c.AbortWithError(http.StatusBadRequest, errors.New(`error parsing "id": strconv.ParseUint: parsing "abc": invalid syntax`))
		})

		w := get(t, r, "/", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Bad Request", w.Body.String())
	})

	t.Run("AbortedWithStatusKeepsDomainMessage", func(t *testing.T) {
		r := gin.New()
		r.Use(middleware.ErrorHandler())
		r.GET("/", func(c *gin.Context) {
			_ = c.AbortWithError(http.StatusBadRequest, errdef.NewBadRequest("Invalid id in the address."))
		})

		w := get(t, r, "/", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid id in the address.", w.Body.String())
	})
}

func TestAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	alice := &model.User{ID: 1, Username: "alice"}
	userService := &mockUserService{}
	userService.On("FindByUsername", mock.Anything, "alice").Return(alice, nil)
	userService.On("FindByUsername", mock.Anything, "ghost").Return(nil, errdef.NewNotFound("user %q not found", "ghost"))
	userService.On("FindByUsername", mock.Anything, "broken").Return(nil, errors.New("database down"))
	authentication := middleware.NewAuthentication(slog.Default(), userService)

	r := gin.New()
	r.Use(session.Middleware(config.Session{Secret: []byte("0123456789abcdef0123456789abcdef"), Name: "test", MaxAge: 60}))
	r.Use(middleware.ErrorHandler())
	r.GET("/login/:username", func(c *gin.Context) {
		require.NoError(t, session.Login(c, c.Param("username")))
	})
	r.GET("/login", func(c *gin.Context) {
		flashes, err := session.PopAll(c)
		require.NoError(t, err)
		c.String(http.StatusOK, flashes[session.FlashError])
	})
	authenticated := r.Group("", authentication.Authenticate)
	authenticated.GET("/whoami", func(c *gin.Context) {
		user, ok := model.GetUserFromContext(c.Request.Context())
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.Username)
	})
	authenticated.GET("/dashboard", middleware.RequireUser, func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})

	t.Run("Anonymous", func(t *testing.T) {
		w := get(t, r, "/whoami", nil)

		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("LoggedIn", func(t *testing.T) {
		cookies := get(t, r, "/login/alice", nil).Result().Cookies()

		w := get(t, r, "/whoami", cookies)
		assert.Equal(t, "alice", w.Body.String())

		w = get(t, r, "/dashboard", cookies)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "dashboard", w.Body.String())
	})

	t.Run("UnknownUserIsLoggedOut", func(t *testing.T) {
		cookies := get(t, r, "/login/ghost", nil).Result().Cookies()

		w := get(t, r, "/whoami", cookies)

		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("LookupFailure", func(t *testing.T) {
		cookies := get(t, r, "/login/broken", nil).Result().Cookies()

		w := get(t, r, "/whoami", cookies)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("RequireUserRedirectsToLogin", func(t *testing.T) {
		w := get(t, r, "/dashboard", nil)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		w = get(t, r, "/login", w.Result().Cookies())
		assert.Equal(t, "Please log in first.", w.Body.String())
	})

	userService.AssertExpectations(t)
}

func get(t *testing.T, r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	called := m.Called(ctx, username)
	user, _ := called.Get(0).(*model.User)
	return user, called.Error(1)
}
