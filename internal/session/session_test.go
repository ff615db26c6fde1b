package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(session.Middleware(config.Session{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Name:   "test_session",
		MaxAge: 3600,
	}))
	r.GET("/login/:username", func(c *gin.Context) {
		require.NoError(t, session.Login(c, c.Param("username")))
		c.Status(http.StatusNoContent)
	})
	r.GET("/logout", func(c *gin.Context) {
		require.NoError(t, session.Logout(c))
		c.Status(http.StatusNoContent)
	})
	r.GET("/whoami", func(c *gin.Context) {
		username, ok := session.Username(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, username)
	})
	r.GET("/flash", func(c *gin.Context) {
		require.NoError(t, session.Flash(c, session.FlashError, "Invalid username or password."))
		c.Status(http.StatusNoContent)
	})
	r.GET("/pop", func(c *gin.Context) {
		flashes, err := session.PopAll(c)
		require.NoError(t, err)
		c.String(http.StatusOK, flashes[session.FlashError])
	})

	t.Run("LoginAndLogout", func(t *testing.T) {
		w := do(t, r, "/login/alice", nil)
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)

		w = do(t, r, "/whoami", cookies)
		assert.Equal(t, "alice", w.Body.String())

		w = do(t, r, "/logout", cookies)
		cookies = w.Result().Cookies()

		w = do(t, r, "/whoami", cookies)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("FlashIsReadOnce", func(t *testing.T) {
		w := do(t, r, "/flash", nil)
		cookies := w.Result().Cookies()

		w = do(t, r, "/pop", cookies)
		assert.Equal(t, "Invalid username or password.", w.Body.String())
		cookies = w.Result().Cookies()

		w = do(t, r, "/pop", cookies)
		assert.Empty(t, w.Body.String())
	})

	t.Run("TamperedCookieIsIgnored", func(t *testing.T) {
		w := do(t, r, "/login/alice", nil)
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		cookies[0].Value = "x" + cookies[0].Value

		w = do(t, r, "/whoami", cookies)

		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func do(t *testing.T, r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
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
