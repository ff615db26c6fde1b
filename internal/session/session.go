// Package session keeps the logged-in username and one-time flash messages in a signed cookie.
package session

import (
	"net/http"

	"github.com/evently-app/evently/pkg/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const (
	FlashError   = "error"
	FlashSuccess = "success"

	userKey = "user"
)

// Middleware loads the session from the cookie described by c.
func Middleware(c config.Session) gin.HandlerFunc {
	store := cookie.NewStore(c.Secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   c.MaxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(c.Name, store)
}

// Login replaces whatever the session held with username.
func Login(c *gin.Context, username string) error {
	s := sessions.Default(c)
	s.Clear()
	s.Set(userKey, username)
	return s.Save()
}

// Logout empties the session.
func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}

// Username returns the username of the logged-in user, if any.
func Username(c *gin.Context) (string, bool) {
	username, ok := sessions.Default(c).Get(userKey).(string)
	return username, ok && username != ""
}

// Flash stores message under key until it is popped.
func Flash(c *gin.Context, key string, message string) error {
	s := sessions.Default(c)
	s.Set(key, message)
	return s.Save()
}

// Pop returns the flash message stored under key and removes it.
func Pop(c *gin.Context, key string) (string, error) {
	s := sessions.Default(c)
	message, ok := s.Get(key).(string)
	if !ok {
		return "", nil
	}
	s.Delete(key)
	return message, s.Save()
}

// PopAll pops both the error and the success flash message.
func PopAll(c *gin.Context) (map[string]string, error) {
	flashes := make(map[string]string, 2)
	for _, key := range []string{FlashError, FlashSuccess} {
		message, err := Pop(c, key)
		if err != nil {
			return nil, err
		}
		if message != "" {
			flashes[key] = message
		}
	}
	return flashes, nil
}
