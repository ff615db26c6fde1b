package user

import (
	"context"
	"net/http"

	"github.com/evently-app/evently/internal/errdef"
	"github.com/evently-app/evently/internal/handler"
	"github.com/evently-app/evently/internal/session"
	"github.com/evently-app/evently/pkg/model"
	"github.com/gin-gonic/gin"
)

func NewHandler(userService userService) Handler {
	return Handler{userService}
}

type Handler struct {
	userService userService
}

type userService interface {
	SignUp(ctx context.Context, username string, password string) (*model.User, error)
	SignIn(ctx context.Context, username string, password string) (*model.User, error)
}

type credentialsRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

func (h Handler) RegisterPage(c *gin.Context) {
	handler.Render(c, http.StatusOK, "register.html", gin.H{"Title": "Register", "Username": "", "Error": ""})
}

// Register creates an account and sends the user to the login page. Failures re-render the form.
func (h Handler) Register(c *gin.Context) {
	var request credentialsRequest
	if err := handler.FormBinder(c, &request); err != nil {
		h.registerFailed(c, request.Username, err)
		return
	}

	_, err := h.userService.SignUp(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		h.registerFailed(c, request.Username, err)
		return
	}

	handler.RedirectWithFlash(c, "/login", session.FlashSuccess, "Account created. Please log in.")
}

func (h Handler) registerFailed(c *gin.Context, username string, err error) {
	if !errdef.IsUserFacing(err) {
		_ = c.Error(err)
		return
	}
	handler.Render(c, http.StatusBadRequest, "register.html", gin.H{"Title": "Register", "Username": username, "Error": err.Error()})
}

func (h Handler) LoginPage(c *gin.Context) {
	handler.Render(c, http.StatusOK, "login.html", gin.H{"Title": "Log in", "Username": ""})
}

// Login stores the username in the session on success. Any credential problem results in the same
// flash message.
func (h Handler) Login(c *gin.Context) {
	var request credentialsRequest
	if err := handler.FormBinder(c, &request); err != nil {
		handler.RedirectWithFlash(c, "/login", session.FlashError, "Invalid username or password.")
		return
	}

	user, err := h.userService.SignIn(c.Request.Context(), request.Username, request.Password)
	if err != nil {
		handler.RedirectOnError(c, "/login", err)
		return
	}

	if err := session.Login(c, user.Username); err != nil {
		_ = c.Error(err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/dashboard")
}

func (h Handler) Logout(c *gin.Context) {
	if err := session.Logout(c); err != nil {
		_ = c.Error(err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}
